package config

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	defaultListenAddr      = "127.0.0.1:8765"
	defaultBucket          = "chat-attachments"
	defaultAttachments     = "/rest/v1/message_attachments"
	defaultAttachmentsJoin = "messages!inner(sender_id)"
	defaultStoragePrefix   = "/storage/v1"
	defaultCredentialsFile = ".filebrowser/credentials.bin"
	defaultLogLevel        = "info"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Supabase        Supabase `yaml:"supabase" validate:"required"`
	ListenAddr      string   `yaml:"listen_addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	CredentialsPath string   `yaml:"credentials_path"`
	Log             Log      `yaml:"log"`
}

type Supabase struct {
	BaseURL             string `yaml:"base_url" validate:"required,url"`
	Bucket              string `yaml:"bucket"`
	AttachmentsResource string `yaml:"attachments_resource"`
	AttachmentsJoin     string `yaml:"attachments_join"`
	StoragePrefix       string `yaml:"storage_prefix"`
}

type Log struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"` // empty disables the rolling file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Private struct {
	AnonKey string `yaml:"anon_key" validate:"required"`
	// CredentialsKey replaces the machine-derived key for the saved credentials file.
	CredentialsKey string `yaml:"credentials_key" validate:"omitempty,base64"`
}

func (s *Config) AnonKey() string {
	return s.private.AnonKey
}

func (s *Config) CredentialsKey() string {
	return s.private.CredentialsKey
}

// StorageHost is the host[:port] of the backend, used to absolutize relative signed URLs.
func (s *Config) StorageHost() string {
	u, err := url.Parse(s.Public.Supabase.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (p *Public) applyDefaults() {
	if p.ListenAddr == "" {
		p.ListenAddr = defaultListenAddr
	}
	if p.Supabase.Bucket == "" {
		p.Supabase.Bucket = defaultBucket
	}
	if p.Supabase.AttachmentsResource == "" {
		p.Supabase.AttachmentsResource = defaultAttachments
	}
	if p.Supabase.AttachmentsJoin == "" {
		p.Supabase.AttachmentsJoin = defaultAttachmentsJoin
	}
	if p.Supabase.StoragePrefix == "" {
		p.Supabase.StoragePrefix = defaultStoragePrefix
	}
	if p.CredentialsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		p.CredentialsPath = filepath.Join(home, defaultCredentialsFile)
	}
	if p.Log.Level == "" {
		p.Log.Level = defaultLogLevel
	}
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file: " + configPath)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(output); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.applyDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}

// New builds a Config without files; used by tests and tools.
func New(public Public, private Private) *Config {
	public.applyDefaults()
	return &Config{public, private}
}
