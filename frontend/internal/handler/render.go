package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	frontend_domain "github.com/degixdaw/filebrowser/frontend/internal/domain"
	"github.com/degixdaw/filebrowser/frontend/internal/middleware"
	"github.com/degixdaw/filebrowser/shared/domain"
	"github.com/degixdaw/filebrowser/shared/logger"
)

const (
	baseTemplate = "base.html"
	tmplDir      = "templates"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common frontend_domain.CommonTemplateData
}

// ParseTemplates builds one template set per page, each joined with the base layout.
func ParseTemplates() (map[string]*template.Template, error) {
	entries, err := fs.ReadDir(templateFS, tmplDir)
	if err != nil {
		return nil, err
	}
	templates := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if path.Ext(name) != ".html" || name == baseTemplate {
			continue
		}
		t, err := template.New(baseTemplate).ParseFS(templateFS, path.Join(tmplDir, baseTemplate), path.Join(tmplDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) frontend_domain.CommonTemplateData {
	common := frontend_domain.CommonTemplateData{
		Error:     middleware.PopFlash(w, r, middleware.FlashError),
		Success:   middleware.PopFlash(w, r, middleware.FlashSuccess),
		CSRFToken: middleware.CSRFToken(r),
		SignedIn:  h.Session.SignedIn(),
		Email:     h.Session.Email(),
	}
	if h.Creds != nil && h.Creds.HasSaved() {
		common.Remember = true
		if common.Email == "" {
			if email, _, err := h.Creds.Load(); err == nil {
				common.Email = email
			}
		}
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any, status int, errMsg string) {
	tmpl, ok := h.Templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(w, r)
	if errMsg != "" {
		common.Error = errMsg
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// plainText strips markup from names that come from other users' uploads.
func (h *Handler) plainText(s string) string {
	return html.UnescapeString(h.sanitizer.Sanitize(s))
}

func (h *Handler) fileViews(files []domain.FileRecord) []frontend_domain.FileView {
	views := make([]frontend_domain.FileView, len(files))
	for i, f := range files {
		views[i] = frontend_domain.FileView{
			Index:       i,
			Name:        h.plainText(f.FileName),
			DisplayName: h.plainText(f.DisplayName()),
			MimeType:    f.MimeType,
			SizeBytes:   f.SizeBytes,
			CreatedAt:   f.CreatedAt,
			IsImage:     f.IsImage(),
			Synthetic:   f.Synthetic,
		}
	}
	return views
}

var filterLabels = map[domain.FilterCategory]string{
	domain.FilterAll:          "All",
	domain.FilterReceivedOnly: "Received",
	domain.FilterImages:       "Images",
	domain.FilterAudio:        "Audio",
	domain.FilterMidi:         "MIDI",
	domain.FilterVideo:        "Video",
}

func filterTabs(active domain.FilterCategory) []frontend_domain.FilterTab {
	tabs := make([]frontend_domain.FilterTab, 0, len(domain.Filters))
	for _, f := range domain.Filters {
		tabs = append(tabs, frontend_domain.FilterTab{Name: f.String(), Label: filterLabels[f], Active: f == active})
	}
	return tabs
}
