package domain

import (
	"fmt"
	"image"
	"strings"
)

const (
	KB  = 1024
	MiB = KB * KB
)

// UnknownMimeType is used when the catalog row carries no file_type.
const UnknownMimeType = "unknown"

// FileRecord is one remote attachment as listed by the catalog.
// FileName and StoragePath are never empty for a parsed record.
type FileRecord struct {
	ID            string
	MessageID     string
	SenderID      string
	FileName      string
	MimeType      string
	StoragePath   string // locator for signing; never displayed
	ThumbnailPath string
	SizeBytes     int64 // 0 when unknown
	CreatedAt     string

	// Synthetic marks the placeholder entry the preview cache shows in place of
	// a listing that failed; FileName then holds the error text.
	Synthetic bool
}

// DisplayName is the file name with a "(x.xx MB)" suffix when the size is known.
func (f FileRecord) DisplayName() string {
	if f.SizeBytes > 0 {
		return fmt.Sprintf("%s (%.2f MB)", f.FileName, float64(f.SizeBytes)/MiB)
	}
	return f.FileName
}

func (f FileRecord) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// ErrorRecord builds the synthetic entry shown when a listing fails.
func ErrorRecord(err error) FileRecord {
	return FileRecord{FileName: err.Error(), Synthetic: true}
}

// DecodedImage is an in-memory bitmap produced from a fetched payload.
type DecodedImage struct {
	Image  image.Image
	Format string // codec name reported by the decoder, e.g. "png"
	Bytes  int    // size of the encoded payload
}

func (d *DecodedImage) Bounds() image.Rectangle {
	if d == nil || d.Image == nil {
		return image.Rectangle{}
	}
	return d.Image.Bounds()
}
