package frontend_domain

import "github.com/degixdaw/filebrowser/shared/domain"

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error     string
	Success   string
	CSRFToken string // CSRF token for form submissions
	SignedIn  bool
	Email     string // signed-in user, or the remembered one for the login form
	Remember  bool   // credentials are saved on this machine
}

// FileView is one row of the listing as the page and the JSON API render it.
type FileView struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MimeType    string `json:"mime_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	IsImage     bool   `json:"is_image"`
	Synthetic   bool   `json:"synthetic,omitempty"`
}

// FilterTab is one entry of the filter bar.
type FilterTab struct {
	Name   string
	Label  string
	Active bool
}

// IndexPage is the data behind the single page of the UI.
type IndexPage struct {
	Filters  []FilterTab
	Filter   string
	Files    []FileView
	Selected int // -1 when nothing is selected
	Preview  *PreviewInfo
}

// PreviewInfo describes the image currently held by the preview cache.
type PreviewInfo struct {
	Index  int    `json:"index"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

func NewPreviewInfo(img *domain.DecodedImage, index int) *PreviewInfo {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	return &PreviewInfo{Index: index, Format: img.Format, Width: b.Dx(), Height: b.Dy(), Bytes: img.Bytes}
}
