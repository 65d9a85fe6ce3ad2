package handler

import (
	"errors"
	"net/http"
	"strconv"

	frontend_domain "github.com/degixdaw/filebrowser/frontend/internal/domain"
	"github.com/degixdaw/filebrowser/frontend/internal/preview"
	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

// IndexGetHandler renders the listing for ?filter= (the cache's current filter
// when absent) and, with ?select=, loads that row's preview.
func (h *Handler) IndexGetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := h.Cache.Filter()
	if name := r.URL.Query().Get("filter"); name != "" {
		f, err := domain.ParseFilter(name)
		if err != nil {
			h.renderIndex(w, r, filter, http.StatusBadRequest, err.Error())
			return
		}
		filter = f
	}

	// a failed listing leaves a synthetic row in the snapshot; that row is the message
	if err := h.Cache.OnFilterChange(ctx, filter); err != nil && !errors.Is(err, preview.ErrSuperseded) {
		logger.Log.Debug("listing failed", "filter", filter.String(), "error", err)
	}

	errMsg := ""
	if sel := r.URL.Query().Get("select"); sel != "" {
		index, err := strconv.Atoi(sel)
		if err != nil {
			h.renderIndex(w, r, filter, http.StatusBadRequest, "Invalid selection.")
			return
		}
		if err := h.Cache.OnSelect(ctx, index); err != nil && !errors.Is(err, preview.ErrSuperseded) {
			errMsg = previewErrorMessage(err)
		}
	}

	h.renderIndex(w, r, filter, http.StatusOK, errMsg)
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, filter domain.FilterCategory, status int, errMsg string) {
	page := frontend_domain.IndexPage{
		Filters:  filterTabs(filter),
		Filter:   filter.String(),
		Files:    h.fileViews(h.Cache.Snapshot()),
		Selected: -1,
	}
	if img, index := h.Cache.Current(); img != nil {
		page.Selected = index
		page.Preview = frontend_domain.NewPreviewInfo(img, index)
	}
	h.renderTemplate(w, r, "index.html", page, status, errMsg)
}

func previewErrorMessage(err error) string {
	switch internal_errors.KindOf(err) {
	case internal_errors.Authorization:
		return "Log in to preview images."
	case internal_errors.MalformedInput:
		return "Invalid selection."
	case internal_errors.Transport:
		return "Preview unavailable: network problem."
	default:
		return "Preview unavailable: the file could not be decoded."
	}
}
