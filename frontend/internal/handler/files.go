package handler

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	frontend_domain "github.com/degixdaw/filebrowser/frontend/internal/domain"
	"github.com/degixdaw/filebrowser/frontend/internal/preview"
	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
	"github.com/degixdaw/filebrowser/shared/utils"
)

type filesResponse struct {
	Filter string                     `json:"filter"`
	Files  []frontend_domain.FileView `json:"files"`
	Error  *utils.ErrorBody           `json:"error,omitempty"`
}

type selectResponse struct {
	Index   int                          `json:"index"`
	Preview *frontend_domain.PreviewInfo `json:"preview"`
}

var errSuperseded = &internal_errors.ErrorWithStatusCode{
	Message:    "Superseded by a newer request",
	StatusCode: http.StatusConflict,
}

// ListFiles refreshes the listing. A failed refresh still answers 200: the
// snapshot then holds the synthetic error row and the error is echoed alongside.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: err.Error(), StatusCode: http.StatusBadRequest})
		return
	}

	resp := filesResponse{Filter: filter.String()}
	if err := h.Cache.OnFilterChange(r.Context(), filter); err != nil {
		if errors.Is(err, preview.ErrSuperseded) {
			utils.WriteErrorAndStatusCode(w, errSuperseded)
			return
		}
		body := utils.NewErrorBody(err)
		resp.Error = &body
	}
	resp.Files = h.fileViews(h.Cache.Snapshot())
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SelectFile(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: "invalid index: must be an integer", StatusCode: http.StatusBadRequest})
		return
	}

	if err := h.Cache.OnSelect(r.Context(), index); err != nil {
		if errors.Is(err, preview.ErrSuperseded) {
			err = errSuperseded
		}
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	img, current := h.Cache.Current()
	if img == nil {
		current = index
	}
	utils.WriteJSON(w, http.StatusOK, selectResponse{Index: current, Preview: frontend_domain.NewPreviewInfo(img, current)})
}

// Preview serves the held image re-encoded as PNG, 404 when nothing is held.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	img, _ := h.Cache.Current()
	if img == nil || img.Image == nil {
		http.Error(w, "no preview", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image); err != nil {
		logger.Log.Error("failed to encode preview", "error", err)
		http.Error(w, "failed to encode preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
