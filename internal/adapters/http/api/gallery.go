// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/gallery"
	"github.com/okian/finishline/internal/domain/viewer"
)

// maxSelfieBytes bounds a selfie upload.
const maxSelfieBytes = 10 << 20

// RequestIDHeader carries the idempotency key of a selfie submission.
const RequestIDHeader = "X-Request-ID"

// GalleryDependencies defines the interface for gallery sessions.
type GalleryDependencies interface {
	OpenGallery(ctx context.Context, eventID, bib string, width int) (gallery.Snapshot, error)
	Gallery(id string) (gallery.Snapshot, error)
	Grow(id string) (gallery.GrowResult, error)
	Resize(id string, width int) (gallery.Snapshot, error)
	ReportSizes(id string, sizes []gallery.SizeReport) error
	View(id string, q url.Values, d viewer.Direction) (gallery.Frame, error)
	CloseViewer(id string, q url.Values) (viewer.ScrollTarget, error)
	Download(id string, index int) (gallery.Download, error)
	CloseGallery(id string) error
	SubmitSelfie(ctx context.Context, id, requestID string, selfie []byte) (facematch.Receipt, error)
}

// GalleryHandler handles gallery requests.
type GalleryHandler struct {
	deps GalleryDependencies
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(deps GalleryDependencies) *GalleryHandler {
	return &GalleryHandler{deps: deps}
}

type openRequest struct {
	EventID        string `json:"event_id"`
	Bib            string `json:"bib"`
	ContainerWidth int    `json:"container_width"`
}

func (o openRequest) validate() error {
	switch {
	case strings.TrimSpace(o.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(o.Bib) == "":
		return errors.New("missing bib")
	case o.ContainerWidth < 0:
		return errors.New("container_width must not be negative")
	}
	return nil
}

type resizeRequest struct {
	ContainerWidth int `json:"container_width"`
}

type sizesRequest struct {
	Sizes []gallery.SizeReport `json:"sizes"`
}

// HandleOpen handles POST /galleries.
func (h *GalleryHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_gallery"
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.OpenGallery(r.Context(), req.EventID, req.Bib, req.ContainerWidth)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/galleries/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

// HandleGet handles GET /galleries/{id}.
func (h *GalleryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Gallery(r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_gallery", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGrow handles POST /galleries/{id}/grow.
func (h *GalleryHandler) HandleGrow(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Grow(r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.grow_gallery", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleResize handles POST /galleries/{id}/resize.
func (h *GalleryHandler) HandleResize(w http.ResponseWriter, r *http.Request) {
	const op = "api.resize_gallery"
	var req resizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ContainerWidth < 0 {
		writeError(w, r, WrapKind(op, ErrBadRequest, errors.New("container_width must not be negative")))
		return
	}
	snap, err := h.deps.Resize(r.PathValue("id"), req.ContainerWidth)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleSizes handles POST /galleries/{id}/sizes.
func (h *GalleryHandler) HandleSizes(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_sizes"
	var req sizesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ReportSizes(r.PathValue("id"), req.Sizes); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelfie handles POST /galleries/{id}/selfie with the raw image as body.
func (h *GalleryHandler) HandleSelfie(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_selfie"
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSelfieBytes+1))
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(body) > maxSelfieBytes {
		writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("selfie larger than %d bytes", maxSelfieBytes)))
		return
	}
	receipt, err := h.deps.SubmitSelfie(r.Context(), r.PathValue("id"), strings.TrimSpace(r.Header.Get(RequestIDHeader)), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

// HandleView handles GET /galleries/{id}/viewer?photo=N&step=next|prev.
func (h *GalleryHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := viewer.ParseDirection(q.Get("step"))
	q.Del("step")
	f, err := h.deps.View(r.PathValue("id"), q, d)
	if err != nil {
		writeError(w, r, Wrap("api.view_photo", err))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleCloseViewer handles POST /galleries/{id}/viewer/close?photo=N.
func (h *GalleryHandler) HandleCloseViewer(w http.ResponseWriter, r *http.Request) {
	target, err := h.deps.CloseViewer(r.PathValue("id"), r.URL.Query())
	if err != nil {
		writeError(w, r, Wrap("api.close_viewer", err))
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// HandleDownload handles GET /galleries/{id}/download?photo=N.
func (h *GalleryHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	const op = "api.download_photo"
	index, err := intParam(r, viewer.QueryParam, -1)
	if err != nil || index < 0 {
		writeError(w, r, WrapKind(op, ErrBadRequest, errors.New("photo must be a non-negative integer")))
		return
	}
	d, err := h.deps.Download(r.PathValue("id"), index)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleClose handles DELETE /galleries/{id}.
func (h *GalleryHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CloseGallery(r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.close_gallery", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
