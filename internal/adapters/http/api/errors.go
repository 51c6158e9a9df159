package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/gallery"
	"github.com/okian/finishline/internal/domain/leaderboard"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/internal/domain/viewer"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// Wrap prefixes err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind marks cause as an error of the given kind for op.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, facematch.ErrEmptySelfie), errors.Is(err, gallery.ErrInvalidSize):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, viewer.ErrNotOpen):
		return http.StatusBadRequest, "viewer_not_open"
	case errors.Is(err, ErrBackpressure), errors.Is(err, facematch.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, leaderboard.ErrUnknownCategory):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gallery.ErrSessionNotFound), errors.Is(err, gallery.ErrSessionClosed):
		return http.StatusNotFound, "gallery_not_found"
	case errors.Is(err, gallery.ErrPhotoOutOfRange):
		return http.StatusNotFound, "photo_not_found"
	case errors.Is(err, viewer.ErrNoPhotos):
		return http.StatusConflict, "no_photos"
	case errors.Is(err, types.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
