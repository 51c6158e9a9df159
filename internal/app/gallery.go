package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	matchqueue "github.com/okian/finishline/internal/adapters/mq/queue"
	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/frame"
	"github.com/okian/finishline/internal/domain/gallery"
	"github.com/okian/finishline/internal/domain/layout"
	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/internal/domain/viewer"
	"github.com/okian/finishline/internal/domain/window"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// OpenGallery starts a photo stream for one participant.
func (s *Service) OpenGallery(ctx context.Context, eventID, bib string, width int) (gallery.Snapshot, error) {
	reg, err := s.running()
	if err != nil {
		return gallery.Snapshot{}, err
	}
	if _, err := s.store.Event(ctx, eventID); err != nil {
		return gallery.Snapshot{}, fmt.Errorf("event %s: %w", eventID, err)
	}
	photos, err := s.store.Photos(ctx, eventID, bib)
	if err != nil {
		metrics.RecordErrorByComponent("service", "photos_query")
		return gallery.Snapshot{}, fmt.Errorf("photos %s/%s: %w", eventID, bib, err)
	}

	sess := gallery.NewSession(eventID, bib, photos, width,
		gallery.WithWindowOptions(
			window.WithMinimumInitialBatch(s.initialBatch),
			window.WithPerColumnInitialRows(s.perColumnRows),
			window.WithBatchSize(s.batchSize),
		),
		gallery.WithLayoutOptions(
			layout.WithScheduler(frame.NewTimer(s.frameInterval)),
			layout.WithPlaceholderAspect(s.placeholderAspect),
		),
		gallery.WithLayoutObserver(func(l layout.Layout) {
			metrics.RecordLayoutPass(len(l.Placements))
		}),
	)
	reg.Add(sess)
	metrics.RecordGallerySessionOpened()
	metrics.UpdateGalleryActiveSessions(reg.Len())

	s.logger.Debug(ctx, "gallery opened",
		logger.String("session_id", sess.ID()),
		logger.String("event_id", eventID),
		logger.String("bib", bib),
		logger.Int("photos", len(photos)),
	)
	return sess.Snapshot()
}

func (s *Service) session(id string) (*gallery.Session, error) {
	reg, err := s.running()
	if err != nil {
		return nil, err
	}
	return reg.Get(id)
}

// Gallery returns the current state of a gallery.
func (s *Service) Gallery(id string) (gallery.Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return gallery.Snapshot{}, err
	}
	return sess.Snapshot()
}

// Grow reveals the next batch of a gallery.
func (s *Service) Grow(id string) (gallery.GrowResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return gallery.GrowResult{}, err
	}
	grew, err := sess.Grow()
	if err != nil {
		return gallery.GrowResult{}, err
	}
	metrics.RecordWindowGrowth(grew)
	snap, err := sess.Snapshot()
	if err != nil {
		return gallery.GrowResult{}, err
	}
	return gallery.GrowResult{Grew: grew, Snapshot: snap}, nil
}

// Resize applies a new container width to a gallery.
func (s *Service) Resize(id string, width int) (gallery.Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return gallery.Snapshot{}, err
	}
	if err := sess.Resize(width); err != nil {
		return gallery.Snapshot{}, err
	}
	return sess.Snapshot()
}

// ReportSizes records natural photo sizes. The relayout they cause is
// coalesced into one pass.
func (s *Service) ReportSizes(id string, sizes []gallery.SizeReport) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	return sess.ReportSizes(sizes)
}

// View opens the viewer of a gallery at the photo named in q and steps in d.
func (s *Service) View(id string, q url.Values, d viewer.Direction) (gallery.Frame, error) {
	sess, err := s.session(id)
	if err != nil {
		return gallery.Frame{}, err
	}
	return sess.View(q, d)
}

// CloseViewer returns where the gallery grid should scroll after the viewer closes.
func (s *Service) CloseViewer(id string, q url.Values) (viewer.ScrollTarget, error) {
	sess, err := s.session(id)
	if err != nil {
		return viewer.ScrollTarget{}, err
	}
	return sess.CloseViewer(q)
}

// Download suggests a download for one photo of a gallery.
func (s *Service) Download(id string, index int) (gallery.Download, error) {
	sess, err := s.session(id)
	if err != nil {
		return gallery.Download{}, err
	}
	return sess.Download(index)
}

// CloseGallery closes a gallery and cancels its scheduled layout work.
func (s *Service) CloseGallery(id string) error {
	reg, err := s.running()
	if err != nil {
		return err
	}
	return reg.Remove(id)
}

// SubmitSelfie queues a selfie for face matching. Matched photos are merged
// into the gallery when the match completes. A repeated requestID is
// acknowledged as a duplicate without queueing.
func (s *Service) SubmitSelfie(ctx context.Context, id, requestID string, selfie []byte) (facematch.Receipt, error) {
	sess, err := s.session(id)
	if err != nil {
		return facematch.Receipt{}, err
	}
	if len(selfie) == 0 {
		return facematch.Receipt{}, facematch.ErrEmptySelfie
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, requestID) {
		metrics.RecordSelfieDuplicate()
		return facematch.Receipt{RequestID: requestID, Status: facematch.StatusDuplicate, Duplicate: true}, nil
	}

	snap, err := sess.Snapshot()
	if err != nil {
		s.deduper.Unrecord(ctx, requestID)
		return facematch.Receipt{}, err
	}
	job := model.MatchJob{
		JobID:     requestID,
		SessionID: id,
		EventID:   snap.EventID,
		Bib:       snap.Bib,
		Selfie:    selfie,
		Submitted: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, requestID)
		if errors.Is(err, matchqueue.ErrFull) || errors.Is(err, matchqueue.ErrSessionBusy) {
			return facematch.Receipt{}, facematch.ErrBackpressure
		}
		return facematch.Receipt{}, fmt.Errorf("enqueue selfie: %w", err)
	}
	metrics.RecordSelfieAccepted()
	return facematch.Receipt{RequestID: requestID, Status: facematch.StatusAccepted}, nil
}

// Apply merges matched photos into a gallery. It implements the worker's Applier.
func (s *Service) Apply(_ context.Context, sessionID string, refs []types.PhotoRef) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.Merge(refs)
}
