package server

import (
	"context"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/cache"
	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/repository"
	"github.com/mattislub/Timed-Audio-Queue/storage"
)

const (
	reaperInterval  = time.Minute
	reaperBatchSize = 100
)

// Reaper deletes expired recordings along with their stored objects and
// share records. Expiry already hides recordings from listings; the reaper
// just reclaims storage behind that line.
type Reaper struct {
	recordingRepo repository.RecordingRepository
	shareRepo     repository.ShareRepository
	hub           *NotifyHub
	ttl           time.Duration
}

// NewReaper creates a reaper over the given repositories.
func NewReaper(recordingRepo repository.RecordingRepository, shareRepo repository.ShareRepository, hub *NotifyHub, ttl time.Duration) *Reaper {
	return &Reaper{
		recordingRepo: recordingRepo,
		shareRepo:     shareRepo,
		hub:           hub,
		ttl:           ttl,
	}
}

// Run sweeps once per interval until ctx is cancelled.
func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rp.sweep(ctx)
		}
	}
}

func (rp *Reaper) sweep(ctx context.Context) {
	expired, err := rp.recordingRepo.GetExpiredRecordings(rp.ttl, reaperBatchSize)
	if err != nil {
		logger.Warn("expiry sweep query failed", logger.ErrorField(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	reaped := 0
	for _, rec := range expired {
		if err := storage.RemoveObject(ctx, rec.ObjectPath); err != nil {
			logger.Warn("failed to remove expired object",
				logger.String("object", rec.ObjectPath), logger.ErrorField(err))
			continue // keep the row so the next sweep retries the object
		}
		if err := rp.shareRepo.DeleteSharesByRecordingID(rec.ID); err != nil {
			logger.Warn("failed to delete shares of expired recording",
				logger.String("recording", rec.ID), logger.ErrorField(err))
		}
		if err := rp.recordingRepo.DeleteRecording(rec.ID); err != nil {
			logger.Warn("failed to delete expired recording row",
				logger.String("recording", rec.ID), logger.ErrorField(err))
			continue
		}
		if err := cache.InvalidateRecordings(ctx, rec.UserID); err != nil {
			logger.Warn("failed to invalidate recordings cache", logger.ErrorField(err))
		}
		reaped++
	}

	if reaped > 0 {
		rp.hub.BroadcastChanged()
		logger.Info("expired recordings reaped", logger.Int("count", reaped))
	}
}
