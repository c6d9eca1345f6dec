// Package worker holds the background jobs of the pass service.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	riderDomain "github.com/chennai-transit/service-pass/internal/domain/rider"
	"github.com/chennai-transit/service-pass/internal/email"
	"github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
)

const sweepBatchSize = 100

// ExpiryWorker periodically retires active passes whose validity
// window has elapsed, sending each rider a one-time expiry notice.
type ExpiryWorker struct {
	passRepo  passDomain.PassRepository
	riderRepo riderDomain.RiderRepository
	producer  *kafka.Producer
	mailer    email.Mailer
	interval  time.Duration
	logger    *zap.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(
	passRepo passDomain.PassRepository,
	riderRepo riderDomain.RiderRepository,
	producer *kafka.Producer,
	mailer email.Mailer,
	interval time.Duration,
	logger *zap.Logger,
) *ExpiryWorker {
	return &ExpiryWorker{
		passRepo:  passRepo,
		riderRepo: riderRepo,
		producer:  producer,
		mailer:    mailer,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the sweep on the configured interval until the context
// is cancelled. One failing pass does not abort the batch.
func (w *ExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Sweep once on startup so a restart does not delay expiry.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	now := time.Now().UTC()
	passes, err := w.passRepo.FindExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		w.logger.Error("expiry sweep query failed", zap.Error(err))
		return
	}
	if len(passes) == 0 {
		return
	}

	w.logger.Info("expiry sweep", zap.Int("due", len(passes)))
	for _, p := range passes {
		if err := w.expireOne(ctx, p, now); err != nil {
			w.logger.Error("failed to expire pass",
				zap.String("pass_id", p.ID().String()),
				zap.Error(err),
			)
		}
	}
}

func (w *ExpiryWorker) expireOne(ctx context.Context, p *passDomain.Pass, now time.Time) error {
	validUntil := *p.ValidUntil()

	if err := p.Expire(now); err != nil {
		return err
	}

	notify := p.ExpiryNotifiedAt() == nil
	if notify {
		p.MarkExpiryNotified(now)
	}

	p.IncrementVersion()
	if err := w.passRepo.Update(ctx, p); err != nil {
		return err
	}

	evt := events.PassExpiredEvent{
		PassID:     p.ID(),
		RiderID:    p.RiderID(),
		ValidUntil: validUntil,
	}
	cloudEvent, err := kafka.NewCloudEvent(events.SourceServicePass, events.PassExpired, evt)
	if err == nil {
		if perr := w.producer.PublishEvent(ctx, events.TopicPassEvents, cloudEvent); perr != nil {
			w.logger.Error("failed to publish expiry event", zap.Error(perr))
		}
	}

	if notify {
		if rd, rerr := w.riderRepo.FindByID(ctx, p.RiderID()); rerr == nil {
			if merr := w.mailer.SendExpiry(rd.Email(), rd.Name(), p.PassNumber(), validUntil); merr != nil {
				w.logger.Warn("failed to send expiry mail",
					zap.String("pass_id", p.ID().String()),
					zap.Error(merr),
				)
			}
		}
	}

	return nil
}
