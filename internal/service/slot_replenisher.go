package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/pkg/jobs"
)

// JobTypeReplenishSlots is the queue job type carrying a service ID.
const JobTypeReplenishSlots = "slots.replenish"

type slotCatalog interface {
	List(ctx context.Context) ([]models.SupportService, error)
	Replenish(ctx context.Context, serviceID string) (*dto.ReplenishResult, error)
}

type jobQueue interface {
	Handle(jobType string, handler jobs.Handler)
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

// SlotReplenisherConfig configures the replenishment schedule.
type SlotReplenisherConfig struct {
	Schedule string
	Location *time.Location
}

// SlotReplenisher periodically enqueues one replenish job per active service
// so every service keeps a full booking horizon of slots.
type SlotReplenisher struct {
	catalog slotCatalog
	queue   jobQueue
	cron    *cron.Cron
	logger  *zap.Logger
	cfg     SlotReplenisherConfig
}

// NewSlotReplenisher wires the replenish job handler onto queue.
func NewSlotReplenisher(catalog slotCatalog, queue jobQueue, logger *zap.Logger, cfg SlotReplenisherConfig) *SlotReplenisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1h"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	r := &SlotReplenisher{
		catalog: catalog,
		queue:   queue,
		cron:    cron.New(cron.WithLocation(cfg.Location)),
		logger:  logger.With(zap.String("component", "slot_replenisher")),
		cfg:     cfg,
	}
	queue.Handle(JobTypeReplenishSlots, r.handle)
	return r
}

// Start launches the queue workers and the cron schedule, then runs one sweep.
func (r *SlotReplenisher) Start(ctx context.Context) error {
	r.queue.Start(ctx)
	if _, err := r.cron.AddFunc(r.cfg.Schedule, func() {
		if err := r.EnqueueAll(ctx); err != nil {
			r.logger.Error("slot replenish sweep failed", zap.Error(err))
		}
	}); err != nil {
		r.queue.Stop()
		return fmt.Errorf("schedule slot replenisher %q: %w", r.cfg.Schedule, err)
	}
	r.cron.Start()
	r.logger.Info("slot replenisher started", zap.String("schedule", r.cfg.Schedule))

	if err := r.EnqueueAll(ctx); err != nil {
		r.logger.Warn("initial slot replenish sweep failed", zap.Error(err))
	}
	return nil
}

// Stop halts the schedule, waiting for a running sweep, then drains workers.
func (r *SlotReplenisher) Stop() {
	<-r.cron.Stop().Done()
	r.queue.Stop()
	r.logger.Info("slot replenisher stopped")
}

// EnqueueAll schedules a replenish job for every active service.
func (r *SlotReplenisher) EnqueueAll(ctx context.Context) error {
	services, err := r.catalog.List(ctx)
	if err != nil {
		return err
	}
	queued := 0
	for _, svc := range services {
		if !svc.Active {
			continue
		}
		if err := r.queue.Enqueue(jobs.Job{Type: JobTypeReplenishSlots, Payload: svc.ID}); err != nil {
			return fmt.Errorf("enqueue replenish for %s: %w", svc.ServiceType, err)
		}
		queued++
	}
	r.logger.Debug("slot replenish jobs queued", zap.Int("count", queued))
	return nil
}

func (r *SlotReplenisher) handle(ctx context.Context, job jobs.Job) error {
	result, err := r.catalog.Replenish(ctx, job.Payload)
	if err != nil {
		return err
	}
	r.logger.Debug("slot replenish job done",
		zap.String("job_id", job.ID),
		zap.String("service_id", result.ServiceID),
		zap.Int("inserted", result.Inserted))
	return nil
}
