package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/healthbook/scheduling-api/internal/repository"
	"github.com/healthbook/scheduling-api/pkg/logger"
	"github.com/healthbook/scheduling-api/pkg/messaging"
)

var (
	processedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_processed_total",
		Help: "The total number of processed outbox events",
	})
	failedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "The total number of failed outbox events",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_processing_duration_seconds",
		Help:    "Time spent publishing outbox events",
		Buckets: prometheus.DefBuckets,
	})
)

// OutboxWorker drains pending appointment events and publishes them to
// the broker. It runs outside the request path; the scheduling engine
// itself never blocks on it.
type OutboxWorker struct {
	repo          repository.OutboxRepository
	broker        messaging.Broker
	logger        *logger.Logger
	batchSize     int
	pollInterval  time.Duration
	retention     time.Duration
	cleanupPeriod time.Duration
}

func NewOutboxWorker(repo repository.OutboxRepository, broker messaging.Broker, logger *logger.Logger) *OutboxWorker {
	return &OutboxWorker{
		repo:          repo,
		broker:        broker,
		logger:        logger,
		batchSize:     100,
		pollInterval:  5 * time.Second,
		retention:     7 * 24 * time.Hour,
		cleanupPeriod: time.Hour,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	poll := time.NewTicker(w.pollInterval)
	cleanup := time.NewTicker(w.cleanupPeriod)
	defer poll.Stop()
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup.C:
			if err := w.cleanupProcessed(ctx); err != nil {
				w.logger.Error(err, "failed to clean up outbox")
			}
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) error {
	events, err := w.repo.PendingEvents(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, evt := range events {
		start := time.Now()

		if err := w.broker.Publish(ctx, evt.EventType, evt); err != nil {
			failedEvents.Inc()
			msg := err.Error()
			if markErr := w.repo.MarkFailed(ctx, evt.ID, msg); markErr != nil {
				w.logger.Error(markErr, "failed to mark event failed", "event_id", evt.ID)
			}
			continue
		}

		if err := w.repo.MarkProcessed(ctx, evt.ID); err != nil {
			w.logger.Error(err, "failed to mark event processed", "event_id", evt.ID)
			continue
		}

		processedEvents.Inc()
		processingDuration.Observe(time.Since(start).Seconds())
	}

	return nil
}

func (w *OutboxWorker) cleanupProcessed(ctx context.Context) error {
	cutoff := time.Now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if rows > 0 {
		w.logger.Info("cleaned up processed outbox events", "rows", rows)
	}
	return nil
}
