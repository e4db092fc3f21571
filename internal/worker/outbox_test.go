package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/pkg/logger"
)

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
	deleted   int64
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{failed: make(map[uuid.UUID]string)}
}

func (r *fakeOutboxRepo) PendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	r.failed[id] = errMsg
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return r.deleted, nil
}

type fakeBroker struct {
	published map[string]int
	failOn    string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string]int)}
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if channel == b.failOn {
		return fmt.Errorf("broker unavailable")
	}
	b.published[channel]++
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{}`),
		Status:    model.OutboxStatusPending,
	}
}

func TestProcessBatch(t *testing.T) {
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()

	created := pendingEvent(model.EventAppointmentCreated)
	cancelled := pendingEvent(model.EventAppointmentCancelled)
	repo.pending = []*model.OutboxEvent{created, cancelled}

	w := NewOutboxWorker(repo, broker, logger.NewLogger(nil))
	require.NoError(t, w.processBatch(context.Background()))

	assert.Equal(t, 1, broker.published[model.EventAppointmentCreated])
	assert.Equal(t, 1, broker.published[model.EventAppointmentCancelled])
	assert.ElementsMatch(t, []uuid.UUID{created.ID, cancelled.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchMarksFailures(t *testing.T) {
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()
	broker.failOn = model.EventAppointmentCreated

	failing := pendingEvent(model.EventAppointmentCreated)
	ok := pendingEvent(model.EventAppointmentRescheduled)
	repo.pending = []*model.OutboxEvent{failing, ok}

	w := NewOutboxWorker(repo, broker, logger.NewLogger(nil))
	require.NoError(t, w.processBatch(context.Background()))

	// One failure must not stop the rest of the batch.
	assert.Equal(t, []uuid.UUID{ok.ID}, repo.processed)
	assert.Contains(t, repo.failed, failing.ID)
	assert.Equal(t, "broker unavailable", repo.failed[failing.ID])
}

func TestStartStopsOnContextCancel(t *testing.T) {
	w := NewOutboxWorker(newFakeOutboxRepo(), newFakeBroker(), logger.NewLogger(nil))
	w.pollInterval = 10 * time.Millisecond
	w.cleanupPeriod = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
