package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/metrics"
)

type fakeOutboxRepo struct {
	events  map[uuid.UUID]*model.OutboxEvent
	deleted int64
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{events: make(map[uuid.UUID]*model.OutboxEvent)}
}

func (f *fakeOutboxRepo) add(eventType string) *model.OutboxEvent {
	e := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   json.RawMessage(`{}`),
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	for _, e := range f.events {
		if e.Status == model.OutboxStatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	e, ok := f.events[id]
	if !ok {
		return errors.New("unknown event")
	}
	e.Status = status
	e.ErrorMessage = errMsg
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, e := range f.events {
		if e.Status == model.OutboxStatusProcessed && e.CreatedAt.Before(before) {
			delete(f.events, id)
			n++
		}
	}
	f.deleted += n
	return n, nil
}

type fakeBroker struct {
	published map[string]int
	failures  int
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unreachable")
	}
	if f.published == nil {
		f.published = make(map[string]int)
	}
	f.published[channel]++
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBroker) Close() error { return nil }

func newTestProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, log, metrics.NewMetricsWith(prometheus.NewRegistry(), "portal", "test"))
}

func TestProcessEventsMarksProcessed(t *testing.T) {
	repo := newFakeOutboxRepo()
	evt := repo.add("appointment.created")
	broker := &fakeBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, model.OutboxStatusProcessed, repo.events[evt.ID].Status)
	assert.Equal(t, 1, broker.published["appointment.created"])
}

func TestProcessEventsRetriesThenSucceeds(t *testing.T) {
	repo := newFakeOutboxRepo()
	evt := repo.add("scan.analyzed")
	broker := &fakeBroker{failures: 1}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, model.OutboxStatusProcessed, repo.events[evt.ID].Status)
}

func TestProcessEventsMarksFailedAfterRetries(t *testing.T) {
	repo := newFakeOutboxRepo()
	evt := repo.add("consultation.created")
	broker := &fakeBroker{failures: 5}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	stored := repo.events[evt.ID]
	assert.Equal(t, model.OutboxStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "broker unreachable")
}

func TestFailedEventsAreNotRedelivered(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add("consultation.created")
	broker := &fakeBroker{failures: 5}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, broker.published)
}

func TestCleanupDeletesOldProcessedOnly(t *testing.T) {
	repo := newFakeOutboxRepo()
	old := repo.add("appointment.created")
	old.Status = model.OutboxStatusProcessed
	old.CreatedAt = time.Now().Add(-14 * 24 * time.Hour)

	recent := repo.add("appointment.cancelled")
	recent.Status = model.OutboxStatusProcessed

	pending := repo.add("scan.uploaded")
	pending.CreatedAt = time.Now().Add(-14 * 24 * time.Hour)

	p := newTestProcessor(repo, &fakeBroker{})
	p.cleanupProcessed(context.Background())

	assert.NotContains(t, repo.events, old.ID)
	assert.Contains(t, repo.events, recent.ID)
	assert.Contains(t, repo.events, pending.ID)
}
