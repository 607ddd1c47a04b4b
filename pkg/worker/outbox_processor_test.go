package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/pkg/logger"
	"github.com/jwalitptl/polyclinic-api/pkg/messaging"
	"github.com/jwalitptl/polyclinic-api/pkg/metrics"
)

const fakeRetryCap = 5

// fakeOutboxRepo mimics the store's re-pickup semantics: pending events plus
// failed ones still under the retry cap are offered on every poll.
type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{events: events}
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.OutboxEvent
	for _, e := range f.events {
		if len(out) == limit {
			break
		}
		if e.Status == model.OutboxStatusPending ||
			(e.Status == model.OutboxStatusFailed && e.RetryCount < fakeRetryCap) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errorMessage
			if status == model.OutboxStatusFailed {
				e.RetryCount++
			}
			return nil
		}
	}
	return model.ErrNotFound
}

type fakeBroker struct {
	mu        sync.Mutex
	published []messaging.Message
	failTypes map[string]bool
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := message.(messaging.Message)
	if !ok {
		return errors.New("unexpected message shape")
	}
	if b.failTypes[msg.Type] {
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, msg)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) heal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failTypes = nil
}

func newEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"id":"x"}`),
		Status:    model.OutboxStatusPending,
	}
}

func newTestProcessor(repo *fakeOutboxRepo, broker messaging.Broker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{BatchSize: 10}, logger.NewLogger(nil), metrics.New("test"))
}

func TestProcessBatch_PublishesAndMarksProcessed(t *testing.T) {
	booked := newEvent(model.EventAppointmentBooked)
	cancelled := newEvent(model.EventAppointmentCancelled)
	repo := newFakeOutboxRepo(booked, cancelled)
	broker := &fakeBroker{}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, model.EventAppointmentBooked, broker.published[0].Type)
	assert.Equal(t, model.OutboxStatusProcessed, booked.Status)
	assert.Equal(t, model.OutboxStatusProcessed, cancelled.Status)
}

func TestProcessBatch_MarksFailedAndContinues(t *testing.T) {
	failing := newEvent(model.EventAppointmentBooked)
	healthy := newEvent(model.EventAppointmentCancelled)
	repo := newFakeOutboxRepo(failing, healthy)
	broker := &fakeBroker{failTypes: map[string]bool{model.EventAppointmentBooked: true}}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processBatch(context.Background()))

	// The failure did not stop the rest of the batch.
	require.Len(t, broker.published, 1)
	assert.Equal(t, model.OutboxStatusFailed, failing.Status)
	assert.Equal(t, 1, failing.RetryCount)
	assert.Equal(t, model.OutboxStatusProcessed, healthy.Status)
}

func TestProcessBatch_RepublishesFailedEvents(t *testing.T) {
	event := newEvent(model.EventAppointmentBooked)
	repo := newFakeOutboxRepo(event)
	broker := &fakeBroker{failTypes: map[string]bool{model.EventAppointmentBooked: true}}

	p := newTestProcessor(repo, broker)
	require.NoError(t, p.processBatch(context.Background()))
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Empty(t, broker.published)

	// The broker recovers; the failed event is re-offered and drained.
	broker.heal()
	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, model.OutboxStatusProcessed, event.Status)
}

func TestProcessBatch_StopsRetryingAtCap(t *testing.T) {
	event := newEvent(model.EventAppointmentBooked)
	repo := newFakeOutboxRepo(event)
	broker := &fakeBroker{failTypes: map[string]bool{model.EventAppointmentBooked: true}}

	p := newTestProcessor(repo, broker)
	for i := 0; i < fakeRetryCap+3; i++ {
		require.NoError(t, p.processBatch(context.Background()))
	}

	// Offered once as pending plus up to the cap as failed, then parked.
	assert.Equal(t, fakeRetryCap, event.RetryCount)
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Empty(t, broker.published)
}

func TestProcessBatch_RespectsBatchSize(t *testing.T) {
	repo := newFakeOutboxRepo(newEvent("a"), newEvent("b"), newEvent("c"))
	broker := &fakeBroker{}

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{BatchSize: 2}, logger.NewLogger(nil), metrics.New("test"))
	require.NoError(t, p.processBatch(context.Background()))

	assert.Len(t, broker.published, 2)
}
