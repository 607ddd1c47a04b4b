package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
	"github.com/jwalitptl/polyclinic-api/internal/schedule"
	"github.com/jwalitptl/polyclinic-api/pkg/metrics"
)

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func (f *fakeServiceRepo) Create(ctx context.Context, service *model.Service) error {
	service.ID = uuid.New()
	service.Active = true
	f.services[service.ID] = service
	return nil
}

func (f *fakeServiceRepo) CreateIfAbsent(ctx context.Context, service *model.Service) error {
	return f.Create(ctx, service)
}

func (f *fakeServiceRepo) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, ok := f.services[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return service, nil
}

func (f *fakeServiceRepo) ListActive(ctx context.Context) ([]*model.Service, error) {
	var out []*model.Service
	for _, s := range f.services {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeServiceRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	service, ok := f.services[id]
	if !ok {
		return model.ErrNotFound
	}
	service.Active = active
	return nil
}

func (f *fakeServiceRepo) SetResponsible(ctx context.Context, id, actorID uuid.UUID) error {
	service, ok := f.services[id]
	if !ok {
		return model.ErrNotFound
	}
	service.ResponsibleID = &actorID
	return nil
}

// fakeAppointmentRepo mimics the store's constrained insert, including its
// behavior under concurrent writers.
type fakeAppointmentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Insert(ctx context.Context, appointment *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ServiceID == appointment.ServiceID &&
			row.Date.Equal(appointment.Date.Time) &&
			row.StartTime == appointment.StartTime &&
			row.Status != model.AppointmentStatusCancelled {
			return model.ErrSlotTaken
		}
	}

	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusConfirmed
	stored := *appointment
	f.rows[appointment.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	dup := *row
	return &dup, nil
}

func (f *fakeAppointmentRepo) CancelConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.Status != model.AppointmentStatusConfirmed {
		return false, nil
	}
	row.Status = model.AppointmentStatusCancelled
	return true, nil
}

func (f *fakeAppointmentRepo) SlotBooked(ctx context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ServiceID == serviceID && row.Date.Equal(date.Time) &&
			row.StartTime == start && row.Status == model.AppointmentStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentRepo) ListByService(ctx context.Context, serviceID uuid.UUID, from, to *model.Date) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Appointment
	for _, row := range f.rows {
		if row.ServiceID != serviceID {
			continue
		}
		if from != nil && row.Date.Before(from.Time) {
			continue
		}
		if to != nil && row.Date.After(to.Time) {
			continue
		}
		dup := *row
		out = append(out, &dup)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByDate(ctx context.Context, date model.Date) ([]*model.AppointmentWithService, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) Stats(ctx context.Context, serviceID uuid.UUID) (*model.ServiceStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &model.ServiceStats{}
	for _, row := range f.rows {
		if row.ServiceID != serviceID {
			continue
		}
		stats.Total++
		switch row.Status {
		case model.AppointmentStatusConfirmed:
			stats.Confirmed++
		case model.AppointmentStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return nil
}

func (f *fakeOutboxRepo) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

type fixture struct {
	svc          *Service
	services     *fakeServiceRepo
	appointments *fakeAppointmentRepo
	outbox       *fakeOutboxRepo
	serviceID    uuid.UUID
}

var _ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)
var _ repository.ServiceRepository = (*fakeServiceRepo)(nil)
var _ repository.OutboxRepository = (*fakeOutboxRepo)(nil)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	services := &fakeServiceRepo{services: make(map[uuid.UUID]*model.Service)}
	service := &model.Service{Name: "Cardiologie"}
	require.NoError(t, services.Create(context.Background(), service))

	appointments := newFakeAppointmentRepo()
	outbox := &fakeOutboxRepo{}

	return &fixture{
		svc:          NewService(appointments, services, outbox, metrics.New("test")),
		services:     services,
		appointments: appointments,
		outbox:       outbox,
		serviceID:    service.ID,
	}
}

func validRequest(serviceID uuid.UUID) *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		ServiceID:      serviceID,
		Date:           "2026-09-15",
		StartTime:      "09:00",
		EndTime:        "09:30",
		PatientName:    "Dupont",
		PatientSurname: "Marie",
		PatientPhone:   "06-12-34-56-78",
		Reason:         "consultation",
	}
}

func TestBook_NormalizesPatientFields(t *testing.T) {
	f := newFixture(t)

	appointment, err := f.svc.Book(context.Background(), validRequest(f.serviceID), nil)
	require.NoError(t, err)

	assert.Equal(t, "DUPONT", appointment.PatientName)
	assert.Equal(t, "MARIE", appointment.PatientSurname)
	assert.Equal(t, "0612345678", appointment.PatientPhone)
	assert.Equal(t, model.AppointmentStatusConfirmed, appointment.Status)
	assert.NotEqual(t, uuid.Nil, appointment.ID)
	assert.Equal(t, []string{model.EventAppointmentBooked}, f.outbox.eventTypes())
}

func TestBook_ValidationFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*model.BookAppointmentRequest)
	}{
		{"empty patient name", func(r *model.BookAppointmentRequest) { r.PatientName = "  " }},
		{"empty patient surname", func(r *model.BookAppointmentRequest) { r.PatientSurname = "" }},
		{"phone too short", func(r *model.BookAppointmentRequest) { r.PatientPhone = "061234" }},
		{"phone too long", func(r *model.BookAppointmentRequest) { r.PatientPhone = "06123456789" }},
		{"phone without digits", func(r *model.BookAppointmentRequest) { r.PatientPhone = "abc-def" }},
		{"malformed date", func(r *model.BookAppointmentRequest) { r.Date = "15/09/2026" }},
		{"malformed start time", func(r *model.BookAppointmentRequest) { r.StartTime = "9h00" }},
		{"start not before end", func(r *model.BookAppointmentRequest) { r.StartTime = "10:00"; r.EndTime = "09:30" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(f.serviceID)
			tt.mutate(req)

			_, err := f.svc.Book(context.Background(), req, nil)
			assert.True(t, model.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestBook_PhoneAcceptsSeparators(t *testing.T) {
	f := newFixture(t)

	req := validRequest(f.serviceID)
	req.PatientPhone = "06 12 34 56 78"

	appointment, err := f.svc.Book(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "0612345678", appointment.PatientPhone)
}

func TestBook_UnknownService(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), validRequest(uuid.New()), nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBook_InactiveService(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.services.SetActive(context.Background(), f.serviceID, false))

	_, err := f.svc.Book(context.Background(), validRequest(f.serviceID), nil)
	assert.ErrorIs(t, err, model.ErrServiceInactive)
}

func TestBook_SlotTakenUntilCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Book(ctx, validRequest(f.serviceID), nil)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, validRequest(f.serviceID), nil)
	assert.ErrorIs(t, err, model.ErrSlotTaken)

	outcome, err := f.svc.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeCancelled, outcome)

	// The cancelled row no longer blocks the slot.
	_, err = f.svc.Book(ctx, validRequest(f.serviceID), nil)
	assert.NoError(t, err)
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(context.Background(), validRequest(f.serviceID), nil)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrSlotTaken):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestCancel_UnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appointment, err := f.svc.Book(ctx, validRequest(f.serviceID), nil)
	require.NoError(t, err)

	outcome, err := f.svc.Cancel(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeCancelled, outcome)

	outcome, err = f.svc.Cancel(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeAlreadyCancelled, outcome)

	assert.Equal(t,
		[]string{model.EventAppointmentBooked, model.EventAppointmentCancelled},
		f.outbox.eventTypes())
}

func TestStatistics_CountsByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Book(ctx, validRequest(f.serviceID), nil)
	require.NoError(t, err)

	second := validRequest(f.serviceID)
	second.StartTime = "10:00"
	second.EndTime = "10:30"
	_, err = f.svc.Book(ctx, second, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx, f.serviceID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Cancelled)
}

func TestBookingFlow_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := model.ClockTime(9 * 60)
	close := model.ClockTime(16 * 60)
	date, err := model.ParseDate("2026-09-15")
	require.NoError(t, err)

	checker := schedule.NewChecker(f.appointments)

	slots, err := checker.ListSlots(ctx, f.serviceID, date, open, close, 30)
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.True(t, slots[0].Available)

	appointment, err := f.svc.Book(ctx, validRequest(f.serviceID), nil)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, appointment.Status)

	available, err := checker.IsAvailable(ctx, f.serviceID, date, appointment.StartTime)
	require.NoError(t, err)
	assert.False(t, available)

	_, err = f.svc.Book(ctx, validRequest(f.serviceID), nil)
	assert.ErrorIs(t, err, model.ErrSlotTaken)

	outcome, err := f.svc.Cancel(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelOutcomeCancelled, outcome)

	available, err = checker.IsAvailable(ctx, f.serviceID, date, appointment.StartTime)
	require.NoError(t, err)
	assert.True(t, available)
}
