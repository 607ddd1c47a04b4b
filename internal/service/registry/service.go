package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
)

// Service manages the registry of bookable services. Every read goes to the
// store; there is no in-memory service list to go stale.
type Service struct {
	repo repository.ServiceRepository
}

func NewService(repo repository.ServiceRepository) *Service {
	return &Service{repo: repo}
}

// CreateService registers a new bookable service. Name uniqueness is
// enforced by the store; an inverted time range is rejected up front.
func (s *Service) CreateService(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "must not be empty")
	}

	open, err := model.ParseClock(req.OpenTime)
	if err != nil {
		return nil, model.NewValidationError("open_time", "must be HH:MM")
	}
	close, err := model.ParseClock(req.CloseTime)
	if err != nil {
		return nil, model.NewValidationError("close_time", "must be HH:MM")
	}
	if open >= close {
		return nil, model.NewValidationError("open_time", "must be before close_time")
	}

	service := &model.Service{
		Name:        name,
		Description: req.Description,
		OpenTime:    open,
		CloseTime:   close,
	}
	if err := s.repo.Create(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.repo.Get(ctx, id)
}

// ListActiveServices returns the active services ordered by name.
func (s *Service) ListActiveServices(ctx context.Context) ([]*model.Service, error) {
	return s.repo.ListActive(ctx)
}

// Deactivate soft-deletes a service. Existing appointments are untouched.
// Repeating the call is a no-op.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// AssignResponsible makes an actor the responsible of a service.
func (s *Service) AssignResponsible(ctx context.Context, serviceID, actorID uuid.UUID) error {
	if err := s.repo.SetResponsible(ctx, serviceID, actorID); err != nil {
		return fmt.Errorf("failed to assign responsible: %w", err)
	}
	return nil
}

// defaultServices are the departments seeded on first start.
var defaultServices = []struct {
	name        string
	description string
	open        string
	close       string
}{
	{"Médecine Générale", "Consultations générales et suivi médical", "08:00", "18:00"},
	{"Pédiatrie", "Soins et consultations pour enfants", "08:00", "17:00"},
	{"Cardiologie", "Examens et consultations cardiaques", "09:00", "16:00"},
	{"Dermatologie", "Soins de la peau", "08:30", "17:30"},
	{"Ophtalmologie", "Examens de la vue", "08:00", "16:00"},
	{"Dentaire", "Soins dentaires", "08:00", "18:00"},
	{"Radiologie", "Examens radiologiques", "08:00", "17:00"},
	{"Laboratoire", "Analyses médicales", "07:00", "19:00"},
}

// SeedDefaults inserts the default services, skipping any that already exist.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, d := range defaultServices {
		open, err := model.ParseClock(d.open)
		if err != nil {
			return fmt.Errorf("bad default service %q: %w", d.name, err)
		}
		close, err := model.ParseClock(d.close)
		if err != nil {
			return fmt.Errorf("bad default service %q: %w", d.name, err)
		}

		service := &model.Service{
			Name:        d.name,
			Description: d.description,
			OpenTime:    open,
			CloseTime:   close,
		}
		if err := s.repo.CreateIfAbsent(ctx, service); err != nil {
			return fmt.Errorf("failed to seed service %q: %w", d.name, err)
		}
	}
	log.Info().Int("count", len(defaultServices)).Msg("default services ensured")
	return nil
}
