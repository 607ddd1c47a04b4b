package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
	"github.com/jwalitptl/polyclinic-api/pkg/auth"
	"github.com/jwalitptl/polyclinic-api/pkg/security"
)

// Service authenticates actors and issues access tokens. Password policy is
// delegated to the hasher; the scheduling core never sees credentials.
type Service struct {
	actors repository.ActorRepository
	jwtSvc auth.JWTService
	hasher security.PasswordHasher
}

func NewService(actors repository.ActorRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		actors: actors,
		jwtSvc: jwtSvc,
		hasher: hasher,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	actor, err := s.actors.GetByUsername(ctx, username)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if !actor.Active {
		return nil, model.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(actor.PasswordHash, password); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.jwtSvc.Generate(actor)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtSvc.Expiry().Seconds()),
	}, nil
}

func (s *Service) GetActor(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	return s.actors.Get(ctx, id)
}

// SeedDirector ensures a director account exists, for first-run bootstrap.
func (s *Service) SeedDirector(ctx context.Context, username, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash director password: %w", err)
	}

	actor := &model.Actor{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleDirector,
		Active:       true,
	}
	if err := s.actors.CreateIfAbsent(ctx, actor); err != nil {
		return fmt.Errorf("failed to seed director: %w", err)
	}

	log.Info().Str("username", username).Msg("director account ensured")
	return nil
}
