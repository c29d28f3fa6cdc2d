package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	pgrepo "github.com/humapedia/humapedia/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
)

type Store interface {
	GetByID(ctx context.Context, id string) (model.Profile, error)
	GetByIDCountingView(ctx context.Context, id string) (model.Profile, error)
	Update(ctx context.Context, profile model.Profile) (model.Profile, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		logger: logger,
	}
}

// Get returns the profile with its view counted in the same store
// round trip. A failing counter falls back to a plain read so the
// profile stays visible.
func (s *Service) Get(ctx context.Context, id string) (model.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return model.Profile{}, ErrValidation
	}

	profile, err := s.store.GetByIDCountingView(ctx, id)
	if err == nil {
		return profile, nil
	}
	if errors.Is(err, pgrepo.ErrProfileNotFound) {
		return model.Profile{}, ErrNotFound
	}

	s.logger.Warn("count profile view", zap.String("profile_id", id), zap.Error(err))

	profile, err = s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (s *Service) Update(ctx context.Context, profile model.Profile) (model.Profile, error) {
	if strings.TrimSpace(profile.ID) == "" || strings.TrimSpace(profile.Name) == "" {
		return model.Profile{}, ErrValidation
	}

	updated, err := s.store.Update(ctx, profile)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrValidation
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}

	return nil
}
