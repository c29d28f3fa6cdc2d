package profiles

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	pgrepo "github.com/humapedia/humapedia/internal/repo/postgres"
)

type profileStoreStub struct {
	profiles map[string]model.Profile

	countErr   error
	plainReads int
}

func newProfileStoreStub(profiles ...model.Profile) *profileStoreStub {
	s := &profileStoreStub{profiles: make(map[string]model.Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *profileStoreStub) GetByID(_ context.Context, id string) (model.Profile, error) {
	s.plainReads++
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return p, nil
}

func (s *profileStoreStub) GetByIDCountingView(_ context.Context, id string) (model.Profile, error) {
	if s.countErr != nil {
		return model.Profile{}, s.countErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	p.Views++
	s.profiles[id] = p
	return p, nil
}

func (s *profileStoreStub) Update(_ context.Context, profile model.Profile) (model.Profile, error) {
	if _, ok := s.profiles[profile.ID]; !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	s.profiles[profile.ID] = profile
	return profile, nil
}

func (s *profileStoreStub) Delete(_ context.Context, id string) error {
	if _, ok := s.profiles[id]; !ok {
		return pgrepo.ErrProfileNotFound
	}
	delete(s.profiles, id)
	return nil
}

func TestGetIncrementsViews(t *testing.T) {
	store := newProfileStoreStub(model.Profile{ID: "1", Name: "John Smith"})
	svc := NewService(store, zap.NewNop())

	first, err := svc.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := svc.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}

	if first.Views != 1 || second.Views != 2 {
		t.Fatalf("views not incremented per get: first=%d second=%d", first.Views, second.Views)
	}
	// The counting read carries the profile; no extra fetch.
	if store.plainReads != 0 {
		t.Fatalf("expected no plain reads on the happy path, got %d", store.plainReads)
	}
}

func TestGetSurvivesViewCounterFailure(t *testing.T) {
	store := newProfileStoreStub(model.Profile{ID: "1", Name: "John Smith", Views: 9})
	store.countErr = errors.New("counter unavailable")
	svc := NewService(store, zap.NewNop())

	profile, err := svc.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("get with failing counter: %v", err)
	}
	if profile.Name != "John Smith" || profile.Views != 9 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	svc := NewService(newProfileStoreStub(), zap.NewNop())

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePersistsChanges(t *testing.T) {
	store := newProfileStoreStub(model.Profile{ID: "1", Name: "John Smith", Company: "Tech Corp"})
	svc := NewService(store, zap.NewNop())

	updated, err := svc.Update(context.Background(), model.Profile{ID: "1", Name: "John Smith", Company: "New Corp"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Company != "New Corp" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if store.profiles["1"].Company != "New Corp" {
		t.Fatalf("update not persisted: %+v", store.profiles["1"])
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(newProfileStoreStub(), zap.NewNop())

	if _, err := svc.Update(context.Background(), model.Profile{ID: "1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := svc.Update(context.Background(), model.Profile{Name: "No ID"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newProfileStoreStub(model.Profile{ID: "1", Name: "John Smith"})
	svc := NewService(store, zap.NewNop())

	if err := svc.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
