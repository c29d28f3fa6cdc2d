package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/humapedia/humapedia/internal/domain/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var ErrValidation = errors.New("validation error")

type Store interface {
	List(ctx context.Context) ([]model.Profile, error)
}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	store Store
	cfg   Config
}

type Input struct {
	Query   string
	Filters model.SearchFilters
	Page    int
	Limit   int
}

type Page struct {
	Results    []model.Profile
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

func NewService(store Store, cfg Config) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = maxPageSize
	}

	return &Service{
		store: store,
		cfg:   cfg,
	}
}

// Search is a pure function of the input and the current store snapshot:
// identical arguments against an unchanged store yield identical pages.
func (s *Service) Search(ctx context.Context, in Input) (Page, error) {
	if s.store == nil {
		return Page{}, fmt.Errorf("profile store is nil")
	}

	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = s.cfg.DefaultPageSize
	}
	if in.Page < 1 || in.Limit < 1 || in.Limit > s.cfg.MaxPageSize {
		return Page{}, ErrValidation
	}

	profiles, err := s.store.List(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("list profiles: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(in.Query))
	matched := make([]model.Profile, 0, len(profiles))
	for _, profile := range profiles {
		if !matchesQuery(profile, query) {
			continue
		}
		if !MatchesFilters(profile, in.Filters) {
			continue
		}
		matched = append(matched, profile)
	}

	// Name hits rank first; ties keep store order for determinism.
	sort.SliceStable(matched, func(i, j int) bool {
		return nameScore(matched[i], query) > nameScore(matched[j], query)
	})

	total := len(matched)
	start := (in.Page - 1) * in.Limit
	end := start + in.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Results:    matched[start:end],
		Page:       in.Page,
		Limit:      in.Limit,
		Total:      total,
		TotalPages: (total + in.Limit - 1) / in.Limit,
		HasNext:    (in.Page-1)*in.Limit+in.Limit < total,
		HasPrev:    in.Page > 1,
	}, nil
}

func matchesQuery(profile model.Profile, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(searchableText(profile), query)
}

func searchableText(profile model.Profile) string {
	parts := make([]string, 0, 5+len(profile.Skills))
	parts = append(parts,
		profile.Name,
		profile.Profession,
		profile.Company,
		profile.Location,
		profile.Bio,
	)
	parts = append(parts, profile.Skills...)
	return strings.ToLower(strings.Join(parts, " "))
}

// MatchesFilters applies the field filters as case-insensitive substring
// checks. Shared with the face search path, which filters its candidate
// list under the same policy.
func MatchesFilters(profile model.Profile, filters model.SearchFilters) bool {
	if filters.Location != "" && !containsFold(profile.Location, filters.Location) {
		return false
	}
	if filters.Profession != "" && !containsFold(profile.Profession, filters.Profession) {
		return false
	}
	if filters.Company != "" && !containsFold(profile.Company, filters.Company) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func nameScore(profile model.Profile, query string) int {
	if query != "" && strings.Contains(strings.ToLower(profile.Name), query) {
		return 2
	}
	return 1
}
