package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humapedia/humapedia/internal/domain/model"
	redrepo "github.com/humapedia/humapedia/internal/repo/redis"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultMaxEntries  = 100
	maxSuggestionCount = 5
)

var (
	ErrValidation    = errors.New("validation error")
	ErrEntryNotFound = errors.New("history entry not found")
)

type Store interface {
	Push(ctx context.Context, entry model.HistoryEntry, maxEntries int) error
	ListAll(ctx context.Context, userID string) ([]model.HistoryEntry, error)
	Remove(ctx context.Context, userID, entryID string) error
	Clear(ctx context.Context, userID string) error
}

type Config struct {
	MaxEntries      int
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	store Store
	cfg   Config

	now   func() time.Time
	newID func() string
}

type AppendInput struct {
	Query   string
	Type    string
	Results int
	Filters model.SearchFilters
	// Timestamp backdates the entry for replayed searches; zero means now.
	Timestamp time.Time
	// Success overrides the derived outcome when set.
	Success  *bool
	ImageKey string
}

type Page struct {
	Entries []model.HistoryEntry
	Limit   int
	Offset  int
	Total   int
	HasMore bool
}

type Stats struct {
	Total          int
	TextSearches   int
	FaceSearches   int
	Successful     int
	SuccessRate    float64
	AverageResults float64
}

func NewService(store Store, cfg Config) *Service {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = maxPageSize
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Append records a finished search. Success is derived from the result
// count; an empty result set is a failed search.
func (s *Service) Append(ctx context.Context, userID string, in AppendInput) (model.HistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return model.HistoryEntry{}, ErrValidation
	}
	if in.Type != model.SearchTypeText && in.Type != model.SearchTypeFace {
		return model.HistoryEntry{}, fmt.Errorf("%w: unknown search type %q", ErrValidation, in.Type)
	}
	if in.Results < 0 {
		return model.HistoryEntry{}, fmt.Errorf("%w: negative result count", ErrValidation)
	}

	timestamp := in.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}
	success := in.Results > 0
	if in.Success != nil {
		success = *in.Success
	}

	entry := model.HistoryEntry{
		ID:        s.newID(),
		UserID:    userID,
		Query:     strings.TrimSpace(in.Query),
		Type:      in.Type,
		Results:   in.Results,
		Filters:   in.Filters,
		Timestamp: timestamp.UTC(),
		Success:   success,
		ImageKey:  in.ImageKey,
	}

	if err := s.store.Push(ctx, entry, s.cfg.MaxEntries); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("push history entry: %w", err)
	}

	return entry, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) (Page, error) {
	if strings.TrimSpace(userID) == "" {
		return Page{}, ErrValidation
	}
	if limit == 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit < 1 || limit > s.cfg.MaxPageSize || offset < 0 {
		return Page{}, ErrValidation
	}

	entries, err := s.listNewestFirst(ctx, userID)
	if err != nil {
		return Page{}, err
	}

	total := len(entries)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Page{
		Entries: entries[start:end],
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: end < total,
	}, nil
}

func (s *Service) Remove(ctx context.Context, userID, entryID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(entryID) == "" {
		return ErrValidation
	}

	if err := s.store.Remove(ctx, userID, entryID); err != nil {
		if errors.Is(err, redrepo.ErrHistoryEntryNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("remove history entry: %w", err)
	}

	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrValidation
	}

	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	return nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return Stats{}, ErrValidation
	}

	entries, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("list history: %w", err)
	}

	stats := Stats{Total: len(entries)}
	resultSum := 0
	for _, entry := range entries {
		switch entry.Type {
		case model.SearchTypeText:
			stats.TextSearches++
		case model.SearchTypeFace:
			stats.FaceSearches++
		}
		if entry.Success {
			stats.Successful++
		}
		resultSum += entry.Results
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
		stats.AverageResults = float64(resultSum) / float64(stats.Total)
	}

	return stats, nil
}

// Suggestions returns the queries of the most recent successful text
// searches, deduplicated, newest first.
func (s *Service) Suggestions(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrValidation
	}

	entries, err := s.listNewestFirst(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, maxSuggestionCount)
	suggestions := make([]string, 0, maxSuggestionCount)
	for _, entry := range entries {
		if entry.Type != model.SearchTypeText || !entry.Success || entry.Query == "" {
			continue
		}
		key := strings.ToLower(entry.Query)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, entry.Query)
		if len(suggestions) == maxSuggestionCount {
			break
		}
	}

	return suggestions, nil
}

func (s *Service) listNewestFirst(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	entries, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	// The store already keeps newest first; re-sorting makes the order a
	// service guarantee rather than a storage detail.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}
