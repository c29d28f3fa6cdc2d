package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/humapedia/humapedia/internal/domain/model"
	redrepo "github.com/humapedia/humapedia/internal/repo/redis"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(redrepo.NewHistoryRepo(client), Config{
		MaxEntries:      100,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})

	// Deterministic, strictly increasing timestamps.
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	return svc, mr
}

func TestAppendCapsAtMaxEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		_, err := svc.Append(ctx, "u1", AppendInput{
			Query:   fmt.Sprintf("query-%d", i),
			Type:    model.SearchTypeText,
			Results: 1,
		})
		if err != nil {
			t.Fatalf("append #%d: %v", i, err)
		}
	}

	page, err := svc.List(ctx, "u1", 100, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if page.Total != 100 {
		t.Fatalf("expected history capped at 100, got %d", page.Total)
	}
	// Newest first: the oldest five appends were evicted.
	if page.Entries[0].Query != "query-104" {
		t.Fatalf("expected newest entry first, got %q", page.Entries[0].Query)
	}
	if page.Entries[99].Query != "query-5" {
		t.Fatalf("expected oldest surviving entry to be query-5, got %q", page.Entries[99].Query)
	}
}

func TestAppendDerivesSuccessFromResults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hit, err := svc.Append(ctx, "u1", AppendInput{Query: "john", Type: model.SearchTypeText, Results: 3})
	if err != nil {
		t.Fatalf("append hit: %v", err)
	}
	miss, err := svc.Append(ctx, "u1", AppendInput{Query: "nobody", Type: model.SearchTypeText, Results: 0})
	if err != nil {
		t.Fatalf("append miss: %v", err)
	}

	if !hit.Success || miss.Success {
		t.Fatalf("success not derived from results: hit=%v miss=%v", hit.Success, miss.Success)
	}
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := svc.Append(ctx, "u1", AppendInput{Query: fmt.Sprintf("q%d", i), Type: model.SearchTypeText, Results: 1}); err != nil {
			t.Fatalf("append #%d: %v", i, err)
		}
	}

	first, err := svc.List(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("list first window: %v", err)
	}
	if len(first.Entries) != 10 || first.Total != 25 || !first.HasMore {
		t.Fatalf("unexpected first window: len=%d total=%d more=%v", len(first.Entries), first.Total, first.HasMore)
	}
	// Newest first, so offset 0 starts at the latest append.
	if first.Entries[0].Query != "q24" {
		t.Fatalf("expected newest entry first, got %q", first.Entries[0].Query)
	}

	next, err := svc.List(ctx, "u1", 10, 10)
	if err != nil {
		t.Fatalf("list second window: %v", err)
	}
	if next.Entries[0].Query != "q14" || next.Offset != 10 {
		t.Fatalf("unexpected second window: %+v", next)
	}

	last, err := svc.List(ctx, "u1", 10, 20)
	if err != nil {
		t.Fatalf("list last window: %v", err)
	}
	if len(last.Entries) != 5 || last.HasMore {
		t.Fatalf("unexpected last window: len=%d more=%v", len(last.Entries), last.HasMore)
	}

	past, err := svc.List(ctx, "u1", 10, 40)
	if err != nil {
		t.Fatalf("list past the end: %v", err)
	}
	if len(past.Entries) != 0 || past.HasMore {
		t.Fatalf("expected empty window past the end, got %+v", past)
	}
}

func TestRemoveAndClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Append(ctx, "u1", AppendInput{Query: "john", Type: model.SearchTypeText, Results: 1})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := svc.Append(ctx, "u1", AppendInput{Query: "sarah", Type: model.SearchTypeText, Results: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.Remove(ctx, "u1", entry.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, "u1", entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound on double remove, got %v", err)
	}

	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	page, err := svc.List(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected empty history after clear, got %d", page.Total)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appends := []AppendInput{
		{Query: "john", Type: model.SearchTypeText, Results: 2},
		{Query: "ghost", Type: model.SearchTypeText, Results: 0},
		{Type: model.SearchTypeFace, Results: 3},
		{Type: model.SearchTypeFace, Results: 0},
	}
	for i, in := range appends {
		if _, err := svc.Append(ctx, "u1", in); err != nil {
			t.Fatalf("append #%d: %v", i, err)
		}
	}

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.Total != 4 || stats.TextSearches != 2 || stats.FaceSearches != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Successful != 2 || stats.SuccessRate != 0.5 {
		t.Fatalf("unexpected success stats: %+v", stats)
	}
	if stats.AverageResults != 1.25 {
		t.Fatalf("unexpected average results: %v", stats.AverageResults)
	}
}

func TestSuggestionsRecentSuccessfulTextSearches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appends := []AppendInput{
		{Query: "alpha", Type: model.SearchTypeText, Results: 1},
		{Query: "beta", Type: model.SearchTypeText, Results: 0},   // failed, excluded
		{Type: model.SearchTypeFace, Results: 2},                  // face, excluded
		{Query: "gamma", Type: model.SearchTypeText, Results: 1},
		{Query: "Alpha", Type: model.SearchTypeText, Results: 1},  // dup of alpha
		{Query: "delta", Type: model.SearchTypeText, Results: 1},
		{Query: "epsilon", Type: model.SearchTypeText, Results: 1},
		{Query: "zeta", Type: model.SearchTypeText, Results: 1},
		{Query: "eta", Type: model.SearchTypeText, Results: 1},
	}
	for i, in := range appends {
		if _, err := svc.Append(ctx, "u1", in); err != nil {
			t.Fatalf("append #%d: %v", i, err)
		}
	}

	suggestions, err := svc.Suggestions(ctx, "u1")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}

	want := []string{"eta", "zeta", "epsilon", "delta", "Alpha"}
	if len(suggestions) != len(want) {
		t.Fatalf("expected %d suggestions, got %v", len(want), suggestions)
	}
	for i := range want {
		if suggestions[i] != want[i] {
			t.Fatalf("suggestion %d: expected %q, got %q", i, want[i], suggestions[i])
		}
	}
}

func TestAppendValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Append(ctx, "", AppendInput{Type: model.SearchTypeText}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty user, got %v", err)
	}
	if _, err := svc.Append(ctx, "u1", AppendInput{Type: "voice_search"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown type, got %v", err)
	}
	if _, err := svc.List(ctx, "u1", 101, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for oversized limit, got %v", err)
	}
	if _, err := svc.List(ctx, "u1", 10, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative offset, got %v", err)
	}
}

func TestAppendHonorsSuppliedTimestampAndOutcome(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	replayedAt := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	flagged := false
	entry, err := svc.Append(ctx, "u1", AppendInput{
		Query:     "john",
		Type:      model.SearchTypeText,
		Results:   4,
		Timestamp: replayedAt,
		Success:   &flagged,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if !entry.Timestamp.Equal(replayedAt) {
		t.Fatalf("supplied timestamp not kept: %v", entry.Timestamp)
	}
	// An explicit outcome wins over the derived one.
	if entry.Success {
		t.Fatalf("explicit failure overridden: %+v", entry)
	}
}
