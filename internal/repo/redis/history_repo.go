package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/humapedia/humapedia/internal/domain/model"
)

const historyKeyPrefix = "search_history:"

var ErrHistoryEntryNotFound = errors.New("history entry not found")

type HistoryRepo struct {
	client *goredis.Client
}

func NewHistoryRepo(client *goredis.Client) *HistoryRepo {
	return &HistoryRepo{client: client}
}

// Push prepends the entry and trims the list to maxEntries in one
// pipeline, so the cap holds even under concurrent appends.
func (r *HistoryRepo) Push(ctx context.Context, entry model.HistoryEntry, maxEntries int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(entry.UserID) == "" || strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("invalid history entry payload")
	}
	if maxEntries <= 0 {
		return fmt.Errorf("history cap must be positive")
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, historyKey(entry.UserID), raw)
	pipe.LTrim(ctx, historyKey(entry.UserID), 0, int64(maxEntries-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push history entry: %w", err)
	}

	return nil
}

func (r *HistoryRepo) ListAll(ctx context.Context, userID string) ([]model.HistoryEntry, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	raws, err := r.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history list: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *HistoryRepo) Remove(ctx context.Context, userID, entryID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(entryID) == "" {
		return fmt.Errorf("invalid history remove payload")
	}

	raws, err := r.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read history list: %w", err)
	}

	for _, raw := range raws {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.ID != entryID {
			continue
		}

		removed, err := r.client.LRem(ctx, historyKey(userID), 1, raw).Result()
		if err != nil {
			return fmt.Errorf("remove history entry: %w", err)
		}
		if removed == 0 {
			return ErrHistoryEntryNotFound
		}
		return nil
	}

	return ErrHistoryEntryNotFound
}

func (r *HistoryRepo) Clear(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	if err := r.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear history list: %w", err)
	}

	return nil
}

// ReplaceAll rewrites the full list, newest first. Used by the retention
// cleanup job.
func (r *HistoryRepo) ReplaceAll(ctx context.Context, userID string, entries []model.HistoryEntry) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}
		values = append(values, raw)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, historyKey(userID))
	if len(values) > 0 {
		pipe.RPush(ctx, historyKey(userID), values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace history list: %w", err)
	}

	return nil
}

// ListUserIDs scans for users that have a history list.
func (r *HistoryRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	var userIDs []string
	iter := r.client.Scan(ctx, 0, historyKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		userIDs = append(userIDs, strings.TrimPrefix(iter.Val(), historyKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan history keys: %w", err)
	}

	return userIDs, nil
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}
