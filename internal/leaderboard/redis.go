package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using a Redis sorted set per game, scored by
// the session's final score.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed leaderboard.
func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStore{
		client: rdb,
		logger: logger,
	}
}

func boardKey(gameName string) string {
	return "leaderboard:" + gameName
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Submit(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("Failed to marshal leaderboard entry", "id", entry.ID, "error", err)
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	cmd := r.client.ZAdd(ctx, boardKey(entry.Game), redis.Z{
		Score:  float64(entry.Score),
		Member: string(data),
	})
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to submit leaderboard entry", "id", entry.ID, "error", err)
		return fmt.Errorf("failed to submit leaderboard entry: %w", err)
	}

	r.logger.Debug("Leaderboard entry submitted", "id", entry.ID, "game", entry.Game, "score", entry.Score)
	return nil
}

func (r *RedisStore) Top(ctx context.Context, gameName string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	cmd := r.client.ZRevRangeWithScores(ctx, boardKey(gameName), 0, int64(n-1))
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to read leaderboard", "game", gameName, "error", err)
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(cmd.Val()))
	for _, z := range cmd.Val() {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			r.logger.Warn("Skipping malformed leaderboard entry", "game", gameName, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	// Equal scores come back in lexical member order; prefer recency.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayedAt.After(entries[j].PlayedAt)
	})
	return entries, nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}
