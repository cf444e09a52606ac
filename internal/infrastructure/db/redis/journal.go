package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/workforce/login-service/internal/core/domain"
)

// CompensationJournal keeps the most recent failed compensations in a capped
// Redis list, newest first.
type CompensationJournal struct {
	client *redis.Client
	key    string
	// capacity bounds the list so an outage cannot grow it without limit.
	capacity int64
}

// NewCompensationJournal wraps client. Key and capacity come from cfg.
func NewCompensationJournal(client *redis.Client, cfg Config) *CompensationJournal {
	cfg = cfg.withDefaults()
	return &CompensationJournal{client: client, key: cfg.JournalKey, capacity: cfg.JournalCap}
}

// Ping checks the underlying connection, for readiness probes.
func (j *CompensationJournal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (j *CompensationJournal) Close() error {
	return j.client.Close()
}

// Record pushes rec onto the journal and trims it to the configured capacity.
func (j *CompensationJournal) Record(ctx context.Context, rec domain.OrphanRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode orphan: %w", err)
	}

	pipe := j.client.TxPipeline()
	pipe.LPush(ctx, j.key, payload)
	pipe.LTrim(ctx, j.key, 0, j.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("journal orphan: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (j *CompensationJournal) Recent(ctx context.Context, limit int64) ([]domain.OrphanRecord, error) {
	if limit <= 0 {
		return []domain.OrphanRecord{}, nil
	}

	raw, err := j.client.LRange(ctx, j.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	out := make([]domain.OrphanRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.OrphanRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode orphan: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
