package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Item is one queued reconcile request. DefaultDomainName may be empty,
// which signals that the tenant record is incomplete and a directory
// refresh is required after reconciliation.
type Item struct {
	MessageID         string `json:"messageId,omitempty"`
	CustomerID        string `json:"customerId"`
	DisplayName       string `json:"displayName"`
	DefaultDomainName string `json:"defaultDomainName,omitempty"`
}

// Enqueuer is the producer side of the reconcile queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, it Item) error
}

// Queue is a Redis-list backed reconcile queue.
type Queue struct {
	rdb *redis.Client
	key string
}

func New(rdb *redis.Client, key string) *Queue {
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, it Item) error {
	if it.CustomerID == "" {
		return fmt.Errorf("enqueue: empty customer id")
	}
	if it.MessageID == "" {
		it.MessageID = uuid.NewString()
	}
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Depth returns the current queue length.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
