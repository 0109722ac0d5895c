package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSkipped marks an item the handler declined to process (gated tenants).
// Skips are counted separately and never logged as failures.
var ErrSkipped = errors.New("item skipped")

// Handler processes one queue item. A returned error is logged with the
// tenant's display name and discarded: the item is never redelivered by
// this consumer. Redelivery, if any, is the producer's concern.
type Handler func(ctx context.Context, it Item) error

// Consumer pops reconcile requests off the Redis list and runs them through
// a small worker pool. Workers stop when the context is cancelled.
type Consumer struct {
	rdb     *redis.Client
	q       *Queue
	key     string
	workers int
	handler Handler
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

func NewConsumer(rdb *redis.Client, key string, workers int, h Handler, log *zap.SugaredLogger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{rdb: rdb, q: New(rdb, key), key: key, workers: workers, handler: h, log: log}
}

// Start launches the worker pool and a depth sampler.
func (c *Consumer) Start(ctx context.Context) {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}
	c.wg.Add(1)
	go c.sampleDepth(ctx)
	c.log.Infow("reconcile consumer started", "workers", c.workers, "key", c.key)
}

// Wait blocks until all workers have exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) worker(ctx context.Context, id int) {
	defer c.wg.Done()
	for {
		res, err := c.rdb.BLPop(ctx, 5*time.Second, c.key).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			c.log.Warnw("queue pop failed", "worker", id, "err", err)
			time.Sleep(time.Second)
			continue
		}
		if len(res) != 2 {
			continue
		}
		c.handle(ctx, []byte(res[1]))
	}
}

// handle decodes and dispatches one payload. Handler errors are logged once
// with the tenant's display name and swallowed.
func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var it Item
	if err := json.Unmarshal(payload, &it); err != nil || it.CustomerID == "" {
		c.log.Warnw("discarding malformed queue item", "err", err)
		reconcileOutcomes.WithLabelValues("invalid").Inc()
		return
	}
	err := c.handler(ctx, it)
	switch {
	case errors.Is(err, ErrSkipped):
		c.log.Infow("reconcile skipped", "tenant", it.DisplayName, "customerId", it.CustomerID)
		reconcileOutcomes.WithLabelValues("skipped").Inc()
	case err != nil:
		c.log.Errorw("reconcile failed", "tenant", it.DisplayName, "customerId", it.CustomerID, "err", err)
		reconcileOutcomes.WithLabelValues("error").Inc()
	default:
		reconcileOutcomes.WithLabelValues("ok").Inc()
	}
}

func (c *Consumer) sampleDepth(ctx context.Context) {
	defer c.wg.Done()
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := c.q.Depth(ctx); err == nil {
				queueDepth.Set(float64(n))
			}
		}
	}
}
