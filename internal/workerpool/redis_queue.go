// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package workerpool

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/northbound/hive-rag/internal/herr"
)

// RedisQueue backs the worker pool with a Redis list (RPUSH/BLPOP),
// letting multiple server processes share one job queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a RedisQueue over client, keyed by key. key
// defaults to "hive-rag:jobs" when empty.
func NewRedisQueue(client *redis.Client, key string) (*RedisQueue, error) {
	if key == "" {
		key = "hive-rag:jobs"
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to reach redis", err)
	}
	return &RedisQueue{client: client, key: key}, nil
}

// Enqueue RPUSHes the marshaled job.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return herr.Wrap(herr.KindAPI, herr.SeverityLow, "failed to encode job", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to enqueue job to redis", err)
	}
	return nil
}

// Dequeue BLPOPs the next job, blocking until one is available or ctx
// is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	type result struct {
		val []string
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		val, err := q.client.BLPop(ctx, 0, q.key).Result()
		resultCh <- result{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			if res.err == redis.Nil {
				return Job{}, ctx.Err()
			}
			return Job{}, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "failed to dequeue job from redis", res.err)
		}
		if len(res.val) < 2 {
			return Job{}, herr.New(herr.KindStorage, herr.SeverityHigh, "unexpected redis blpop result shape")
		}
		var job Job
		if err := json.Unmarshal([]byte(res.val[1]), &job); err != nil {
			return Job{}, herr.Wrap(herr.KindStorage, herr.SeverityMedium, "corrupt job payload", err)
		}
		return job, nil
	}
}
