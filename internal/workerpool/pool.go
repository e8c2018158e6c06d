// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package workerpool dispatches background work off the request
// goroutine: a typed job queue plus a bounded pool of workers that route
// each job to the handler registered for its type. The server registers
// only the tagging job; embedding and extraction run inline in ingestion.
// Jobs are routed by type to a registered handler, rather than each
// job kind needing its own bespoke pool, with an in-memory queue by
// default and an optional Redis-backed one for multi-process
// deployments.
package workerpool

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/logger"
)

// Job is one unit of work: a type tag routing it to a handler, plus an
// opaque JSON payload that handler decodes.
type Job struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue is the contract a job source must satisfy. MemoryQueue and
// RedisQueue both implement it.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
}

// HandlerFunc processes one dequeued job. An error is logged; it does
// not stop the worker loop.
type HandlerFunc func(ctx context.Context, job Job) error

// Pool is a bounded set of workers draining a Queue and routing each
// job by Type to a registered HandlerFunc.
type Pool struct {
	queue       Queue
	workerCount int

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a pool over queue with workerCount worker goroutines.
// workerCount <= 0 defaults to 1.
func New(queue Queue, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{queue: queue, workerCount: workerCount, handlers: make(map[string]HandlerFunc)}
}

// RegisterHandler wires a handler for one job type. Registering before
// Start is the common case, but a handler registered while running
// takes effect on the next dequeue of that type.
func (p *Pool) RegisterHandler(jobType string, handler HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = handler
}

// Enqueue marshals payload and pushes it onto the queue as a job of the
// given type.
func (p *Pool) Enqueue(ctx context.Context, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return herr.Wrap(herr.KindAPI, herr.SeverityLow, "failed to encode job payload", err)
	}
	return p.queue.Enqueue(ctx, Job{Type: jobType, Payload: data, CreatedAt: time.Now().UTC()})
}

// Start launches the worker goroutines. Each blocks on Dequeue until
// ctx is cancelled via Stop.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		id := i + 1
		go p.workerLoop(runCtx, id)
	}
}

// Stop cancels every worker and waits for them to drain.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) workerLoop(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warnf("workerpool: worker %d dequeue error: %v", id, err)
			continue
		}

		p.mu.RLock()
		handler, ok := p.handlers[job.Type]
		p.mu.RUnlock()
		if !ok {
			logger.Warnf("workerpool: worker %d has no handler for job type %q, dropping", id, job.Type)
			continue
		}

		if err := handler(ctx, job); err != nil {
			logger.Warnf("workerpool: worker %d handler error for job type %q: %v", id, job.Type, err)
		}
	}
}
