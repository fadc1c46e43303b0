// Package recorder provides an asynchronous worker pool that persists
// finalized chat messages using the provided storage.Driver and publishes a
// MessageFinalizedEvent for each reply.
//
// The pool decouples storage and publishing from the streaming hot path so
// that a slow database or broker never stalls token rendering.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/eventstream"
	"github.com/papercomputeco/chatstream/pkg/logger"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Session is the session header; its Messages are ignored.
	Session chat.Session

	// Messages are appended to the session in order.
	Messages []chat.Message
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting sessions.
	Driver storage.Driver

	// Publisher is the optional event publisher for finalized replies.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of each worker's buffered job channel
	// (defaults to 256).
	QueueSize uint

	// JobTimeout bounds the storage and publish calls of one job.
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool. Jobs of
// one session always go to the same worker, so they are stored in the order
// they were enqueued.
type Pool struct {
	config *Config
	queues []chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("recorder requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout == 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queues: make([]chan Job, c.NumWorkers),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		wp.queues[i] = make(chan Job, c.QueueSize)
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, recorder closed, job dropped",
			"session_id", job.Session.ID,
		)
		return false
	}

	select {
	case p.queues[p.shard(job.Session.ID)] <- job:
		p.logger.Debug("job queued",
			"session_id", job.Session.ID,
			"messages", len(job.Messages),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"session_id", job.Session.ID,
			"messages", len(job.Messages),
		)
		return false
	}
}

// Record implements chat.Recorder.
func (p *Pool) Record(session chat.Session, msgs []chat.Message) bool {
	session.Messages = nil
	return p.Enqueue(Job{Session: session, Messages: msgs})
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) shard(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(p.queues)))
}

// worker is the inner worker thread that continuously pulls jobs off its queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queues[id] {
		p.processJob(job)
	}

	p.logger.Debug("recorder worker stopped", "worker_id", id)
}

// processJob stores the job's messages and publishes an event per
// assistant reply.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	if err := p.store(ctx, job); err != nil {
		p.logger.Error("async session storage failed",
			"session_id", job.Session.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("messages stored",
		"session_id", job.Session.ID,
		"messages", len(job.Messages),
	)

	if p.config.Publisher != nil {
		p.publish(ctx, job)
	}
}

func (p *Pool) store(ctx context.Context, job Job) error {
	header := job.Session
	header.Messages = nil

	if err := p.config.Driver.SaveSession(ctx, &header); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if err := p.config.Driver.AppendMessages(ctx, header.ID, job.Messages...); err != nil {
		return fmt.Errorf("appending messages: %w", err)
	}

	return nil
}

// publish emits one event per assistant message, paired with the user
// message preceding it. Errors are logged but not returned so a broker
// outage never loses stored history.
func (p *Pool) publish(ctx context.Context, job Job) {
	var prompt *chat.Message
	for i := range job.Messages {
		msg := job.Messages[i]
		if msg.Role == chat.RoleUser {
			prompt = &msg
			continue
		}

		event := eventstream.NewMessageFinalizedEvent(job.Session.ID, prompt, msg)
		if err := p.config.Publisher.PublishMessage(ctx, event); err != nil {
			p.logger.Warn("failed to publish message event",
				"session_id", job.Session.ID,
				"event_id", event.EventID,
				"error", err,
			)
			continue
		}

		p.logger.Debug("published message event",
			"session_id", job.Session.ID,
			"event_id", event.EventID,
		)
		prompt = nil
	}
}
