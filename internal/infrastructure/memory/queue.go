package memory

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("run queue is closed")

// Queue is an in-process run queue backed by a buffered channel. Push
// blocks while the buffer is full. Its contents die with the process, so
// Close hands back whatever was never popped.
type Queue struct {
	items   chan string
	closing chan struct{}
	once    sync.Once

	// Push holds the read lock; Close takes the write lock to wait out
	// pushes in progress.
	mu     sync.RWMutex
	closed bool
}

func NewQueue(buffer int) *Queue {
	if buffer < 1 {
		buffer = 1
	}
	return &Queue{
		items:   make(chan string, buffer),
		closing: make(chan struct{}),
	}
}

func (q *Queue) Push(ctx context.Context, runID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- runID:
		return nil
	case <-q.closing:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Pop(ctx context.Context) (string, error) {
	select {
	case runID := <-q.items:
		return runID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close rejects further pushes and returns the ids still buffered.
// Calling it again returns nothing.
func (q *Queue) Close() []string {
	q.once.Do(func() { close(q.closing) })

	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true

	var pending []string
	for {
		select {
		case runID := <-q.items:
			pending = append(pending, runID)
		default:
			return pending
		}
	}
}
