package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Func is a unit of work run by the registry.
type Func func(ctx context.Context) error

// Handle is a running unit of work.
type Handle struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed once the unit settles.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the settled error; nil before settle.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the unit settles or ctx ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Registry tracks in-flight units so they can be cancelled as a set.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handles: make(map[string]*Handle),
		logger:  logger,
	}
}

// NewID returns a fresh correlation ID.
func NewID() string {
	return uuid.NewString()
}

// Go runs fn under a new correlation ID.
func (r *Registry) Go(ctx context.Context, fn Func) *Handle {
	return r.GoWithID(ctx, NewID(), fn)
}

// GoWithID runs fn under id. The handle deregisters itself when fn returns.
func (r *Registry) GoWithID(ctx context.Context, id string, fn Func) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		ID:     id,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Task panicked", "task_id", id, "panic", rec)
				h.err = oops.With("task_id", id).Errorf("task panicked: %v", rec)
			}
			cancel()
			r.mu.Lock()
			delete(r.handles, id)
			r.mu.Unlock()
			close(h.done)
		}()
		h.err = fn(ctx)
	}()

	return h
}

// Cancel signals one unit. Reports whether it was still registered.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

// CancelAll signals every registered unit without waiting and returns how many were signalled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	handles := lo.Values(r.handles)
	r.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	if len(handles) > 0 {
		r.logger.Info("Cancelled tasks", "count", len(handles))
	}
	return len(handles)
}

// Len is the number of unsettled units.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Shutdown cancels everything; used by the DI container.
func (r *Registry) Shutdown() error {
	r.CancelAll()
	return nil
}
