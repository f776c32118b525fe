package client

import (
	"context"
	"sync"

	"github.com/nhle/goal-tracker/internal/model"
)

// Fetcher is the transport collaborator the cache refreshes from.
type Fetcher interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
}

// TaskCache holds the client's view of the task list. It is explicit
// injected state, not a process-wide singleton: construct one per session
// and pass it where it is needed.
//
// Refresh follows stale-while-revalidate semantics: the last successfully
// fetched list stays visible through any fetch failure, and a prior error
// is cleared only by a successful refresh. Mutations are applied to the
// cache only after the server confirms them.
type TaskCache struct {
	fetch Fetcher

	mu      sync.RWMutex
	tasks   []model.Task
	loaded  bool
	loading bool
	err     error
}

// NewTaskCache creates an empty cache over the given fetcher.
func NewTaskCache(fetch Fetcher) *TaskCache {
	return &TaskCache{fetch: fetch}
}

// Refresh fetches the task list. On failure the previous snapshot is kept
// and the error is retained for Err; on success the snapshot is replaced
// and any prior error cleared.
func (c *TaskCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	tasks, err := c.fetch.ListTasks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.err = err
		return err
	}
	c.tasks = tasks
	c.loaded = true
	c.err = nil
	return nil
}

// Tasks returns a copy of the cached snapshot.
func (c *TaskCache) Tasks() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Loaded reports whether at least one refresh has succeeded.
func (c *TaskCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Loading reports whether a refresh is in flight.
func (c *TaskCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error from the most recent failed refresh, or nil after
// a successful one. The cached snapshot stays valid either way.
func (c *TaskCache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// ClearErr dismisses a surfaced error without touching the snapshot.
func (c *TaskCache) ClearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

// Apply replaces (or inserts) one task after a confirmed server mutation.
func (c *TaskCache) Apply(task model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task
			return
		}
	}
	c.tasks = append(c.tasks, task)
}

// Drop removes one task after a confirmed server delete.
func (c *TaskCache) Drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

// GlobalProgress returns the mean progress over the cached snapshot.
func (c *TaskCache) GlobalProgress() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.GlobalProgress(c.tasks)
}
