package taskclient

import (
	"context"
	"log"
	"sync"
	"time"

	"taskhub/internal/models"
)

// DefaultCompleteDelay is the pause between marking a task as completing and
// committing the status change, sized to be perceptible in a UI.
const DefaultCompleteDelay = time.Second

// Stats are the dashboard counters derived from the cached list.
type Stats struct {
	Total          int
	Pending        int
	InProgress     int
	Completed      int
	CompletionRate float64
}

// Store caches the last-fetched task list for one set of filters and runs the
// optimistic completion flow: Complete marks the id as completing at once, the
// actual status write happens after a delay, and both outcomes clear the mark.
// The server response is always ground truth; every successful mutation
// triggers a full re-list.
type Store struct {
	client *Client
	delay  time.Duration

	mu         sync.Mutex
	filter     models.TaskFilter
	tasks      []models.Task
	completing map[int64]*time.Timer
	closed     bool

	onChange func()
	errLog   func(format string, args ...interface{})
}

type StoreOption func(*Store)

// WithCompleteDelay overrides the completing-to-commit delay.
func WithCompleteDelay(d time.Duration) StoreOption {
	return func(s *Store) { s.delay = d }
}

// WithOnChange registers a callback fired after every state change. It is
// called without the store lock held.
func WithOnChange(fn func()) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// WithErrorLog redirects failure reports away from the default log.Printf.
func WithErrorLog(fn func(format string, args ...interface{})) StoreOption {
	return func(s *Store) { s.errLog = fn }
}

func NewStore(client *Client, opts ...StoreOption) *Store {
	s := &Store{
		client:     client,
		delay:      DefaultCompleteDelay,
		completing: make(map[int64]*time.Timer),
		errLog:     log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Refresh re-lists with the currently active filters.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	tasks, err := s.client.ListTasks(ctx, filter)
	if err != nil {
		// keep showing the previous list on load failure
		s.errLog("[store][refresh][err] %v", err)
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetFilter replaces the active filters and re-fetches.
func (s *Store) SetFilter(ctx context.Context, filter models.TaskFilter) error {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// SetSearch replaces only the search term and re-fetches.
func (s *Store) SetSearch(ctx context.Context, search string) error {
	s.mu.Lock()
	s.filter.Search = search
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Tasks returns a copy of the cached list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Completing reports whether the task is mid animation, not yet committed.
func (s *Store) Completing(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completing[id]
	return ok
}

// Stats derives the dashboard counters from the cached list.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		switch t.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusCompleted:
			st.Completed++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
	}
	return st
}

// Create adds a task and re-fetches on success.
func (s *Store) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	task, err := s.client.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	_ = s.Refresh(ctx)
	return task, nil
}

// Update applies a partial update and re-fetches on success.
func (s *Store) Update(ctx context.Context, id int64, upd models.TaskUpdate) (*models.Task, error) {
	task, err := s.client.UpdateTask(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	_ = s.Refresh(ctx)
	return task, nil
}

// Delete removes a task and re-fetches on success.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	_ = s.Refresh(ctx)
	return nil
}

// Complete starts the delayed completion of a task. The id enters the
// completing set before this returns; after the delay the status write is
// issued. Returns false when nothing was started: unknown id, already
// completed, already completing, or the store is closed.
func (s *Store) Complete(id int64) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.completing[id]; ok {
		s.mu.Unlock()
		return false
	}
	var found *models.Task
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			found = &s.tasks[i]
			break
		}
	}
	if found == nil || found.Status == models.StatusCompleted {
		s.mu.Unlock()
		return false
	}

	s.completing[id] = time.AfterFunc(s.delay, func() { s.commitComplete(id) })
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *Store) commitComplete(id int64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status := models.StatusCompleted
	_, err := s.client.UpdateTask(ctx, id, models.TaskUpdate{Status: &status})

	s.mu.Lock()
	delete(s.completing, id)
	closed := s.closed
	s.mu.Unlock()

	// Close raced the commit; the consumer is gone, drop the result
	if closed {
		return
	}

	if err != nil {
		// best effort: the task reverts visually, nothing was persisted
		s.errLog("[store][complete][err] id=%d: %v", id, err)
		s.notify()
		return
	}
	_ = s.Refresh(ctx)
}

// Close stops every pending completion timer and refuses new ones. A commit
// whose timer already fired may still complete its write, but it performs no
// state change or re-fetch once the store is closed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, timer := range s.completing {
		timer.Stop()
		delete(s.completing, id)
	}
}
