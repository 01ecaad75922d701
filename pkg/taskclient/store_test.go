package taskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

// fakeAPI is a minimal in-memory task server speaking the real wire format.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int64
	tasks   map[int64]models.Task
	puts    []int64
	lists   int
	failPut bool

	// when set, a PUT announces itself on putStarted and blocks on putGate
	putStarted chan struct{}
	putGate    chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tasks: make(map[int64]models.Task)}
}

func (f *fakeAPI) seed(task models.Task) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	task.ID = f.nextID
	f.tasks[task.ID] = task
	return task
}

func (f *fakeAPI) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeAPI) get(id int64) (models.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

func (f *fakeAPI) server() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lists++
		out := []models.Task{}
		for _, t := range f.tasks {
			out = append(out, t)
		}
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"tasks": out})
	})

	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		var req CreateTaskRequest
		json.NewDecoder(r.Body).Decode(&req)
		task := f.seed(models.Task{
			Title:    req.Title,
			Status:   models.StatusPending,
			Priority: models.PriorityMedium,
		})
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"task": task})
	})

	mux.HandleFunc("PUT /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if f.putStarted != nil {
			f.putStarted <- struct{}{}
			<-f.putGate
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

		f.mu.Lock()
		if f.failPut {
			f.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
			return
		}
		f.puts = append(f.puts, id)
		task, ok := f.tasks[id]
		if !ok {
			f.mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
			return
		}
		var upd models.TaskUpdate
		json.NewDecoder(r.Body).Decode(&upd)
		if upd.Status != nil {
			task.Status = *upd.Status
		}
		if upd.Title != nil {
			task.Title = *upd.Title
		}
		f.tasks[id] = task
		f.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]interface{}{"task": task})
	})

	mux.HandleFunc("DELETE /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		delete(f.tasks, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

func newTestStore(t *testing.T, api *fakeAPI, opts ...StoreOption) *Store {
	t.Helper()
	srv := api.server()
	t.Cleanup(srv.Close)

	client := New(srv.URL)
	opts = append([]StoreOption{WithCompleteDelay(50 * time.Millisecond)}, opts...)
	store := NewStore(client, opts...)
	t.Cleanup(store.Close)

	require.NoError(t, store.Refresh(context.Background()))
	return store
}

func TestStoreComplete(t *testing.T) {
	t.Run("id enters the completing set before the commit", func(t *testing.T) {
		api := newFakeAPI()
		seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})
		store := newTestStore(t, api)

		require.True(t, store.Complete(seeded.ID))
		assert.True(t, store.Completing(seeded.ID))
		// nothing written yet
		assert.Equal(t, 0, api.putCount())

		require.Eventually(t, func() bool {
			return !store.Completing(seeded.ID)
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, 1, api.putCount())
		got, ok := api.get(seeded.ID)
		require.True(t, ok)
		assert.Equal(t, models.StatusCompleted, got.Status)

		// the cached list was re-fetched and reflects the server
		require.Eventually(t, func() bool {
			tasks := store.Tasks()
			return len(tasks) == 1 && tasks[0].Status == models.StatusCompleted
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("already completed task is a no-op", func(t *testing.T) {
		api := newFakeAPI()
		seeded := api.seed(models.Task{Title: "done", Status: models.StatusCompleted})
		store := newTestStore(t, api)

		assert.False(t, store.Complete(seeded.ID))
		assert.False(t, store.Completing(seeded.ID))
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		api := newFakeAPI()
		store := newTestStore(t, api)
		assert.False(t, store.Complete(999))
	})

	t.Run("second Complete while pending is a no-op", func(t *testing.T) {
		api := newFakeAPI()
		seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})
		store := newTestStore(t, api)

		require.True(t, store.Complete(seeded.ID))
		assert.False(t, store.Complete(seeded.ID))
	})

	t.Run("failed commit clears the mark and persists nothing", func(t *testing.T) {
		api := newFakeAPI()
		api.failPut = true
		seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})

		var logged []string
		var mu sync.Mutex
		store := newTestStore(t, api, WithErrorLog(func(format string, args ...interface{}) {
			mu.Lock()
			logged = append(logged, format)
			mu.Unlock()
		}))

		require.True(t, store.Complete(seeded.ID))
		require.Eventually(t, func() bool {
			return !store.Completing(seeded.ID)
		}, time.Second, 5*time.Millisecond)

		got, _ := api.get(seeded.ID)
		assert.Equal(t, models.StatusPending, got.Status)
		mu.Lock()
		assert.NotEmpty(t, logged)
		mu.Unlock()
	})

	t.Run("Close cancels a pending commit", func(t *testing.T) {
		api := newFakeAPI()
		seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})
		store := newTestStore(t, api)

		require.True(t, store.Complete(seeded.ID))
		store.Close()

		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, 0, api.putCount())
		got, _ := api.get(seeded.ID)
		assert.Equal(t, models.StatusPending, got.Status)

		// closed store refuses new completions
		assert.False(t, store.Complete(seeded.ID))
	})

	t.Run("Close during an in-flight commit drops the result", func(t *testing.T) {
		api := newFakeAPI()
		api.putStarted = make(chan struct{})
		api.putGate = make(chan struct{})
		seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})
		store := newTestStore(t, api)

		baseline := api.listCount()
		require.True(t, store.Complete(seeded.ID))

		// the commit is on the wire when Close happens
		<-api.putStarted
		store.Close()
		close(api.putGate)

		// no re-fetch and no completing mark after Close
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, baseline, api.listCount())
		assert.False(t, store.Completing(seeded.ID))
	})
}

func TestStoreMutationsRefetch(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(t, api)
	ctx := context.Background()

	before := api.listCount()
	created, err := store.Create(ctx, CreateTaskRequest{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, before+1, api.listCount())
	require.Len(t, store.Tasks(), 1)

	title := "renamed"
	_, err = store.Update(ctx, created.ID, models.TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, before+2, api.listCount())
	assert.Equal(t, "renamed", store.Tasks()[0].Title)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.Equal(t, before+3, api.listCount())
	assert.Empty(t, store.Tasks())
}

func TestStoreStats(t *testing.T) {
	api := newFakeAPI()
	api.seed(models.Task{Title: "a", Status: models.StatusPending})
	api.seed(models.Task{Title: "b", Status: models.StatusInProgress})
	api.seed(models.Task{Title: "c", Status: models.StatusCompleted})
	api.seed(models.Task{Title: "d", Status: models.StatusCompleted})
	store := newTestStore(t, api)

	stats := store.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 2, stats.Completed)
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.01)
}

func TestStoreOnChange(t *testing.T) {
	api := newFakeAPI()
	seeded := api.seed(models.Task{Title: "work", Status: models.StatusPending})

	var mu sync.Mutex
	changes := 0
	srv := api.server()
	t.Cleanup(srv.Close)

	store := NewStore(New(srv.URL),
		WithCompleteDelay(50*time.Millisecond),
		WithOnChange(func() {
			mu.Lock()
			changes++
			mu.Unlock()
		}))
	t.Cleanup(store.Close)

	require.NoError(t, store.Refresh(context.Background()))
	mu.Lock()
	afterRefresh := changes
	mu.Unlock()
	assert.Greater(t, afterRefresh, 0)

	require.True(t, store.Complete(seeded.ID))
	mu.Lock()
	assert.Greater(t, changes, afterRefresh)
	mu.Unlock()
}
