package dreams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalflow-backend/internal/auth"
	"goalflow-backend/internal/organizer"
)

// fakeStore keeps dreams in memory behind the Store interface.
type fakeStore struct {
	nextID int
	dreams map[int]Dream // keyed by dream id
	owners map[int]int
	fail   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, dreams: map[int]Dream{}, owners: map[int]int{}}
}

func (s *fakeStore) CreateDream(_ context.Context, userID int, goal string, tasks []organizer.Task) (Dream, error) {
	if s.fail {
		return Dream{}, errors.New("store down")
	}
	if tasks == nil {
		tasks = []organizer.Task{}
	}
	d := Dream{ID: s.nextID, Goal: goal, CreatedAt: time.Now().UTC(), Tasks: tasks}
	s.dreams[d.ID] = d
	s.owners[d.ID] = userID
	s.nextID++
	return d, nil
}

func (s *fakeStore) ListDreams(_ context.Context, userID int) ([]Dream, error) {
	out := []Dream{}
	for id, d := range s.dreams {
		if s.owners[id] == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) GetDream(_ context.Context, userID, dreamID int) (Dream, error) {
	d, ok := s.dreams[dreamID]
	if !ok || s.owners[dreamID] != userID {
		return Dream{}, ErrDreamNotFound
	}
	return d, nil
}

func (s *fakeStore) ReplaceTasks(_ context.Context, userID, dreamID int, tasks []organizer.Task) error {
	if s.fail {
		return errors.New("store down")
	}
	d, ok := s.dreams[dreamID]
	if !ok || s.owners[dreamID] != userID {
		return ErrDreamNotFound
	}
	d.Tasks = tasks
	s.dreams[dreamID] = d
	return nil
}

func (s *fakeStore) DeleteDream(_ context.Context, userID, dreamID int) error {
	if _, ok := s.dreams[dreamID]; !ok || s.owners[dreamID] != userID {
		return ErrDreamNotFound
	}
	delete(s.dreams, dreamID)
	delete(s.owners, dreamID)
	return nil
}

type fakeDecomposer struct {
	tasks []organizer.Task
	err   error
}

func (f fakeDecomposer) DecomposeGoal(context.Context, string) ([]organizer.Task, error) {
	return f.tasks, f.err
}

type fakePrioritizer struct {
	results []organizer.PrioritizationResult
	err     error
}

func (f fakePrioritizer) PrioritizeTasks(context.Context, []organizer.Task) ([]organizer.PrioritizationResult, error) {
	return f.results, f.err
}

func do(t *testing.T, h http.HandlerFunc, method, target string, body any, pathVals map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(auth.WithUserID(req.Context(), 1))
	for k, v := range pathVals {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func seededHandler(t *testing.T) (*Handler, *fakeStore, Dream) {
	t.Helper()
	store := newFakeStore()
	d, err := store.CreateDream(context.Background(), 1, "run a marathon", []organizer.Task{
		{ID: "t1", Title: "train", Urgency: organizer.LevelHigh, Importance: organizer.LevelHigh, DueDate: "2026-09-30", Impact: 9},
		{ID: "t2", Title: "buy shoes", Urgency: organizer.LevelLow, Importance: organizer.LevelLow, DueDate: "2026-09-05", Impact: 3},
	})
	require.NoError(t, err)
	h := NewHandler(store, fakeDecomposer{}, fakePrioritizer{}, nil, NewBroker())
	return h, store, d
}

func TestCreateDreamDecomposes(t *testing.T) {
	store := newFakeStore()
	dec := fakeDecomposer{tasks: []organizer.Task{
		{Title: "first", Urgency: organizer.LevelHigh, Importance: organizer.LevelHigh, DueDate: "2026-09-10", Impact: 7},
		{Title: "second", Urgency: organizer.LevelMedium, Importance: organizer.LevelMedium, DueDate: "2026-10-10", Impact: 4},
	}}
	h := NewHandler(store, dec, fakePrioritizer{}, nil, NewBroker())

	rec := do(t, h.CreateDream, http.MethodPost, "/dreams", map[string]any{"goal": "learn piano"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got dreamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "learn piano", got.Goal)
	require.Len(t, got.Tasks, 2)
	assert.NotEmpty(t, got.Tasks[0].ID)
	assert.NotEqual(t, got.Tasks[0].ID, got.Tasks[1].ID)
	assert.Equal(t, 0.0, got.Progress)
	assert.Len(t, got.Matrix[organizer.CategoryDoFirst], 1)
	assert.Len(t, got.Matrix[organizer.CategoryDontDo], 1)
}

func TestCreateDreamOracleDown(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, fakeDecomposer{err: errors.New("timeout")}, fakePrioritizer{}, nil, NewBroker())

	rec := do(t, h.CreateDream, http.MethodPost, "/dreams", map[string]any{"goal": "learn piano"}, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, store.dreams, "nothing persisted when the oracle fails")
}

func TestCreateDreamWithoutDecomposition(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, fakeDecomposer{err: errors.New("must not be called")}, fakePrioritizer{}, nil, NewBroker())

	decompose := false
	rec := do(t, h.CreateDream, http.MethodPost, "/dreams", map[string]any{"goal": "learn piano", "decompose": &decompose}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got dreamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Tasks)
}

func TestCreateDreamRequiresGoal(t *testing.T) {
	h, _, _ := seededHandler(t)
	rec := do(t, h.CreateDream, http.MethodPost, "/dreams", map[string]any{"goal": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddTasksValidatesLevels(t *testing.T) {
	h, _, d := seededHandler(t)

	rec := do(t, h.AddTasks, http.MethodPost, "/dreams/1/tasks", map[string]any{
		"tasks": []map[string]any{
			{"title": "bad", "urgency": "Critical", "importance": "High", "dueDate": "2026-09-01", "impact": 5},
		},
	}, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := h.store.GetDream(context.Background(), 1, d.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 2, "invalid batch must not change the list")
}

func TestAddTasksAppendsWithFreshIDs(t *testing.T) {
	h, store, d := seededHandler(t)

	rec := do(t, h.AddTasks, http.MethodPost, "/dreams/1/tasks", map[string]any{
		"tasks": []map[string]any{
			{"title": "stretch", "urgency": "Low", "importance": "High", "dueDate": "2026-09-20", "impact": 5},
		},
	}, map[string]string{"id": "1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var got listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Tasks, 3)
	assert.NotEmpty(t, got.Tasks[2].ID)
	assert.Equal(t, "stretch", got.Tasks[2].Title)

	persisted := store.dreams[d.ID]
	assert.Equal(t, got.Tasks, persisted.Tasks, "full list replaced in the store")
}

func TestUpdateTaskChangesOnlyThatTask(t *testing.T) {
	h, store, d := seededHandler(t)

	rec := do(t, h.UpdateTask, http.MethodPut, "/dreams/1/tasks/t1", map[string]any{
		"title": "train harder", "urgency": "High", "importance": "High",
		"dueDate": "2026-09-30", "impact": 9.0, "completed": false,
	}, map[string]string{"id": "1", "taskID": "t1"})

	require.Equal(t, http.StatusOK, rec.Code)
	persisted := store.dreams[d.ID]
	assert.Equal(t, "train harder", persisted.Tasks[0].Title)
	assert.Equal(t, "t1", persisted.Tasks[0].ID)
	assert.Equal(t, d.Tasks[1], persisted.Tasks[1], "other tasks untouched")
}

func TestUpdateMissingTaskIs404(t *testing.T) {
	h, store, d := seededHandler(t)

	rec := do(t, h.UpdateTask, http.MethodPut, "/dreams/1/tasks/ghost", map[string]any{
		"title": "x", "urgency": "High", "importance": "High", "dueDate": "2026-09-30", "impact": 1.0,
	}, map[string]string{"id": "1", "taskID": "ghost"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, d.Tasks, store.dreams[d.ID].Tasks)
}

func TestDeleteTaskTwiceIsIdempotent(t *testing.T) {
	h, store, d := seededHandler(t)

	rec := do(t, h.DeleteTask, http.MethodDelete, "/dreams/1/tasks/t2", nil,
		map[string]string{"id": "1", "taskID": "t2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.dreams[d.ID].Tasks, 1)

	rec = do(t, h.DeleteTask, http.MethodDelete, "/dreams/1/tasks/t2", nil,
		map[string]string{"id": "1", "taskID": "t2"})
	assert.Equal(t, http.StatusOK, rec.Code, "second delete is a no-op, not an error")
	assert.Len(t, store.dreams[d.ID].Tasks, 1)
}

func TestToggleTaskUpdatesProgress(t *testing.T) {
	h, _, _ := seededHandler(t)

	rec := do(t, h.ToggleTask, http.MethodPost, "/dreams/1/tasks/t1/toggle", nil,
		map[string]string{"id": "1", "taskID": "t1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Tasks[0].Completed)
	assert.Equal(t, 50.0, got.Progress)

	rec = do(t, h.ToggleTask, http.MethodPost, "/dreams/1/tasks/t1/toggle", nil,
		map[string]string{"id": "1", "taskID": "t1"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Tasks[0].Completed)
	assert.Equal(t, 0.0, got.Progress)
}

func TestPrioritizeReturnsSortedEphemeralScores(t *testing.T) {
	h, store, d := seededHandler(t)
	h.prioritizer = fakePrioritizer{results: []organizer.PrioritizationResult{
		{ID: "t2", PriorityScore: 88, Reason: "shoes first"},
		{ID: "t1", PriorityScore: 30, Reason: "long runway"},
	}}

	rec := do(t, h.Prioritize, http.MethodPost, "/dreams/1/prioritize", nil, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Results []organizer.PrioritizationResult `json:"results"`
		Tasks   []organizer.Task                 `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, "t2", got.Tasks[0].ID)
	assert.Equal(t, "t1", got.Tasks[1].ID)

	// scores never reach the store
	assert.Equal(t, d.Tasks, store.dreams[d.ID].Tasks)
}

func TestPrioritizeOracleDownKeepsState(t *testing.T) {
	h, store, d := seededHandler(t)
	h.prioritizer = fakePrioritizer{err: errors.New("boom")}

	rec := do(t, h.Prioritize, http.MethodPost, "/dreams/1/prioritize", nil, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, d.Tasks, store.dreams[d.ID].Tasks)
}

func TestMatrixEndpoint(t *testing.T) {
	h, _, _ := seededHandler(t)

	rec := do(t, h.Matrix, http.MethodGet, "/dreams/1/matrix", nil, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Matrix, 4)
	assert.Equal(t, "t1", got.Matrix[organizer.CategoryDoFirst][0].ID)
	assert.Equal(t, "t2", got.Matrix[organizer.CategoryDontDo][0].ID)
	assert.Empty(t, got.Matrix[organizer.CategoryDelegate])
}

func TestDreamOwnershipEnforced(t *testing.T) {
	h, _, _ := seededHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/dreams/1", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 99))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.GetDream(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersistenceWriteFailure(t *testing.T) {
	h, store, _ := seededHandler(t)
	store.fail = true

	rec := do(t, h.ToggleTask, http.MethodPost, "/dreams/1/tasks/t1/toggle", nil,
		map[string]string{"id": "1", "taskID": "t1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPostCommitRunsOnlyAfterWrite(t *testing.T) {
	h, store, _ := seededHandler(t)

	logged := false
	apply := func(st *organizer.ListState) (func(), int, error) {
		st.ToggleCompletion("t1")
		return func() { logged = true }, 0, nil
	}

	store.fail = true
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dreams/1/tasks/t1/toggle", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 1))
	h.mutateTasks(rec, req, 1, 1, apply)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, logged, "no event recorded when the write is rejected")

	store.fail = false
	rec = httptest.NewRecorder()
	h.mutateTasks(rec, req, 1, 1, apply)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, logged)
}

func TestMutationsPublishSnapshots(t *testing.T) {
	h, _, _ := seededHandler(t)
	ch, cancel := h.broker.Subscribe(1)
	defer cancel()

	rec := do(t, h.ToggleTask, http.MethodPost, "/dreams/1/tasks/t1/toggle", nil,
		map[string]string{"id": "1", "taskID": "t1"})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case d := <-ch:
		assert.Equal(t, 1, d.ID)
		assert.True(t, d.Tasks[0].Completed)
	default:
		t.Fatal("expected a published snapshot")
	}
}
