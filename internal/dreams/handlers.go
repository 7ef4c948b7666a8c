package dreams

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"goalflow-backend/internal/ai"
	"goalflow-backend/internal/analytics"
	"goalflow-backend/internal/auth"
	"goalflow-backend/internal/organizer"
)

// Handler serves the dream and task endpoints. The prioritization
// oracle's output is never persisted: it is computed per request and
// returned to the caller.
type Handler struct {
	store       Store
	decomposer  ai.DecompositionOracle
	prioritizer ai.PrioritizationOracle
	events      *sql.DB // analytics sink, may be nil
	broker      *Broker
	validate    *validator.Validate
}

func NewHandler(store Store, dec ai.DecompositionOracle, pri ai.PrioritizationOracle, events *sql.DB, broker *Broker) *Handler {
	return &Handler{
		store:       store,
		decomposer:  dec,
		prioritizer: pri,
		events:      events,
		broker:      broker,
		validate:    validator.New(),
	}
}

type dreamResponse struct {
	Dream
	Matrix   map[organizer.Category][]organizer.Task `json:"matrix"`
	Progress float64                                  `json:"progress"`
}

func newDreamResponse(d Dream) dreamResponse {
	return dreamResponse{
		Dream:    d,
		Matrix:   organizer.GroupByCategory(d.Tasks),
		Progress: organizer.Progress(d.Tasks),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) publish(userID int, d Dream) {
	if h.broker != nil {
		h.broker.Publish(userID, d)
	}
}

func (h *Handler) logEvent(r *http.Request, userID int, name string, props map[string]any) {
	env := analytics.FromRequest(r)
	env.UserID = userID
	_ = analytics.Log(r.Context(), h.events, env, name, props, analytics.SourceEventKeyFromRequest(r))
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	return id, err == nil && id > 0
}

// CreateDream decomposes the goal through the oracle and persists the
// dream with its seeded task list.
// POST /dreams
func (h *Handler) CreateDream(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Goal      string `json:"goal"`
		Decompose *bool  `json:"decompose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	body.Goal = strings.TrimSpace(body.Goal)
	if body.Goal == "" {
		http.Error(w, "goal is required", http.StatusBadRequest)
		return
	}

	st := organizer.NewListState(nil)
	if body.Decompose == nil || *body.Decompose {
		drafts, err := h.decomposer.DecomposeGoal(r.Context(), body.Goal)
		if err != nil {
			log.Printf("[WARN] decomposition failed for user=%d: %v", uid, err)
			http.Error(w, "decomposition oracle unavailable", http.StatusBadGateway)
			return
		}
		st.AddTasks(drafts)
	}

	d, err := h.store.CreateDream(r.Context(), uid, body.Goal, st.Tasks)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.logEvent(r, uid, "dream_created", map[string]any{
		"dream_id":   d.ID,
		"goal_len":   len(body.Goal),
		"task_count": len(d.Tasks),
	})

	h.publish(uid, d)
	writeJSON(w, http.StatusCreated, newDreamResponse(d))
}

// ListDreams returns the user's dreams, newest first.
// GET /dreams
func (h *Handler) ListDreams(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.store.ListDreams(r.Context(), uid)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	out := make([]dreamResponse, 0, len(list))
	for _, d := range list {
		out = append(out, newDreamResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDream returns one dream with its derived views.
// GET /dreams/{id}
func (h *Handler) GetDream(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}

	d, err := h.store.GetDream(r.Context(), uid, id)
	if errors.Is(err, ErrDreamNotFound) {
		http.Error(w, "dream not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newDreamResponse(d))
}

// DeleteDream removes a dream and everything it owns.
// DELETE /dreams/{id}
func (h *Handler) DeleteDream(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}

	err := h.store.DeleteDream(r.Context(), uid, id)
	if errors.Is(err, ErrDreamNotFound) {
		http.Error(w, "dream not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	h.logEvent(r, uid, "dream_deleted", map[string]any{"dream_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// mutateTasks loads the dream, applies one reducer mutation and
// persists the resulting list wholesale. The store write is
// last-writer-wins; on write failure the in-memory result is discarded
// and the durable copy stays authoritative. The post-commit hook runs
// only after a successful write, so a rejected write records nothing.
func (h *Handler) mutateTasks(w http.ResponseWriter, r *http.Request, uid, dreamID int, apply func(*organizer.ListState) (func(), int, error)) {
	d, err := h.store.GetDream(r.Context(), uid, dreamID)
	if errors.Is(err, ErrDreamNotFound) {
		http.Error(w, "dream not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	st := organizer.NewListState(d.Tasks)
	postCommit, status, err := apply(st)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	if err := h.store.ReplaceTasks(r.Context(), uid, dreamID, st.Tasks); err != nil {
		log.Printf("[WARN] task write failed dream=%d: %v", dreamID, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if postCommit != nil {
		postCommit()
	}

	d.Tasks = st.Tasks
	h.publish(uid, d)
	writeJSON(w, http.StatusOK, newListResponse(d))
}

// AddTasks appends a batch of tasks, assigning fresh ids.
// POST /dreams/{id}/tasks
func (h *Handler) AddTasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}

	var body struct {
		Tasks []taskPayload `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(body.Tasks) == 0 {
		http.Error(w, "tasks required", http.StatusBadRequest)
		return
	}
	batch := make([]organizer.Task, 0, len(body.Tasks))
	for i, p := range body.Tasks {
		if err := h.validate.Struct(p); err != nil {
			http.Error(w, "invalid task at index "+strconv.Itoa(i)+": "+err.Error(), http.StatusBadRequest)
			return
		}
		batch = append(batch, p.toTask())
	}

	h.mutateTasks(w, r, uid, dreamID, func(st *organizer.ListState) (func(), int, error) {
		added := st.AddTasks(batch)
		return func() {
			h.logEvent(r, uid, "tasks_added", map[string]any{
				"dream_id": dreamID,
				"count":    len(added),
			})
		}, 0, nil
	})
}

// UpdateTask overwrites every field of one task through the edit
// cycle: seed a draft, change fields, save.
// PUT /dreams/{id}/tasks/{taskID}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}
	taskID := r.PathValue("taskID")

	var body taskPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		http.Error(w, "invalid task: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mutateTasks(w, r, uid, dreamID, func(st *organizer.ListState) (func(), int, error) {
		if err := st.StartEdit(taskID); err != nil {
			return nil, http.StatusNotFound, errors.New("task not found")
		}
		for field, value := range map[string]any{
			"title":      body.Title,
			"urgency":    body.Urgency,
			"importance": body.Importance,
			"dueDate":    body.DueDate,
			"impact":     body.Impact,
			"completed":  body.Completed,
		} {
			if err := st.ChangeField(field, value); err != nil {
				return nil, http.StatusBadRequest, err
			}
		}
		if err := st.SaveEdit(); err != nil {
			return nil, http.StatusNotFound, errors.New("task not found")
		}
		return func() {
			h.logEvent(r, uid, "task_updated", map[string]any{
				"dream_id": dreamID,
				"task_id":  taskID,
			})
		}, 0, nil
	})
}

// DeleteTask removes one task; deleting an absent id succeeds.
// DELETE /dreams/{id}/tasks/{taskID}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}
	taskID := r.PathValue("taskID")

	h.mutateTasks(w, r, uid, dreamID, func(st *organizer.ListState) (func(), int, error) {
		before := len(st.Tasks)
		st.DeleteTask(taskID)
		if len(st.Tasks) == before {
			return nil, 0, nil
		}
		return func() {
			h.logEvent(r, uid, "task_deleted", map[string]any{
				"dream_id": dreamID,
				"task_id":  taskID,
			})
		}, 0, nil
	})
}

// ToggleTask flips one task's completion.
// POST /dreams/{id}/tasks/{taskID}/toggle
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}
	taskID := r.PathValue("taskID")

	h.mutateTasks(w, r, uid, dreamID, func(st *organizer.ListState) (func(), int, error) {
		st.ToggleCompletion(taskID)
		for _, t := range st.Tasks {
			if t.ID == taskID {
				event := "task_uncompleted"
				if t.Completed {
					event = "task_completed"
				}
				return func() {
					h.logEvent(r, uid, event, map[string]any{
						"dream_id": dreamID,
						"task_id":  taskID,
					})
				}, 0, nil
			}
		}
		return nil, 0, nil
	})
}

// Prioritize runs the prioritization oracle over the dream's current
// task list and returns the scores plus the sorted view. Nothing is
// persisted: a failed call leaves prior state untouched.
// POST /dreams/{id}/prioritize
func (h *Handler) Prioritize(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}

	d, err := h.store.GetDream(r.Context(), uid, dreamID)
	if errors.Is(err, ErrDreamNotFound) {
		http.Error(w, "dream not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	st := organizer.NewListState(d.Tasks)
	gen := st.BeginPrioritize()

	results := []organizer.PrioritizationResult{}
	if len(d.Tasks) > 0 {
		results, err = h.prioritizer.PrioritizeTasks(r.Context(), d.Tasks)
		if err != nil {
			log.Printf("[WARN] prioritization failed dream=%d: %v", dreamID, err)
			http.Error(w, "prioritization oracle unavailable", http.StatusBadGateway)
			return
		}
	}
	st.ApplyScores(gen, results)

	tiers := map[string]int{}
	for _, res := range results {
		tiers[analytics.TierFromScore(res.PriorityScore)]++
	}
	h.logEvent(r, uid, "tasks_prioritized", map[string]any{
		"dream_id":     dreamID,
		"task_count":   len(d.Tasks),
		"result_count": len(results),
		"tiers":        tiers,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"dreamId":  d.ID,
		"results":  st.Scores,
		"tasks":    st.Sorted(),
		"progress": st.Progress(),
	})
}

// Matrix returns the four-quadrant view plus progress.
// GET /dreams/{id}/matrix
func (h *Handler) Matrix(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	dreamID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid dream id", http.StatusBadRequest)
		return
	}

	d, err := h.store.GetDream(r.Context(), uid, dreamID)
	if errors.Is(err, ErrDreamNotFound) {
		http.Error(w, "dream not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(d))
}
