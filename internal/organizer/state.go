package organizer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotEditing        = errors.New("no edit in progress")
	ErrAlreadyEditing    = errors.New("another edit is in progress")
	ErrMissingEditTarget = errors.New("edit target no longer exists")
	ErrNoSuchTask        = errors.New("task not found")
)

// ListState is the authoritative state of one dream's task list plus
// its transient view state: at most one in-progress edit draft and the
// latest accepted prioritization scores.
//
// It is a single-writer reducer: callers apply one mutation at a time
// and re-derive categories, ordering and progress from the result.
type ListState struct {
	Tasks []Task

	// editing mode: both set together, or both zero.
	EditingID string
	Draft     *Task

	// Scores is the latest accepted oracle output. Any list mutation
	// invalidates it wholesale.
	Scores []PrioritizationResult

	gen uint64
}

func NewListState(tasks []Task) *ListState {
	return &ListState{Tasks: tasks}
}

func (s *ListState) Editing() bool { return s.Draft != nil }

// invalidateScores marks every previously issued prioritization as
// stale and drops the current score set.
func (s *ListState) invalidateScores() {
	s.gen++
	s.Scores = nil
}

// StartEdit seeds the draft with a full copy of the target task.
func (s *ListState) StartEdit(id string) error {
	if s.Editing() {
		return ErrAlreadyEditing
	}
	for _, t := range s.Tasks {
		if t.ID == id {
			draft := t
			s.EditingID = id
			s.Draft = &draft
			return nil
		}
	}
	return ErrNoSuchTask
}

// ChangeField updates exactly one field of the in-progress draft. The
// persisted task list is untouched until SaveEdit.
func (s *ListState) ChangeField(field string, value any) error {
	if !s.Editing() {
		return ErrNotEditing
	}
	switch field {
	case "title":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q wants a string", field)
		}
		s.Draft.Title = v
	case "urgency":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q wants a string", field)
		}
		s.Draft.Urgency = v
	case "importance":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q wants a string", field)
		}
		s.Draft.Importance = v
	case "dueDate":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q wants a string", field)
		}
		s.Draft.DueDate = v
	case "impact":
		switch v := value.(type) {
		case float64:
			s.Draft.Impact = v
		case int:
			s.Draft.Impact = float64(v)
		default:
			return fmt.Errorf("field %q wants a number", field)
		}
	case "completed":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %q wants a bool", field)
		}
		s.Draft.Completed = v
	default:
		return fmt.Errorf("unknown task field %q", field)
	}
	return nil
}

// CancelEdit discards the draft without touching the task list.
func (s *ListState) CancelEdit() {
	s.EditingID = ""
	s.Draft = nil
}

// SaveEdit overwrites the target task's fields with the draft. If the
// target id vanished from the list (a remote snapshot may have removed
// it), the save is a no-op and the edit stays open.
func (s *ListState) SaveEdit() error {
	if !s.Editing() {
		return ErrNotEditing
	}
	for i, t := range s.Tasks {
		if t.ID == s.EditingID {
			saved := *s.Draft
			saved.ID = t.ID // id is immutable
			s.Tasks[i] = saved
			s.CancelEdit()
			s.invalidateScores()
			return nil
		}
	}
	return ErrMissingEditTarget
}

// DeleteTask removes the task with the given id. Deleting an absent id
// is a no-op, so the operation is idempotent.
func (s *ListState) DeleteTask(id string) {
	for i, t := range s.Tasks {
		if t.ID == id {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			s.invalidateScores()
			return
		}
	}
}

// ToggleCompletion flips completed on the task with the given id;
// no-op if absent. Applying it twice restores the original state.
func (s *ListState) ToggleCompletion(id string) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			s.Tasks[i].Completed = !s.Tasks[i].Completed
			s.invalidateScores()
			return
		}
	}
}

// AddTasks appends a decomposed batch to the list, assigning each task
// a fresh id and clearing completion. Returns the appended tasks.
func (s *ListState) AddTasks(batch []Task) []Task {
	if len(batch) == 0 {
		return nil
	}
	added := make([]Task, 0, len(batch))
	for _, t := range batch {
		t.ID = uuid.NewString()
		t.Completed = false
		added = append(added, t)
	}
	s.Tasks = append(s.Tasks, added...)
	s.invalidateScores()
	return added
}

// ApplyRemoteSnapshot replaces the viewing list with a snapshot pushed
// by the store. An active edit draft survives the swap: only SaveEdit
// decides what happens if its target disappeared.
func (s *ListState) ApplyRemoteSnapshot(tasks []Task) {
	s.Tasks = tasks
	s.invalidateScores()
}

// BeginPrioritize marks the start of an oracle call and returns its
// generation token.
func (s *ListState) BeginPrioritize() uint64 {
	s.gen++
	s.Scores = nil
	return s.gen
}

// ApplyScores installs an oracle response. A response whose generation
// is not the latest (a mutation happened meanwhile, or a newer call was
// issued) is discarded so stale results never land.
func (s *ListState) ApplyScores(gen uint64, results []PrioritizationResult) bool {
	if gen != s.gen {
		return false
	}
	s.Scores = results
	return true
}

// Sorted returns the display order for the current tasks and scores.
func (s *ListState) Sorted() []Task {
	return SortByPriority(s.Tasks, s.Scores)
}

// Matrix returns the current Eisenhower partition.
func (s *ListState) Matrix() map[Category][]Task {
	return GroupByCategory(s.Tasks)
}

// Progress returns the current completion percentage.
func (s *ListState) Progress() float64 {
	return Progress(s.Tasks)
}
