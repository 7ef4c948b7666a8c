package dreams

import (
	"time"

	"goalflow-backend/internal/organizer"
)

// Dream is one user-defined high-level objective. It owns its task
// list; the list is persisted as a whole and replaced as a whole on
// every mutation.
type Dream struct {
	ID        int              `json:"id"`
	Goal      string           `json:"goal"`
	CreatedAt time.Time        `json:"createdAt"`
	Tasks     []organizer.Task `json:"tasks"`
}

// taskPayload is the client-supplied shape of a task, validated at the
// edge. The categorizer itself tolerates any string, but requests must
// use the three known levels.
type taskPayload struct {
	Title      string  `json:"title" validate:"required"`
	Urgency    string  `json:"urgency" validate:"required,oneof=High Medium Low"`
	Importance string  `json:"importance" validate:"required,oneof=High Medium Low"`
	DueDate    string  `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Impact     float64 `json:"impact" validate:"gte=0,lte=10"`
	Completed  bool    `json:"completed"`
}

func (p taskPayload) toTask() organizer.Task {
	return organizer.Task{
		Title:      p.Title,
		Urgency:    p.Urgency,
		Importance: p.Importance,
		DueDate:    p.DueDate,
		Impact:     p.Impact,
		Completed:  p.Completed,
	}
}

// listResponse is returned from every task mutation: the new
// authoritative list plus the views re-derived from it.
type listResponse struct {
	DreamID  int                                      `json:"dreamId"`
	Tasks    []organizer.Task                         `json:"tasks"`
	Matrix   map[organizer.Category][]organizer.Task `json:"matrix"`
	Progress float64                                  `json:"progress"`
}

func newListResponse(d Dream) listResponse {
	return listResponse{
		DreamID:  d.ID,
		Tasks:    d.Tasks,
		Matrix:   organizer.GroupByCategory(d.Tasks),
		Progress: organizer.Progress(d.Tasks),
	}
}
