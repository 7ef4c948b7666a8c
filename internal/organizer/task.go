package organizer

// Level is an urgency or importance rating as produced by the
// decomposition oracle. Values outside the three known levels are
// tolerated everywhere (see Categorize) but rejected at the API edge.
type Level = string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// Task is one actionable item owned by a dream's task list.
type Task struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Urgency    Level   `json:"urgency"`
	Importance Level   `json:"importance"`
	DueDate    string  `json:"dueDate"` // YYYY-MM-DD
	Impact     float64 `json:"impact"`  // 1-10
	Completed  bool    `json:"completed"`
}

// PrioritizationResult is the per-task annotation returned by the
// prioritization oracle. It is ephemeral: recomputed wholesale on every
// call and never persisted with the task.
type PrioritizationResult struct {
	ID            string  `json:"id"`
	PriorityScore float64 `json:"priorityScore"` // 0-100
	Reason        string  `json:"reason"`
}
