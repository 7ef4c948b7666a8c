package organizer

import "sort"

// SortByPriority orders tasks by descending resolved priority score.
// A task with no matching result resolves to score 0. Equal scores keep
// their relative input order, so the sort must stay stable. The input
// slice is not modified.
func SortByPriority(tasks []Task, scores []PrioritizationResult) []Task {
	byID := make(map[string]float64, len(scores))
	for _, s := range scores {
		byID[s.ID] = s.PriorityScore
	}

	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return byID[sorted[i].ID] > byID[sorted[j].ID]
	})
	return sorted
}

// Progress derives the completion percentage of a task list. An empty
// list counts as 0, never NaN. Always recomputed from the list itself,
// never incrementally maintained.
func Progress(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(tasks)) * 100
}
