package organizer

// Category is one quadrant of the Eisenhower matrix.
type Category string

const (
	CategoryDoFirst  Category = "Do First"
	CategoryDelegate Category = "Delegate"
	CategorySchedule Category = "Schedule"
	CategoryDontDo   Category = "Don't Do"
)

// Categories lists the four quadrants in display order.
var Categories = []Category{
	CategoryDoFirst,
	CategoryDelegate,
	CategorySchedule,
	CategoryDontDo,
}

// Categorize maps a task onto exactly one quadrant using only its
// urgency and importance. Anything that is not exactly High/High,
// High/Low or Low/High lands in Don't Do, including Medium values and
// unrecognized strings.
func Categorize(t Task) Category {
	switch {
	case t.Urgency == LevelHigh && t.Importance == LevelHigh:
		return CategoryDoFirst
	case t.Urgency == LevelHigh && t.Importance == LevelLow:
		return CategoryDelegate
	case t.Urgency == LevelLow && t.Importance == LevelHigh:
		return CategorySchedule
	default:
		return CategoryDontDo
	}
}

// GroupByCategory partitions tasks into the four quadrants, preserving
// input order inside each bucket. Every quadrant is present in the
// result even when empty.
func GroupByCategory(tasks []Task) map[Category][]Task {
	grouped := map[Category][]Task{
		CategoryDoFirst:  {},
		CategoryDelegate: {},
		CategorySchedule: {},
		CategoryDontDo:   {},
	}
	for _, t := range tasks {
		c := Categorize(t)
		grouped[c] = append(grouped[c], t)
	}
	return grouped
}
