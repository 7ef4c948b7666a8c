package ai

import (
	"fmt"
	"strings"

	"goalflow-backend/internal/organizer"
)

// BuildDecompositionPrompt forms the user message for a goal
// decomposition call.
func BuildDecompositionPrompt(goal string) string {
	var b strings.Builder
	b.WriteString("Goal: ")
	b.WriteString(strings.TrimSpace(goal))
	b.WriteString("\n")
	return b.String()
}

// BuildPrioritizationPrompt forms the user message for a prioritization
// call, one line per task.
func BuildPrioritizationPrompt(tasks []organizer.Task) string {
	var b strings.Builder
	b.WriteString("Tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b,
			"- ID: %s, Title: %s, Urgency: %s, Importance: %s, Due Date: %s, Impact: %g\n",
			t.ID, t.Title, t.Urgency, t.Importance, t.DueDate, t.Impact,
		)
	}
	return b.String()
}
