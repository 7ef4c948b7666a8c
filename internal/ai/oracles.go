package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"goalflow-backend/internal/organizer"
)

// DecompositionOracle turns a free-text goal into proposed tasks.
// Returned tasks carry no ids; the task list assigns them on append.
type DecompositionOracle interface {
	DecomposeGoal(ctx context.Context, goal string) ([]organizer.Task, error)
}

// PrioritizationOracle scores a task list. One result per task is
// expected but not guaranteed; missing ids resolve to score 0 at sort
// time.
type PrioritizationOracle interface {
	PrioritizeTasks(ctx context.Context, tasks []organizer.Task) ([]organizer.PrioritizationResult, error)
}

type decompositionResponse struct {
	Tasks []organizer.Task `json:"tasks"`
}

func (c *Client) DecomposeGoal(ctx context.Context, goal string) ([]organizer.Task, error) {
	raw, err := c.complete(ctx, decompositionSystemPrompt, BuildDecompositionPrompt(goal))
	if err != nil {
		return nil, fmt.Errorf("decompose goal: %w", err)
	}

	var parsed decompositionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decompose goal: parse output: %w", err)
	}
	return parsed.Tasks, nil
}

type prioritizationResponse struct {
	Results []organizer.PrioritizationResult `json:"results"`
}

func (c *Client) PrioritizeTasks(ctx context.Context, tasks []organizer.Task) ([]organizer.PrioritizationResult, error) {
	raw, err := c.complete(ctx, prioritizationSystemPrompt, BuildPrioritizationPrompt(tasks))
	if err != nil {
		return nil, fmt.Errorf("prioritize tasks: %w", err)
	}

	var parsed prioritizationResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed.Results, nil
	}

	// some models emit the bare array despite the wrapper instruction
	var bare []organizer.PrioritizationResult
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("prioritize tasks: parse output: %w", err)
	}
	return bare, nil
}
