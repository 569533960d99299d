package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/outreachforge/prospector/pkg/discovery"
	"github.com/outreachforge/prospector/pkg/models"
)

// ResearchRunner is the narrow surface KindResearch tasks need from the
// Research Pipeline.
type ResearchRunner interface {
	CompleteWorkflow(ctx context.Context, userID, topic string, pillar models.Pillar, industry string) (*models.Insight, error)
}

// researchPayload is the decoded form of a KindResearch task's Payload.
type researchPayload struct {
	Topic    string        `json:"topic"`
	Pillar   models.Pillar `json:"pillar"`
	Industry string        `json:"industry"`
}

// ResearchExecutor adapts a ResearchRunner to the worker pool's Executor
// seam, grounded on the teacher's chat_executor.go decode-payload/run/
// marshal-result shape (that file is gone from this tree — only the shape
// survives here, retargeted at a research topic instead of a chat turn).
type ResearchExecutor struct {
	Runner ResearchRunner
}

// Execute implements Executor.
func (e *ResearchExecutor) Execute(ctx context.Context, task *Task) *ExecutionResult {
	var payload researchPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("decoding research payload: %w", err)}
	}

	insight, err := e.Runner.CompleteWorkflow(ctx, task.UserID, payload.Topic, payload.Pillar, payload.Industry)
	if err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: err}
	}
	result, err := json.Marshal(insight)
	if err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("encoding research result: %w", err)}
	}
	return &ExecutionResult{Status: TaskStatusCompleted, Result: result}
}

// DiscoveryRunner is the narrow surface KindDiscovery tasks need from the
// Discovery Engine.
type DiscoveryRunner interface {
	Discover(ctx context.Context, userID string, categories []string, location string, maxResults int) (*discovery.Result, error)
}

// discoveryPayload is the decoded form of a KindDiscovery task's Payload.
type discoveryPayload struct {
	Categories []string `json:"categories"`
	Location   string   `json:"location"`
	MaxResults int      `json:"max_results"`
}

// DiscoveryExecutor adapts a DiscoveryRunner to the worker pool's Executor
// seam.
type DiscoveryExecutor struct {
	Runner DiscoveryRunner
}

// Execute implements Executor.
func (e *DiscoveryExecutor) Execute(ctx context.Context, task *Task) *ExecutionResult {
	var payload discoveryPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("decoding discovery payload: %w", err)}
	}

	outcome, err := e.Runner.Discover(ctx, task.UserID, payload.Categories, payload.Location, payload.MaxResults)
	if err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: err}
	}
	result, err := json.Marshal(outcome)
	if err != nil {
		return &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("encoding discovery result: %w", err)}
	}
	return &ExecutionResult{Status: TaskStatusCompleted, Result: result}
}
