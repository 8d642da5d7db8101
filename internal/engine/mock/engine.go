// Package mock provides a scriptable engine.Client for testing.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sandeepmv/herdwatch/internal/engine"
)

// Engine satisfies engine.Client for testing. Behavior is overridden per
// call via the Func fields; unset fields fall back to benign defaults.
type Engine struct {
	SubmitFunc func(ctx context.Context, req engine.SubmitRequest) (string, error)
	StatusFunc func(ctx context.Context, analysisID string) (*engine.StatusResponse, error)
	AlertsFunc func(ctx context.Context, analysisID string) ([]engine.Alert, error)
	ReadyFunc  func(ctx context.Context) error

	mu          sync.Mutex
	statusCalls int
}

func (e *Engine) SubmitAnalysis(ctx context.Context, req engine.SubmitRequest) (string, error) {
	if e.SubmitFunc != nil {
		return e.SubmitFunc(ctx, req)
	}
	return "analysis-1", nil
}

func (e *Engine) AnalysisStatus(ctx context.Context, analysisID string) (*engine.StatusResponse, error) {
	e.mu.Lock()
	e.statusCalls++
	e.mu.Unlock()
	if e.StatusFunc != nil {
		return e.StatusFunc(ctx, analysisID)
	}
	return &engine.StatusResponse{Status: engine.StatusProcessing, Progress: 0}, nil
}

func (e *Engine) AnalysisAlerts(ctx context.Context, analysisID string) ([]engine.Alert, error) {
	if e.AlertsFunc != nil {
		return e.AlertsFunc(ctx, analysisID)
	}
	return []engine.Alert{}, nil
}

func (e *Engine) Ready(ctx context.Context) error {
	if e.ReadyFunc != nil {
		return e.ReadyFunc(ctx)
	}
	return nil
}

// StatusCalls returns how many times AnalysisStatus was invoked.
func (e *Engine) StatusCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusCalls
}

// Script returns a StatusFunc that replays the given responses in order,
// repeating the last one once the script is exhausted.
func Script(responses ...*engine.StatusResponse) func(context.Context, string) (*engine.StatusResponse, error) {
	var mu sync.Mutex
	i := 0
	return func(_ context.Context, _ string) (*engine.StatusResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(responses) {
			return responses[len(responses)-1], nil
		}
		resp := responses[i]
		i++
		return resp, nil
	}
}

// RawResult marshals v into the Result field format used by StatusResponse.
func RawResult(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Compile-time check that Engine implements engine.Client.
var _ engine.Client = (*Engine)(nil)
