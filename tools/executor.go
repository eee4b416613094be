// Tool Executor.
//
// Information Hiding:
// - Per-call timeout hidden
// - Metrics collection hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zkstudy/zee/model"
)

// Executor runs validated tool calls exactly once and measures them.
// Failed calls are never retried; the pipeline treats them as terminal.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an executor. A zero timeout means the call is only
// bounded by the caller's context.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute runs tool once with already validated args.
func (e *Executor) Execute(ctx context.Context, tool Tool, args json.RawMessage) (string, model.ToolCall, error) {
	name := tool.Metadata().Name
	call := model.ToolCall{Name: name, InputSize: len(args)}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	output, err := tool.Execute(ctx, args)
	call.DurationMs = uint64(time.Since(start).Milliseconds())

	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return "", call, toolErr
		}
		return "", call, executionFailure(name, err)
	}

	call.OutputSize = len(output)
	call.Success = true
	return output, call, nil
}
