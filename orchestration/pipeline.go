// Pipeline orchestrator.
//
// Information Hiding:
// - Deadline race between the agent sequence and the timer hidden
// - Error classification into outcomes hidden
// - Per-turn metrics collection hidden

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zkstudy/zee/agent"
	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/tools"
)

// Orchestrator runs agent sequences. It holds no per-run state and is safe
// for concurrent use.
type Orchestrator struct {
	logger *slog.Logger
}

// New creates an orchestrator. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{logger: logger}
}

// Run threads state through agents in order under deadline.
//
// The sequence runs in its own goroutine and races the deadline. When the
// deadline wins, Run returns OutcomeTimeout at once and cancels the in-flight
// call; whatever the abandoned sequence does afterwards cannot change the
// returned Result. A zero deadline disables the timer.
func (o *Orchestrator) Run(ctx context.Context, agents []agent.Runner, state *model.State, deadline time.Duration) Result {
	start := time.Now()

	if len(agents) == 0 {
		return Result{Outcome: OutcomeModelError, Detail: "pipeline has no agents"}
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	progress := &runProgress{}
	done := make(chan Result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Outcome: OutcomeModelError, Detail: fmt.Sprintf("agent panicked: %v", r)}
			}
		}()
		done <- o.sequence(runCtx, agents, state, progress)
	}()

	var res Result
	select {
	case res = <-done:
		// A turn that failed because the run context ended is reported as the
		// expiry, not as the error the cancellation produced.
		if !res.OK() && runCtx.Err() != nil {
			res = expired(ctx, deadline)
		}
	case <-runCtx.Done():
		res = expired(ctx, deadline)
	}

	res.Metadata = progress.close()
	res.Metadata.ExecutionTimeMs = uint64(time.Since(start).Milliseconds())

	o.log(res)
	return res
}

// sequence runs every agent in order, stopping at the first failure.
func (o *Orchestrator) sequence(ctx context.Context, agents []agent.Runner, state *model.State, progress *runProgress) Result {
	for i, a := range agents {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: OutcomeTimeout, Detail: err.Error()}
		}

		turn, err := a.TakeTurn(ctx, state)
		progress.record(turn, err != nil)

		if err != nil {
			o.logger.Warn("agent turn failed",
				"position", i+1,
				"agent", turn.Agent,
				"duration_ms", turn.Metadata.ExecutionTimeMs,
				"error", err,
			)
			return classify(err)
		}
		o.logger.Info("agent turn finished",
			"position", i+1,
			"agent", turn.Agent,
			"duration_ms", turn.Metadata.ExecutionTimeMs,
			"messages_appended", len(turn.Messages),
		)
	}

	last, ok := state.Last()
	if !ok {
		return Result{Outcome: OutcomeModelError, Detail: "pipeline produced no messages"}
	}
	return Result{Outcome: OutcomeOK, Content: last.Content}
}

// classify maps a turn error to an outcome. A tool failure anywhere in the
// chain is a toolError; every other failure is a modelError.
func classify(err error) Result {
	var toolErr *tools.ToolError
	if errors.As(err, &toolErr) {
		return Result{Outcome: OutcomeToolError, Detail: err.Error()}
	}
	return Result{Outcome: OutcomeModelError, Detail: err.Error()}
}

func expired(parent context.Context, deadline time.Duration) Result {
	if errors.Is(parent.Err(), context.Canceled) {
		return Result{Outcome: OutcomeCanceled, Detail: "request canceled before the pipeline finished"}
	}
	return Result{Outcome: OutcomeTimeout, Detail: fmt.Sprintf("pipeline exceeded its %s deadline", deadline)}
}

func (o *Orchestrator) log(res Result) {
	attrs := []any{
		"outcome", res.Outcome,
		"duration_ms", res.Metadata.ExecutionTimeMs,
		"turns", len(res.Metadata.Turns),
		"tool_calls", len(res.Metadata.ToolCalls),
		"tokens", res.Metadata.TokenStats.TotalTokens,
	}
	if res.OK() {
		o.logger.Info("pipeline finished", attrs...)
		return
	}
	o.logger.Warn("pipeline failed", append(attrs, "detail", res.Detail)...)
}

// runProgress collects turn metrics; it is written by the sequence goroutine
// and read by Run, possibly while an abandoned turn is still finishing.
// Once closed, further records are dropped.
type runProgress struct {
	mu       sync.Mutex
	closed   bool
	metadata Metadata
}

func (p *runProgress) record(turn agent.Turn, failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.metadata.Turns = append(p.metadata.Turns, TurnRecord{
		Agent:            turn.Agent,
		DurationMs:       turn.Metadata.ExecutionTimeMs,
		MessagesAppended: len(turn.Messages),
		LLMCalls:         turn.Metadata.LLMCalls,
		Failed:           failed,
	})
	p.metadata.ToolCalls = append(p.metadata.ToolCalls, turn.Metadata.ToolCalls...)
	usage := turn.Metadata.TokenUsage
	p.metadata.TokenStats.AddUsage(&usage)
	p.metadata.TokenStats.LLMCalls += turn.Metadata.LLMCalls
}

func (p *runProgress) close() Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true

	m := p.metadata
	m.Turns = append([]TurnRecord(nil), p.metadata.Turns...)
	m.ToolCalls = append([]ToolCallInfo(nil), p.metadata.ToolCalls...)
	return m
}
