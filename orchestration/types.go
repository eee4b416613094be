// Package orchestration runs an ordered sequence of agents over one
// conversation state under a single deadline.
//
// Types describing how a run ended.
package orchestration

import (
	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
)

// Outcome classifies how a pipeline run ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeToolError       Outcome = "toolError"
	OutcomeModelError      Outcome = "modelError"
	OutcomeValidationError Outcome = "validationError"
	// OutcomeCanceled means the caller went away before the deadline.
	OutcomeCanceled Outcome = "canceled"
)

// ToolCallInfo is an alias for model.ToolCall for tool call metadata.
type ToolCallInfo = model.ToolCall

// TokenStats tracks token usage across a run.
type TokenStats struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
	LLMCalls         int    `json:"llm_calls"`
}

// AddUsage adds token usage from an LLM call.
func (ts *TokenStats) AddUsage(usage *llm.TokenUsage) {
	if usage == nil {
		return
	}
	ts.PromptTokens += usage.PromptTokens
	ts.CompletionTokens += usage.CompletionTokens
	ts.TotalTokens += usage.TotalTokens
}

// TurnRecord summarises one finished agent turn.
type TurnRecord struct {
	Agent            string `json:"agent"`
	DurationMs       uint64 `json:"duration_ms"`
	MessagesAppended int    `json:"messages_appended"`
	LLMCalls         int    `json:"llm_calls"`
	Failed           bool   `json:"failed"`
}

// Metadata contains metadata about a run.
type Metadata struct {
	ExecutionTimeMs uint64         `json:"execution_time_ms"`
	Turns           []TurnRecord   `json:"turns"`
	ToolCalls       []ToolCallInfo `json:"tool_calls"`
	TokenStats      TokenStats     `json:"token_stats"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Outcome Outcome
	// Content is the last message of the state, set only for OutcomeOK.
	Content string
	// Detail describes a failure.
	Detail   string
	Metadata Metadata
}

// OK reports whether the run succeeded.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// NewValidationResult creates the result for input rejected before any run.
func NewValidationResult(detail string) Result {
	return Result{Outcome: OutcomeValidationError, Detail: detail}
}
