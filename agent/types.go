// Package agent provides the agent role implementation.
//
// Contains the types an agent turn produces: messages, metrics and errors.
package agent

import (
	"errors"
	"fmt"

	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
)

// ToolCall is an alias for model.ToolCall for tool call metadata.
type ToolCall = model.ToolCall

// Metadata contains metadata about one agent turn.
type Metadata struct {
	ExecutionTimeMs uint64
	ToolCalls       []ToolCall
	TokenUsage      llm.TokenUsage
	LLMCalls        int // Number of LLM calls made during the turn
}

func (m *Metadata) addUsage(u *llm.TokenUsage) {
	if u == nil {
		return
	}
	m.TokenUsage.PromptTokens += u.PromptTokens
	m.TokenUsage.CompletionTokens += u.CompletionTokens
	m.TokenUsage.TotalTokens += u.TotalTokens
}

// Turn is what one agent appended to the state, plus how it got there.
type Turn struct {
	Agent    string
	Messages []model.Message
	Metadata Metadata
}

// ErrorKind classifies model errors.
type ErrorKind int

const (
	// UpstreamFailure means the model call itself failed or was unusable.
	UpstreamFailure ErrorKind = iota
	// ToolFailure means a tool the model requested failed.
	ToolFailure
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case UpstreamFailure:
		return "upstream failure"
	case ToolFailure:
		return "tool failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on a ModelError's kind.
var (
	ErrUpstreamFailure = errors.New("agent: upstream failure")
	ErrToolFailure     = errors.New("agent: tool failure")
	// ErrEmptyResponse is the cause when a model answers with nothing.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// ModelError is returned by every failed turn.
// For ToolFailure, Err is the *tools.ToolError that caused it.
type ModelError struct {
	Kind  ErrorKind
	Agent string
	Err   error
}

// Error implements error.
func (e *ModelError) Error() string {
	return fmt.Sprintf("agent %q: %s: %v", e.Agent, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *ModelError) Is(target error) bool {
	switch target {
	case ErrUpstreamFailure:
		return e.Kind == UpstreamFailure
	case ErrToolFailure:
		return e.Kind == ToolFailure
	}
	return false
}
