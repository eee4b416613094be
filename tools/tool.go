// Package tools provides the tool system for agents.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Argument schemas and their validation hidden in the registry
// - Error classification internalized in ToolError
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Metadata describes what a tool does and how to call it.
type Metadata struct {
	Name        string
	Description string
	// Schema is the JSON schema the arguments must satisfy.
	Schema *jsonschema.Schema
}

// String returns a string representation of the tool metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// Tool is the interface that all tools must implement.
//
// Execute only ever receives arguments that already passed schema
// validation. Implementations must be safe for concurrent use.
type Tool interface {
	// Metadata returns tool metadata (name, description, schema).
	Metadata() Metadata

	// Execute runs the tool with validated arguments.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// ErrorKind classifies tool failures.
type ErrorKind int

const (
	// InvalidArguments means the call was rejected before execution.
	InvalidArguments ErrorKind = iota
	// ExecutionFailure means the tool ran and failed.
	ExecutionFailure
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case InvalidArguments:
		return "invalid arguments"
	case ExecutionFailure:
		return "execution failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on a ToolError's kind.
var (
	ErrInvalidArguments = errors.New("tool: invalid arguments")
	ErrExecutionFailure = errors.New("tool: execution failure")
)

// ToolError is returned by every failed invocation.
type ToolError struct {
	Kind ErrorKind
	Tool string
	Err  error
}

// Error implements error.
func (e *ToolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tool %q: %s", e.Tool, e.Kind)
	}
	return fmt.Sprintf("tool %q: %s: %v", e.Tool, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrInvalidArguments:
		return e.Kind == InvalidArguments
	case ErrExecutionFailure:
		return e.Kind == ExecutionFailure
	}
	return false
}

func invalidArguments(tool string, err error) *ToolError {
	return &ToolError{Kind: InvalidArguments, Tool: tool, Err: err}
}

func executionFailure(tool string, err error) *ToolError {
	return &ToolError{Kind: ExecutionFailure, Tool: tool, Err: err}
}
