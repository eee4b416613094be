// Package model provides domain types shared across packages.
package model

import (
	"fmt"
	"sync"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Message is one entry of the conversation log.
// Messages are values: once appended to a State they are never edited.
type Message struct {
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	OriginAgent string `json:"origin_agent,omitempty"`
	// ToolID names the tool that produced a RoleTool message.
	ToolID string `json:"tool_id,omitempty"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AgentMessage creates a message authored by the named agent.
func AgentMessage(agentName, content string) Message {
	return Message{Role: RoleAgent, Content: content, OriginAgent: agentName}
}

// ToolMessage creates a tool result message produced during an agent's turn.
func ToolMessage(agentName, toolID, content string) Message {
	return Message{Role: RoleTool, Content: content, OriginAgent: agentName, ToolID: toolID}
}

// State is the conversation threaded through one pipeline run.
//
// The log is append-only. Only the agent holding the turn appends; the mutex
// exists so a caller can take a snapshot of an abandoned run while a late
// turn is still finishing.
type State struct {
	description    string
	outputContract string

	mu       sync.Mutex
	messages []Message
}

// NewState creates a state seeded with the given messages.
func NewState(description, outputContract string, seed ...Message) *State {
	s := &State{
		description:    description,
		outputContract: outputContract,
	}
	s.messages = append(s.messages, seed...)
	return s
}

// Description returns the originating pipeline description.
func (s *State) Description() string {
	return s.description
}

// OutputContract returns the description of the expected final output.
func (s *State) OutputContract() string {
	return s.outputContract
}

// Append adds messages to the end of the log.
func (s *State) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// Messages returns a copy of the log.
func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the final message of the log.
func (s *State) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// ModelBinding selects the upstream model an agent talks to.
type ModelBinding struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// String returns "provider/model".
func (b ModelBinding) String() string {
	return fmt.Sprintf("%s/%s", b.Provider, b.Model)
}

// ToolCall contains metrics about a tool invocation.
type ToolCall struct {
	Agent      string `json:"agent"`
	Name       string `json:"name"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	DurationMs uint64 `json:"duration_ms"`
	Success    bool   `json:"success"`
}
