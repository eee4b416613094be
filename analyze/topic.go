// Package analyze turns a research topic into a research/summary pipeline
// run: it validates the topic, seeds the conversation, runs the agents and
// records the outcome.
package analyze

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zkstudy/zee/model"
)

// Topic length bounds, in characters after trimming.
const (
	MinTopicLength = 3
	MaxTopicLength = 200
)

// ErrInvalidTopic matches every topic ValidationError.
var ErrInvalidTopic = errors.New("invalid topic")

// ValidationError describes rejected input. It never reaches the orchestrator.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidTopic.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTopic
}

// ValidateTopic trims topic and checks its length, returning the trimmed value.
func ValidateTopic(topic string) (string, error) {
	trimmed := strings.TrimSpace(topic)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "", &ValidationError{Field: "topic", Reason: "is required"}
	case n < MinTopicLength:
		return "", &ValidationError{Field: "topic", Reason: fmt.Sprintf("must be at least %d characters", MinTopicLength)}
	case n > MaxTopicLength:
		return "", &ValidationError{Field: "topic", Reason: fmt.Sprintf("must be at most %d characters", MaxTopicLength)}
	}
	return trimmed, nil
}

// SeedMessage is the single user message a run starts from.
func SeedMessage(topic string) model.Message {
	return model.UserMessage("Analyze the latest papers about " + topic)
}

// NewState creates a run's conversation state seeded with topic.
func NewState(topic string) *model.State {
	return model.NewState(PipelineDescription, OutputContract, SeedMessage(topic))
}
