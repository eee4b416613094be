// Mock Provider.
//
// A deterministic provider that needs no credentials. It drives offline
// runs, demos and end-to-end tests: the same conversation always yields the
// same response.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MockModel is the model name reported by MockProvider.
const MockModel = "mock-1"

// MockToolLimit is the limit the mock asks its first tool for.
const MockToolLimit = 3

// MockProvider implements Provider without any network access.
//
// With tools offered and no tool result in the conversation it requests the
// first tool with {"topic": <first user message>, "limit": 3}. Otherwise it
// writes text derived from the conversation.
type MockProvider struct {
	model string
	delay time.Duration
}

// NewMockProvider creates a mock provider. An empty model uses MockModel.
func NewMockProvider(model string) *MockProvider {
	if model == "" {
		model = MockModel
	}
	return &MockProvider{model: model}
}

// WithDelay makes every call wait d (or until ctx is done) before answering.
func (p *MockProvider) WithDelay(d time.Duration) *MockProvider {
	p.delay = d
	return p
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Model returns the current model.
func (p *MockProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *MockProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

// ChatWithTools answers deterministically from messages.
func (p *MockProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return LLMResponse{}, err
	}

	topic := firstUserContent(messages)
	results := toolResults(messages)

	var resp LLMResponse
	switch {
	case len(tools) > 0 && len(results) == 0:
		args, err := json.Marshal(map[string]interface{}{"topic": topic, "limit": MockToolLimit})
		if err != nil {
			return LLMResponse{}, fmt.Errorf("mock: encode arguments: %w", err)
		}
		resp.ToolCalls = []ToolCall{{
			ID:        "mock-call-1",
			Name:      tools[0].Name,
			Arguments: args,
		}}
	case len(results) > 0:
		resp.Content = researchNotes(topic, results)
	default:
		resp.Content = summarize(messages)
	}

	resp.Usage = mockUsage(messages, resp)
	return resp, nil
}

func firstUserContent(messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role == RoleUser {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func toolResults(messages []ChatMessage) []string {
	var out []string
	for _, m := range messages {
		if m.Role == RoleTool {
			out = append(out, m.Content)
		}
	}
	return out
}

// researchNotes lists the titled items found in tool results.
func researchNotes(topic string, results []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research notes for: %s\n", topic)

	n := 0
	for _, r := range results {
		var items []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(r), &items); err != nil {
			continue
		}
		for _, it := range items {
			if it.Title == "" {
				continue
			}
			n++
			fmt.Fprintf(&b, "- %s: %s\n", it.Title, it.Content)
		}
	}
	if n == 0 {
		b.WriteString("- No sources returned usable items.\n")
	}
	fmt.Fprintf(&b, "Key trend: %d sources reviewed.", n)
	return b.String()
}

// summarize turns bullet lines of the latest user turn into takeaways.
func summarize(messages []ChatMessage) string {
	var last string
	for _, m := range messages {
		if m.Role == RoleUser {
			last = m.Content
		}
	}

	var bullets []string
	for _, line := range strings.Split(last, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			title, _, _ := strings.Cut(strings.TrimPrefix(line, "- "), ":")
			bullets = append(bullets, "- "+strings.TrimSpace(title))
		}
	}

	if len(bullets) == 0 {
		text := strings.TrimSpace(last)
		if len(text) > 200 {
			text = text[:200]
		}
		return "Summary: " + text
	}
	return "Summary of key takeaways:\n" + strings.Join(bullets, "\n")
}

// mockUsage approximates tokens as four characters each.
func mockUsage(messages []ChatMessage, resp LLMResponse) *TokenUsage {
	in := 0
	for _, m := range messages {
		in += len(m.Content)
	}
	out := len(resp.Content)
	for _, tc := range resp.ToolCalls {
		out += len(tc.Arguments)
	}
	u := &TokenUsage{
		PromptTokens:     uint32(in / 4),
		CompletionTokens: uint32(out / 4),
	}
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return u
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
