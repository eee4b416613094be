package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var newsTool = []ToolDefinition{{Name: "fetch-news", Parameters: map[string]interface{}{"type": "object"}}}

func TestMockRequestsFirstTool(t *testing.T) {
	p := NewMockProvider("")
	resp, err := p.ChatWithTools(context.Background(), []ChatMessage{
		SystemMessage("research"),
		UserMessage("Analyze zkSNARKs"),
	}, newsTool)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}

	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "fetch-news" {
		t.Fatalf("expected one fetch-news call, got %+v", resp.ToolCalls)
	}
	var args struct {
		Topic string `json:"topic"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	if args.Topic != "Analyze zkSNARKs" || args.Limit != MockToolLimit {
		t.Errorf("unexpected args: %+v", args)
	}
}

func TestMockWritesNotesFromToolResults(t *testing.T) {
	call := ToolCall{ID: "mock-call-1", Name: "fetch-news"}
	msgs := []ChatMessage{
		UserMessage("Analyze zkSNARKs"),
		AssistantToolCallMessage("", []ToolCall{call}),
		ToolResultMessage(call, `[{"title":"Recursive Proofs","content":"fold"}]`),
	}

	p := NewMockProvider("")
	first, err := p.ChatWithTools(context.Background(), msgs, newsTool)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if len(first.ToolCalls) != 0 {
		t.Fatalf("mock should stop calling tools once results exist")
	}
	if !strings.Contains(first.Content, "- Recursive Proofs: fold") {
		t.Errorf("notes missing article: %q", first.Content)
	}

	second, _ := p.ChatWithTools(context.Background(), msgs, newsTool)
	if first.Content != second.Content {
		t.Error("mock output is not deterministic")
	}
}

func TestMockSummarizesBullets(t *testing.T) {
	p := NewMockProvider("")
	resp, err := p.Chat(context.Background(), []ChatMessage{
		UserMessage("Analyze zk"),
		UserMessage("Message from Research Agent:\nResearch notes\n- Recursive Proofs: fold\n- Lookups: small"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := "Summary of key takeaways:\n- Recursive Proofs\n- Lookups"
	if resp.Content != want {
		t.Errorf("Content = %q, want %q", resp.Content, want)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens == 0 {
		t.Errorf("usage not reported: %+v", resp.Usage)
	}
}

func TestMockDelayHonoursContext(t *testing.T) {
	p := NewMockProvider("").WithDelay(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Chat(ctx, []ChatMessage{UserMessage("x")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
