package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zkstudy/zee/internal/logging"
	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/orchestration"
	"github.com/zkstudy/zee/storage"
	"github.com/zkstudy/zee/tools"
)

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{name: "two characters", topic: "zk", wantErr: true},
		{name: "three characters", topic: "zkp", want: "zkp"},
		{name: "two hundred characters", topic: strings.Repeat("a", 200), want: strings.Repeat("a", 200)},
		{name: "two hundred and one characters", topic: strings.Repeat("a", 201), wantErr: true},
		{name: "trimmed to two", topic: "   zk \n", wantErr: true},
		{name: "trimmed to three", topic: "  zkp  ", want: "zkp"},
		{name: "multibyte counted as characters", topic: "証明系", want: "証明系"},
		{name: "empty", topic: "", wantErr: true},
		{name: "whitespace only", topic: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTopic(tt.topic)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || !errors.Is(err, ErrInvalidTopic) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestNewStateSeedsOneUserMessage(t *testing.T) {
	state := NewState("zkSNARKs")
	msgs := state.Messages()
	if len(msgs) != 1 || msgs[0].Role != model.RoleUser {
		t.Fatalf("unexpected seed: %+v", msgs)
	}
	if msgs[0].Content != "Analyze the latest papers about zkSNARKs" {
		t.Errorf("seed content = %q", msgs[0].Content)
	}
	if state.Description() != PipelineDescription || state.OutputContract() != OutputContract {
		t.Errorf("unexpected state identity")
	}
}

// recordingTool wraps a tool and keeps the arguments it was called with.
type recordingTool struct {
	tools.Tool
	mu   sync.Mutex
	args []json.RawMessage
}

func (r *recordingTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	r.mu.Lock()
	r.args = append(r.args, append(json.RawMessage(nil), args...))
	r.mu.Unlock()
	return r.Tool.Execute(ctx, args)
}

func newService(t *testing.T, registry *tools.Registry, journal storage.RunJournal) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Provider: llm.NewMockProvider(""),
		Tools:    registry,
		Deadline: 5 * time.Second,
		Journal:  journal,
		Logger:   logging.Discard(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestEndToEndWithMockProvider(t *testing.T) {
	news := &recordingTool{Tool: tools.NewFetchNewsTool(nil)}
	registry, err := tools.NewRegistry(news)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc := newService(t, registry, nil)

	state := NewState("zkSNARKs for blockchain scalability")
	res := svc.orchestrator.Run(context.Background(), svc.agents, state, svc.deadline)
	if !res.OK() || strings.TrimSpace(res.Content) == "" {
		t.Fatalf("expected ok with content, got %+v", res)
	}

	if len(news.args) != 1 {
		t.Fatalf("expected one tool call, got %d", len(news.args))
	}
	var args struct {
		Topic string `json:"topic"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(news.args[0], &args); err != nil {
		t.Fatalf("bad tool arguments %s: %v", news.args[0], err)
	}
	if args.Limit < 3 || args.Limit > 5 {
		t.Errorf("limit = %d, want 3..5", args.Limit)
	}

	msgs := state.Messages()
	var research *model.Message
	for i := range msgs {
		if msgs[i].Role == model.RoleAgent && msgs[i].OriginAgent == ResearchAgentName {
			research = &msgs[i]
		}
	}
	if research == nil {
		t.Fatal("research agent wrote no message")
	}
	fixtureTitle := tools.DefaultArticles()[0].Title
	if !strings.Contains(research.Content, fixtureTitle) {
		t.Errorf("research message does not mention %q:\n%s", fixtureTitle, research.Content)
	}

	last := msgs[len(msgs)-1]
	if last.OriginAgent != SummaryAgentName || last.Content != res.Content {
		t.Errorf("last message should be the summary: %+v", last)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	registry, err := NewToolRegistry(SourceOptions{})
	if err != nil {
		t.Fatalf("NewToolRegistry: %v", err)
	}
	journal := storage.NewInMemoryJournal(0)
	svc := newService(t, registry, journal)

	first := svc.Analyze(context.Background(), "  zkSNARKs for blockchain scalability ")
	second := svc.Analyze(context.Background(), "zkSNARKs for blockchain scalability")

	if !first.Result.OK() || !second.Result.OK() {
		t.Fatalf("expected ok runs, got %s and %s", first.Result.Outcome, second.Result.Outcome)
	}
	if first.Result.Content != second.Result.Content {
		t.Errorf("content differs between runs:\n%s\n---\n%s", first.Result.Content, second.Result.Content)
	}
	if first.Topic != "zkSNARKs for blockchain scalability" {
		t.Errorf("topic not trimmed: %q", first.Topic)
	}
	if first.RunID == "" || first.RunID == second.RunID {
		t.Errorf("expected distinct run IDs, got %q and %q", first.RunID, second.RunID)
	}

	records, err := svc.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 || records[0].ID != second.RunID {
		t.Fatalf("unexpected journal: %+v", records)
	}
	r := records[0]
	if r.Outcome != string(orchestration.OutcomeOK) || r.Turns != 2 || r.ToolCalls != 1 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.ContentHash != storage.ContentDigest(second.Result.Content) {
		t.Errorf("content hash mismatch")
	}
}

func TestAnalyzeRejectsInvalidTopic(t *testing.T) {
	registry, err := NewToolRegistry(SourceOptions{})
	if err != nil {
		t.Fatalf("NewToolRegistry: %v", err)
	}
	journal := storage.NewInMemoryJournal(0)
	svc := newService(t, registry, journal)

	report := svc.Analyze(context.Background(), "zk")
	if report.Result.Outcome != orchestration.OutcomeValidationError {
		t.Fatalf("outcome = %s, want validationError", report.Result.Outcome)
	}
	if report.Result.Detail == "" || report.RunID != "" {
		t.Errorf("unexpected report: %+v", report)
	}
	if journal.Len() != 0 {
		t.Error("validation failures should not be journaled")
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	registry, err := NewToolRegistry(SourceOptions{})
	if err != nil {
		t.Fatalf("NewToolRegistry: %v", err)
	}
	svc, err := NewService(Options{
		Provider: llm.NewMockProvider("").WithDelay(time.Second),
		Tools:    registry,
		Deadline: 30 * time.Millisecond,
		Logger:   logging.Discard(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	report := svc.Analyze(context.Background(), "recursive proofs")
	if report.Result.Outcome != orchestration.OutcomeTimeout {
		t.Fatalf("outcome = %s, want timeout", report.Result.Outcome)
	}
}

func TestAgentsOrder(t *testing.T) {
	registry, err := NewToolRegistry(SourceOptions{Papers: true, PapersBaseURL: "http://127.0.0.1:1", PapersTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewToolRegistry: %v", err)
	}

	infos := Agents(model.ModelBinding{Provider: "mock", Model: "mock-1"}, registry).List()
	if len(infos) != 2 || infos[0].Name != ResearchAgentName || infos[1].Name != SummaryAgentName {
		t.Fatalf("unexpected agents: %+v", infos)
	}
	if len(infos[0].Tools) != 2 || len(infos[1].Tools) != 0 {
		t.Errorf("unexpected tools: %+v", infos)
	}

	cfg := ResearchAgent(model.ModelBinding{}, registry)
	found := false
	for _, in := range cfg.Instructions {
		if strings.Contains(in, tools.FetchPapersToolName) {
			found = true
		}
	}
	if !found {
		t.Error("research instructions should mention the papers tool when enabled")
	}
}

func TestNewServiceRequiresProvider(t *testing.T) {
	if _, err := NewService(Options{Deadline: time.Second}); err == nil {
		t.Error("expected error without provider")
	}
	if _, err := NewService(Options{Provider: llm.NewMockProvider(""), Deadline: 0}); err == nil {
		t.Error("expected error without deadline")
	}
}
