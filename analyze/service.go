package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zkstudy/zee/agent"
	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/orchestration"
	"github.com/zkstudy/zee/storage"
	"github.com/zkstudy/zee/tools"
)

// journalTimeout bounds how long recording a run may take.
const journalTimeout = 2 * time.Second

// SourceOptions selects the research tools.
type SourceOptions struct {
	// Articles replaces the embedded news catalog when non-nil.
	Articles []tools.Article
	// Papers enables the live arXiv search tool.
	Papers        bool
	PapersBaseURL string
	PapersTimeout time.Duration
}

// NewToolRegistry builds the research agent's tools.
func NewToolRegistry(opts SourceOptions) (*tools.Registry, error) {
	list := []tools.Tool{tools.NewFetchNewsTool(opts.Articles)}
	if opts.Papers {
		list = append(list, tools.NewFetchPapersTool(opts.PapersBaseURL, opts.PapersTimeout))
	}
	return tools.NewRegistry(list...)
}

// Options configures a Service.
type Options struct {
	Provider llm.Provider
	Tools    *tools.Registry
	// Deadline bounds every run.
	Deadline time.Duration
	// Journal receives one record per run; nil uses an in-memory journal.
	Journal storage.RunJournal
	Logger  *slog.Logger
}

// Report is the result of one Analyze call.
type Report struct {
	RunID     string
	Topic     string
	StartedAt time.Time
	Result    orchestration.Result
}

// Service runs the research/summary pipeline. Its agents are built once and
// shared read-only by concurrent runs.
type Service struct {
	agents       []agent.Runner
	collection   *agent.Collection
	orchestrator *orchestration.Orchestrator
	deadline     time.Duration
	journal      storage.RunJournal
	logger       *slog.Logger
}

// NewService builds the pipeline's agents from opts.
func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.New("analyze: provider is required")
	}
	if opts.Deadline <= 0 {
		return nil, errors.New("analyze: deadline must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	journal := opts.Journal
	if journal == nil {
		journal = storage.NewInMemoryJournal(0)
	}

	binding := model.ModelBinding{Provider: opts.Provider.Name(), Model: opts.Provider.Model()}
	collection := Agents(binding, opts.Tools)

	configs := collection.Build()
	runners := make([]agent.Runner, 0, len(configs))
	for _, cfg := range configs {
		a, err := agent.New(cfg, opts.Provider)
		if err != nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		runners = append(runners, a.WithLogger(logger))
	}

	return &Service{
		agents:       runners,
		collection:   collection,
		orchestrator: orchestration.New(logger),
		deadline:     opts.Deadline,
		journal:      journal,
		logger:       logger,
	}, nil
}

// Analyze validates topic and runs the pipeline on it. Invalid topics return
// a validationError result without running any agent.
func (s *Service) Analyze(ctx context.Context, topic string) Report {
	start := time.Now()

	trimmed, err := ValidateTopic(topic)
	if err != nil {
		return Report{
			Topic:     topic,
			StartedAt: start,
			Result:    orchestration.NewValidationResult(err.Error()),
		}
	}

	record := storage.NewRunRecord(trimmed, start)
	logger := s.logger.With("run_id", record.ID)
	logger.Info("pipeline started", "topic", trimmed, "deadline", s.deadline)

	res := s.orchestrator.Run(ctx, s.agents, NewState(trimmed), s.deadline)

	s.record(ctx, logger, record, res)
	return Report{
		RunID:     record.ID,
		Topic:     trimmed,
		StartedAt: start,
		Result:    res,
	}
}

// record journals res. Failures are logged and never fail the run.
func (s *Service) record(ctx context.Context, logger *slog.Logger, record storage.RunRecord, res orchestration.Result) {
	record = record.WithContent(res.Content)
	record.Outcome = string(res.Outcome)
	record.Detail = res.Detail
	record.DurationMs = res.Metadata.ExecutionTimeMs
	record.Turns = len(res.Metadata.Turns)
	record.ToolCalls = len(res.Metadata.ToolCalls)
	record.PromptTokens = res.Metadata.TokenStats.PromptTokens
	record.CompletionTokens = res.Metadata.TokenStats.CompletionTokens
	record.TotalTokens = res.Metadata.TokenStats.TotalTokens

	// The caller may already be gone; the record is still written.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := s.journal.Record(jctx, record); err != nil {
		logger.Error("failed to record run", "error", err)
	}
}

// Recent returns the newest journal records.
func (s *Service) Recent(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	return s.journal.Recent(ctx, limit)
}

// Agents describes the pipeline's agents in run order.
func (s *Service) Agents() []agent.AgentInfo {
	return s.collection.List()
}

// Close releases the journal.
func (s *Service) Close() error {
	return s.journal.Close()
}
