// Command execution for CLI commands.
//
// Information Hiding:
// - Provider, journal and logger setup hidden
// - Service wiring hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zkstudy/zee/analyze"
	"github.com/zkstudy/zee/config"
	"github.com/zkstudy/zee/internal/logging"
	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/orchestration"
	"github.com/zkstudy/zee/server"
	"github.com/zkstudy/zee/storage"
)

// Options holds CLI execution options.
type Options struct {
	// Provider overrides LLM_PROVIDER when set.
	Provider string
	Verbose  bool
	// Out receives command output; nil means stdout.
	Out io.Writer
	// LogOut receives log lines; nil means stderr.
	LogOut io.Writer
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Out:    os.Stdout,
		LogOut: os.Stderr,
	}
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) logOut() io.Writer {
	if o.LogOut == nil {
		return os.Stderr
	}
	return o.LogOut
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}

	svc, err := newService(settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("starting zee",
		"provider", settings.LLM.Provider,
		"model", settings.LLM.Model,
		"deadline", settings.Server.PipelineDeadline,
		"origins", strings.Join(settings.Server.AllowedOrigins, ","),
		"papers", settings.Sources.ArxivEnabled,
	)
	return server.New(svc, settings.Server, logger).ListenAndServe(ctx)
}

// Analyze runs the pipeline once and prints the summary.
func Analyze(ctx context.Context, topic string, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}

	svc, err := newService(settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := opts.out()
	report := svc.Analyze(ctx, topic)
	res := report.Result

	if opts.Verbose {
		printTurns(out, res.Metadata.Turns)
	}

	switch res.Outcome {
	case orchestration.OutcomeOK:
		fmt.Fprintf(out, "%s\n", res.Content)
		if opts.Verbose {
			printTokenStats(out, &res.Metadata)
		}
		return nil
	case orchestration.OutcomeValidationError:
		return fmt.Errorf("invalid topic: %s", res.Detail)
	case orchestration.OutcomeTimeout:
		return fmt.Errorf("analysis timed out after %s", settings.Server.PipelineDeadline)
	default:
		return fmt.Errorf("analysis failed (%s): %s", res.Outcome, res.Detail)
	}
}

// ListTools prints the research tools for the configured sources.
func ListTools(opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	registry, err := analyze.NewToolRegistry(sourceOptions(settings))
	if err != nil {
		return err
	}

	out := opts.out()
	fmt.Fprintln(out, "Available tools:")
	fmt.Fprintln(out)
	for _, meta := range registry.List() {
		fmt.Fprintf(out, "  %s\n", meta.Name)
		fmt.Fprintf(out, "    %s\n", meta.Description)
		if opts.Verbose && meta.Schema != nil {
			fmt.Fprintln(out, "    Parameters:")
			for _, name := range meta.Schema.Required {
				prop := meta.Schema.Properties[name]
				if prop == nil {
					continue
				}
				fmt.Fprintf(out, "      %s*: %s - %s\n", name, prop.Type, prop.Description)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}

// Helper functions

func setup(opts Options) (config.Settings, *slog.Logger, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}

	levelName := settings.Log.Level
	if opts.Verbose {
		levelName = "debug"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return config.Settings{}, nil, err
	}
	logger, err := logging.New(opts.logOut(), settings.Log.Format, level)
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, logger, nil
}

func newService(settings config.Settings, logger *slog.Logger) (*analyze.Service, error) {
	provider, err := createProvider(settings.LLM)
	if err != nil {
		return nil, err
	}

	registry, err := analyze.NewToolRegistry(sourceOptions(settings))
	if err != nil {
		return nil, err
	}

	journal, err := openJournal(settings.Journal)
	if err != nil {
		return nil, err
	}

	svc, err := analyze.NewService(analyze.Options{
		Provider: provider,
		Tools:    registry,
		Deadline: settings.Server.PipelineDeadline,
		Journal:  journal,
		Logger:   logger,
	})
	if err != nil {
		journal.Close()
		return nil, err
	}
	return svc, nil
}

func sourceOptions(settings config.Settings) analyze.SourceOptions {
	return analyze.SourceOptions{
		Papers:        settings.Sources.ArxivEnabled,
		PapersBaseURL: settings.Sources.ArxivBaseURL,
		PapersTimeout: settings.Sources.ArxivTimeout,
	}
}

func createProvider(cfg config.LLMConfig) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(cfg.Provider)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(cfg.Model).
		MaxTokens(cfg.MaxTokens).
		Temperature(float32(cfg.Temperature)).
		BaseURL(cfg.BaseURL).
		APIKey(apiKey)
}

func openJournal(cfg config.JournalConfig) (storage.RunJournal, error) {
	if cfg.Path == "" {
		return storage.NewInMemoryJournal(0), nil
	}
	journal, err := storage.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}
	return journal, nil
}

func printTurns(w io.Writer, turns []orchestration.TurnRecord) {
	fmt.Fprintln(w, "--- Turns ---")
	for i, turn := range turns {
		status := "ok"
		if turn.Failed {
			status = "failed"
		}
		fmt.Fprintf(w, "[%d] %s: %s in %dms (%d messages, %d LLM calls)\n",
			i+1, turn.Agent, status, turn.DurationMs, turn.MessagesAppended, turn.LLMCalls)
	}
	fmt.Fprintln(w, "-------------")
	fmt.Fprintln(w)
}

// printTokenStats prints token usage statistics.
func printTokenStats(w io.Writer, meta *orchestration.Metadata) {
	if meta == nil {
		return
	}
	stats := meta.TokenStats
	fmt.Fprintf(w, "\nToken Usage:\n")
	fmt.Fprintf(w, "  LLM calls: %d\n", stats.LLMCalls)
	fmt.Fprintf(w, "  Tool calls: %d\n", len(meta.ToolCalls))
	fmt.Fprintf(w, "  Prompt tokens: %d\n", stats.PromptTokens)
	fmt.Fprintf(w, "  Completion tokens: %d\n", stats.CompletionTokens)
	fmt.Fprintf(w, "  Total tokens: %d\n", stats.TotalTokens)
}
