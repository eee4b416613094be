// Agent turn implementation.
//
// Every role in a pipeline is this one routine fed with different data:
// description, instructions and tool set.
//
// Information Hiding:
// - Prompt rendering from the shared state hidden
// - LLM communication hidden
// - Tool call round-trips hidden

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zkstudy/zee/llm"
	"github.com/zkstudy/zee/model"
)

// Runner is anything that can take a turn on a conversation state.
type Runner interface {
	// TakeTurn appends this agent's messages to state and returns them.
	// Failures are reported as *ModelError.
	TakeTurn(ctx context.Context, state *model.State) (Turn, error)
}

// Agent is the generic role implementation.
type Agent struct {
	config   Config
	provider llm.Provider
	toolDefs []llm.ToolDefinition
	logger   *slog.Logger
}

// New creates a new agent with the given configuration and provider.
func New(config Config, provider llm.Provider) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("agent %q: provider is required", config.Name)
	}

	defs, err := config.Tools.Definitions()
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", config.Name, err)
	}

	return &Agent{
		config:   config,
		provider: provider,
		toolDefs: defs,
		logger:   slog.Default(),
	}, nil
}

// WithLogger sets the logger used for turn diagnostics.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.config.Name
}

// Config returns the agent's configuration.
func (a *Agent) Config() Config {
	return a.config
}

// TakeTurn runs model calls until the model answers without tool calls.
//
// Tool calls are executed in the order the model listed them, each result is
// appended to state and fed back to the model. There is no cap on the number
// of round-trips; the caller's context bounds the turn.
func (a *Agent) TakeTurn(ctx context.Context, state *model.State) (Turn, error) {
	start := time.Now()
	turn := Turn{Agent: a.config.Name}
	conversation := a.render(state)

	for {
		if err := ctx.Err(); err != nil {
			return a.finish(&turn, start), a.fail(UpstreamFailure, err)
		}

		resp, err := a.chat(ctx, conversation)
		turn.Metadata.LLMCalls++
		if err != nil {
			return a.finish(&turn, start), a.fail(UpstreamFailure, err)
		}
		turn.Metadata.addUsage(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			content := strings.TrimSpace(resp.Content)
			if content == "" {
				return a.finish(&turn, start), a.fail(UpstreamFailure, ErrEmptyResponse)
			}
			msg := model.AgentMessage(a.config.Name, content)
			state.Append(msg)
			turn.Messages = append(turn.Messages, msg)
			return a.finish(&turn, start), nil
		}

		conversation = append(conversation, llm.AssistantToolCallMessage(resp.Content, resp.ToolCalls))

		for _, tc := range resp.ToolCalls {
			output, call, err := a.config.Tools.Invoke(ctx, tc.Name, tc.Arguments)
			call.Agent = a.config.Name
			turn.Metadata.ToolCalls = append(turn.Metadata.ToolCalls, call)

			a.logger.Debug("tool invoked",
				"agent", a.config.Name,
				"tool", tc.Name,
				"duration_ms", call.DurationMs,
				"output_bytes", call.OutputSize,
				"success", err == nil,
			)

			if err != nil {
				return a.finish(&turn, start), a.fail(ToolFailure, err)
			}

			msg := model.ToolMessage(a.config.Name, tc.Name, output)
			state.Append(msg)
			turn.Messages = append(turn.Messages, msg)
			conversation = append(conversation, llm.ToolResultMessage(tc, output))
		}
	}
}

func (a *Agent) chat(ctx context.Context, conversation []llm.ChatMessage) (llm.LLMResponse, error) {
	if len(a.toolDefs) == 0 {
		return a.provider.Chat(ctx, conversation)
	}
	return a.provider.ChatWithTools(ctx, conversation, a.toolDefs)
}

func (a *Agent) fail(kind ErrorKind, err error) *ModelError {
	return &ModelError{Kind: kind, Agent: a.config.Name, Err: err}
}

func (a *Agent) finish(turn *Turn, start time.Time) Turn {
	turn.Metadata.ExecutionTimeMs = uint64(time.Since(start).Milliseconds())
	return *turn
}

// render builds the model conversation from the shared state.
//
// The agent's own earlier messages become assistant turns; everything else
// is shown as user input, labelled with where it came from.
func (a *Agent) render(state *model.State) []llm.ChatMessage {
	msgs := state.Messages()
	conversation := make([]llm.ChatMessage, 0, len(msgs)+1)
	conversation = append(conversation, llm.SystemMessage(
		a.config.systemPrompt(state.Description(), state.OutputContract()),
	))

	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			conversation = append(conversation, llm.UserMessage(m.Content))
		case model.RoleAgent:
			if m.OriginAgent == a.config.Name {
				conversation = append(conversation, llm.AssistantMessage(m.Content))
				continue
			}
			conversation = append(conversation, llm.UserMessage(
				fmt.Sprintf("Message from %s:\n%s", m.OriginAgent, m.Content),
			))
		case model.RoleTool:
			conversation = append(conversation, llm.UserMessage(
				fmt.Sprintf("Result of tool %s (called by %s):\n%s", m.ToolID, m.OriginAgent, m.Content),
			))
		}
	}
	return conversation
}

// Verify Agent implements Runner
var _ Runner = (*Agent)(nil)
