// Agent configuration types.
//
// Information Hiding:
// - Configuration validation logic hidden
// - Default values hidden

package agent

import (
	"fmt"
	"strings"

	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/tools"
)

// Config holds agent configuration.
// A Config is never mutated after the agent is built and may be shared.
type Config struct {
	// Name is a unique identifier for the agent.
	Name string

	// Model selects the upstream model for this role.
	Model model.ModelBinding

	// Description explains what this agent does.
	Description string

	// Instructions are the ordered rules the agent follows.
	Instructions []string

	// Tools available to this agent. Nil means the agent cannot call tools.
	Tools *tools.Registry
}

// HasTools returns true if the agent has tools configured.
func (c *Config) HasTools() bool {
	return c.Tools.Len() > 0
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("agent name is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("agent %q: description is required", c.Name)
	}
	for i, in := range c.Instructions {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("agent %q: instruction %d is empty", c.Name, i+1)
		}
	}
	return nil
}

// systemPrompt renders role, instructions, pipeline context and tool catalog.
func (c *Config) systemPrompt(pipeline, outputContract string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", c.Name, c.Description)

	if len(c.Instructions) > 0 {
		b.WriteString("\nInstructions:\n")
		for i, in := range c.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, in)
		}
	}

	if pipeline != "" {
		fmt.Fprintf(&b, "\nYou are one step of a pipeline: %s\n", pipeline)
	}
	if outputContract != "" {
		fmt.Fprintf(&b, "The pipeline's final output is: %s\n", outputContract)
	}

	if c.HasTools() {
		fmt.Fprintf(&b, "\nAvailable Tools:\n%s\n", c.Tools.Description())
	}

	return b.String()
}
