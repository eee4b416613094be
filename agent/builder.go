// Agent builder for fluent configuration.
//
// Information Hiding:
// - Builder state management hidden
// - Default value application hidden

package agent

import (
	"fmt"

	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/tools"
)

// Builder provides fluent configuration for creating agents.
// Usage: agent.NewBuilder("name") - no stutter.
type Builder struct {
	name         string
	description  string
	instructions []string
	binding      model.ModelBinding
	tools        *tools.Registry
}

// NewBuilder creates a new agent builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Description sets the agent's description.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Instruction appends one instruction.
func (b *Builder) Instruction(instruction string) *Builder {
	b.instructions = append(b.instructions, instruction)
	return b
}

// Instructions appends several instructions in order.
func (b *Builder) Instructions(instructions ...string) *Builder {
	b.instructions = append(b.instructions, instructions...)
	return b
}

// Model sets the provider and model name the agent is bound to.
func (b *Builder) Model(provider, modelName string) *Builder {
	b.binding = model.ModelBinding{Provider: provider, Model: modelName}
	return b
}

// Tools sets the agent's tool registry.
func (b *Builder) Tools(registry *tools.Registry) *Builder {
	b.tools = registry
	return b
}

// Build creates the agent configuration.
func (b *Builder) Build() Config {
	description := b.description
	if description == "" {
		description = fmt.Sprintf("Agent: %s", b.name)
	}

	instructions := make([]string, len(b.instructions))
	copy(instructions, b.instructions)

	return Config{
		Name:         b.name,
		Model:        b.binding,
		Description:  description,
		Instructions: instructions,
		Tools:        b.tools,
	}
}

// Name returns the builder's agent name.
func (b *Builder) Name() string {
	return b.name
}

// ToolCount returns the number of tools registered.
func (b *Builder) ToolCount() int {
	return b.tools.Len()
}

// Collection manages an ordered set of agent configurations.
type Collection struct {
	configs []Config
}

// NewCollection creates an empty agent collection.
func NewCollection() *Collection {
	return &Collection{
		configs: []Config{},
	}
}

// Add adds an agent from a builder.
func (c *Collection) Add(builder *Builder) *Collection {
	c.configs = append(c.configs, builder.Build())
	return c
}

// AddConfig adds a pre-built config.
func (c *Collection) AddConfig(config Config) *Collection {
	c.configs = append(c.configs, config)
	return c
}

// Build returns all configurations in insertion order.
func (c *Collection) Build() []Config {
	out := make([]Config, len(c.configs))
	copy(out, c.configs)
	return out
}

// Len returns the number of agents.
func (c *Collection) Len() int {
	return len(c.configs)
}

// AgentInfo describes an agent's basic information.
type AgentInfo struct {
	Name        string
	Description string
	Model       model.ModelBinding
	Tools       []string
}

// List returns agent names and descriptions.
func (c *Collection) List() []AgentInfo {
	result := make([]AgentInfo, len(c.configs))
	for i, cfg := range c.configs {
		result[i] = AgentInfo{
			Name:        cfg.Name,
			Description: cfg.Description,
			Model:       cfg.Model,
			Tools:       cfg.Tools.Names(),
		}
	}
	return result
}
