// Agent listing for CLI commands.
//
// Information Hiding:
// - Agent creation details hidden
// - Tool configuration hidden

package cli

import (
	"fmt"
	"strings"

	"github.com/zkstudy/zee/analyze"
	"github.com/zkstudy/zee/config"
	"github.com/zkstudy/zee/model"
)

// ListAvailableAgents describes the pipeline's agents in run order.
func ListAvailableAgents(opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	registry, err := analyze.NewToolRegistry(sourceOptions(settings))
	if err != nil {
		return err
	}

	binding := model.ModelBinding{Provider: settings.LLM.Provider, Model: settings.LLM.Model}
	collection := analyze.Agents(binding, registry)
	configs := collection.Build()

	out := opts.out()
	fmt.Fprintf(out, "Pipeline: %s\n", analyze.PipelineDescription)
	fmt.Fprintf(out, "Output:   %s\n\n", analyze.OutputContract)
	for i, info := range collection.List() {
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, info.Name, info.Model)
		fmt.Fprintf(out, "   %s\n", info.Description)
		if len(info.Tools) > 0 {
			fmt.Fprintf(out, "   Tools: %s\n", strings.Join(info.Tools, ", "))
		}
		if opts.Verbose {
			for j, instruction := range configs[i].Instructions {
				fmt.Fprintf(out, "   %d) %s\n", j+1, instruction)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
