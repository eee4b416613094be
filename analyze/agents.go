package analyze

import (
	"github.com/zkstudy/zee/agent"
	"github.com/zkstudy/zee/model"
	"github.com/zkstudy/zee/tools"
)

// Pipeline identity shown to every agent.
const (
	PipelineDescription = "Discuss about Zero Knowledge Proof academic papers to generate Insight"
	OutputContract      = "A discussion based on papers and key insights"
)

// Agent names.
const (
	ResearchAgentName = "Research Agent"
	SummaryAgentName  = "Summary Agent"
)

// ResearchAgent returns the research role bound to registry.
func ResearchAgent(binding model.ModelBinding, registry *tools.Registry) agent.Config {
	b := agent.NewBuilder(ResearchAgentName).
		Description("An AI researcher that fetches and analyzes news articles.").
		Instruction("Use the fetch-news tool to get articles about the requested topic")
	if registry.Has(tools.FetchPapersToolName) {
		b.Instruction("Use the fetch-papers tool to find recent academic papers on the topic")
	}
	b.Instructions(
		"Analyze the content of the articles",
		"Identify key trends and insights",
	)
	return b.Model(binding.Provider, binding.Model).Tools(registry).Build()
}

// SummaryAgent returns the summary role. It has no tools.
func SummaryAgent(binding model.ModelBinding) agent.Config {
	return agent.NewBuilder(SummaryAgentName).
		Description("An AI writer that creates concise summaries from research analysis.").
		Instructions(
			"Review the research analysis provided",
			"Create a clear and concise summary",
			"Highlight the most important points",
			"Use bullet points for key takeaways",
		).
		Model(binding.Provider, binding.Model).
		Build()
}

// Agents returns the pipeline's agents in run order.
func Agents(binding model.ModelBinding, registry *tools.Registry) *agent.Collection {
	return agent.NewCollection().
		AddConfig(ResearchAgent(binding, registry)).
		AddConfig(SummaryAgent(binding))
}
