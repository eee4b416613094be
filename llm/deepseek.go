// DeepSeek Provider.
//
// DeepSeek serves an OpenAI-compatible API, so it reuses OpenAIProvider
// with a different base URL.

package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	return NewDeepSeekProviderWithBaseURL(apiKey, "", model, maxTokens, temperature)
}

// NewDeepSeekProviderWithBaseURL creates a DeepSeek provider that talks to baseURL.
func NewDeepSeekProviderWithBaseURL(apiKey, baseURL, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return newChatCompletionsProvider("deepseek", config, model, maxTokens, temperature)
}
