// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup
//
// Settings are read once at start-up and passed down by value.

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	Server  ServerConfig
	LLM     LLMConfig
	Log     LogConfig
	Sources SourcesConfig
	Journal JournalConfig
}

// ServerConfig holds HTTP boundary configuration.
type ServerConfig struct {
	Port int
	// AllowedOrigins is the CORS allow-list. "*" allows every origin.
	AllowedOrigins   []string
	PipelineDeadline time.Duration
	ShutdownTimeout  time.Duration
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	MaxTokens   uint32
	Temperature float64
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// SourcesConfig holds research source configuration.
type SourcesConfig struct {
	ArxivEnabled bool
	ArxivBaseURL string
	ArxivTimeout time.Duration
}

// JournalConfig holds run journal configuration.
type JournalConfig struct {
	// Path of the SQLite journal; empty keeps the journal in memory.
	Path string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
	baseURLEnv   string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o-mini", "OPENAI_API_KEY", "OPENAI_BASE_URL"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY", "DEEPSEEK_BASE_URL"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.0-flash", "GEMINI_API_KEY", "GEMINI_BASE_URL"},
	"mock":      {"MOCK_MODEL", "mock-1", "", ""},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

const (
	defaultProvider     = "openai"
	defaultPort         = 3400
	defaultOrigins      = "http://localhost:3000"
	defaultDeadline     = 60 * time.Second
	defaultShutdown     = 5 * time.Second
	defaultArxivURL     = "http://export.arxiv.org/api/query"
	defaultArxivTimeout = 15 * time.Second
)

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to LLM_PROVIDER, then to openai.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("LLM_PROVIDER")
	}
	if provider == "" {
		provider = defaultProvider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	server, err := loadServer()
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	logCfg, err := loadLog()
	if err != nil {
		return Settings{}, err
	}

	sources, err := loadSources()
	if err != nil {
		return Settings{}, err
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}
	var baseURL string
	if info.baseURLEnv != "" {
		baseURL = os.Getenv(info.baseURLEnv)
	}

	return Settings{
		Server: server,
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			BaseURL:     baseURL,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Log:     logCfg,
		Sources: sources,
		Journal: JournalConfig{Path: os.Getenv("RUN_JOURNAL_PATH")},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

func loadServer() (ServerConfig, error) {
	port, err := getEnvInt("PORT", defaultPort)
	if err != nil {
		return ServerConfig{}, err
	}
	if port < 1 || port > 65535 {
		return ServerConfig{}, fmt.Errorf("invalid value for PORT: %d out of range", port)
	}

	deadline, err := getEnvDuration("PIPELINE_DEADLINE", defaultDeadline)
	if err != nil {
		return ServerConfig{}, err
	}
	if deadline <= 0 {
		return ServerConfig{}, fmt.Errorf("invalid value for PIPELINE_DEADLINE: must be positive")
	}

	shutdown, err := getEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdown)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Port:             port,
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", defaultOrigins),
		PipelineDeadline: deadline,
		ShutdownTimeout:  shutdown,
	}, nil
}

func loadLog() (LogConfig, error) {
	level := strings.ToLower(getEnvString("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid value for LOG_LEVEL: %q", level)
	}

	format := strings.ToLower(getEnvString("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid value for LOG_FORMAT: %q", format)
	}
	return LogConfig{Level: level, Format: format}, nil
}

func loadSources() (SourcesConfig, error) {
	enabled, err := getEnvBool("ARXIV_ENABLED", false)
	if err != nil {
		return SourcesConfig{}, err
	}
	timeout, err := getEnvDuration("ARXIV_TIMEOUT", defaultArxivTimeout)
	if err != nil {
		return SourcesConfig{}, err
	}
	return SourcesConfig{
		ArxivEnabled: enabled,
		ArxivBaseURL: getEnvString("ARXIV_BASE_URL", defaultArxivURL),
		ArxivTimeout: timeout,
	}, nil
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// The mock provider needs no key and returns "".
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key, defaultVal string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		val = defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
