package llm

import (
	"fmt"
	"net/http"

	"candidature-ai/internal/config"
	"candidature-ai/internal/llm/providers"
)

// LLMFactory creates provider instances
type LLMFactory struct {
	config *config.Config
}

// NewLLMFactory creates a new LLM factory instance
func NewLLMFactory(cfg *config.Config) *LLMFactory {
	return &LLMFactory{
		config: cfg,
	}
}

// CreateProvider creates a provider based on the configuration
func (f *LLMFactory) CreateProvider() (Provider, error) {
	switch f.config.LLM.Provider {
	case "claude":
		return providers.NewClaudeProvider(f.config), nil
	case "openai":
		return providers.NewOpenAIProvider(f.config, &http.Client{}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.config.LLM.Provider)
	}
}

// GetSupportedProviders returns a list of supported providers
func (f *LLMFactory) GetSupportedProviders() []string {
	return []string{"openai", "claude"}
}
