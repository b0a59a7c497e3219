package llm

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"anthropic":  "claude-sonnet-4-20250514",
	"openai":     "gpt-4o-mini",
	"openrouter": "openrouter/auto",
	"ollama":     "llama3.2",
}

// defaultBaseURLs are the OpenAI-compatible endpoints of providers served by
// OpenAIProvider.
var defaultBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
}

// providerEnvKeys maps provider names to their API key environment variables.
var providerEnvKeys = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func init() {
	RegisterProvider("anthropic", func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("openrouter", compatible("openrouter"))
	RegisterProvider("ollama", func(cfg ProviderConfig) (Provider, error) {
		if cfg.APIKey == "" {
			// Ollama ignores the key but the client requires one.
			cfg.APIKey = "ollama"
		}
		return compatible("ollama")(cfg)
	})
}

func compatible(name string) ProviderFactory {
	return func(cfg ProviderConfig) (Provider, error) {
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultBaseURLs[name]
		}
		return newOpenAICompatible(name, cfg)
	}
}

// NewProvider creates a provider by name. An empty API key is read from the
// provider's environment variable.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %s)", name, strings.Join(AvailableProviders(), ", "))
	}
	if cfg.APIKey == "" {
		if env, ok := providerEnvKeys[name]; ok {
			cfg.APIKey = os.Getenv(env)
		}
	}
	return factory(cfg)
}

// RegisterProvider adds a provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DetectProvider picks a provider from the API keys in the environment.
// Priority: ANTHROPIC_API_KEY > OPENAI_API_KEY > OPENROUTER_API_KEY > ollama.
func DetectProvider() string {
	for _, name := range []string{"anthropic", "openai", "openrouter"} {
		if os.Getenv(providerEnvKeys[name]) != "" {
			return name
		}
	}
	return "ollama"
}
