package configbuilder

import (
	"fmt"
	"sort"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm"
	llmollama "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm/providers/ollama"
	llmopenai "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm/providers/openai"
)

// BuildRegistryFromConfig constructs providers and model routes from config. Models are
// registered in name order, so with several models marked default the first name wins.
// Every model the strategy names must resolve.
func BuildRegistryFromConfig(cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry()

	for _, name := range sortedKeys(cfg.Providers) {
		p, err := buildProvider(name, cfg.Providers[name])
		if err != nil {
			return nil, err
		}
		reg.RegisterProvider(name, p)
	}

	defaultSet := false
	for _, name := range sortedKeys(cfg.Models) {
		m := cfg.Models[name]
		isDefault := m.Default && !defaultSet
		defaultSet = defaultSet || isDefault
		reg.RegisterModel(name, llm.ModelRoute{
			Provider:    m.Provider,
			Model:       m.Model,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		}, isDefault)
	}

	if _, _, err := reg.Resolve(""); err != nil {
		return nil, err
	}
	for _, name := range cfg.Strategy.Referenced() {
		if _, _, err := reg.Resolve(name); err != nil {
			return nil, fmt.Errorf("strategy model: %w", err)
		}
	}
	return reg, nil
}

func buildProvider(name string, cfg config.ProviderConfig) (llm.Provider, error) {
	switch cfg.Type {
	case "openai", "openrouter", "vllm", "lmstudio", "custom":
		return llmopenai.NewProvider(name, cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case "ollama":
		return llmollama.NewProvider(name, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q for provider %s", cfg.Type, name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
