package configbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Providers: map[string]config.ProviderConfig{
			"cloud": {Type: "openai", BaseURL: "https://api.example.com"},
			"local": {Type: "ollama", BaseURL: "http://localhost:11434"},
		},
		Models: map[string]config.ModelConfig{
			"b-small": {Provider: "local", Model: "llama3", Default: true},
			"a-large": {Provider: "cloud", Model: "gpt-4o", Default: true},
			"c-other": {Provider: "cloud", Model: "gpt-4o-mini"},
		},
	}
}

func TestFirstDefaultByNameWins(t *testing.T) {
	reg, err := BuildRegistryFromConfig(baseConfig())
	require.NoError(t, err)
	require.Equal(t, "a-large", reg.DefaultModel())
	require.Equal(t, []string{"a-large", "b-small", "c-other"}, reg.Models())

	p, route, err := reg.Resolve("b-small")
	require.NoError(t, err)
	require.Equal(t, "local", p.Name())
	require.Equal(t, "llama3", route.Model)
}

func TestUnknownProviderType(t *testing.T) {
	cfg := baseConfig()
	cfg.Providers["odd"] = config.ProviderConfig{Type: "telegraph"}
	_, err := BuildRegistryFromConfig(cfg)
	require.ErrorContains(t, err, `unknown provider type "telegraph"`)
}

func TestStrategyModelsMustResolve(t *testing.T) {
	cfg := baseConfig()
	cfg.Strategy.ExplainerModel = "missing"
	_, err := BuildRegistryFromConfig(cfg)
	require.ErrorContains(t, err, "strategy model")
}
