package config

// StrategyConfig selects models per generation purpose.
type StrategyConfig struct {
	DefaultModel    string   `mapstructure:"default_model"`
	ClassifierModel string   `mapstructure:"classifier_model"`
	ExplainerModel  string   `mapstructure:"explainer_model"`
	Fallbacks       []string `mapstructure:"fallbacks"` // ordered model ids tried when resolution fails
}

// Referenced lists every non-empty model id the strategy names, fallbacks last.
func (s StrategyConfig) Referenced() []string {
	var ids []string
	for _, id := range []string{s.DefaultModel, s.ClassifierModel, s.ExplainerModel} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return append(ids, s.Fallbacks...)
}
