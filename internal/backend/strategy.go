package backend

import (
	"strings"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm"
)

// StrategyEngine chooses a model per generation purpose.
type StrategyEngine struct {
	registry *llm.Registry
	cfg      config.StrategyConfig
}

// NewStrategyEngine builds a strategy selector.
func NewStrategyEngine(reg *llm.Registry, cfg config.StrategyConfig) *StrategyEngine {
	return &StrategyEngine{registry: reg, cfg: cfg}
}

// ResolveModel picks the model configured for purpose, then the strategy default, then the
// fallbacks in order, then the registry default. Only resolution falls back; calls are
// never retried on another model.
func (s *StrategyEngine) ResolveModel(purpose host.Purpose) (llm.Provider, llm.ModelRoute, error) {
	modelID := firstNonEmpty(
		purposeModel(purpose, s.cfg),
		s.cfg.DefaultModel,
	)
	if modelID != "" {
		if p, route, err := s.registry.Resolve(modelID); err == nil {
			return p, route, nil
		}
	}
	for _, fb := range s.cfg.Fallbacks {
		if p, route, err := s.registry.Resolve(fb); err == nil {
			return p, route, nil
		}
	}
	return s.registry.Resolve("")
}

func purposeModel(purpose host.Purpose, cfg config.StrategyConfig) string {
	switch purpose {
	case host.PurposeClassify:
		return cfg.ClassifierModel
	case host.PurposeExplain:
		return cfg.ExplainerModel
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
