package coach

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

const (
	pathTooltip = "tooltip"
	pathManual  = "manual"

	outcomeExplained = "explained"
	outcomeNotError  = "not_error"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// Metrics receives coach accounting. *observability.Metrics satisfies it.
type Metrics interface {
	RecordSignal(invited bool)
	RecordVerdict(isError bool)
	RecordInteraction(path, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(bool)                {}
func (nopMetrics) RecordVerdict(bool)               {}
func (nopMetrics) RecordInteraction(string, string) {}

// Option customises a Coach.
type Option func(*Coach)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coach) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Coach) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Coach wires the monitor, context aggregation, classification and explanation onto a host.
//
// A Coach holds only immutable dependencies; every Handle call builds its own bundle,
// candidate and verdict.
type Coach struct {
	host       host.Host
	cfg        config.CoachConfig
	classifier *Classifier
	explainer  *Explainer
	monitor    *Monitor
	metrics    Metrics
	logger     *zap.Logger
}

// New builds a Coach for h, generating through backend.
func New(h host.Host, backend host.Backend, cfg config.CoachConfig, opts ...Option) *Coach {
	c := &Coach{
		host:       h,
		cfg:        cfg,
		classifier: NewClassifier(backend, cfg.VerdictMode),
		explainer:  NewExplainer(backend),
		metrics:    nopMetrics{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.monitor = &Monitor{
		noise:       cfg.NoisePatterns,
		tooltipText: cfg.TooltipText,
		actionID:    cfg.ActionID,
		ui:          h,
		actions:     h,
		metrics:     c.metrics,
		logger:      c.logger,
	}
	return c
}

// ActionID is the id the explain action is registered under.
func (c *Coach) ActionID() string {
	return c.cfg.ActionID
}

// Monitor exposes the signal monitor.
func (c *Coach) Monitor() *Monitor {
	return c.monitor
}

// Install registers the explain action and subscribes the monitor. The returned func
// unsubscribes from error-state changes.
func (c *Coach) Install(ctx context.Context) func() {
	c.host.RegisterAction(c.cfg.ActionID, c.cfg.ActionLabel, c.Handle)
	return c.monitor.Attach(ctx, c.host)
}

// Handle is the explain action. params == host.ActionParamTooltip selects the automatic
// path; anything else asks the learner to paste an error.
//
// Cancellation and negative verdicts end the interaction cleanly with a nil error. Context
// and backend failures are returned to the caller untouched by retries.
func (c *Coach) Handle(ctx context.Context, params string) error {
	path := pathManual
	if params == host.ActionParamTooltip {
		path = pathTooltip
	}
	logger := c.logger.With(zap.String("path", path))

	bundle, err := Aggregate(ctx, c.host)
	if err != nil {
		c.metrics.RecordInteraction(path, outcomeFailed)
		return err
	}

	var candidate string
	if path == pathTooltip {
		candidate = bundle.ErrorText
		if strings.TrimSpace(candidate) != "" {
			c.host.Write(candidate, host.RoleUser)
		}
	} else {
		candidate, err = c.host.Input(ctx, c.cfg.InputPrompt)
		if errors.Is(err, host.ErrCancelled) {
			logger.Debug("learner cancelled input")
			c.host.Write(c.cfg.CancelMessage, host.RoleAssistant)
			c.host.ShowMenu()
			c.metrics.RecordInteraction(path, outcomeCancelled)
			return nil
		}
		if err != nil {
			c.metrics.RecordInteraction(path, outcomeFailed)
			return err
		}
	}

	isError := false
	if strings.TrimSpace(candidate) != "" {
		isError, err = c.classifier.Classify(ctx, candidate)
		if err != nil {
			c.metrics.RecordInteraction(path, outcomeFailed)
			return err
		}
		c.metrics.RecordVerdict(isError)
	}
	logger.Debug("classified candidate", zap.Bool("is_error", isError))

	if !isError {
		c.host.Write(c.cfg.NotErrorMessage, host.RoleAssistant)
		c.host.ShowMenu()
		c.metrics.RecordInteraction(path, outcomeNotError)
		return nil
	}

	req := NewExplanationRequest(bundle, candidate)
	logger.Debug("explanation prompt", zap.String("user_prompt", req.UserPrompt()))
	if _, err := c.explainer.Explain(ctx, req); err != nil {
		c.metrics.RecordInteraction(path, outcomeFailed)
		return err
	}
	c.metrics.RecordInteraction(path, outcomeExplained)
	return nil
}
