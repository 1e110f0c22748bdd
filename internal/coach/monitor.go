package coach

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

// Monitor turns error-state signals into tooltip invitations.
//
// It keeps no state between signals, so a burst of identical signals yields one
// invitation per signal.
type Monitor struct {
	noise       []string
	tooltipText string
	actionID    string
	ui          host.Affordances
	actions     host.Actions
	metrics     Metrics
	logger      *zap.Logger
}

// Actionable reports whether a signal deserves an invitation.
func (m *Monitor) Actionable(sig host.ErrorSignal) bool {
	if !sig.IsError || sig.Text == "" {
		return false
	}
	for _, pattern := range m.noise {
		if strings.Contains(sig.Text, pattern) {
			return false
		}
	}
	return true
}

// Handle evaluates one signal and, when actionable, shows the tooltip. Accepting it opens
// the explain action on the tooltip path; a failed open is logged and dropped.
func (m *Monitor) Handle(ctx context.Context, sig host.ErrorSignal) {
	if !m.Actionable(sig) {
		m.metrics.RecordSignal(false)
		return
	}
	m.metrics.RecordSignal(true)
	m.ui.ShowTooltip(m.tooltipText, func() {
		if err := m.actions.Open(ctx, m.actionID, host.ActionParamTooltip); err != nil {
			m.logger.Warn("tooltip action failed", zap.String("action", m.actionID), zap.Error(err))
		}
	})
}

// Attach subscribes the monitor to src and returns the unsubscribe func.
func (m *Monitor) Attach(ctx context.Context, src host.ErrorStates) func() {
	return src.OnErrorState(func(sig host.ErrorSignal) {
		m.Handle(ctx, sig)
	})
}
