package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultActionID        = "eCornellErrorAugmentButton"
	DefaultActionLabel     = "Explain this error!"
	DefaultTooltipText     = "I can help explain this error..."
	DefaultInputPrompt     = "Please paste the error message you want me to explain!"
	DefaultCancelMessage   = "Please feel free to have any other error messages explained!"
	DefaultNotErrorMessage = "This doesn't look like an error. I'm sorry, I can only help you by explaining programming error messages."

	// VerdictSubstring treats any response containing "Yes" as affirmative.
	VerdictSubstring = "substring"
	// VerdictStrict requires the JSON answer field to equal "Yes".
	VerdictStrict = "strict"
)

// DefaultNoisePatterns are error texts that never warrant an invitation.
var DefaultNoisePatterns = []string{"npm notice"}

// CoachConfig holds the learner-facing texts and classifier behaviour.
type CoachConfig struct {
	ActionID        string   `mapstructure:"action_id"`
	ActionLabel     string   `mapstructure:"action_label"`
	TooltipText     string   `mapstructure:"tooltip_text"`
	NoisePatterns   []string `mapstructure:"noise_patterns"`
	InputPrompt     string   `mapstructure:"input_prompt"`
	CancelMessage   string   `mapstructure:"cancel_message"`
	NotErrorMessage string   `mapstructure:"not_error_message"`
	VerdictMode     string   `mapstructure:"verdict_mode"` // substring or strict
}

// DefaultCoachConfig returns the built-in texts.
func DefaultCoachConfig() CoachConfig {
	return CoachConfig{
		ActionID:        DefaultActionID,
		ActionLabel:     DefaultActionLabel,
		TooltipText:     DefaultTooltipText,
		NoisePatterns:   append([]string(nil), DefaultNoisePatterns...),
		InputPrompt:     DefaultInputPrompt,
		CancelMessage:   DefaultCancelMessage,
		NotErrorMessage: DefaultNotErrorMessage,
		VerdictMode:     VerdictSubstring,
	}
}

// Validate checks the coach section.
func (c CoachConfig) Validate() error {
	if strings.TrimSpace(c.ActionID) == "" {
		return errors.New("coach.action_id must be set")
	}
	for i, p := range c.NoisePatterns {
		if p == "" {
			return fmt.Errorf("coach.noise_patterns[%d] cannot be empty", i)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.VerdictMode)) {
	case "", VerdictSubstring, VerdictStrict:
	default:
		return fmt.Errorf("coach.verdict_mode must be one of substring or strict, got %q", c.VerdictMode)
	}
	return nil
}
