package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

// ErrEmptyCandidate is returned when Classify receives blank text.
var ErrEmptyCandidate = errors.New("candidate text is empty")

const affirmativeToken = "Yes"

// Classifier decides whether candidate text is an error or grading-feedback message.
type Classifier struct {
	backend host.Backend
	mode    string
}

// NewClassifier builds a classifier using the given verdict mode (substring or strict).
func NewClassifier(backend host.Backend, mode string) *Classifier {
	return &Classifier{backend: backend, mode: strings.ToLower(strings.TrimSpace(mode))}
}

// Classify makes one silent, non-streaming backend call. Backend failures are returned
// wrapped and are not retried.
func (c *Classifier) Classify(ctx context.Context, candidate string) (bool, error) {
	if strings.TrimSpace(candidate) == "" {
		return false, ErrEmptyCandidate
	}

	res, err := c.backend.Ask(ctx, host.AskRequest{
		Purpose:      host.PurposeClassify,
		SystemPrompt: classifierSystemPrompt,
		UserPrompt:   buildValidationPrompt(candidate),
	}, host.AskOptions{Stream: false, SuppressMenu: true})
	if err != nil {
		return false, fmt.Errorf("classify: %w", err)
	}

	return ParseVerdict(c.mode, res.Result), nil
}

// ParseVerdict turns a raw classifier response into a verdict. Anything that is not a
// recognised affirmative is negative.
func ParseVerdict(mode, raw string) bool {
	if mode == config.VerdictStrict {
		return strictVerdict(raw)
	}
	return strings.Contains(raw, affirmativeToken)
}

// strictVerdict decodes the first JSON object carrying an answer field, trying each
// opening brace in turn.
func strictVerdict(raw string) bool {
	for offset := 0; offset < len(raw); {
		i := strings.IndexByte(raw[offset:], '{')
		if i < 0 {
			return false
		}
		start := offset + i
		offset = start + 1

		var payload struct {
			Answer *string `json:"answer"`
		}
		if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&payload); err != nil || payload.Answer == nil {
			continue
		}
		return strings.TrimSpace(*payload.Answer) == affirmativeToken
	}
	return false
}
