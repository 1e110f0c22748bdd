package coach

import (
	"context"
	"fmt"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

// ExplanationRequest is assembled once per interaction and read-only afterwards.
type ExplanationRequest struct {
	systemPrompt   string
	errorText      string
	assignmentText string
	codeFiles      string
}

// NewExplanationRequest captures the candidate and the bundle sections.
func NewExplanationRequest(b Bundle, candidate string) ExplanationRequest {
	return ExplanationRequest{
		systemPrompt:   explainerSystemPrompt,
		errorText:      candidate,
		assignmentText: b.GuideContent,
		codeFiles:      b.FilesText(),
	}
}

func (r ExplanationRequest) SystemPrompt() string   { return r.systemPrompt }
func (r ExplanationRequest) ErrorText() string      { return r.errorText }
func (r ExplanationRequest) AssignmentText() string { return r.assignmentText }
func (r ExplanationRequest) CodeFiles() string      { return r.codeFiles }

// UserPrompt renders the user-role instruction.
func (r ExplanationRequest) UserPrompt() string {
	return buildExplanationUserPrompt(r.errorText, r.assignmentText, r.codeFiles)
}

// Explainer produces the learner-facing, cause-only explanation.
//
// The no-fix policy lives entirely in the prompt; output is passed through unchecked.
type Explainer struct {
	backend host.Backend
}

// NewExplainer wraps a backend.
func NewExplainer(backend host.Backend) *Explainer {
	return &Explainer{backend: backend}
}

// Explain streams the explanation to the learner and returns the full text.
func (e *Explainer) Explain(ctx context.Context, req ExplanationRequest) (string, error) {
	res, err := e.backend.Ask(ctx, host.AskRequest{
		Purpose:      host.PurposeExplain,
		SystemPrompt: req.SystemPrompt(),
		Messages: []host.Message{
			{Role: host.RoleUser, Content: req.UserPrompt()},
		},
	}, host.AskOptions{Stream: true, SuppressMenu: false})
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	return res.Result, nil
}
