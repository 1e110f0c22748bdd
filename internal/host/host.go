package host

import (
	"context"
	"errors"
)

// ErrCancelled is returned by Prompter.Input when the learner dismisses the prompt.
var ErrCancelled = errors.New("cancelled")

// ActionParamTooltip marks an action invocation that came from the error tooltip.
const ActionParamTooltip = "tooltip"

// Role tags a conversation message with its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorSignal is pushed by the host on every error-state change.
type ErrorSignal struct {
	IsError bool   `json:"is_error" yaml:"is_error"`
	Text    string `json:"text" yaml:"text"`
}

// File is one open file as reported by the host.
type File struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// GuidesPage holds the assignment text currently shown to the learner.
type GuidesPage struct {
	Content string `json:"content" yaml:"content"`
}

// ErrorInfo is the live error panel content.
type ErrorInfo struct {
	Text string `json:"text" yaml:"text"`
}

// Context is the structured snapshot returned by ContextSource.
type Context struct {
	GuidesPage GuidesPage `json:"guides_page" yaml:"guides_page"`
	Files      []File     `json:"files" yaml:"files"`
	Error      ErrorInfo  `json:"error" yaml:"error"`
}

// ActionHandler runs a registered action. params is empty for menu invocations.
type ActionHandler func(ctx context.Context, params string) error

// ErrorStates delivers error-state changes to a handler until unsubscribed.
type ErrorStates interface {
	OnErrorState(handler func(ErrorSignal)) (unsubscribe func())
}

// Actions registers and dispatches named actions.
type Actions interface {
	RegisterAction(id, label string, handler ActionHandler)
	Open(ctx context.Context, id, params string) error
}

// Affordances shows dismissible invitations.
type Affordances interface {
	ShowTooltip(text string, onAccept func())
}

// ContextSource fetches the aggregated learner context in one call.
type ContextSource interface {
	Context(ctx context.Context) (Context, error)
}

// Conversation writes into the visible chat.
type Conversation interface {
	Write(text string, role Role)
	// WriteChunk appends streamed assistant output; EndStream closes the current stream.
	WriteChunk(chunk string)
	EndStream()
}

// Prompter asks the learner for free-form text. Cancellation yields ErrCancelled.
type Prompter interface {
	Input(ctx context.Context, prompt string) (string, error)
}

// Menu re-displays the host's top-level menu.
type Menu interface {
	ShowMenu()
}

// Host is the full set of host capabilities except generation.
type Host interface {
	ErrorStates
	Actions
	Affordances
	ContextSource
	Conversation
	Prompter
	Menu
}
