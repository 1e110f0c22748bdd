package host

import "context"

// Purpose labels a generation call for routing and accounting.
type Purpose string

const (
	PurposeClassify Purpose = "classify"
	PurposeExplain  Purpose = "explain"
)

// Message is one entry of a multi-message prompt.
type Message struct {
	Role    Role
	Content string
}

// AskRequest carries either a single UserPrompt or a Messages sequence.
type AskRequest struct {
	Purpose      Purpose
	SystemPrompt string
	UserPrompt   string
	Messages     []Message
}

// AskOptions is the per-call configuration for a generation call.
type AskOptions struct {
	// Stream renders output incrementally into the conversation.
	Stream bool
	// SuppressMenu skips the menu redisplay that normally follows a call.
	SuppressMenu bool
}

// AskResult is the raw backend output.
type AskResult struct {
	Result string
}

// Backend invokes the language model.
type Backend interface {
	Ask(ctx context.Context, req AskRequest, opts AskOptions) (AskResult, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req AskRequest, opts AskOptions) (AskResult, error)

func (f BackendFunc) Ask(ctx context.Context, req AskRequest, opts AskOptions) (AskResult, error) {
	return f(ctx, req, opts)
}
