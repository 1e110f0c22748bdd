package rpc

import "github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"

// Client to daemon message types.
const (
	MsgErrorState    = "error_state"
	MsgOpen          = "open"
	MsgAcceptTooltip = "accept_tooltip"
	MsgContext       = "context"
	MsgInput         = "input"
	MsgInputCancel   = "input_cancel"
)

// Daemon to client event types.
const (
	EventTooltip        = "tooltip"
	EventMessage        = "message"
	EventToken          = "token"
	EventStreamEnd      = "stream_end"
	EventInputRequest   = "input_request"
	EventContextRequest = "context_request"
	EventMenu           = "menu"
	EventDone           = "done"
	EventError          = "error"
)

// Explain modes for the one-shot endpoint.
const (
	ModeTooltip = "tooltip"
	ModeManual  = "manual"
)

// SessionMessage is sent by the client over the session stream.
type SessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	// RequestID answers a context_request or input_request.
	RequestID string            `json:"request_id,omitempty"`
	TooltipID string            `json:"tooltip_id,omitempty"`
	ActionID  string            `json:"action_id,omitempty"`
	Params    string            `json:"params,omitempty"`
	Signal    *host.ErrorSignal `json:"signal,omitempty"`
	Context   *host.Context     `json:"context,omitempty"`
	Text      string            `json:"text,omitempty"`
}

// SessionEvent streams back from the daemon.
type SessionEvent struct {
	Type      string       `json:"type"` // tooltip|message|token|stream_end|input_request|context_request|menu|done|error
	SessionID string       `json:"session_id,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	TooltipID string       `json:"tooltip_id,omitempty"`
	ActionID  string       `json:"action_id,omitempty"`
	Role      host.Role    `json:"role,omitempty"`
	Text      string       `json:"text,omitempty"`
	Token     string       `json:"token,omitempty"`
	Prompt    string       `json:"prompt,omitempty"`
	Actions   []MenuAction `json:"actions,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// MenuAction is one entry of a menu event.
type MenuAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ExplainRequest is the body of a one-shot explain call.
type ExplainRequest struct {
	SessionID string       `json:"session_id,omitempty"`
	Mode      string       `json:"mode,omitempty"`
	Context   host.Context `json:"context"`
	// Input answers the manual-path prompt. Nil cancels it.
	Input *string `json:"input,omitempty"`
}
