package coach

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc"
)

type registeredAction struct {
	label   string
	handler host.ActionHandler
}

// eventHost renders host calls as session events. It owns actions, subscriptions and
// conversation output; subclasses supply context, input and tooltip handling.
type eventHost struct {
	sessionID string
	send      func(rpc.SessionEvent) error

	mu          sync.Mutex
	sendErr     error
	finished    bool
	subscribers map[string]func(host.ErrorSignal)
	actions     map[string]registeredAction
	order       []string
}

func newEventHost(sessionID string, send func(rpc.SessionEvent) error) *eventHost {
	return &eventHost{
		sessionID:   sessionID,
		send:        send,
		subscribers: make(map[string]func(host.ErrorSignal)),
		actions:     make(map[string]registeredAction),
	}
}

// emit stamps the session id and sends; the first send failure is kept and later
// events are dropped.
func (h *eventHost) emit(ev rpc.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return
	}
	ev.SessionID = h.sessionID
	if ev.Type == rpc.EventDone || ev.Type == rpc.EventError {
		h.finished = true
	}
	h.sendErr = h.send(ev)
}

// SendErr returns the first transport failure, if any.
func (h *eventHost) SendErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sendErr
}

func (h *eventHost) Finished() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished
}

func (h *eventHost) OnErrorState(handler func(host.ErrorSignal)) func() {
	id := uuid.NewString()
	h.mu.Lock()
	h.subscribers[id] = handler
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// Emit delivers sig to every subscriber.
func (h *eventHost) Emit(sig host.ErrorSignal) {
	h.mu.Lock()
	subs := make([]func(host.ErrorSignal), 0, len(h.subscribers))
	for _, s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s(sig)
	}
}

func (h *eventHost) RegisterAction(id, label string, handler host.ActionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.actions[id]; !ok {
		h.order = append(h.order, id)
	}
	h.actions[id] = registeredAction{label: label, handler: handler}
}

// Open runs a registered action and reports its end as a done or error event.
func (h *eventHost) Open(ctx context.Context, id, params string) error {
	h.mu.Lock()
	a, ok := h.actions[id]
	h.mu.Unlock()
	if !ok {
		err := fmt.Errorf("action %q not registered", id)
		h.emit(rpc.SessionEvent{Type: rpc.EventError, ActionID: id, Error: err.Error()})
		return err
	}
	if err := a.handler(ctx, params); err != nil {
		h.emit(rpc.SessionEvent{Type: rpc.EventError, ActionID: id, Error: err.Error()})
		return err
	}
	h.emit(rpc.SessionEvent{Type: rpc.EventDone, ActionID: id})
	return nil
}

func (h *eventHost) Write(text string, role host.Role) {
	h.emit(rpc.SessionEvent{Type: rpc.EventMessage, Role: role, Text: text})
}

func (h *eventHost) WriteChunk(chunk string) {
	h.emit(rpc.SessionEvent{Type: rpc.EventToken, Token: chunk})
}

func (h *eventHost) EndStream() {
	h.emit(rpc.SessionEvent{Type: rpc.EventStreamEnd})
}

func (h *eventHost) ShowMenu() {
	h.mu.Lock()
	items := make([]rpc.MenuAction, 0, len(h.order))
	for _, id := range h.order {
		items = append(items, rpc.MenuAction{ID: id, Label: h.actions[id].label})
	}
	h.mu.Unlock()
	h.emit(rpc.SessionEvent{Type: rpc.EventMenu, Actions: items})
}

// SnapshotHost serves a one-shot request: context comes from the request body and the
// tooltip is accepted as soon as it is shown.
type SnapshotHost struct {
	*eventHost
	snapshot host.Context
	input    *string
}

// NewSnapshotHost builds a host answering from req.
func NewSnapshotHost(sessionID string, req rpc.ExplainRequest, send func(rpc.SessionEvent) error) *SnapshotHost {
	return &SnapshotHost{
		eventHost: newEventHost(sessionID, send),
		snapshot:  req.Context,
		input:     req.Input,
	}
}

var _ host.Host = (*SnapshotHost)(nil)

func (h *SnapshotHost) Context(ctx context.Context) (host.Context, error) {
	if err := ctx.Err(); err != nil {
		return host.Context{}, err
	}
	return h.snapshot, nil
}

func (h *SnapshotHost) Input(ctx context.Context, prompt string) (string, error) {
	h.emit(rpc.SessionEvent{Type: rpc.EventInputRequest, Prompt: prompt})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h.input == nil {
		return "", host.ErrCancelled
	}
	return *h.input, nil
}

func (h *SnapshotHost) ShowTooltip(text string, onAccept func()) {
	h.emit(rpc.SessionEvent{Type: rpc.EventTooltip, Text: text})
	onAccept()
}
