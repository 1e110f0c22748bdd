package coach

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc"
)

// ErrSessionClosed is returned when the client goes away while a reply is pending.
var ErrSessionClosed = errors.New("session closed")

// RemoteHost is a host.Host whose learner lives on the other end of a session stream.
// Context and input are request/reply round trips; tooltip acceptance arrives as a
// separate message.
type RemoteHost struct {
	*eventHost

	mu       sync.Mutex
	pending  map[string]chan rpc.SessionMessage
	tooltips map[string]func()
	shown    int
	closed   chan struct{}
	once     sync.Once
}

// NewRemoteHost builds a remote host sending through send.
func NewRemoteHost(sessionID string, send func(rpc.SessionEvent) error) *RemoteHost {
	return &RemoteHost{
		eventHost: newEventHost(sessionID, send),
		pending:   make(map[string]chan rpc.SessionMessage),
		tooltips:  make(map[string]func()),
		closed:    make(chan struct{}),
	}
}

var _ host.Host = (*RemoteHost)(nil)

// Close releases pending round trips with ErrSessionClosed.
func (h *RemoteHost) Close() {
	h.once.Do(func() { close(h.closed) })
}

// Deliver routes a reply to its waiting round trip. It reports false when nothing is
// waiting for msg.RequestID.
func (h *RemoteHost) Deliver(msg rpc.SessionMessage) bool {
	h.mu.Lock()
	ch, ok := h.pending[msg.RequestID]
	if ok {
		delete(h.pending, msg.RequestID)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}
	ch <- msg
	return true
}

// TooltipsShown counts tooltips raised so far.
func (h *RemoteHost) TooltipsShown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// AcceptTooltip runs the accept callback for a shown tooltip once.
func (h *RemoteHost) AcceptTooltip(id string) bool {
	h.mu.Lock()
	onAccept, ok := h.tooltips[id]
	delete(h.tooltips, id)
	h.mu.Unlock()
	if !ok {
		return false
	}
	onAccept()
	return true
}

func (h *RemoteHost) ShowTooltip(text string, onAccept func()) {
	id := uuid.NewString()
	h.mu.Lock()
	h.tooltips[id] = onAccept
	h.shown++
	h.mu.Unlock()
	h.emit(rpc.SessionEvent{Type: rpc.EventTooltip, TooltipID: id, Text: text})
}

func (h *RemoteHost) Context(ctx context.Context) (host.Context, error) {
	reply, err := h.roundTrip(ctx, rpc.SessionEvent{Type: rpc.EventContextRequest})
	if err != nil {
		return host.Context{}, err
	}
	if reply.Type != rpc.MsgContext || reply.Context == nil {
		return host.Context{}, errors.New("client answered context request without context")
	}
	return *reply.Context, nil
}

func (h *RemoteHost) Input(ctx context.Context, prompt string) (string, error) {
	reply, err := h.roundTrip(ctx, rpc.SessionEvent{Type: rpc.EventInputRequest, Prompt: prompt})
	if err != nil {
		return "", err
	}
	switch reply.Type {
	case rpc.MsgInputCancel:
		return "", host.ErrCancelled
	case rpc.MsgInput:
		return reply.Text, nil
	default:
		return "", errors.New("client answered input request with " + reply.Type)
	}
}

func (h *RemoteHost) roundTrip(ctx context.Context, ev rpc.SessionEvent) (rpc.SessionMessage, error) {
	ev.RequestID = uuid.NewString()
	ch := make(chan rpc.SessionMessage, 1)
	h.mu.Lock()
	h.pending[ev.RequestID] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, ev.RequestID)
		h.mu.Unlock()
	}()

	h.emit(ev)
	if err := h.SendErr(); err != nil {
		return rpc.SessionMessage{}, err
	}

	select {
	case msg := <-ch:
		return msg, nil
	case <-h.closed:
		return rpc.SessionMessage{}, ErrSessionClosed
	case <-ctx.Done():
		return rpc.SessionMessage{}, ctx.Err()
	}
}
