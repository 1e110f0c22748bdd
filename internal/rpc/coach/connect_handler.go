package coach

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/observability"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc/connectjson"
)

const ConnectSessionProcedure = "/connect.coach.v1.CoachService/Session"

// NewConnectHandler builds a Connect bidi stream handler for coach sessions.
func NewConnectHandler(factory Factory, metrics *observability.Metrics, logger *zap.Logger) (string, http.Handler) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &connectSessionHandler{factory: factory, metrics: metrics, logger: logger}
	return ConnectSessionProcedure, connect.NewBidiStreamHandler(ConnectSessionProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectSessionHandler struct {
	factory Factory
	metrics *observability.Metrics
	logger  *zap.Logger
}

func (h *connectSessionHandler) handle(ctx context.Context, stream *connect.BidiStream[rpc.SessionMessage, rpc.SessionEvent]) error {
	h.metrics.IncActiveSessions("connect")
	defer h.metrics.DecActiveSessions("connect")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	first, err := stream.Receive()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		h.metrics.RecordTransportError("connect", "receive_first")
		return err
	}

	sessionID := first.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := h.logger.With(zap.String("session_id", sessionID), zap.String("transport", "connect"))

	rh := NewRemoteHost(sessionID, func(ev rpc.SessionEvent) error { return stream.Send(&ev) })
	defer rh.Close()
	c := h.factory(rh, logger)
	unsubscribe := c.Install(ctx)
	defer unsubscribe()

	// Replies to pending round trips are routed directly; everything else queues without
	// bound so a burst of signals never holds back a reply.
	queue := newMailbox()
	go func() {
		defer queue.close()
		defer rh.Close()
		for {
			msg, recvErr := stream.Receive()
			if recvErr != nil {
				if !errors.Is(recvErr, io.EOF) && !errors.Is(recvErr, context.Canceled) {
					h.metrics.RecordTransportError("connect", "receive_stream")
					logger.Debug("receive failed", zap.Error(recvErr))
				}
				return
			}
			if msg.RequestID != "" && rh.Deliver(*msg) {
				continue
			}
			queue.push(*msg)
		}
	}()

	if err := h.dispatch(ctx, rh, c.ActionID(), *first, logger); err != nil {
		return err
	}
	for {
		msg, ok := queue.pop(ctx)
		if !ok {
			break
		}
		if err := h.dispatch(ctx, rh, c.ActionID(), msg, logger); err != nil {
			return err
		}
	}
	return nil
}

// dispatch handles one client message. Only transport failures end the session; action
// failures were already reported to the client as error events.
func (h *connectSessionHandler) dispatch(ctx context.Context, rh *RemoteHost, actionID string, msg rpc.SessionMessage, logger *zap.Logger) error {
	switch msg.Type {
	case rpc.MsgErrorState:
		if msg.Signal == nil {
			break
		}
		// A signal that raises no tooltip is acknowledged with a bare done.
		before := rh.TooltipsShown()
		rh.Emit(*msg.Signal)
		if rh.TooltipsShown() == before {
			rh.emit(rpc.SessionEvent{Type: rpc.EventDone})
		}
	case rpc.MsgOpen:
		id := msg.ActionID
		if id == "" {
			id = actionID
		}
		if err := rh.Open(ctx, id, msg.Params); err != nil {
			logger.Info("action failed", zap.String("action", id), zap.Error(err))
		}
	case rpc.MsgAcceptTooltip:
		if !rh.AcceptTooltip(msg.TooltipID) {
			logger.Debug("unknown tooltip", zap.String("tooltip_id", msg.TooltipID))
		}
	case rpc.MsgContext, rpc.MsgInput, rpc.MsgInputCancel:
		logger.Debug("reply without pending request", zap.String("type", msg.Type), zap.String("request_id", msg.RequestID))
	case "":
		// session handshake
	default:
		rh.emit(rpc.SessionEvent{Type: rpc.EventError, Error: "unknown message type " + msg.Type})
	}
	if err := rh.SendErr(); err != nil {
		h.metrics.RecordTransportError("connect", "send")
		return err
	}
	return nil
}

// mailbox is an unbounded FIFO of client messages. push never blocks.
type mailbox struct {
	mu     sync.Mutex
	items  []rpc.SessionMessage
	closed bool
	ready  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg rpc.SessionMessage) {
	m.mu.Lock()
	m.items = append(m.items, msg)
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// pop waits for the next message. It reports false once the mailbox is closed and
// drained, or ctx is done.
func (m *mailbox) pop(ctx context.Context) (rpc.SessionMessage, bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			msg := m.items[0]
			m.items[0] = rpc.SessionMessage{}
			m.items = m.items[1:]
			m.mu.Unlock()
			return msg, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return rpc.SessionMessage{}, false
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			return rpc.SessionMessage{}, false
		}
	}
}
