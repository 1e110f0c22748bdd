package coach

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/coach"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/observability"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/rpc"
)

// ExplainPath is the route of the one-shot NDJSON endpoint.
const ExplainPath = "/coach/explain"

// Factory wires a coach, and the backend behind it, onto a session host.
type Factory func(h host.Host, logger *zap.Logger) *coach.Coach

// Handler serves one-shot explain requests and streams NDJSON events.
type Handler struct {
	factory Factory
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHandler constructs a handler instance.
func NewHandler(factory Factory, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{factory: factory, metrics: metrics, logger: logger}
}

// ServeHTTP handles POST /coach/explain.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.metrics.RecordTransportError("ndjson", "method_not_allowed")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpc.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordTransportError("ndjson", "decode")
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	mode, err := resolveMode(req)
	if err != nil {
		h.metrics.RecordTransportError("ndjson", "bad_mode")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.metrics.IncActiveSessions("ndjson")
	defer h.metrics.DecActiveSessions("ndjson")

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	send := func(ev rpc.SessionEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	logger := h.logger.With(zap.String("session_id", req.SessionID), zap.String("transport", "ndjson"))
	sh := NewSnapshotHost(req.SessionID, req, send)
	c := h.factory(sh, logger)
	ctx := r.Context()
	unsubscribe := c.Install(ctx)
	defer unsubscribe()

	switch mode {
	case rpc.ModeTooltip:
		sh.Emit(host.ErrorSignal{IsError: true, Text: req.Context.Error.Text})
	default:
		_ = sh.Open(ctx, c.ActionID(), "")
	}

	// A dropped signal shows no tooltip and runs nothing; the stream still ends with done.
	if !sh.Finished() {
		sh.emit(rpc.SessionEvent{Type: rpc.EventDone})
	}
	if err := sh.SendErr(); err != nil {
		h.metrics.RecordTransportError("ndjson", "send")
		logger.Warn("stream write failed", zap.Error(err))
	}
}

func resolveMode(req rpc.ExplainRequest) (string, error) {
	switch mode := strings.ToLower(strings.TrimSpace(req.Mode)); mode {
	case rpc.ModeTooltip, rpc.ModeManual:
		return mode, nil
	case "":
		if req.Context.Error.Text != "" {
			return rpc.ModeTooltip, nil
		}
		return rpc.ModeManual, nil
	default:
		return "", fmt.Errorf("unknown mode %q", req.Mode)
	}
}
