package coach

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

type written struct {
	Text string
	Role host.Role
}

type tooltip struct {
	Text     string
	OnAccept func()
}

// fakeHost records every host interaction.
type fakeHost struct {
	mu sync.Mutex

	ctx      host.Context
	ctxErr   error
	ctxCalls int

	input      string
	inputErr   error
	inputCalls []string

	writes   []written
	chunks   []string
	menus    int
	tooltips []tooltip

	handlers map[string]host.ActionHandler
	labels   map[string]string
	opened   []string

	subscribers []func(host.ErrorSignal)
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		handlers: make(map[string]host.ActionHandler),
		labels:   make(map[string]string),
	}
}

func (h *fakeHost) OnErrorState(handler func(host.ErrorSignal)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := len(h.subscribers)
	h.subscribers = append(h.subscribers, handler)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.subscribers[idx] = nil
	}
}

func (h *fakeHost) emit(sig host.ErrorSignal) {
	h.mu.Lock()
	subs := append([]func(host.ErrorSignal){}, h.subscribers...)
	h.mu.Unlock()
	for _, s := range subs {
		if s != nil {
			s(sig)
		}
	}
}

func (h *fakeHost) RegisterAction(id, label string, handler host.ActionHandler) {
	h.handlers[id] = handler
	h.labels[id] = label
}

func (h *fakeHost) Open(ctx context.Context, id, params string) error {
	h.opened = append(h.opened, id+":"+params)
	handler, ok := h.handlers[id]
	if !ok {
		return fmt.Errorf("action %q not registered", id)
	}
	return handler(ctx, params)
}

func (h *fakeHost) ShowTooltip(text string, onAccept func()) {
	h.tooltips = append(h.tooltips, tooltip{Text: text, OnAccept: onAccept})
}

func (h *fakeHost) Context(ctx context.Context) (host.Context, error) {
	h.ctxCalls++
	return h.ctx, h.ctxErr
}

func (h *fakeHost) Write(text string, role host.Role) {
	h.writes = append(h.writes, written{Text: text, Role: role})
}

func (h *fakeHost) WriteChunk(chunk string) {
	h.chunks = append(h.chunks, chunk)
}

func (h *fakeHost) EndStream() {}

func (h *fakeHost) Input(ctx context.Context, prompt string) (string, error) {
	h.inputCalls = append(h.inputCalls, prompt)
	return h.input, h.inputErr
}

func (h *fakeHost) ShowMenu() {
	h.menus++
}

type askCall struct {
	Req  host.AskRequest
	Opts host.AskOptions
}

// fakeBackend answers classify calls with classifyFn and explain calls with explanation.
type fakeBackend struct {
	classifyFn  func(prompt string) (string, error)
	explanation string
	explainErr  error
	calls       []askCall
}

func (b *fakeBackend) Ask(ctx context.Context, req host.AskRequest, opts host.AskOptions) (host.AskResult, error) {
	b.calls = append(b.calls, askCall{Req: req, Opts: opts})
	switch req.Purpose {
	case host.PurposeClassify:
		if b.classifyFn == nil {
			return host.AskResult{Result: `{"answer": "Yes"}`}, nil
		}
		out, err := b.classifyFn(req.UserPrompt)
		return host.AskResult{Result: out}, err
	default:
		if b.explainErr != nil {
			return host.AskResult{}, b.explainErr
		}
		return host.AskResult{Result: b.explanation}, nil
	}
}

func (b *fakeBackend) callsFor(p host.Purpose) []askCall {
	var out []askCall
	for _, c := range b.calls {
		if c.Req.Purpose == p {
			out = append(out, c)
		}
	}
	return out
}

var (
	candidateRe    = regexp.MustCompile(`(?s)<text>\n(.*)\n</text>`)
	errorIndicator = regexp.MustCompile(`(?i)(error|exception|traceback|line \d+)`)
)

// heuristicClassifier stands in for a model following the validation prompt.
func heuristicClassifier(prompt string) (string, error) {
	m := candidateRe.FindStringSubmatch(prompt)
	if m == nil {
		return `{"answer": "No"}`, nil
	}
	if errorIndicator.MatchString(m[1]) {
		return `{"answer": "Yes"}`, nil
	}
	return `{"answer": "No"}`, nil
}

func contentOf(c askCall) string {
	var b strings.Builder
	b.WriteString(c.Req.UserPrompt)
	for _, m := range c.Req.Messages {
		b.WriteString(m.Content)
	}
	return b.String()
}
