package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/workspace"
)

// cancelWord typed alone on the first input line dismisses the prompt.
const cancelWord = ":q"

// Sources describes where the terminal host reads learner context from. Everything is
// re-read on every Context call.
type Sources struct {
	// SnapshotPath is an optional YAML file holding a full host.Context.
	SnapshotPath string
	// GuidePath overrides the snapshot's guide text.
	GuidePath string
	// Files are appended after snapshot files, in order.
	Files []string
	// ErrorText overrides the snapshot's error text when non-empty.
	ErrorText string
	Reader    *workspace.Reader
}

// Load assembles a host.Context from the configured sources.
func (s Sources) Load() (host.Context, error) {
	var hc host.Context
	if s.SnapshotPath != "" {
		snap, err := LoadSnapshot(s.SnapshotPath)
		if err != nil {
			return host.Context{}, err
		}
		hc = snap
	}
	if s.GuidePath != "" {
		data, err := os.ReadFile(s.GuidePath)
		if err != nil {
			return host.Context{}, fmt.Errorf("read guide: %w", err)
		}
		hc.GuidesPage.Content = string(data)
	}
	if len(s.Files) > 0 {
		if s.Reader == nil {
			return host.Context{}, errors.New("workspace reader is required to load files")
		}
		files, err := s.Reader.ReadFiles(s.Files)
		if err != nil {
			return host.Context{}, err
		}
		hc.Files = append(hc.Files, files...)
	}
	if s.ErrorText != "" {
		hc.Error.Text = s.ErrorText
	}
	return hc, nil
}

// LoadSnapshot decodes a YAML context snapshot.
func LoadSnapshot(path string) (host.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return host.Context{}, fmt.Errorf("read snapshot: %w", err)
	}
	var hc host.Context
	if err := yaml.Unmarshal(data, &hc); err != nil {
		return host.Context{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return hc, nil
}

type action struct {
	label   string
	handler host.ActionHandler
}

// Host is a line-oriented host.Host for the terminal.
type Host struct {
	in         *bufio.Reader
	out        io.Writer
	sources    Sources
	autoAccept bool

	mu          sync.Mutex
	subscribers map[int]func(host.ErrorSignal)
	nextSub     int
	actions     map[string]action
	order       []string
	streaming   bool
	actionErr   error
}

// New builds a terminal host. With autoAccept set, tooltips are accepted without asking.
func New(in io.Reader, out io.Writer, sources Sources, autoAccept bool) *Host {
	return &Host{
		in:          bufio.NewReader(in),
		out:         out,
		sources:     sources,
		autoAccept:  autoAccept,
		subscribers: make(map[int]func(host.ErrorSignal)),
		actions:     make(map[string]action),
	}
}

var _ host.Host = (*Host)(nil)

func (h *Host) OnErrorState(handler func(host.ErrorSignal)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subscribers[id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers, id)
	}
}

// Emit delivers a signal to every subscriber.
func (h *Host) Emit(sig host.ErrorSignal) {
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

func (h *Host) RegisterAction(id, label string, handler host.ActionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.actions[id]; !exists {
		h.order = append(h.order, id)
	}
	h.actions[id] = action{label: label, handler: handler}
}

func (h *Host) Open(ctx context.Context, id, params string) error {
	h.mu.Lock()
	a, ok := h.actions[id]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("action %q not registered", id)
	}
	err := a.handler(ctx, params)
	h.mu.Lock()
	h.actionErr = err
	h.mu.Unlock()
	return err
}

// ActionErr returns the result of the most recent action, including ones opened from a
// tooltip where the caller drops the error.
func (h *Host) ActionErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.actionErr
}

func (h *Host) ShowTooltip(text string, onAccept func()) {
	fmt.Fprintf(h.out, "[tip] %s\n", text)
	if h.autoAccept {
		onAccept()
		return
	}
	fmt.Fprint(h.out, "Explain it? [y/N] ")
	line, _ := h.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		onAccept()
	}
}

func (h *Host) Context(ctx context.Context) (host.Context, error) {
	if err := ctx.Err(); err != nil {
		return host.Context{}, err
	}
	return h.sources.Load()
}

func (h *Host) Write(text string, role host.Role) {
	h.closeStream()
	fmt.Fprintf(h.out, "%s> %s\n", speaker(role), text)
}

func (h *Host) WriteChunk(chunk string) {
	h.mu.Lock()
	if !h.streaming {
		h.streaming = true
		fmt.Fprintf(h.out, "%s> ", speaker(host.RoleAssistant))
	}
	h.mu.Unlock()
	fmt.Fprint(h.out, chunk)
}

func (h *Host) EndStream() {
	h.closeStream()
}

func (h *Host) closeStream() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streaming {
		h.streaming = false
		fmt.Fprintln(h.out)
	}
}

// Input reads lines until a blank line or EOF. EOF before any text, or a lone ":q",
// cancels.
func (h *Host) Input(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(h.out, "%s> %s\n", speaker(host.RoleAssistant), prompt)
	fmt.Fprintln(h.out, "(finish with an empty line, or type :q to cancel)")

	var lines []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := h.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if len(lines) == 0 && strings.TrimSpace(trimmed) == cancelWord {
			return "", host.ErrCancelled
		}
		if trimmed != "" {
			lines = append(lines, trimmed)
		} else if len(lines) > 0 && err == nil {
			break
		}
		if errors.Is(err, io.EOF) {
			if len(lines) == 0 {
				return "", host.ErrCancelled
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Host) ShowMenu() {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintln(h.out, "Menu:")
	for _, id := range h.order {
		fmt.Fprintf(h.out, "  - %s (%s)\n", h.actions[id].label, id)
	}
}

func speaker(role host.Role) string {
	if role == host.RoleUser {
		return "you"
	}
	return "coach"
}
