package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

func sampleContext() host.Context {
	return host.Context{
		GuidesPage: host.GuidesPage{Content: "Define x and print it.<script>track()</script>"},
		Files: []host.File{
			{Path: "exercise/main.py", Content: "print(x)\n"},
			{Path: "exercise/helpers.py", Content: "def helper():\n    return 1\n"},
		},
		Error: host.ErrorInfo{Text: "NameError: name 'x' is not defined"},
	}
}

func TestInstallRegistersAction(t *testing.T) {
	h := newFakeHost()
	cfg := config.DefaultCoachConfig()
	c := New(h, &fakeBackend{}, cfg)

	unsubscribe := c.Install(context.Background())
	defer unsubscribe()

	require.Contains(t, h.handlers, cfg.ActionID)
	require.Equal(t, "Explain this error!", h.labels[cfg.ActionID])
	require.Len(t, h.subscribers, 1)
}

func TestAutomaticPathEndToEnd(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	backend := &fakeBackend{classifyFn: heuristicClassifier, explanation: "You are using x before it has a value."}
	c := New(h, backend, config.DefaultCoachConfig())
	ctx := context.Background()
	defer c.Install(ctx)()

	h.emit(host.ErrorSignal{IsError: true, Text: "NameError: name 'x' is not defined"})
	require.Len(t, h.tooltips, 1)
	h.tooltips[0].OnAccept()

	// The live error is echoed as the learner's message.
	require.Equal(t, []written{{Text: "NameError: name 'x' is not defined", Role: host.RoleUser}}, h.writes)

	require.Len(t, backend.callsFor(host.PurposeClassify), 1)
	explains := backend.callsFor(host.PurposeExplain)
	require.Len(t, explains, 1)
	require.Len(t, backend.calls, 2)
	require.Equal(t, host.PurposeClassify, backend.calls[0].Req.Purpose)

	call := explains[0]
	require.True(t, call.Opts.Stream)
	require.Len(t, call.Req.Messages, 1)
	require.Equal(t, host.RoleUser, call.Req.Messages[0].Role)
	content := call.Req.Messages[0].Content
	require.Contains(t, content, "NameError: name 'x' is not defined")
	require.Contains(t, content, "Define x and print it.<script>track()</script>")
	for _, f := range h.ctx.Files {
		require.Contains(t, content, f.Path)
		require.Contains(t, content, f.Content)
	}
	require.Zero(t, h.menus)
	require.Empty(t, h.inputCalls)
}

func TestManualPathCancellation(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.inputErr = host.ErrCancelled
	backend := &fakeBackend{}
	cfg := config.DefaultCoachConfig()
	c := New(h, backend, cfg)

	require.NoError(t, c.Handle(context.Background(), ""))

	require.Equal(t, []string{cfg.InputPrompt}, h.inputCalls)
	require.Equal(t, []written{{Text: cfg.CancelMessage, Role: host.RoleAssistant}}, h.writes)
	require.Equal(t, 1, h.menus)
	require.Empty(t, backend.calls)
}

func TestManualPathUsesPastedText(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.input = "ZeroDivisionError: division by zero"
	backend := &fakeBackend{classifyFn: heuristicClassifier}
	c := New(h, backend, config.DefaultCoachConfig())

	require.NoError(t, c.Handle(context.Background(), ""))

	require.Empty(t, h.writes, "manual input is not echoed")
	require.Len(t, backend.calls, 2)
	require.Contains(t, backend.calls[0].Req.UserPrompt, "ZeroDivisionError: division by zero")
	require.Contains(t, contentOf(backend.calls[1]), "<error_message>\nZeroDivisionError: division by zero\n</error_message>")
}

func TestNegativeVerdictSkipsExplanation(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.input = "Great job, your submission looks good!"
	backend := &fakeBackend{classifyFn: heuristicClassifier}
	cfg := config.DefaultCoachConfig()
	c := New(h, backend, cfg)

	require.NoError(t, c.Handle(context.Background(), ""))

	require.Len(t, backend.callsFor(host.PurposeClassify), 1)
	require.Empty(t, backend.callsFor(host.PurposeExplain))
	require.Equal(t, []written{{Text: cfg.NotErrorMessage, Role: host.RoleAssistant}}, h.writes)
	require.Equal(t, 1, h.menus)
}

func TestMalformedClassifierOutputIsNegative(t *testing.T) {
	for _, mode := range []string{config.VerdictSubstring, config.VerdictStrict} {
		h := newFakeHost()
		h.ctx = sampleContext()
		backend := &fakeBackend{classifyFn: func(string) (string, error) { return "<<garbled>>", nil }}
		cfg := config.DefaultCoachConfig()
		cfg.VerdictMode = mode
		c := New(h, backend, cfg)

		require.NoError(t, c.Handle(context.Background(), host.ActionParamTooltip), mode)
		require.Empty(t, backend.callsFor(host.PurposeExplain), mode)
	}
}

func TestBlankCandidateNeverReachesClassifier(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.input = "   "
	backend := &fakeBackend{}
	cfg := config.DefaultCoachConfig()
	c := New(h, backend, cfg)

	require.NoError(t, c.Handle(context.Background(), ""))
	require.Empty(t, backend.calls)
	require.Equal(t, []written{{Text: cfg.NotErrorMessage, Role: host.RoleAssistant}}, h.writes)
	require.Equal(t, 1, h.menus)
}

func TestTooltipAcceptedAfterErrorClearedSkipsEcho(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.ctx.Error.Text = " \n"
	backend := &fakeBackend{}
	cfg := config.DefaultCoachConfig()
	c := New(h, backend, cfg)

	require.NoError(t, c.Handle(context.Background(), host.ActionParamTooltip))
	require.Empty(t, backend.calls)
	require.Equal(t, []written{{Text: cfg.NotErrorMessage, Role: host.RoleAssistant}}, h.writes)
	require.Equal(t, 1, h.menus)
}

func TestContextFailureAbortsInteraction(t *testing.T) {
	h := newFakeHost()
	h.ctxErr = errors.New("context service down")
	backend := &fakeBackend{}
	c := New(h, backend, config.DefaultCoachConfig())

	err := c.Handle(context.Background(), host.ActionParamTooltip)
	require.ErrorIs(t, err, h.ctxErr)
	require.Equal(t, 1, h.ctxCalls, "no retry")
	require.Empty(t, backend.calls)
	require.Empty(t, h.writes)
	require.Empty(t, h.inputCalls)
}

func TestInputFailureOtherThanCancelIsFatal(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	h.inputErr = errors.New("prompt widget crashed")
	backend := &fakeBackend{}
	c := New(h, backend, config.DefaultCoachConfig())

	err := c.Handle(context.Background(), "")
	require.ErrorIs(t, err, h.inputErr)
	require.Empty(t, backend.calls)
	require.Zero(t, h.menus)
}

func TestBackendFailuresAreFatalAndNotRetried(t *testing.T) {
	boom := errors.New("model unavailable")

	h := newFakeHost()
	h.ctx = sampleContext()
	backend := &fakeBackend{classifyFn: func(string) (string, error) { return "", boom }}
	c := New(h, backend, config.DefaultCoachConfig())
	require.ErrorIs(t, c.Handle(context.Background(), host.ActionParamTooltip), boom)
	require.Len(t, backend.calls, 1)

	h = newFakeHost()
	h.ctx = sampleContext()
	backend = &fakeBackend{explainErr: boom}
	c = New(h, backend, config.DefaultCoachConfig())
	require.ErrorIs(t, c.Handle(context.Background(), host.ActionParamTooltip), boom)
	require.Len(t, backend.calls, 2)
}

type countingMetrics struct {
	signals      []bool
	verdicts     []bool
	interactions []string
}

func (m *countingMetrics) RecordSignal(invited bool)  { m.signals = append(m.signals, invited) }
func (m *countingMetrics) RecordVerdict(isError bool) { m.verdicts = append(m.verdicts, isError) }
func (m *countingMetrics) RecordInteraction(path, outcome string) {
	m.interactions = append(m.interactions, path+"/"+outcome)
}

func TestMetricsRecorded(t *testing.T) {
	h := newFakeHost()
	h.ctx = sampleContext()
	metrics := &countingMetrics{}
	c := New(h, &fakeBackend{}, config.DefaultCoachConfig(), WithMetrics(metrics))
	ctx := context.Background()
	defer c.Install(ctx)()

	h.emit(host.ErrorSignal{IsError: false})
	h.emit(host.ErrorSignal{IsError: true, Text: "TypeError: x is not defined"})
	h.tooltips[0].OnAccept()

	h.inputErr = host.ErrCancelled
	require.NoError(t, c.Handle(ctx, ""))

	require.Equal(t, []bool{false, true}, metrics.signals)
	require.Equal(t, []bool{true}, metrics.verdicts)
	require.Equal(t, []string{"tooltip/explained", "manual/cancelled"}, metrics.interactions)
}
