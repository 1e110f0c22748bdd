package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/backend"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/coach"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host/terminal"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm/configbuilder"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/workspace"
)

// sourceFlags describe where learner context comes from.
type sourceFlags struct {
	errorText    string
	guidePath    string
	files        []string
	snapshotPath string
	workspaceDir string
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.errorText, "error", "", "Error text shown to the learner (selects the tooltip path)")
	cmd.Flags().StringVar(&f.guidePath, "guide", "", "File holding the assignment text")
	cmd.Flags().StringSliceVar(&f.files, "file", nil, "Open learner file, relative to --workspace (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.snapshotPath, "context", "", "YAML context snapshot (guides_page, files, error)")
	cmd.Flags().StringVar(&f.workspaceDir, "workspace", "", "Workspace root for --file (default: current directory)")
}

func (f *sourceFlags) sources() (terminal.Sources, error) {
	src := terminal.Sources{
		SnapshotPath: f.snapshotPath,
		GuidePath:    f.guidePath,
		Files:        f.files,
		ErrorText:    f.errorText,
	}
	if len(f.files) > 0 {
		reader, err := workspace.NewReader(f.workspaceDir)
		if err != nil {
			return terminal.Sources{}, fmt.Errorf("open workspace: %w", err)
		}
		src.Reader = reader
	}
	return src, nil
}

// NewExplainCmd runs one explain interaction against a terminal host.
func NewExplainCmd(opts *Options) *cobra.Command {
	var src sourceFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain an error locally; with no error text, asks you to paste one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			sources, err := src.sources()
			if err != nil {
				return err
			}
			th := terminal.New(cmd.InOrStdin(), cmd.OutOrStdout(), sources, yes)

			reg, err := configbuilder.BuildRegistryFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			b := &backend.LLM{
				Strategy: backend.NewStrategyEngine(reg, cfg.Strategy),
				Surface:  th,
				Logger:   logger.Named("backend"),
			}
			return runExplain(cmd.Context(), th, b, cfg.Coach, logger, cmd.OutOrStdout())
		},
	}

	src.bind(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept the explain tooltip without asking")
	return cmd
}

// runExplain installs a coach on th and drives one interaction. With error text in the
// context the signal goes through the monitor; otherwise the explain action opens
// directly, as from the menu.
func runExplain(ctx context.Context, th *terminal.Host, b host.Backend, cfg config.CoachConfig, logger *zap.Logger, out io.Writer) error {
	c := coach.New(th, b, cfg, coach.WithLogger(logger.Named("coach")))
	unsubscribe := c.Install(ctx)
	defer unsubscribe()

	hc, err := th.Context(ctx)
	if err != nil {
		return err
	}
	if hc.Error.Text == "" {
		return th.Open(ctx, c.ActionID(), "")
	}

	sig := host.ErrorSignal{IsError: true, Text: hc.Error.Text}
	if !c.Monitor().Actionable(sig) {
		fmt.Fprintln(out, "Nothing to explain: the error output matches an ignored pattern.")
		return nil
	}
	th.Emit(sig)
	return th.ActionErr()
}
