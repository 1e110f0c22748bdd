package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/backend"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm/configbuilder"
)

// NewDoctorCmd validates config and shows which model serves each generation purpose.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and model routing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reg, err := configbuilder.BuildRegistryFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			strategy := backend.NewStrategyEngine(reg, cfg.Strategy)

			out := cmd.OutOrStdout()
			providers := make([]string, 0, len(cfg.Providers))
			for name := range cfg.Providers {
				providers = append(providers, name)
			}
			sort.Strings(providers)
			fmt.Fprintf(out, "Config OK. Providers: %s, models: %d\n", strings.Join(providers, ", "), len(cfg.Models))
			for _, purpose := range []host.Purpose{host.PurposeClassify, host.PurposeExplain} {
				_, route, err := strategy.ResolveModel(purpose)
				if err != nil {
					return fmt.Errorf("resolve %s model: %w", purpose, err)
				}
				fmt.Fprintf(out, "%s -> %s (%s/%s)\n", purpose, route.Name, route.Provider, route.Model)
			}
			fmt.Fprintf(out, "Verdict mode: %s, transport: %s, metrics: %v\n",
				cfg.Coach.VerdictMode, cfg.Server.Transport, cfg.Server.MetricsEnabled)
			return nil
		},
	}
}
