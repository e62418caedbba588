package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/config"
	"github.com/masahif/seoplanner/internal/discovery"
	"github.com/masahif/seoplanner/internal/planner"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List AI providers and models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			available := cfg.AvailableProviders()
			out := cmd.OutOrStdout()

			if task, _ := cmd.Flags().GetString("task"); task != "" {
				if !cfg.HasAnyProvider() {
					return fmt.Errorf("%w: set one of %s", planner.ErrNoProvider, vendorKeyHint())
				}
				provider, m, ok := discovery.BestModelForTask(task, available)
				if !ok {
					return fmt.Errorf("no configured provider offers a model for %q", task)
				}
				fmt.Fprintf(out, "%s/%s (%s)\n", provider, m.Key, m.Name)
				return nil
			}

			configured := make(map[string]bool, len(available))
			for _, p := range available {
				configured[p] = true
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tNAME\tCONTEXT\t$/1K IN\t$/1K OUT\tKEY")
			for _, name := range discovery.ProviderOrder {
				key := "no"
				if configured[name] {
					key = "yes"
				}
				for _, m := range discovery.ModelsFor(name) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.5f\t%.5f\t%s\n", name, m.Key, m.Name,
						m.ContextWindow, m.CostPer1KInput, m.CostPer1KOutput, key)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !cfg.HasAnyProvider() {
				fmt.Fprintf(out, "\nNo provider keys configured. Set one of %s.\n", vendorKeyHint())
			}

			fmt.Fprintln(out, "\nRecommended:")
			tw = newTable(out)
			for _, uc := range discovery.UseCases() {
				r := discovery.RecommendedModels[uc]
				fmt.Fprintf(tw, "  %s\t%s/%s\t%s\n", uc, r.Provider, r.Model, r.Reason)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("task", "", "Print the best configured model for a task tag, e.g. quick_tasks")
	return cmd
}

func vendorKeyHint() string {
	names := make([]string, 0, len(config.Providers))
	for _, p := range config.Providers {
		names = append(names, config.VendorKeyEnv[p])
	}
	return strings.Join(names, ", ")
}
