package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/planner"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover BUSINESS_NAME",
		Short: "Discover a semantic framework for a business with an AI provider",
		Long: `discover asks the configured AI provider for a project's source context,
central entity, central search intent and functional words.

With --create NAME the framework is saved as a new project.`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscover,
	}
	flags := cmd.Flags()
	flags.String("description", "", "What the business does")
	flags.String("products", "", "Products or services offered")
	flags.String("customers", "", "Target customers")
	flags.String("monetization", "", "How the business makes money")
	flags.String("website", "", "Website URL")
	flags.String("context", "", "Additional context")
	flags.String("create", "", "Create a project with this name from the result")
	flags.Bool("json", false, "Print the framework as JSON")
	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	info := planner.BusinessInfo{BusinessName: args[0]}
	info.BusinessDescription, _ = flags.GetString("description")
	info.ProductsServices, _ = flags.GetString("products")
	info.TargetCustomers, _ = flags.GetString("customers")
	info.Monetization, _ = flags.GetString("monetization")
	info.WebsiteURL, _ = flags.GetString("website")
	info.AdditionalContext, _ = flags.GetString("context")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	fw, err := s.svc.DiscoverFramework(cmd.Context(), info)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := flags.GetBool("json"); asJSON {
		if err := printJSON(out, fw); err != nil {
			return err
		}
	} else {
		printFramework(cmd, fw)
	}

	name, _ := flags.GetString("create")
	if name == "" {
		return nil
	}
	if fw.Degraded() {
		return fmt.Errorf("%w: the provider response could not be parsed, not creating a project", planner.ErrAdapter)
	}
	p, err := s.svc.CreateProjectFromFramework(cmd.Context(), name, fw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created project %s (%s)\n", p.Name, p.ID)
	return nil
}

func printFramework(cmd *cobra.Command, fw *planner.Framework) {
	out := cmd.OutOrStdout()
	if fw.Degraded() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the provider response could not be parsed; showing a preview of the raw answer")
		fmt.Fprintf(out, "Raw response:\n%s\n", fw.RawResponse)
		return
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "Source context:\t%s\n", fw.SourceContext)
	fmt.Fprintf(tw, "Central entity:\t%s\n", fw.CentralEntity)
	fmt.Fprintf(tw, "Central search intent:\t%s\n", fw.CentralSearchIntent)
	fmt.Fprintf(tw, "Functional words:\t%s\n", strings.Join(fw.FunctionalWords, ", "))
	fmt.Fprintf(tw, "Confidence:\t%s\n", fw.Confidence)
	_ = tw.Flush()
	if fw.Explanation != "" {
		fmt.Fprintf(out, "\n%s\n", fw.Explanation)
	}
}
