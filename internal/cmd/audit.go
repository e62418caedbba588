package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/audit"
	"github.com/masahif/seoplanner/internal/planner"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check published documents against their briefs",
		Long: `audit compares each publication with its brief: title tag, meta
description, H1, outline headings, word count target and internal links.

By default the stored publication content is audited; --live fetches the
published URL instead.`,
		Args: cobra.NoArgs,
		RunE: runAudit,
	}
	cmd.Flags().String("publication", "", "Audit one publication")
	cmd.Flags().String("project", "", "Audit every publication of a project")
	cmd.Flags().Bool("live", false, "Fetch the published URL")
	cmd.Flags().Bool("json", false, "Print the reports as JSON")
	cmd.MarkFlagsMutuallyExclusive("publication", "project")
	cmd.MarkFlagsOneRequired("publication", "project")
	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	pubID, _ := flags.GetString("publication")
	projectID, _ := flags.GetString("project")
	live, _ := flags.GetBool("live")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	a := audit.NewAuditor(s.svc, audit.Config{
		UserAgent:      s.cfg.Audit.UserAgent,
		RequestTimeout: s.cfg.Audit.RequestTimeout,
		RequestDelay:   s.cfg.Audit.RequestDelay,
		Concurrency:    s.cfg.Audit.Concurrency,
		Headers:        s.cfg.Audit.Headers,
	})
	defer a.Close()

	var reports []audit.Report
	if pubID != "" {
		r, err := a.AuditPublication(cmd.Context(), pubID, live)
		if err != nil {
			return err
		}
		reports = []audit.Report{*r}
	} else {
		if reports, err = a.AuditProject(cmd.Context(), projectID, live); err != nil {
			return err
		}
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), reports)
	}
	failed := 0
	for i := range reports {
		printReport(cmd.OutOrStdout(), &reports[i])
		if !reports[i].Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d publications failed the audit", planner.ErrValidation, failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, r *audit.Report) {
	fmt.Fprintf(w, "Publication %s (brief %s)", r.PublicationID, r.BriefID)
	if r.URL != "" {
		fmt.Fprintf(w, " %s", r.URL)
	}
	fmt.Fprintln(w)
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n\n", r.Error)
		return
	}

	tw := newTable(w)
	for _, c := range r.Checks {
		mark := "FAIL"
		if c.Passed {
			mark = "ok"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", mark, c.Name, c.Expected, orDash(c.Actual))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "  source %s, %d words, score %.0f%%\n\n", r.Source, r.WordCount, r.Score*100)
}
