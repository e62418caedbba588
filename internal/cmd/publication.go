package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/planner"
)

func newPublicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publication",
		Aliases: []string{"publications", "pub"},
		Short:   "Record published documents and their search data",
	}
	cmd.AddCommand(newPublicationCreateCmd(), newPublicationListCmd(), newPublicationShowCmd(), newQueryCmd())
	return cmd
}

func newPublicationCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create BRIEF_ID",
		Short: "Record the publication of a brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := planner.Publication{BriefID: args[0]}
			in.URL, _ = flags.GetString("url")
			raw, _ := flags.GetString("content")
			content, err := readContent(raw)
			if err != nil {
				return err
			}
			in.Content = content
			if d, _ := flags.GetString("published"); d != "" {
				t, err := parseDate(d)
				if err != nil {
					return err
				}
				in.PublishedAt = t
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			p, err := s.svc.CreatePublication(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created publication %s for brief %s\n", p.ID, p.BriefID)
			return nil
		},
	}
	cmd.Flags().String("url", "", "Absolute URL of the published page")
	cmd.Flags().String("content", "", "Published HTML, or @file to read it from a file")
	cmd.Flags().String("published", "", "Publication date (YYYY-MM-DD)")
	return cmd
}

func newPublicationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's publications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			pubs, err := s.svc.ListPublications(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tBRIEF\tURL\tPUBLISHED")
			for _, p := range pubs {
				published := "-"
				if p.PublishedAt != nil {
					published = p.PublishedAt.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.BriefID, orDash(p.URL), published)
			}
			return tw.Flush()
		},
	}
}

func newPublicationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			p, err := s.svc.GetPublication(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"queries"},
		Short:   "Manage search-console rows of a publication",
	}
	cmd.AddCommand(newQueryAddCmd(), newQueryListCmd())
	return cmd
}

func newQueryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add PUBLICATION_ID QUERY",
		Short: "Record one query row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := planner.QueryData{PublicationID: args[0], Query: args[1]}
			in.Clicks, _ = flags.GetInt("clicks")
			in.Impressions, _ = flags.GetInt("impressions")
			if flags.Changed("position") {
				v, _ := flags.GetFloat64("position")
				in.Position = &v
			}
			if flags.Changed("ctr") {
				v, _ := flags.GetFloat64("ctr")
				in.CTR = &v
			}
			if d, _ := flags.GetString("date"); d != "" {
				t, err := parseDate(d)
				if err != nil {
					return err
				}
				in.Date = t
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			q, err := s.svc.AddQueryData(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded query %q (%s)\n", q.Query, q.ID)
			return nil
		},
	}
	cmd.Flags().Int("clicks", 0, "Clicks")
	cmd.Flags().Int("impressions", 0, "Impressions")
	cmd.Flags().Float64("position", 0, "Average position")
	cmd.Flags().Float64("ctr", 0, "Click-through rate")
	cmd.Flags().String("date", "", "Date of the row (YYYY-MM-DD)")
	return cmd
}

func newQueryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list PUBLICATION_ID",
		Short: "List a publication's query rows, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			rows, err := s.svc.ListQueryData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DATE\tQUERY\tCLICKS\tIMPRESSIONS\tPOSITION\tCTR")
			for _, q := range rows {
				date := "-"
				if q.Date != nil {
					date = q.Date.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", date, q.Query, q.Clicks, q.Impressions,
					optFloat(q.Position), optFloat(q.CTR))
			}
			return tw.Flush()
		},
	}
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
