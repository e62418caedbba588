package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

func newBriefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "brief",
		Aliases: []string{"briefs"},
		Short:   "Manage content briefs and their workflow status",
	}
	cmd.AddCommand(
		newBriefCreateCmd(),
		newBriefListCmd(),
		newBriefShowCmd(),
		newBriefUpdateCmd(),
		newBriefMoveCmd("advance", "Move a brief one status forward", (*planner.Service).AdvanceBrief),
		newBriefMoveCmd("revert", "Move a brief one status back", (*planner.Service).RevertBrief),
		newBriefTransitionCmd(),
		newBriefDeleteCmd(),
		newBriefExportCmd(),
		newSectionCmd(),
	)
	return cmd
}

func addBriefFields(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("title", "", "Title tag")
	flags.String("slug", "", "URL slug")
	flags.String("meta", "", "Meta description")
	flags.String("h1", "", "H1 heading")
	flags.String("macro-context", "", "Macro context")
	flags.StringSlice("micro-contexts", nil, "Comma-separated micro contexts")
	flags.String("publish-date", "", "Target publish date (YYYY-MM-DD)")
	flags.Int("word-count", 0, "Word count target")
}

func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", planner.ErrValidation, s)
	}
	return &t, nil
}

func newBriefCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID",
		Short: "Create a content brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in := planner.ContentBrief{ProjectID: args[0]}
			in.TitleTag, _ = flags.GetString("title")
			in.URLSlug, _ = flags.GetString("slug")
			in.MetaDescription, _ = flags.GetString("meta")
			in.H1, _ = flags.GetString("h1")
			in.MacroContext, _ = flags.GetString("macro-context")
			in.MicroContexts, _ = flags.GetStringSlice("micro-contexts")
			in.WordCountTarget, _ = flags.GetInt("word-count")
			in.EntityID, _ = flags.GetString("entity")
			in.AttributeID, _ = flags.GetString("attribute")
			status, _ := flags.GetString("status")
			in.Status = planner.BriefStatus(status)
			if d, _ := flags.GetString("publish-date"); d != "" {
				t, err := parseDate(d)
				if err != nil {
					return err
				}
				in.TargetPublishDate = t
			}
			alts, _ := flags.GetStringArray("image-alt")
			if len(alts) > 0 {
				m, err := splitPairs(alts)
				if err != nil {
					return err
				}
				in.ImageAlts = m
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := s.svc.CreateBrief(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created brief %s [%s] (%s)\n", orDash(b.TitleTag), b.Status, b.ID)
			return nil
		},
	}
	addBriefFields(cmd)
	cmd.Flags().String("entity", "", "Entity the brief covers")
	cmd.Flags().String("attribute", "", "Attribute the brief covers")
	cmd.Flags().String("status", "", "Initial status (default black)")
	cmd.Flags().StringArray("image-alt", nil, "Image alt text as image=alt, repeatable")
	return cmd
}

func newBriefListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's briefs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			st := planner.BriefStatus(status)
			if st != "" && !st.Valid() {
				return fmt.Errorf("%w: unknown status %q", planner.ErrValidation, status)
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			briefs, err := s.svc.ListBriefs(cmd.Context(), args[0], st)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), briefs)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tSLUG")
			for _, b := range briefs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Status, orDash(b.TitleTag), orDash(b.URLSlug))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("status", "", "Only briefs with this status")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func newBriefShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a brief with its sections and outgoing links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := s.svc.ExportBrief(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), b)
		},
	}
}

func newBriefUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update the brief fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch planner.BriefPatch
			flags := cmd.Flags()
			str := func(name string, dst **string) {
				if flags.Changed(name) {
					v, _ := flags.GetString(name)
					*dst = &v
				}
			}
			str("title", &patch.TitleTag)
			str("slug", &patch.URLSlug)
			str("meta", &patch.MetaDescription)
			str("h1", &patch.H1)
			str("macro-context", &patch.MacroContext)
			if flags.Changed("micro-contexts") {
				v, _ := flags.GetStringSlice("micro-contexts")
				patch.MicroContexts = &v
			}
			if flags.Changed("word-count") {
				v, _ := flags.GetInt("word-count")
				patch.WordCountTarget = &v
			}
			if flags.Changed("publish-date") {
				d, _ := flags.GetString("publish-date")
				t, err := parseDate(d)
				if err != nil {
					return err
				}
				patch.TargetPublishDate = t
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := s.svc.UpdateBrief(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated brief %s\n", b.ID)
			return nil
		},
	}
	addBriefFields(cmd)
	return cmd
}

type briefMove func(*planner.Service, context.Context, string) (*planner.ContentBrief, error)

func newBriefMoveCmd(use, short string, move briefMove) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := move(s.svc, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Brief %s is now %s (%s)\n", b.ID, b.Status, b.Status.Label())
			return nil
		},
	}
}

func newBriefTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transition ID STATUS",
		Short: "Move a brief to an adjacent status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := s.svc.TransitionBrief(cmd.Context(), args[0], planner.BriefStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Brief %s is now %s (%s)\n", b.ID, b.Status, b.Status.Label())
			return nil
		},
	}
}

func newBriefDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a brief with its sections and links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteBrief(cmd.Context(), args[0])
			return reportDeleted(cmd, "brief", args[0], ok, err)
		},
	}
}

func newBriefExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Print a brief as Markdown, JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			b, err := s.svc.ExportBrief(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case export.FormatJSON:
				return printJSON(out, b)
			case export.FormatCSV:
				data, err := export.BriefsCSV([]planner.BriefExport{*b})
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case export.FormatMarkdown:
				titles, err := briefTitles(cmd.Context(), s.svc, b.ProjectID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, export.BriefMarkdown(b, titles, time.Now()))
				return err
			}
			return fmt.Errorf("%w: briefs export as markdown, json or csv", export.ErrUnsupportedFormat)
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Export format: markdown, json or csv")
	return cmd
}

// briefTitles maps a project's brief IDs to their title tags for link rendering
func briefTitles(ctx context.Context, svc *planner.Service, projectID string) (map[string]string, error) {
	briefs, err := svc.ListBriefs(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(briefs))
	for _, b := range briefs {
		titles[b.ID] = b.TitleTag
	}
	return titles, nil
}

func newSectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "section",
		Aliases: []string{"sections"},
		Short:   "Manage a brief's outline",
	}
	cmd.AddCommand(newSectionAddCmd(), newSectionListCmd())
	return cmd
}

func newSectionAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add BRIEF_ID HEADING",
		Short: "Add a heading to a brief's outline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			level, _ := flags.GetString("level")
			position, _ := flags.GetInt("position")
			question, _ := flags.GetString("question")
			format, _ := flags.GetString("format")
			terms, _ := flags.GetStringSlice("terms")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if !flags.Changed("position") {
				existing, err := s.svc.ListSections(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				position = nextPosition(existing)
			}

			sec, err := s.svc.AddSection(cmd.Context(), planner.BriefSection{
				BriefID:           args[0],
				HeadingLevel:      planner.HeadingLevel(level),
				HeadingText:       args[1],
				OrderPosition:     position,
				QuestionType:      planner.QuestionType(question),
				FormatInstruction: planner.FormatInstruction(format),
				RequiredTerms:     terms,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q at position %d (%s)\n", sec.HeadingLevel, sec.HeadingText, sec.OrderPosition, sec.ID)
			return nil
		},
	}
	cmd.Flags().String("level", "", "Heading level H2-H5 (default H2)")
	cmd.Flags().Int("position", 0, "Order position (default after the last section)")
	cmd.Flags().String("question", "", "Question type: boolean, definitional, grouping, comparative, none")
	cmd.Flags().String("format", "", "Format instruction: FS, PAA, listing, long_form, table")
	cmd.Flags().StringSlice("terms", nil, "Comma-separated required terms")
	return cmd
}

func nextPosition(sections []planner.BriefSection) int {
	next := 0
	for _, s := range sections {
		if s.OrderPosition >= next {
			next = s.OrderPosition + 1
		}
	}
	return next
}

func newSectionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list BRIEF_ID",
		Short: "List a brief's outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			sections, err := s.svc.ListSections(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "POS\tLEVEL\tHEADING\tQUESTION\tFORMAT")
			for _, sec := range sections {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", sec.OrderPosition, sec.HeadingLevel, sec.HeadingText,
					orDash(string(sec.QuestionType)), orDash(string(sec.FormatInstruction)))
			}
			return tw.Flush()
		},
	}
}

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "link",
		Aliases: []string{"links"},
		Short:   "Manage internal links between briefs",
	}
	cmd.AddCommand(newLinkCreateCmd(), newLinkListCmd(), newLinkDeleteCmd())
	return cmd
}

func newLinkCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create SOURCE_BRIEF_ID TARGET_BRIEF_ID",
		Short: "Link one brief to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			anchor, _ := flags.GetString("anchor")
			placement, _ := flags.GetString("placement")
			priority, _ := flags.GetInt("priority")
			bridge, _ := flags.GetBool("bridge")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			l, err := s.svc.CreateInternalLink(cmd.Context(), planner.InternalLink{
				SourceBriefID:      args[0],
				TargetBriefID:      args[1],
				AnchorText:         anchor,
				PlacementSection:   placement,
				Priority:           priority,
				IsContextualBridge: bridge,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created link %s (priority %d)\n", l.ID, l.Priority)
			return nil
		},
	}
	cmd.Flags().String("anchor", "", "Anchor text")
	cmd.Flags().String("placement", "", "Section the link is placed in")
	cmd.Flags().Int("priority", 0, "Priority 1 (highest) to 10 (default 5)")
	cmd.Flags().Bool("bridge", false, "Mark as a contextual bridge")
	return cmd
}

func newLinkListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list BRIEF_ID",
		Short: "List a brief's outgoing links, or incoming with --incoming",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			list := s.svc.ListOutgoingLinks
			if incoming, _ := cmd.Flags().GetBool("incoming"); incoming {
				list = s.svc.ListIncomingLinks
			}
			links, err := list(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSOURCE\tTARGET\tPRIORITY\tANCHOR\tBRIDGE")
			for _, l := range links {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%t\n", l.ID, l.SourceBriefID, l.TargetBriefID,
					l.Priority, orDash(l.AnchorText), l.IsContextualBridge)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("incoming", false, "List links pointing at the brief")
	return cmd
}

func newLinkDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an internal link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteInternalLink(cmd.Context(), args[0])
			return reportDeleted(cmd, "internal link", args[0], ok, err)
		},
	}
}
