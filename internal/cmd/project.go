package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(),
		newProjectListCmd(),
		newProjectShowCmd(),
		newProjectUpdateCmd(),
		newProjectDeleteCmd(),
		newProjectDuplicateCmd(),
		newProjectStatsCmd(),
		newProjectExportCmd(),
	)
	return cmd
}

func addProjectFields(cmd *cobra.Command) {
	cmd.Flags().String("source-context", "", "Who the site owner is and how they monetize")
	cmd.Flags().String("central-entity", "", "Main subject of the topical coverage")
	cmd.Flags().String("search-intent", "", "Central search intent")
	cmd.Flags().StringSlice("functional-words", nil, "Comma-separated functional words")
}

func newProjectCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			in := planner.NewProject{Name: args[0]}
			in.SourceContext, _ = cmd.Flags().GetString("source-context")
			in.CentralEntity, _ = cmd.Flags().GetString("central-entity")
			in.CentralSearchIntent, _ = cmd.Flags().GetString("search-intent")
			in.FunctionalWords, _ = cmd.Flags().GetStringSlice("functional-words")

			p, err := s.svc.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	addProjectFields(cmd)
	return cmd
}

func newProjectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			projects, err := s.svc.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tCENTRAL ENTITY\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CentralEntity, p.UpdatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			p, err := s.svc.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newProjectUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch planner.ProjectPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				patch.Name = &v
			}
			if flags.Changed("source-context") {
				v, _ := flags.GetString("source-context")
				patch.SourceContext = &v
			}
			if flags.Changed("central-entity") {
				v, _ := flags.GetString("central-entity")
				patch.CentralEntity = &v
			}
			if flags.Changed("search-intent") {
				v, _ := flags.GetString("search-intent")
				patch.CentralSearchIntent = &v
			}
			if flags.Changed("functional-words") {
				v, _ := flags.GetStringSlice("functional-words")
				patch.FunctionalWords = &v
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			p, err := s.svc.UpdateProject(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Project name")
	addProjectFields(cmd)
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteProject(cmd.Context(), args[0])
			return reportDeleted(cmd, "project", args[0], ok, err)
		},
	}
}

// reportDeleted prints the outcome of a delete; a missing record is an error
func reportDeleted(cmd *cobra.Command, kind, id string, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, planner.ErrNotFound)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, id)
	return nil
}

func newProjectDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate ID NAME",
		Short: "Copy a project's framework into a new project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			p, err := s.svc.DuplicateProject(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func newProjectStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats ID",
		Short: "Show brief progress and coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			st, err := s.svc.ProjectStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Topical maps:\t%d\n", st.TopicalMapCount)
			fmt.Fprintf(tw, "Briefs:\t%d\n", st.TotalBriefs)
			for _, status := range planner.AllStatuses {
				fmt.Fprintf(tw, "  %s:\t%d\n", status.Label(), st.BriefsByStatus[status])
			}
			fmt.Fprintf(tw, "Publications:\t%d\n", st.PublicationCount)
			fmt.Fprintf(tw, "Coverage:\t%.1f%%\n", st.CoverageScore*100)
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func newProjectExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a project as JSON, CSV, Excel or Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			name, _ := cmd.Flags().GetString("format")
			if name == "" {
				name = s.cfg.Export.DefaultFormat
			}
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}

			opts := planner.DefaultExportOptions()
			noBriefs, _ := cmd.Flags().GetBool("no-briefs")
			noMaps, _ := cmd.Flags().GetBool("no-maps")
			opts.IncludeBriefs, opts.IncludeMaps = !noBriefs, !noMaps

			exp, err := s.svc.ExportProject(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			tmpl, _ := cmd.Flags().GetString("template")
			var data []byte
			switch {
			case format == export.FormatMarkdown:
				md, err := export.ProjectMarkdownTemplate(exp, tmpl)
				if err != nil {
					return err
				}
				data = []byte(md)
			case cmd.Flags().Changed("template"):
				return fmt.Errorf("%w: --template applies to markdown exports only", planner.ErrValidation)
			default:
				if data, err = export.Project(exp, format); err != nil {
					return err
				}
			}

			if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			dir, _ := cmd.Flags().GetString("output-dir")
			if dir == "" {
				if dir, err = s.cfg.ExportDir(); err != nil {
					return err
				}
			}
			path, err := export.WriteFile(dir, export.Filename(exp.Project.Name, format.Ext(), time.Now()), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", exp.Project.Name, path)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "Export format: json, csv, excel, markdown (default from config)")
	cmd.Flags().String("template", export.TemplateGeneric,
		"Markdown template: "+strings.Join(export.Templates, ", "))
	cmd.Flags().Bool("no-briefs", false, "Leave content briefs out")
	cmd.Flags().Bool("no-maps", false, "Leave topical maps out")
	cmd.Flags().StringP("output-dir", "o", "", "Directory to write to (default from config)")
	cmd.Flags().Bool("stdout", false, "Write to standard output instead of a file")
	return cmd
}

// splitPairs parses "key=value" arguments
func splitPairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", planner.ErrValidation, p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// readContent returns the literal value, or the file's contents for "@path"
func readContent(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	data, err := os.ReadFile(v[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", v[1:], err)
	}
	return string(data), nil
}
