package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "map",
		Aliases: []string{"maps"},
		Short:   "Manage topical maps",
	}
	cmd.AddCommand(newMapCreateCmd(), newMapListCmd(), newMapShowCmd(), newMapDeleteCmd(), newMapExportCmd())
	return cmd
}

func newMapCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID NAME",
		Short: "Create a topical map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			typ, _ := cmd.Flags().GetString("type")
			m, err := s.svc.CreateTopicalMap(cmd.Context(), planner.TopicalMap{
				ProjectID: args[0],
				Name:      args[1],
				Type:      planner.MapType(typ),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s topical map %s (%s)\n", m.Type, m.Name, m.ID)
			return nil
		},
	}
	cmd.Flags().String("type", "", "Map type: raw or processed (default raw)")
	return cmd
}

func newMapListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's topical maps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			maps, err := s.svc.ListTopicalMaps(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCREATED")
			for _, m := range maps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Type, m.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newMapShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a topical map with its entities and attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			m, err := s.svc.ExportTopicalMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
}

func newMapDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a topical map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteTopicalMap(cmd.Context(), args[0])
			return reportDeleted(cmd, "topical map", args[0], ok, err)
		},
	}
}

func newMapExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Print a topical map as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			name, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			m, err := s.svc.ExportTopicalMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch format {
			case export.FormatJSON:
				return printJSON(cmd.OutOrStdout(), m)
			case export.FormatMarkdown:
				p, err := s.svc.GetProject(cmd.Context(), m.ProjectID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), export.TopicalMapMarkdown(m, p, time.Now()))
				return err
			}
			return fmt.Errorf("%w: topical maps export as json or markdown", export.ErrUnsupportedFormat)
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Export format: markdown or json")
	return cmd
}

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entity",
		Aliases: []string{"entities"},
		Short:   "Manage the entities of a topical map",
	}
	cmd.AddCommand(newEntityAddCmd(), newEntityListCmd(), newEntityScoresCmd(), newEntityDeleteCmd())
	return cmd
}

func newEntityAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add MAP_ID NAME",
		Short: "Add an entity to a topical map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			typ, _ := flags.GetString("type")
			wikidata, _ := flags.GetString("wikidata")
			prom, _ := flags.GetInt("prominence")
			pop, _ := flags.GetInt("popularity")
			rel, _ := flags.GetInt("relevance")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			e, err := s.svc.AddEntity(cmd.Context(), planner.Entity{
				TopicalMapID:    args[0],
				Name:            args[1],
				Type:            planner.EntityType(typ),
				WikidataID:      wikidata,
				ProminenceScore: prom,
				PopularityScore: pop,
				RelevanceScore:  rel,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s entity %s (%s), PPR %d\n", e.Type, e.Name, e.ID, e.TotalScore())
			return nil
		},
	}
	cmd.Flags().String("type", "", "Entity type: central, derived or sibling (default derived)")
	cmd.Flags().String("wikidata", "", "Wikidata identifier")
	cmd.Flags().Int("prominence", 0, "Prominence score 1-10 (default 5)")
	cmd.Flags().Int("popularity", 0, "Popularity score 1-10 (default 5)")
	cmd.Flags().Int("relevance", 0, "Relevance score 1-10 (default 5)")
	return cmd
}

func newEntityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list MAP_ID",
		Short: "List a map's entities, highest PPR first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			entities, err := s.svc.ListEntities(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPROM\tPOP\tREL\tTOTAL")
			for _, e := range entities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n", e.ID, e.Name, e.Type,
					e.ProminenceScore, e.PopularityScore, e.RelevanceScore, e.TotalScore())
			}
			return tw.Flush()
		},
	}
}

func newEntityScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores ID PROMINENCE POPULARITY RELEVANCE",
		Short: "Set an entity's PPR scores",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scores [3]int
			for i, a := range args[1:] {
				if _, err := fmt.Sscanf(a, "%d", &scores[i]); err != nil {
					return fmt.Errorf("%w: score %q is not a number", planner.ErrValidation, a)
				}
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			e, err := s.svc.UpdateEntityScores(cmd.Context(), args[0], scores[0], scores[1], scores[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entity %s PPR %d\n", e.Name, e.TotalScore())
			return nil
		},
	}
}

func newEntityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entity; briefs referencing it keep their content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteEntity(cmd.Context(), args[0])
			return reportDeleted(cmd, "entity", args[0], ok, err)
		},
	}
}

func newAttributeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attribute",
		Aliases: []string{"attributes"},
		Short:   "Manage the attributes of a topical map",
	}
	cmd.AddCommand(newAttributeAddCmd(), newAttributeListCmd(), newAttributeDeleteCmd(), newAttributeLinkCmd())
	return cmd
}

func newAttributeAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add MAP_ID NAME",
		Short: "Add an attribute to a topical map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			class, _ := flags.GetString("classification")
			section, _ := flags.GetString("section")
			depth, _ := flags.GetInt("depth")
			volume, _ := flags.GetInt("search-volume")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			a, err := s.svc.AddAttribute(cmd.Context(), planner.Attribute{
				TopicalMapID:   args[0],
				Name:           args[1],
				Classification: planner.Classification(class),
				Section:        planner.Section(section),
				DepthLevel:     depth,
				SearchVolume:   volume,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s attribute %s (%s)\n", a.Section, a.Name, a.ID)
			return nil
		},
	}
	cmd.Flags().String("classification", "", "unique, root or rarer")
	cmd.Flags().String("section", "", "core or outer")
	cmd.Flags().Int("depth", 0, "Depth level")
	cmd.Flags().Int("search-volume", 0, "Monthly search volume")
	return cmd
}

func newAttributeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list MAP_ID",
		Short: "List a map's attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			attrs, err := s.svc.ListAttributes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tSECTION\tCLASS\tDEPTH\tVOLUME")
			for _, a := range attrs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", a.ID, a.Name, a.Section,
					orDash(string(a.Classification)), a.DepthLevel, a.SearchVolume)
			}
			return tw.Flush()
		},
	}
}

func newAttributeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an attribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ok, err := s.svc.DeleteAttribute(cmd.Context(), args[0])
			return reportDeleted(cmd, "attribute", args[0], ok, err)
		},
	}
}

func newAttributeLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link ENTITY_ID ATTRIBUTE_ID",
		Short: "Associate an entity with an attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, _ := cmd.Flags().GetString("relationship")

			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if _, err := s.svc.LinkEntityAttribute(cmd.Context(), planner.EntityAttribute{
				EntityID:         args[0],
				AttributeID:      args[1],
				RelationshipType: rel,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked entity %s to attribute %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().String("relationship", "", "Relationship type")
	return cmd
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
