package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolio-cms/internal/model"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List and edit the sections of a case study",
}

var sectionsListCmd = &cobra.Command{
	Use:   "list <slug>",
	Short: "List sections in display order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := app.content.GetContent(args[0])
		if err != nil {
			return err
		}
		printSections(cmd.OutOrStdout(), doc.Sections)
		return nil
	},
}

var sectionsAddCmd = &cobra.Command{
	Use:   "add <slug> <text|image|text-image>",
	Short: "Append a new section with default content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseSectionType(args[1])
		if err != nil {
			return err
		}
		section, err := app.content.AddSection(operatorContext(cmd), args[0], t)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s section %s at position %d\n", section.Type, section.ID, section.Order)
		return nil
	},
}

var sectionsDeleteCmd = &cobra.Command{
	Use:   "delete <slug> <section-id>...",
	Short: "Delete sections and renumber the rest",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := operatorContext(cmd)
		for _, id := range args[1:] {
			if err := app.content.DeleteSection(ctx, args[0], id); err != nil {
				return fmt.Errorf("error deleting section %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted section %s\n", id)
		}
		return nil
	},
}

var sectionsReorderCmd = &cobra.Command{
	Use:   "reorder <slug> <section-id>...",
	Short: "Set the section order; sections not listed are removed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		if err := app.content.ReorderSections(operatorContext(cmd), slug, args[1:]); err != nil {
			return err
		}
		doc, err := app.content.GetContent(slug)
		if err != nil {
			return err
		}
		printSections(cmd.OutOrStdout(), doc.Sections)
		return nil
	},
}

func printSections(w io.Writer, sections []model.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "No sections.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tTYPE\tSUMMARY")
	for _, s := range sections {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Order, s.ID, s.Type, summarize(s.Content))
	}
	tw.Flush()
}

func summarize(c model.SectionContent) string {
	var text string
	switch c := c.(type) {
	case model.TextContent:
		text = c.Header
	case model.ImageContent:
		text = fmt.Sprintf("%d image(s)", len(c.Images))
	case model.TextImageContent:
		text = c.Header
		if c.ImageURL != "" {
			text += " [" + c.ImageURL + "]"
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > 48 {
		text = text[:45] + "..."
	}
	return text
}

func init() {
	sectionsCmd.AddCommand(sectionsListCmd, sectionsAddCmd, sectionsDeleteCmd, sectionsReorderCmd)
	rootCmd.AddCommand(sectionsCmd)
}
