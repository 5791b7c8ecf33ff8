package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio-cms/internal/generator"
	"portfolio-cms/internal/model"
	"portfolio-cms/internal/templating"
	"portfolio-cms/pkg/fsutils"
)

var initCmd = &cobra.Command{
	Use:   "init <slug|title>",
	Short: "Scaffold the storage folder of a case study",
	Long: `init creates <root>/<slug>/ with an empty content.json, empty image
buckets and an images/ directory. A title is turned into a slug first.
Existing files are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		if model.ValidateSlug(slug) != nil {
			slug = generator.SlugFromTitle(slug)
		}

		genCfg, err := generator.DefaultGeneratorConfig(app.cfg.Storage.Root)
		if err != nil {
			return err
		}
		sc, err := generator.GenerateCaseStudy(genCfg, slug, app.logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Case study '%s' ready at %s\n", sc.Slug, sc.Dir)
		for _, f := range sc.Created {
			fmt.Fprintf(out, "  created %s\n", f)
		}
		for _, f := range sc.Skipped {
			fmt.Fprintf(out, "  kept    %s\n", f)
		}
		return nil
	},
}

var previewOutput string

var previewCmd = &cobra.Command{
	Use:   "preview <slug>",
	Short: "Render the public page of a case study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := templating.NewEngine(app.content, app.cfg.Storage.Root, app.logger)
		if err != nil {
			return err
		}
		page, err := engine.RenderCaseStudy(args[0])
		if err != nil {
			return err
		}

		if previewOutput == "" || previewOutput == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), page)
			return err
		}
		if err := fsutils.WriteFileAtomic(previewOutput, []byte(page)); err != nil {
			return fmt.Errorf("error writing preview file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", previewOutput)
		return nil
	},
}

var addTemplateCmd = &cobra.Command{
	Use:   "add-template <slug> <section-type>",
	Short: "Create a per-case-study template override for one section type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := generator.AddTemplateOverride(app.cfg.Storage.Root, args[0], model.SectionType(args[1]), app.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template override created at %s\n", path)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "write the page to this file instead of stdout")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(addTemplateCmd)
}
