package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolio-cms/internal/model"
	"portfolio-cms/internal/upload"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage the bucketed images of a case study",
}

var imagesListCmd = &cobra.Command{
	Use:   "list <slug>",
	Short: "List images per bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := model.ValidateSlug(args[0]); err != nil {
			return err
		}
		images := app.store.ReadImages(args[0])

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BUCKET\tORDER\tFILENAME\tURL")
		for _, b := range model.AllImageBuckets() {
			entries, _ := images.Bucket(b)
			for _, img := range *entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b, img.Order, img.Filename, img.URL)
			}
		}
		return tw.Flush()
	},
}

var imagesAddCmd = &cobra.Command{
	Use:   "add <slug> <bucket> <file>",
	Short: "Upload a local image file into a bucket",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("error reading %s: %w", args[2], err)
		}
		// No declared type: the gateway sniffs it from the bytes.
		res, err := app.uploads.Upload(operatorContext(cmd), upload.File{
			Name: filepath.Base(args[2]),
			Data: data,
		}, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s at %s\n", res.Filename, res.URL)
		return nil
	},
}

var imagesRemoveCmd = &cobra.Command{
	Use:   "remove <slug> <bucket> <filename>",
	Short: "Remove an image's metadata and file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.uploads.DeleteImage(operatorContext(cmd), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[2], args[1])
		return nil
	},
}

func init() {
	imagesCmd.AddCommand(imagesListCmd, imagesAddCmd, imagesRemoveCmd)
	rootCmd.AddCommand(imagesCmd)
}
