// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/notes-export/internal/convert"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the notes of a folder",
	Long: `Export converts every titled note of a folder into one Markdown or HTML
file per note. Notes linked from the folder are exported too, up to
--max-link-depth links away. Attachments are copied under --attachment-dir
(default: <output>/attachments).

A manifest.yaml in the output directory records where each note was
written. Notes unchanged since the last export are skipped unless --force
is given. A note that cannot be converted is reported and counted; it
never stops the rest of the folder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindRenderFlags(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Folder == "" {
			return fmt.Errorf("--folder is required")
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = cfg.Folder
		}

		ctx := cmd.Context()
		store, account, err := openAccount(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		folder, err := store.FolderByName(ctx, cfg.Folder)
		if err != nil {
			return fmt.Errorf("resolving folder %q: %w", cfg.Folder, err)
		}

		result, err := convert.NewExporter(store, account, cfg, cmd.OutOrStdout()).ExportFolder(ctx, folder)
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return fmt.Errorf("%d of %d notes failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("folder", "", "folder whose notes are exported")
	exportCmd.Flags().StringP("output", "o", "", "output directory (default: the folder name)")
	exportCmd.Flags().Bool("frontmatter", false, "prepend YAML frontmatter to Markdown notes")
	exportCmd.Flags().Bool("force", false, "re-export notes the manifest shows as unchanged")
	addRenderFlags(exportCmd)

	viper.BindPFlag("folder", exportCmd.Flags().Lookup("folder"))
	viper.BindPFlag("output_dir", exportCmd.Flags().Lookup("output"))
	viper.BindPFlag("frontmatter", exportCmd.Flags().Lookup("frontmatter"))
	viper.BindPFlag("force", exportCmd.Flags().Lookup("force"))

	rootCmd.AddCommand(exportCmd)
}

// addRenderFlags registers the flags shared by every command that converts
// notes.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "markdown", "output format: markdown or html")
	cmd.Flags().String("attachment-dir", "", "directory receiving attachment copies")
	cmd.Flags().Bool("omit-first-line", false, "drop the first line of each note (usually the title)")
	cmd.Flags().Bool("include-handwriting", false, "render handwriting summaries above drawings")
	cmd.Flags().Int("max-link-depth", convert.DefaultMaxLinkDepth, "how many note links to follow from the starting notes")

}

// bindRenderFlags binds the render flags of the running command. Several
// commands define them, so binding happens when one of them runs.
func bindRenderFlags(cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"render.format":              "format",
		"render.attachment_dir":      "attachment-dir",
		"render.omit_first_line":     "omit-first-line",
		"render.include_handwriting": "include-handwriting",
		"render.max_link_depth":      "max-link-depth",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}
