// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/notes-export/internal/convert"
)

var showCmd = &cobra.Command{
	Use:   "show <note-pk>",
	Short: "Print one converted note",
	Long: `Show converts the note with the given primary key and prints it to
stdout. Links to other notes point at the file names an export would use;
the linked notes themselves are not converted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("note key %q is not a number", args[0])
		}
		if err := bindRenderFlags(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, account, err := openAccount(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := convert.NewSession(store, account, cfg.Render).ConvertNote(ctx, pk)
		if err != nil {
			return err
		}
		if res.Misses > 0 {
			slog.WarnContext(ctx, "some attachments could not be rendered", "count", res.Misses)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Content)
		return nil
	},
}

func init() {
	addRenderFlags(showCmd)
	rootCmd.AddCommand(showCmd)
}
