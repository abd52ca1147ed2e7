// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		folders, err := store.Folders(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Account: %s\n", account.Name)
		for _, f := range folders {
			fmt.Fprintf(out, "%6d  %s\n", f.PK, f.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(foldersCmd)
}
