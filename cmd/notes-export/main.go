// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notes-export CLI. It reads a
// snapshot of the Apple Notes database and writes notes as Markdown or HTML.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logLevel is raised to Debug by --verbose.
var logLevel = &slog.LevelVar{}

// rootCmd is the base command for the notes-export CLI.
var rootCmd = &cobra.Command{
	Use:   "notes-export",
	Short: "Export Apple Notes to Markdown or HTML",
	Long: `notes-export reads a snapshot of the Apple Notes database and converts
notes into Markdown or HTML files. Formatting, checklists, tables, links
between notes, and attachments (images, scans, drawings) are preserved.

The live database is never opened: each run copies NoteStore.sqlite to a
temporary directory and reads the copy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			logLevel.Set(slog.LevelDebug)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./notes-export.yaml or ~/.config/notes-export/notes-export.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Notes data directory (default: ~/Library/Group Containers/group.com.apple.notes)")
	rootCmd.PersistentFlags().String("account", "", "Notes account name (default: first account)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")

	viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("account", rootCmd.PersistentFlags().Lookup("account"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("notes-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notes-export"))
		}
	}

	// NOTES_EXPORT_RENDER_FORMAT sets render.format.
	viper.SetEnvPrefix("NOTES_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	logLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      logLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})))
}

func main() {
	setupLogging()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
