// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/notes-export/internal/notestore"
	"github.com/pdiddy/notes-export/pkg/types"
)

// loadConfig merges config file, environment, and flags into an
// ExportConfig.
func loadConfig() (types.ExportConfig, error) {
	var cfg types.ExportConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if cfg.Render.Format == "" {
		cfg.Render.Format = types.OutputMarkdown
	}
	if !cfg.Render.Format.Valid() {
		return cfg, fmt.Errorf("unknown format %q (want markdown or html)", cfg.Render.Format)
	}
	return cfg, nil
}

// openAccount opens a snapshot of the Notes database and resolves the
// configured account. The caller closes the store.
func openAccount(ctx context.Context, cfg types.ExportConfig) (*notestore.Store, types.Account, error) {
	store, err := notestore.Open(ctx, cfg.Store)
	if errors.Is(err, notestore.ErrSourceMissing) {
		return nil, types.Account{}, fmt.Errorf("%w (is --data-dir correct, and does this process have Full Disk Access?)", err)
	}
	if err != nil {
		return nil, types.Account{}, err
	}

	account, err := store.ResolveAccount(ctx, cfg.Account)
	if err != nil {
		store.Close()
		return nil, types.Account{}, fmt.Errorf("resolving account %q: %w", cfg.Account, err)
	}
	return store, account, nil
}
