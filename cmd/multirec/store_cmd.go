// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/multirec/internal/config"
	mrlog "github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/store"
)

// Store subcommands persist configurations in a project database:
//
//	multirec save -config run.yaml -db project.db
//	multirec load -db project.db -id <config-id> -out run.yaml
//	multirec list -db project.db
//	multirec delete -db project.db -id <config-id>
func runStore(cmd string, cfg *config.RecordingConfiguration, dbPath, id, out string) int {
	logger := mrlog.WithComponent("cli")

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "multirec: store commands require -db")
		return 2
	}
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		logger.Error().Err(err).Str(mrlog.FieldPath, dbPath).Msg("open config store")
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("close config store")
		}
	}()

	ctx := context.Background()
	switch cmd {
	case "save":
		if cfg == nil {
			fmt.Fprintln(os.Stderr, "multirec: save requires -config")
			return 2
		}
		if err := st.Save(ctx, cfg); err != nil {
			logger.Error().Err(err).Str(mrlog.FieldConfigID, cfg.ID).Msg("save configuration")
			return 1
		}
		fmt.Println(cfg.ID)
		return 0

	case "load":
		if id == "" || out == "" {
			fmt.Fprintln(os.Stderr, "multirec: load requires -id and -out")
			return 2
		}
		loaded, err := st.Load(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str(mrlog.FieldConfigID, id).Msg("load configuration")
			return 1
		}
		if err := config.Export(loaded, out); err != nil {
			logger.Error().Err(err).Str(mrlog.FieldPath, out).Msg("write configuration")
			return 1
		}
		return 0

	case "list":
		ids, err := st.List(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("list configurations")
			return 1
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return 0

	case "delete":
		if id == "" {
			fmt.Fprintln(os.Stderr, "multirec: delete requires -id")
			return 2
		}
		if err := st.Delete(ctx, id); err != nil {
			logger.Error().Err(err).Str(mrlog.FieldConfigID, id).Msg("delete configuration")
			return 1
		}
		return 0
	}
	return 2
}
