package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/brendonchen/questsync/internal/config"
	"github.com/brendonchen/questsync/internal/localstore"
	"github.com/brendonchen/questsync/internal/migrate"
	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/reconcile"
	"github.com/brendonchen/questsync/internal/remote"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "qs",
	Short: "Quest tracker sync client",
	Long: `qs keeps a local daily quest record synchronized with a
spreadsheet-style backend: one row per day, last write wins, daily reset at
the configured hour.

Configuration is read from ~/.questsync/questsync.yaml (override with
--config) and QS_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

// loadConfig loads settings or exits with a readable error.
func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadedRecord returns the state's quest record upgraded to the current
// schema. A state file written without a quest record (or by an older
// client) yields the migrated default instead of nil, so read-only commands
// can dereference it the same way the reconciler does.
func loadedRecord(state *localstore.State) *quest.Record {
	return migrate.Migrate(state.Quest, state.AppVersion)
}

// newReconciler wires the store, remote client and reconciler from config.
func newReconciler(cfg config.Config, logger *log.Logger, events reconcile.Events) (*reconcile.Reconciler, *localstore.FileStore) {
	store := localstore.NewFileStore(cfg.StatePath)
	client := remote.NewClient(cfg.Endpoint, logger)

	rcfg := reconcile.DefaultConfig()
	rcfg.Interval = cfg.SyncInterval
	rcfg.Debounce = cfg.Debounce
	rcfg.ResetHour = cfg.ResetHour
	rcfg.AppVersion = cfg.AppVersion
	rcfg.RequiredBackendVersion = cfg.RequiredBackendVersion
	rcfg.Logger = logger
	rcfg.Events = events

	return reconcile.New(store, client, rcfg), store
}
