package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/brendonchen/questsync/internal/dashboard"
	"github.com/brendonchen/questsync/internal/localstore"
	"github.com/brendonchen/questsync/internal/reconcile"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the long-lived sync loop:

  - reconciles with the backend on the configured interval
  - watches the local state file so edits from another qs process trigger an
    immediate reconcile pass
  - optionally serves a WebSocket dashboard broadcasting sync events

Stops cleanly on SIGINT/SIGTERM; any pending debounced write is canceled.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		logger := log.New(os.Stderr, "[daemon] ", log.LstdFlags)
		if cfg.LogFile != "" {
			logger.SetOutput(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
				Compress:   true,
			})
		}

		var events reconcile.Events
		var dash *dashboard.Server
		if cfg.DashboardPort > 0 {
			dash = dashboard.NewServer(&dashboard.Config{Port: cfg.DashboardPort, Logger: logger})
			if err := dash.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer func() {
				if err := dash.Stop(); err != nil {
					logger.Printf("dashboard stop: %v", err)
				}
			}()
			events = dashboard.NewHandler(dash, logger)
			fmt.Printf("Dashboard: ws://%s/ws\n", dash.Addr())
		}

		r, store := newReconciler(cfg, logger, events)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watcher, err := localstore.NewWatcher(store.Path())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
			os.Exit(1)
		}
		// The watched directory must exist before Start; first run creates it
		// via the initial sync's save, so seed it here.
		if err := os.MkdirAll(filepath.Dir(store.Path()), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating state directory: %v\n", err)
			os.Exit(1)
		}
		if err := watcher.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-watcher.Changes():
					// Another process rewrote the cache; reconcile now. The
					// in-flight guard drops the pass when one is running, and
					// a pass that changes nothing skips its save, so our own
					// writes cannot keep the loop fed.
					if err := r.Sync(ctx); err != nil {
						logger.Printf("watcher-triggered sync failed: %v", err)
					}
				}
			}
		}()

		logger.Printf("daemon started (interval %v, state %s)", cfg.SyncInterval, store.Path())
		fmt.Printf("Sync daemon running. Press Ctrl-C to stop.\n")

		if err := r.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error running daemon: %v\n", err)
			os.Exit(1)
		}
		logger.Printf("daemon stopped")
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
