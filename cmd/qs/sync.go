package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconcile pass against the backend",
	Long: `Run a single reconcile pass:

  1. Loads the local quest cache (resetting it if a new day began)
  2. Fetches the backend envelope
  3. Merges whichever side is newer
  4. Persists the result

Remote failures degrade to an offline pass; local state is never lost.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r, store := newReconciler(cfg, nil, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := time.Now()
		if err := r.Sync(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during sync: %v\n", err)
			os.Exit(1)
		}

		state, err := store.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading state: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Sync complete in %v\n", time.Since(start).Round(time.Millisecond))
		if state != nil {
			fmt.Printf("   Player: %s\n", orDash(state.PlayerName))
			fmt.Printf("   Total days: %d\n", state.TotalDays)
			fmt.Printf("   State: %s\n", store.Path())
		}
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
