package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var nameCmd = &cobra.Command{
	Use:   "name <player-name>",
	Short: "Set the player name",
	Long: `Set the player name and write it back to the backend immediately.

Use this to resolve a name conflict reported during sync: the chosen name is
persisted with a fresh timestamp so every device converges on it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r, _ := newReconciler(cfg, nil, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := r.ResolveNameConflict(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting name: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Player name set to %q\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(nameCmd)
}
