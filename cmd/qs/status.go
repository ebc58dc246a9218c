package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendonchen/questsync/internal/localstore"
	"github.com/brendonchen/questsync/internal/quest"
	"github.com/brendonchen/questsync/internal/rollover"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local quest state",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := localstore.NewFileStore(cfg.StatePath)

		state, err := store.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading state: %v\n", err)
			os.Exit(1)
		}
		if state == nil {
			fmt.Println("No local state yet. Run 'qs sync' first.")
			return
		}

		rec := loadedRecord(state)
		fmt.Printf("Player: %s\n", orDash(state.PlayerName))
		fmt.Printf("Total days: %d\n", state.TotalDays)
		if rec.LastUpdate != nil {
			fmt.Printf("Last update: %s", rec.LastUpdate.Local().Format(time.RFC3339))
			if rollover.ShouldReset(rec.LastUpdate, time.Now(), cfg.ResetHour) {
				fmt.Printf("  (stale, will reset on next access)")
			}
			fmt.Println()
		} else {
			fmt.Println("Last update: never (placeholder)")
		}

		fmt.Printf("Endpoint: %s\n", orDash(cfg.Endpoint))
		fmt.Println()
		fmt.Printf("STR  %s\n", taskSummary(rec.Str.DailyTasks))
		fmt.Printf("HP   water %.0f / %.0f cc\n", rec.HP.Water, rec.HP.WaterTarget)
		fmt.Printf("INT  %s\n", taskSummary(rec.Int.Tasks))
		fmt.Printf("MP   %s\n", taskSummary(rec.MP.Tasks))
		fmt.Printf("CRT  %s\n", taskSummary(rec.Crt.Tasks))
		if rec.Skl.Enabled {
			fmt.Printf("SKL  %s %s\n", checkbox(rec.Skl.Completed), rec.Skl.TaskName)
		}
	},
}

func taskSummary(tasks []quest.Task) string {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d tasks done", done, len(tasks))
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
