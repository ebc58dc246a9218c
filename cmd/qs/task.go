package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendonchen/questsync/internal/quest"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and complete daily tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's tasks by category",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, store := newReconciler(cfg, nil, nil)

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
		for _, cat := range []struct {
			name  string
			tasks []quest.Task
		}{
			{"str", rec.Str.DailyTasks},
			{"int", rec.Int.Tasks},
			{"mp", rec.MP.Tasks},
			{"crt", rec.Crt.Tasks},
		} {
			fmt.Printf("%s:\n", cat.name)
			for _, t := range cat.tasks {
				fmt.Printf("  %s %-20s %s\n", checkbox(t.Completed), t.ID, t.Name)
			}
		}
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <category> <task-id>",
	Short: "Mark a task completed",
	Long: `Mark a task completed and push the change to the backend.

Category is one of: str, int, mp, crt. The write is debounced like any other
mutation; the command flushes it before exiting.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		category, taskID := args[0], args[1]

		cfg := loadConfig()
		r, _ := newReconciler(cfg, nil, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		found := false
		err := r.Update(ctx, func(rec *quest.Record) {
			tasks := tasksFor(rec, category)
			if tasks == nil {
				return
			}
			for i := range *tasks {
				if (*tasks)[i].ID == taskID {
					(*tasks)[i].Completed = true
					found = true
					return
				}
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating task: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "Error: no task %q in category %q\n", taskID, category)
			os.Exit(1)
		}

		// The process is about to exit; do not leave the write in the
		// debounce window.
		r.Flush()
		fmt.Printf("Done: %s/%s\n", category, taskID)
	},
}

func tasksFor(rec *quest.Record, category string) *[]quest.Task {
	switch category {
	case "str":
		return &rec.Str.DailyTasks
	case "int":
		return &rec.Int.Tasks
	case "mp":
		return &rec.MP.Tasks
	case "crt":
		return &rec.Crt.Tasks
	default:
		return nil
	}
}

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	rootCmd.AddCommand(taskCmd)
}
