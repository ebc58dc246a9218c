// Command qs is the questsync CLI: a habit-tracker sync client that keeps a
// local quest cache reconciled with a spreadsheet-style backend.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
