package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendonchen/questsync/internal/sheet"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local sheet backend",
	Long: `Run the reference sheet backend over a local sqlite row store.

This is the self-hosted equivalent of the spreadsheet web app: GET serves
today's envelope, POST upserts today's row. Point the client at it with

  QS_ENDPOINT=http://localhost:8090 qs sync`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "[sheet] ", log.LstdFlags)

		store, err := sheet.Open(cfg.SheetDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening sheet database: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		srv := &http.Server{
			Addr:         serveAddr,
			Handler:      sheet.NewServer(store, logger).Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		total, _ := store.TotalDays()
		fmt.Printf("Sheet backend listening on %s (%d days recorded, db %s)\n", serveAddr, total, cfg.SheetDBPath)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Error running backend: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8090", "listen address")
	rootCmd.AddCommand(serveCmd)
}
