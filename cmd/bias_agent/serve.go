package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/db"
	"github.com/jonathan/bias-detector/internal/history"
	"github.com/jonathan/bias-detector/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort      int
	serveInclusive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server that exposes analysis sessions and history over REST. " +
		"History is stored in PostgreSQL when DATABASE_URL is set, in memory otherwise.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveInclusive, "inclusive", false, "Start new sessions in inclusive mode")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	if servePort != 0 {
		st.cfg.Port = servePort
	}

	var store history.Store
	if st.cfg.DatabaseURL != "" {
		ctx := context.Background()
		database, err := db.Connect(ctx, st.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		store = db.NewHistoryStore(database)
		log.Printf("[server] history stored in PostgreSQL")
	} else {
		store = history.NewMemoryStore()
		log.Printf("[server] DATABASE_URL not set, history is kept in memory")
	}

	srv, err := server.New(server.Config{
		Port:          st.cfg.ListenPort(),
		Catalogs:      catalog.NewHolder(st.catalog),
		CatalogPath:   st.cfg.CatalogPath,
		Scorer:        st.scorer,
		History:       store,
		InclusiveMode: serveInclusive || st.cfg.InclusiveMode,
		Verbose:       st.cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
