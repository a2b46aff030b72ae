package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bpweber1/mission-control/internal/controlplane"
	"github.com/bpweber1/mission-control/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr  string
	dbPath      string
	databaseURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Mission Control API server",
	Long:  `Starts the HTTP API. Uses Postgres when a database URL is configured (flag or DATABASE_URL), otherwise a local SQLite file.`,
	RunE:  runServe,
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".mission-control", "mission-control.db")

	serveCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:3456", "Listen address for the API server")
	serveCmd.Flags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	serveCmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL (selects the Postgres engine)")
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := store.Open(databaseURL, dbPath)
	if err != nil {
		return err
	}

	// Schema init is fatal on failure: the server must not start serving
	// against a half-initialized database.
	if err := store.Init(db); err != nil {
		db.Close()
		return err
	}
	log.Printf("Database initialized (%s)", db.Engine())

	st := store.New(db)
	service := controlplane.NewService(st)
	server := controlplane.NewServer(service, st, listenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			st.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
