// Package main runs the companion service: it keeps the editable simulation
// configuration, proxies runs to the simulation service, and serves the REST
// API the editing frontend talks to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kmorwood/drawsim-companion/internal/api"
	"github.com/kmorwood/drawsim-companion/internal/config"
	"github.com/kmorwood/drawsim-companion/internal/session"
	"github.com/kmorwood/drawsim-companion/internal/simulator"
	"github.com/kmorwood/drawsim-companion/internal/storage"
	"github.com/kmorwood/drawsim-companion/internal/version"
	"github.com/kmorwood/drawsim-companion/internal/watch"
)

var (
	port         = flag.Int("port", 0, "API server port (overrides config)")
	dataDir      = flag.String("data-dir", "", "Data directory (default: ~/.drawsim-companion)")
	simulatorURL = flag.String("simulator-url", "", "Simulation service URL (overrides config)")
)

func main() {
	flag.Parse()

	fmt.Printf("Drawsim Companion %s\n", version.GetVersion())
	fmt.Println("=================")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *simulatorURL != "" {
		cfg.Simulator.BaseURL = *simulatorURL
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dir, err := cfg.DataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dir, "data.db")
	fmt.Printf("Database:  %s\n", dbPath)
	fmt.Printf("Simulator: %s\n", cfg.Simulator.BaseURL)

	dbConfig := storage.DefaultConfig(dbPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		log.Fatalf("Invalid request timeout: %v", err)
	}
	clientConfig := simulator.DefaultClientConfig(cfg.Simulator.BaseURL)
	clientConfig.Timeout = timeout
	clientConfig.MaxRetries = cfg.Simulator.MaxRetries
	clientConfig.RateLimit = cfg.Simulator.RateLimit
	client := simulator.NewClient(clientConfig)

	sess := session.New(client, db, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Data.WatchConfig {
		watcher := watch.New(sess.CurrentPath(), sess.ReloadFromDisk)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Printf("Configuration watcher stopped: %v", err)
			}
		}()
	}

	server := api.NewServer(&api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}, sess)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Println()
	fmt.Printf("API server running at http://localhost:%d\n", cfg.API.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	if cfg.Data.BackupOnExit {
		backupDir := filepath.Join(dir, "backups")
		path, err := storage.NewBackupManager(db).Backup(backupDir)
		if err != nil {
			log.Printf("Backup failed: %v", err)
		} else {
			fmt.Printf("Database backed up to %s\n", path)
		}
	}

	fmt.Println("Stopped.")
}
