// Command api runs the ledger's HTTP API server.
//
// Usage:
//
//	# Development (defaults)
//	go run cmd/api/main.go
//
//	# With a config file
//	go run cmd/api/main.go -config ./configs
//
//	# With environment variables only
//	LEDGER_DATABASE_HOST=localhost \
//	LEDGER_SERVER_PORT=3000 \
//	go run cmd/api/main.go -env-only
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wallethub/ledger/internal/config"
	"github.com/wallethub/ledger/internal/container"
)

// Build-time variables, set via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "./configs", "path to config directory")
	configName := flag.String("config-name", "config", "config file name, without extension")
	envOnly := flag.Bool("env-only", false, "load config only from environment variables")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wallethub-ledger %s (build %s, commit %s)\n", version, buildTime, gitCommit)
		os.Exit(0)
	}

	// A local .env is a development convenience only; its absence is not
	// an error, and nothing here depends on it in a real deployment where
	// environment variables are set by the orchestrator.
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if *envOnly {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath, *configName)
	}
	if err != nil {
		log.Printf("warning: failed to load config: %v", err)
		log.Printf("falling back to development defaults")
		cfg = config.Development()
	}

	cfg.App.Version = version
	cfg.App.BuildTime = buildTime
	cfg.App.GitCommit = gitCommit

	c := container.New(cfg)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()
	if err := c.Initialize(initCtx); err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	if err := c.Run(); err != nil {
		c.Logger().Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		c.Logger().Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
