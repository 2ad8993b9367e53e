// Package mcp parses MCP command flags and starts the inspection MCP server
// on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/mcp"
	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/service"
	"github.com/openclaims/fieldgate/internal/inspection/storage/sqlite"
	entrypoint "github.com/openclaims/fieldgate/internal/platform/cmd"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath    string `env:"FIELDGATE_DB_PATH" envDefault:"fieldgate.sqlite"`
	Transport string `env:"FIELDGATE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string `env:"FIELDGATE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		svc := service.New(store, service.WithAuditEmitter(audit.NewEmitter(store)))

		switch cfg.Transport {
		case "stdio":
			return mcp.Run(ctx, svc)
		case "http":
			server, err := mcp.New(svc)
			if err != nil {
				return err
			}
			return server.ServeHTTP(ctx, cfg.HTTPAddr)
		default:
			return fmt.Errorf("unknown transport %q", cfg.Transport)
		}
	})
}
