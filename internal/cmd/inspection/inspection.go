// Package inspection parses inspection command flags and starts the JSON API
// service.
package inspection

import (
	"context"
	"flag"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/service"
	"github.com/openclaims/fieldgate/internal/inspection/storage/sqlite"
	"github.com/openclaims/fieldgate/internal/inspection/web"
	entrypoint "github.com/openclaims/fieldgate/internal/platform/cmd"
)

// Config holds inspection command configuration.
type Config struct {
	Addr   string `env:"FIELDGATE_HTTP_ADDR" envDefault:":8080"`
	DBPath string `env:"FIELDGATE_DB_PATH" envDefault:"fieldgate.sqlite"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the inspection API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceInspection, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		svc := service.New(store, service.WithAuditEmitter(audit.NewEmitter(store)))
		server, err := web.NewServer(web.Config{HTTPAddr: cfg.Addr}, svc)
		if err != nil {
			return err
		}
		return server.ListenAndServe(ctx)
	})
}
