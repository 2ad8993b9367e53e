package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "fieldgate.sqlite" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != "localhost:8081" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-db", "/tmp/claims.sqlite", "-transport", "http", "-http-addr", "127.0.0.1:9091"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/claims.sqlite" {
		t.Fatalf("expected db path override, got %q", cfg.DBPath)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected transport http, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != "127.0.0.1:9091" {
		t.Fatalf("expected http addr override, got %q", cfg.HTTPAddr)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("FIELDGATE_DB_PATH", "env.sqlite")
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "env.sqlite" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
}
