package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	inspectioncmd "github.com/openclaims/fieldgate/internal/cmd/inspection"
)

func main() {
	cfg, err := inspectioncmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[INSPECTION] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := inspectioncmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
