package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-cvassist-client/internal/app"
	"go-cvassist-client/internal/config"
	"go-cvassist-client/internal/telemetry"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cvassist [-config path] <command> [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("cvassist: ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("❌ Failed to load config: %v", err)
		return 1
	}

	//Ctrl-C cancels in-flight requests and polls
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.Setup(ctx, "cvassist", version)

	a, err := app.New(cfg, os.Stdout, app.WithInput(os.Stdin))
	if err != nil {
		log.Printf("❌ Failed to init client: %v", err)
		return 1
	}

	runErr := a.Run(ctx, flag.Args())

	if err := a.Close(); err != nil {
		log.Printf("⚠️ Failed to close session storage: %v", err)
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		log.Printf("⚠️ Failed to flush traces: %v", err)
	}

	switch {
	case runErr == nil:
		return 0
	case errors.Is(runErr, app.ErrUsage) && len(flag.Args()) == 0:
		return 2
	default:
		fmt.Fprintf(os.Stderr, "❌ %s\n", app.ErrorMessage(runErr))
		return 1
	}
}
