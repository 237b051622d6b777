package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/portfolio"
	"github.com/eringen/portfolio/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("portfolio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := portfolio.ConfigFromEnv()
	app := portfolio.New(cfg, views.Default())

	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`portfolio - A project portfolio site with an admin panel

Usage:
  portfolio <command>

Commands:
  serve         Start the web server (configured from the environment / .env)
  version       Print the portfolio version
  help          Show this help message

Environment:
  DATABASE_API_URL, DATABASE_API_KEY      content API endpoint
  SESSION_SECRET, COOKIE_SECURE           admin sessions
  ADMIN_EMAIL, ADMIN_PASSWORD             login when no content API is set
  R2_ENDPOINT, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY,
  R2_BUCKET_NAME, R2_PUBLIC_URL           media storage
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR, ADDR
  AVATAR_LOOKUP_TIMEOUT, LOG_LEVEL, LOG_FORMAT`)
}
