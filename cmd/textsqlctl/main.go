package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/textsql/textsql/internal/cli/textsqlctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("TEXTSQL_CLI_TIMEOUT")), 30*time.Second)
	options := textsqlctl.Options{
		BaseURL:  envOr("TEXTSQL_API_URL", "http://localhost:8080"),
		Database: strings.TrimSpace(os.Getenv("TEXTSQL_CLI_DATABASE")),
		Timeout:  timeout,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}

	code := textsqlctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid TEXTSQL_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
