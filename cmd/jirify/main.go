package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jirify/internal/app"
	"jirify/internal/config"
	"jirify/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		os.Stdout.WriteString("You need to specify a function to run. i.e. log_time\n")
		os.Exit(1)
	}
	method := os.Args[1]
	args := parseArgs(os.Args[2:])

	// Logger
	level := slog.LevelInfo
	if args.bool("verbose") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.New(logger, os.Stdout, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Close()

	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flush := app.Flush{
		Service: args.bool("flush_service") || args.bool("flush_all"),
		Jira:    args.bool("flush_jira") || args.bool("flush_all"),
	}

	switch method {
	case "log_time":
		opts := usecase.RunOptions{
			StartDate: args.string("start_date"),
			EndDate:   args.string("end_date"),
			DryRun:    args.bool("dry_run"),
		}
		if err := application.LogTime(ctx, opts, flush); err != nil {
			logger.Error("sync failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case "test":
		if err := application.Test(ctx, flush); err != nil {
			logger.Error("test failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		os.Stdout.WriteString("Method " + method + " does not exist.\n")
		os.Exit(1)
	}
}

// cliArgs holds the parsed --key=value pairs.
type cliArgs map[string]string

// parseArgs is a crude CLI parser: arguments not starting with `--`
// are ignored, `--key=value` splits on the first `=`, and a bare
// `--flag` is boolean true.
func parseArgs(raw []string) cliArgs {
	parsed := cliArgs{}
	for _, arg := range raw {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		arg = strings.TrimPrefix(arg, "--")
		key, value, found := strings.Cut(arg, "=")
		if key == "" {
			continue
		}
		if !found {
			value = "true"
		}
		parsed[key] = value
	}
	return parsed
}

func (a cliArgs) string(key string) string { return a[key] }

func (a cliArgs) bool(key string) bool {
	v, ok := a[key]
	return ok && v != "false" && v != ""
}
