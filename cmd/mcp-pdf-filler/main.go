package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/mcp"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger. Logs always go to w, which is
// stderr in practice since stdout carries the MCP protocol in stdio mode.
// Stdio mode stays at warn unless debug is enabled.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		level = logging.ParseLevel(cfg.LogLevel)
		if cfg.IsStdioMode() && !cfg.IsDebug() && level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.IsServerMode() {
		opts.AddSource = level == slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, opts))
	logging.SetLogger(logger)
	return logger
}

// newServer wires the PDF service and the MCP server from cfg
func newServer(cfg *config.Config, logger *slog.Logger) (*mcp.Server, error) {
	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, cfg.FillerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF service: %w", err)
	}
	if err := pdfService.ValidateConfiguration(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	if cfg.FontDirectory != "" {
		n, err := pdfService.RegisterFontDir(cfg.FontDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to load fonts: %w", err)
		}
		logger.Info("registered fonts", "directory", cfg.FontDirectory, "count", n)
	}

	return mcp.NewServer(cfg, pdfService)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	server, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.IsServerMode() {
		logger.Info("starting server", "address", cfg.Address(), "version", cfg.Version)
	}
	if err := server.Run(ctx); err != nil {
		return err
	}
	if cfg.IsServerMode() {
		logger.Info("server stopped successfully")
	}
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg, os.Stderr)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}
	logger.Debug("starting with configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF Form Filler\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
