package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/config"
	"github.com/a3tai/pdf-page-purge/internal/logging"
	"github.com/a3tai/pdf-page-purge/internal/mcp"
	"github.com/a3tai/pdf-page-purge/internal/pdf"
	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
	"github.com/a3tai/pdf-page-purge/internal/purge"
	"github.com/a3tai/pdf-page-purge/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK          = 0
	exitAttention   = 1
	exitCannotStart = 2
	exitInterrupted = 130
)

// handleSignals cancels ctx on SIGINT or SIGTERM. The batch stops before
// the next file; the file being processed is finished first.
func handleSignals(cancel context.CancelFunc, logger *zap.Logger) func() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-signalCh:
			logger.Warn("received signal, stopping after the current file", zap.String("signal", sig.String()))
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(signalCh)
		close(done)
	}
}

// runBatchMode processes every PDF in the configured directory once and
// returns the process exit code.
func runBatchMode(ctx context.Context, cfg *config.Config, newEngine purge.EngineFactory,
	logger *zap.Logger, out io.Writer,
) int {
	search := pdf.NewSearch(cfg.MaxFileSize)

	files, err := search.FindPDFs(cfg.InputDir, cfg.Recursive, cfg.OutputDir)
	if err != nil {
		logger.Error("cannot list input files", zap.String("dir", cfg.InputDir), zap.Error(err))
		return exitCannotStart
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No PDF files found in %s\n", cfg.InputDir)
		return exitCannotStart
	}

	runner, err := purge.NewBatchRunner(newEngine,
		purge.WithFileValidator(search.Validator()),
		purge.WithLogger(logger),
		purge.WithProgress(func(result purge.FileResult) {
			_ = report.WriteFileLine(out, result)
		}))
	if err != nil {
		logger.Error("cannot create batch runner", zap.Error(err))
		return exitCannotStart
	}

	summary, err := runner.Run(ctx, files, cfg.PurgeOptions())
	if err != nil {
		logger.Error("batch could not start", zap.Error(err))
		return exitCannotStart
	}

	fmt.Fprintln(out)
	_ = report.WriteSummary(out, summary)

	return exitCode(summary)
}

// runStdioMode serves the MCP tools until stdin closes or ctx is done
func runStdioMode(ctx context.Context, cfg *config.Config, newEngine purge.EngineFactory, logger *zap.Logger) int {
	server, err := mcp.NewServer(cfg, newEngine, logger)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return exitCannotStart
	}

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return exitAttention
	}
	return exitOK
}

func exitCode(summary *purge.Summary) int {
	switch {
	case summary.Interrupted:
		return exitInterrupted
	case summary.NeedsAttention() > 0:
		return exitAttention
	default:
		return exitOK
	}
}

func run() int {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitCannotStart
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return exitCannotStart
	}
	defer func() { _ = logger.Sync() }()

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		logger.Debug("starting", zap.String("config", cfg.String()))
	}

	factory := wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
		PreferredLibrary: wrapper.LibraryPDFCPU,
		TextMode:         wrapper.TextMode(cfg.TextMode),
		Logger:           logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopSignals := handleSignals(cancel, logger)
	defer stopSignals()

	if cfg.IsStdioMode() {
		return runStdioMode(ctx, cfg, factory.CreateDefault, logger)
	}
	return runBatchMode(ctx, cfg, factory.CreateDefault, logger, os.Stdout)
}

func main() {
	os.Exit(run())
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Page Purge\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
