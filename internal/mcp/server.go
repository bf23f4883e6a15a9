package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-page-purge/internal/config"
	"github.com/a3tai/pdf-page-purge/internal/descriptions"
	"github.com/a3tai/pdf-page-purge/internal/pdf"
	"github.com/a3tai/pdf-page-purge/internal/pdf/security"
	"github.com/a3tai/pdf-page-purge/internal/purge"
	"github.com/a3tai/pdf-page-purge/internal/report"
)

// Server exposes the page purge engine as MCP tools. Every directory a caller
// names must lie within the configured input directory.
type Server struct {
	config    *config.Config
	paths     *security.PathValidator
	search    *pdf.Search
	runner    *purge.BatchRunner
	logger    *zap.Logger
	mcpServer *server.MCPServer

	// one batch at a time
	mu sync.Mutex
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, newEngine purge.EngineFactory, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if newEngine == nil {
		return nil, fmt.Errorf("engine factory cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := security.NewPathValidator(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}

	search := pdf.NewSearch(cfg.MaxFileSize)
	runner, err := purge.NewBatchRunner(newEngine,
		purge.WithFileValidator(search.Validator()),
		purge.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		paths:     paths,
		search:    search,
		runner:    runner,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfListFilesTool := mcp.NewTool(
		descriptions.ToolListFiles,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolListFiles)),
		mcp.WithString("directory",
			mcp.Description("Directory to list, relative to the root or absolute within it (root if empty)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Include PDF files in subdirectories"),
		),
	)
	s.mcpServer.AddTool(pdfListFilesTool, s.handlePDFListFiles)

	pdfScanPagesTool := mcp.NewTool(
		descriptions.ToolScanPages,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolScanPages)),
		mcp.WithString("phrase",
			mcp.Required(),
			mcp.Description("Phrase to look for, case-insensitive"),
		),
		mcp.WithString("directory",
			mcp.Description("Directory to scan, relative to the root or absolute within it (root if empty)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Include PDF files in subdirectories"),
		),
	)
	s.mcpServer.AddTool(pdfScanPagesTool, s.handlePDFScanPages)

	pdfPurgePagesTool := mcp.NewTool(
		descriptions.ToolPurgePages,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolPurgePages)),
		mcp.WithString("phrase",
			mcp.Required(),
			mcp.Description("Phrase to look for, case-insensitive"),
		),
		mcp.WithString("directory",
			mcp.Description("Directory to process, relative to the root or absolute within it (root if empty)"),
		),
		mcp.WithString("output_directory",
			mcp.Description("Write results here instead of replacing the sources; must be within the root"),
		),
		mcp.WithString("write_mode",
			mcp.Description("replace (default), overwrite or outdir"),
			mcp.Enum(string(purge.WriteModeReplace), string(purge.WriteModeOverwrite), string(purge.WriteModeOutputDir)),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Include PDF files in subdirectories"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Only report what would be removed"),
		),
	)
	s.mcpServer.AddTool(pdfPurgePagesTool, s.handlePDFPurgePages)
}

// Handler functions
func (s *Server) handlePDFListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory, err := s.directoryArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.search.SearchDirectory(pdf.PDFSearchDirectoryRequest{
		Directory: directory,
		Recursive: boolArg(args, "recursive", s.config.Recursive),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in directory: %s", result.Directory)), nil
	}
	return mcp.NewToolResultText(s.formatPDFListFilesResult(result)), nil
}

func (s *Server) handlePDFScanPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phrase, err := request.RequireString("phrase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	directory, err := s.directoryArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.runBatch(ctx, directory, boolArg(args, "recursive", s.config.Recursive), purge.Options{
		Phrase:      phrase,
		Destination: purge.Destination{Mode: purge.WriteModeReplace},
		DryRun:      true,
	}), nil
}

func (s *Server) handlePDFPurgePages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phrase, err := request.RequireString("phrase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	directory, err := s.directoryArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dest := purge.Destination{Mode: purge.WriteMode(stringArg(args, "write_mode", s.config.WriteMode))}
	if out := stringArg(args, "output_directory", ""); out != "" {
		outDir, err := s.paths.NormalizePath(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid output directory: %v", err)), nil
		}
		dest = purge.Destination{Mode: purge.WriteModeOutputDir, OutputDir: outDir}
	} else if dest.Mode == purge.WriteModeOutputDir {
		if s.config.OutputDir == "" {
			return mcp.NewToolResultError("outdir mode requires output_directory"), nil
		}
		dest.OutputDir = s.config.OutputDir
	}
	if err := dest.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.runBatch(ctx, directory, boolArg(args, "recursive", s.config.Recursive), purge.Options{
		Phrase:      phrase,
		Destination: dest,
		DryRun:      boolArg(args, "dry_run", false),
	}), nil
}

// runBatch enumerates directory and runs one batch over it. Calls are
// serialised so two batches never touch the same files at once.
func (s *Server) runBatch(ctx context.Context, directory string, recursive bool, opts purge.Options) *mcp.CallToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.search.FindPDFs(directory, recursive, opts.Destination.OutputDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in directory: %s", directory))
	}

	summary, err := s.runner.Run(ctx, files, opts)
	if err != nil {
		s.logger.Error("batch could not start", zap.String("directory", directory), zap.Error(err))
		return mcp.NewToolResultError(err.Error())
	}

	return mcp.NewToolResultText(report.Format(summary))
}

// directoryArg resolves the optional "directory" argument against the root
func (s *Server) directoryArg(args map[string]any) (string, error) {
	dir := stringArg(args, "directory", "")
	if dir == "" {
		return s.paths.Root(), nil
	}
	return s.paths.ResolveDirectory(dir)
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return fallback
	}
}

// Formatting methods
func (s *Server) formatPDFListFilesResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.Recursive {
		text += "Subdirectories included\n"
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		if file.ModifiedTime != "" {
			text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		}
		if file.Problem != "" {
			text += fmt.Sprintf("   Will be skipped: %s\n", file.Problem)
		}
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

// Run serves MCP over stdin and stdout until ctx is done or stdin closes
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode",
		zap.String("root", s.paths.Root()),
		zap.String("version", s.config.Version))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("failed to serve stdio: %w", err)
}
