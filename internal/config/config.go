package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-page-purge/internal/pdf/wrapper"
	"github.com/a3tai/pdf-page-purge/internal/purge"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Log formats
	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	// Default values
	DefaultLogLevel    = "info"
	DefaultLogFormat   = LogFormatConsole
	DefaultWriteMode   = string(purge.WriteModeReplace)
	DefaultTextMode    = string(wrapper.TextModePlain)
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = purge.DefaultDirPerm

	// EnvPrefix prefixes every environment variable, e.g. PDF_PURGE_PHRASE
	EnvPrefix = "PDF_PURGE"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for a page purge run
type Config struct {
	Mode string // "batch" or "stdio"

	// Purge configuration
	Phrase      string
	InputDir    string
	OutputDir   string
	WriteMode   string
	TextMode    string
	Recursive   bool
	DryRun      bool
	MaxFileSize int64 // Maximum PDF file size in bytes

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeBatch,
		WriteMode:   DefaultWriteMode,
		TextMode:    DefaultTextMode,
		MaxFileSize: DefaultMaxFileSize,
		Version:     "1.0.0",
		ServerName:  "pdf-page-purge",
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// LoadFromFlags parses command line flags, the environment and an optional
// config file, and returns a validated configuration. Flags take precedence
// over the environment, which takes precedence over the config file.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)
	cfg.expandPaths()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("phrase", cfg.Phrase)
	viper.SetDefault("dir", cfg.InputDir)
	viper.SetDefault("output-dir", cfg.OutputDir)
	viper.SetDefault("write-mode", cfg.WriteMode)
	viper.SetDefault("text-mode", cfg.TextMode)
	viper.SetDefault("recursive", cfg.Recursive)
	viper.SetDefault("dry-run", cfg.DryRun)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("log-format", cfg.LogFormat)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to process a directory once, 'stdio' for an MCP server")
	pflag.StringP("phrase", "p", cfg.Phrase, "Pages whose text contains this phrase (case-insensitive) are removed")
	pflag.StringP("dir", "d", cfg.InputDir, "Directory containing the PDF files to process")
	pflag.StringP("output-dir", "o", cfg.OutputDir, "Write results here instead of replacing the sources")
	pflag.String("write-mode", cfg.WriteMode, "How results are written: replace, overwrite or outdir")
	pflag.String("text-mode", cfg.TextMode, "Text extraction: 'plain' page text or 'rows' of words")
	pflag.BoolP("recursive", "r", cfg.Recursive, "Also process PDF files in subdirectories")
	pflag.Bool("dry-run", cfg.DryRun, "Report which pages would be removed without writing anything")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("log-format", cfg.LogFormat, "Log format (console, json)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("config", cfg.ConfigFile, "Optional YAML config file")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "phrase", "dir", "output-dir", "write-mode", "text-mode",
		"recursive", "dry-run", "loglevel", "log-format", "maxfilesize", "config",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Page Purge - removes every page containing a phrase from a folder of PDF files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/scans --phrase=\"Information Missing\"         "+
			"# replace files in place\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/scans --phrase=DRAFT --output-dir=/clean     "+
			"# keep sources, write to /clean\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/scans --phrase=DRAFT --dry-run -r            "+
			"# report only, include subfolders\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/scans                           "+
			"# MCP server over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_PHRASE       Phrase to match\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_DIR          Input directory\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_OUTPUT_DIR   Output directory\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_WRITE_MODE   Write mode\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOGLEVEL     Log level\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "\nExit status: 0 done, 1 some files need attention, "+
			"2 could not start, 130 interrupted\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// readConfigFile loads the file named by --config, if any
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Phrase = viper.GetString("phrase")
	cfg.InputDir = viper.GetString("dir")
	cfg.OutputDir = viper.GetString("output-dir")
	cfg.WriteMode = viper.GetString("write-mode")
	cfg.TextMode = viper.GetString("text-mode")
	cfg.Recursive = viper.GetBool("recursive")
	cfg.DryRun = viper.GetBool("dry-run")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFormat = viper.GetString("log-format")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.ConfigFile = viper.GetString("config")
}

func (c *Config) expandPaths() {
	if c.InputDir != "" {
		if expandedPath, err := filepath.Abs(c.InputDir); err == nil {
			c.InputDir = expandedPath
		}
	}
	if c.OutputDir != "" {
		if expandedPath, err := filepath.Abs(c.OutputDir); err == nil {
			c.OutputDir = expandedPath
		}
	}
}

// Validate checks if the configuration is valid. A non-empty OutputDir
// selects outdir write mode. The output directory is created unless this is
// a dry run.
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.InputDir == "" {
		return errors.New("input directory is required (--dir)")
	}
	info, err := os.Stat(c.InputDir)
	if err != nil {
		return fmt.Errorf("cannot access input directory %s: %w", c.InputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", c.InputDir)
	}

	if c.Mode == ModeBatch && strings.TrimSpace(c.Phrase) == "" {
		return errors.New("phrase is required in batch mode (--phrase)")
	}

	if c.OutputDir != "" {
		c.WriteMode = string(purge.WriteModeOutputDir)
	}
	if err := c.Destination().Validate(); err != nil {
		return err
	}

	if err := wrapper.ValidateTextMode(wrapper.TextMode(c.TextMode)); err != nil {
		return err
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: console, json)", c.LogFormat)
	}

	if c.OutputDir != "" && !c.DryRun {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	}

	return nil
}

// Destination returns the destination specification for the runner
func (c *Config) Destination() purge.Destination {
	return purge.Destination{
		Mode:      purge.WriteMode(c.WriteMode),
		OutputDir: c.OutputDir,
	}
}

// PurgeOptions returns the runner options described by the configuration
func (c *Config) PurgeOptions() purge.Options {
	return purge.Options{
		Phrase:      c.Phrase,
		Destination: c.Destination(),
		DryRun:      c.DryRun,
	}
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Phrase: %q, InputDir: %s, OutputDir: %s, WriteMode: %s, "+
		"TextMode: %s, Recursive: %t, DryRun: %t, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Phrase, c.InputDir, c.OutputDir, c.WriteMode,
		c.TextMode, c.Recursive, c.DryRun, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true for a one-shot run over a directory
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
