package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-filler/internal/form"
	"github.com/a3tai/mcp-pdf-filler/internal/form/appearance"
	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF_FILL"
)

// Config holds all configuration for the PDF form filler server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory  string
	FontDirectory string // TrueType fonts registered at startup, optional

	// Rendering configuration
	DefaultFont     string
	DefaultFontSize float64
	MinFontSize     float64
	FontSizeStep    float64
	LineMargin      float64
	Flatten         bool
	Appearances     bool
	CacheSize       int // memoized fill results, 0 disables the cache

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}
	fit := fontfit.DefaultOptions()

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		DefaultFont:     fit.DefaultFont,
		DefaultFontSize: fit.DefaultSize,
		MinFontSize:     fit.MinSize,
		FontSizeStep:    fit.Step,
		LineMargin:      fit.LineMargin,
		CacheSize:       appearance.DefaultCacheSize,
		Version:         "1.0.0",
		ServerName:      "mcp-pdf-filler",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
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

	populateConfigFromViper(cfg)

	for _, dir := range []*string{&cfg.PDFDirectory, &cfg.FontDirectory} {
		if *dir != "" {
			if expandedPath, err := filepath.Abs(*dir); err == nil {
				*dir = expandedPath
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flag names double as viper keys and, upper-cased, as environment suffixes
var flagNames = []string{
	"mode", "host", "port", "dir", "fontdir", "loglevel", "maxfilesize",
	"font", "fontsize", "minfontsize", "fontstep", "linemargin",
	"flatten", "appearances", "cachesize",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("fontdir", cfg.FontDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("font", cfg.DefaultFont)
	viper.SetDefault("fontsize", cfg.DefaultFontSize)
	viper.SetDefault("minfontsize", cfg.MinFontSize)
	viper.SetDefault("fontstep", cfg.FontSizeStep)
	viper.SetDefault("linemargin", cfg.LineMargin)
	viper.SetDefault("flatten", cfg.Flatten)
	viper.SetDefault("appearances", cfg.Appearances)
	viper.SetDefault("cachesize", cfg.CacheSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing forms, images and outputs")
	pflag.String("fontdir", cfg.FontDirectory, "Directory of .ttf fonts registered at startup")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF or image file size in bytes")
	pflag.String("font", cfg.DefaultFont, "Font used when a field names none")
	pflag.Float64("fontsize", cfg.DefaultFontSize, "Font size used when a field names none")
	pflag.Float64("minfontsize", cfg.MinFontSize, "Smallest size auto-sized text shrinks to")
	pflag.Float64("fontstep", cfg.FontSizeStep, "Decrement used while shrinking auto-sized text")
	pflag.Float64("linemargin", cfg.LineMargin, "Extra leading between lines of multiline text")
	pflag.Bool("flatten", cfg.Flatten, "Mark filled fields read-only by default")
	pflag.Bool("appearances", cfg.Appearances, "Write appearance streams for text and choice fields by default")
	pflag.Int("cachesize", cfg.CacheSize, "Number of fill results kept in memory (0 disables)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Filler - A Model Context Protocol server for filling and drawing on PDF forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                    "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/forms --fontdir=/forms/fonts     # register fonts at startup\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, name := range flagNames {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", envPrefix, strings.ToUpper(name))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.FontDirectory = viper.GetString("fontdir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.DefaultFont = viper.GetString("font")
	cfg.DefaultFontSize = viper.GetFloat64("fontsize")
	cfg.MinFontSize = viper.GetFloat64("minfontsize")
	cfg.FontSizeStep = viper.GetFloat64("fontstep")
	cfg.LineMargin = viper.GetFloat64("linemargin")
	cfg.Flatten = viper.GetBool("flatten")
	cfg.Appearances = viper.GetBool("appearances")
	cfg.CacheSize = viper.GetInt("cachesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.FontDirectory != "" {
		info, err := os.Stat(c.FontDirectory)
		if err != nil {
			return fmt.Errorf("cannot access font directory %s: %w", c.FontDirectory, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("font directory %s is not a directory", c.FontDirectory)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.DefaultFont == "" {
		return errors.New("default font cannot be empty")
	}
	if c.DefaultFontSize <= 0 {
		return errors.New("default font size must be positive")
	}
	if c.MinFontSize <= 0 {
		return errors.New("minimum font size must be positive")
	}
	if c.MinFontSize > c.DefaultFontSize {
		return fmt.Errorf("minimum font size %g exceeds default font size %g", c.MinFontSize, c.DefaultFontSize)
	}
	if c.FontSizeStep <= 0 {
		return errors.New("font size step must be positive")
	}
	if c.LineMargin < 0 {
		return errors.New("line margin cannot be negative")
	}
	if c.CacheSize < 0 {
		return errors.New("cache size cannot be negative")
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

	return nil
}

// FillerOptions returns the filler settings described by the configuration.
// A positive CacheSize gives the filler a fresh result cache.
func (c *Config) FillerOptions() form.Options {
	opts := form.DefaultOptions()
	opts.Fit = fontfit.Options{
		DefaultFont: c.DefaultFont,
		DefaultSize: c.DefaultFontSize,
		MinSize:     c.MinFontSize,
		Step:        c.FontSizeStep,
		LineMargin:  c.LineMargin,
	}
	opts.Flatten = c.Flatten
	opts.GenerateAppearances = c.Appearances
	if c.CacheSize > 0 {
		opts.Cache = appearance.NewCache(c.CacheSize)
	}
	return opts
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, FontDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, DefaultFont: %s, DefaultFontSize: %g, Flatten: %t, Appearances: %t, CacheSize: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.FontDirectory, c.LogLevel,
		c.MaxFileSize, c.DefaultFont, c.DefaultFontSize, c.Flatten, c.Appearances, c.CacheSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
