package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, name := range flagNames {
		os.Unsetenv(envPrefix + "_" + strings.ToUpper(name))
	}
}

// withArgs runs LoadFromFlags with args and a clean environment
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})
	setArgs(append([]string{"mcp-pdf-filler"}, args...))
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	cfg, err := withArgs(t, "--dir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.DefaultFont != "Helvetica" || cfg.DefaultFontSize != 12 || cfg.MinFontSize != 2 {
		t.Errorf("LoadFromFlags() font defaults = %s %g %g", cfg.DefaultFont, cfg.DefaultFontSize, cfg.MinFontSize)
	}
	if cfg.Flatten || cfg.Appearances {
		t.Error("LoadFromFlags() flatten and appearances should default to false")
	}
	if cfg.CacheSize <= 0 {
		t.Errorf("LoadFromFlags() CacheSize = %d, want positive", cfg.CacheSize)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("unexpected server settings %s %s:%d", cfg.Mode, cfg.Host, cfg.Port)
				}
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom max file size",
			args: []string{"--maxfilesize=50000000"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.MaxFileSize != 50000000 {
					t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
				}
			},
		},
		{
			name: "font fitting",
			args: []string{"--font=Courier", "--fontsize=10", "--minfontsize=4", "--fontstep=0.5", "--linemargin=1"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.DefaultFont != "Courier" || cfg.DefaultFontSize != 10 || cfg.MinFontSize != 4 ||
					cfg.FontSizeStep != 0.5 || cfg.LineMargin != 1 {
					t.Errorf("unexpected font settings %+v", cfg)
				}
			},
		},
		{
			name: "fill defaults",
			args: []string{"--flatten", "--appearances", "--cachesize=0"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Flatten || !cfg.Appearances || cfg.CacheSize != 0 {
					t.Errorf("unexpected fill settings %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			cfg, err := withArgs(t, append(tt.args, "--dir="+t.TempDir())...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestLoadFromFlags_FontDirectory(t *testing.T) {
	clearEnvVars()
	fonts := t.TempDir()
	cfg, err := withArgs(t, "--dir="+t.TempDir(), "--fontdir="+fonts)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.FontDirectory != fonts {
		t.Errorf("FontDirectory = %s, want %s", cfg.FontDirectory, fonts)
	}

	if _, err := withArgs(t, "--dir="+t.TempDir(), "--fontdir=/non/existent/fonts"); err == nil {
		t.Error("LoadFromFlags() expected error for a missing font directory")
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("MCP_PDF_FILL_MODE", "server")
	t.Setenv("MCP_PDF_FILL_HOST", "192.168.1.1")
	t.Setenv("MCP_PDF_FILL_PORT", "3000")
	t.Setenv("MCP_PDF_FILL_DIR", tempDir)
	t.Setenv("MCP_PDF_FILL_LOGLEVEL", "warn")
	t.Setenv("MCP_PDF_FILL_MAXFILESIZE", "200000000")
	t.Setenv("MCP_PDF_FILL_FLATTEN", "true")
	t.Setenv("MCP_PDF_FILL_FONTSIZE", "9")

	cfg, err := withArgs(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.PDFDirectory != tempDir {
		t.Errorf("LoadFromFlags() PDFDirectory = %v, want %v", cfg.PDFDirectory, tempDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
	if !cfg.Flatten {
		t.Error("LoadFromFlags() Flatten should come from the environment")
	}
	if cfg.DefaultFontSize != 9 {
		t.Errorf("LoadFromFlags() DefaultFontSize = %v, want 9", cfg.DefaultFontSize)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("MCP_PDF_FILL_MODE", "server")
	t.Setenv("MCP_PDF_FILL_HOST", "192.168.1.1")
	t.Setenv("MCP_PDF_FILL_PORT", "3000")

	cfg, err := withArgs(t, "--mode=stdio", "--host=localhost", "--port=8888", "--dir="+t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--loglevel=invalid"}, "invalid log level"},
		{"minimum above default size", []string{"--fontsize=8", "--minfontsize=9"}, "exceeds default font size"},
		{"zero step", []string{"--fontstep=0"}, "font size step must be positive"},
		{"negative cache", []string{"--cachesize=-1"}, "cache size cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			_, err := withArgs(t, append(tt.args, "--dir="+t.TempDir())...)
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()
	_, err := withArgs(t, "--version")
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}
