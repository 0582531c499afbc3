package pdf

import (
	"encoding/json"

	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
)

// Request Types

// ScanFileRequest asks for the fields of a PDF form
type ScanFileRequest struct {
	Path string `json:"path"`
}

// FillFileRequest asks to fill a form and write the result.
// Flatten and Appearances fall back to the configured defaults when nil.
type FillFileRequest struct {
	Path        string         `json:"path"`
	OutputPath  string         `json:"output_path,omitempty"`
	Values      map[string]any `json:"values"`
	Mode        string         `json:"mode,omitempty"`
	Flatten     *bool          `json:"flatten,omitempty"`
	Appearances *bool          `json:"appearances,omitempty"`
	// Styles are applied by field name before the values are filled
	Styles map[string]widget.StyleOverride `json:"styles,omitempty"`
}

// DrawFileRequest asks to draw instructions onto the pages of a PDF.
// Instructions is a JSON object keyed by 1-based page number.
type DrawFileRequest struct {
	Path         string          `json:"path"`
	OutputPath   string          `json:"output_path,omitempty"`
	Instructions json.RawMessage `json:"instructions"`
}

// RegisterFontRequest asks to register a TrueType file under a name
type RegisterFontRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ValidateFileRequest asks whether a file is a readable PDF
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// FieldInfo describes one scanned widget
type FieldInfo struct {
	Name     string      `json:"name"`
	Kind     widget.Kind `json:"kind"`
	Page     int         `json:"page"`
	Rect     widget.Rect `json:"rect"`
	Value    any         `json:"value,omitempty"`
	ReadOnly bool        `json:"read_only,omitempty"`
	Font     string      `json:"font,omitempty"`
	FontSize float64     `json:"font_size,omitempty"`

	MaxLength   int      `json:"max_length,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
	Comb        bool     `json:"comb,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	OptionCount int      `json:"option_count,omitempty"`
}

// ScanFileResult lists the fields of a form
type ScanFileResult struct {
	Path     string      `json:"path"`
	Pages    int         `json:"pages"`
	HasForm  bool        `json:"has_form"`
	Fields   []FieldInfo `json:"fields"`
	Warnings []string    `json:"warnings,omitempty"`
}

// WriteResult describes a produced document
type WriteResult struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path"`
	Pages      int      `json:"pages"`
	Size       int64    `json:"size"`
	Warnings   []string `json:"warnings,omitempty"`
}

// RegisterFontResult reports whether a font became usable
type RegisterFontResult struct {
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
}

// ValidateFileResult is the outcome of a validation
type ValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// FileInfo describes a file found in the served directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName            string                   `json:"server_name"`
	Version               string                   `json:"version"`
	Directory             string                   `json:"directory"`
	MaxFileSize           int64                    `json:"max_file_size"`
	AvailableTools        []ToolInfo               `json:"available_tools"`
	Forms                 []FileInfo               `json:"forms"`
	FontFiles             []FileInfo               `json:"font_files,omitempty"`
	RegisteredFonts       []fontfit.RegisteredFont `json:"registered_fonts"`
	Truncated             bool                     `json:"truncated,omitempty"`
	UsageGuidance         string                   `json:"usage_guidance"`
	SupportedImageFormats []string                 `json:"supported_image_formats"`
}
