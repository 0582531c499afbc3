package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/descriptions"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is fixed
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathOption := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("PDF file inside the served directory, absolute or relative to it"),
	)
	outputOption := mcp.WithString("output_path",
		mcp.Description("Where to write the result; defaults to a suffixed name next to the input"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_form_scan",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_scan")),
		pathOption,
	), s.handleFormScan)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_form_fill",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_fill")),
		pathOption,
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("Field values keyed by field name; a JSON-encoded object string is accepted too"),
		),
		mcp.WithString("mode",
			mcp.Description("simple (default) stores values in the fields, overlay draws them onto the pages"),
			mcp.Enum("simple", "overlay"),
		),
		mcp.WithBoolean("flatten",
			mcp.Description("Mark every field read-only after filling"),
		),
		mcp.WithBoolean("appearances",
			mcp.Description("Write appearance streams for filled text and dropdown fields (simple mode)"),
		),
		mcp.WithObject("styles",
			mcp.Description("Optional style overrides keyed by field name, applied before filling: font, font_size, "+
				"font_color, alignment, border_color, background_color, border_width, border_style, dash_array, "+
				"max_length, comb, multiline, read_only, button_style"),
		),
		outputOption,
	), s.handleFormFill)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_draw",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_draw")),
		pathOption,
		mcp.WithObject("instructions",
			mcp.Required(),
			mcp.Description("Instruction lists keyed by 1-based page number; a JSON-encoded object string is accepted too"),
		),
		outputOption,
	), s.handleDraw)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_register_font",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_register_font")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name to refer to the font by"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("TrueType (.ttf) file inside the served directory"),
		),
	), s.handleRegisterFont)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		pathOption,
	), s.handleValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	), s.handleServerInfo)
}

// Handler functions

func (s *Server) handleFormScan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ScanFile(pdf.ScanFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatScanResult(result)), nil
}

func (s *Server) handleFormFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	raw, err := objectArgument(args, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("values must be an object keyed by field name: %v", err)), nil
	}

	var styles map[string]widget.StyleOverride
	if _, present := args["styles"]; present {
		raw, err := objectArgument(args, "styles")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := json.Unmarshal(raw, &styles); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("styles must be an object keyed by field name: %v", err)), nil
		}
	}

	req := pdf.FillFileRequest{
		Path:        path,
		Values:      values,
		Mode:        stringArgument(args, "mode"),
		OutputPath:  stringArgument(args, "output_path"),
		Flatten:     boolArgument(args, "flatten"),
		Appearances: boolArgument(args, "appearances"),
		Styles:      styles,
	}
	result, err := s.pdfService.FillFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatWriteResult("Filled", result)), nil
}

func (s *Server) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	raw, err := objectArgument(args, "instructions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.DrawFileRequest{
		Path:         path,
		OutputPath:   stringArgument(args, "output_path"),
		Instructions: raw,
	}
	result, err := s.pdfService.DrawFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatWriteResult("Drew on", result)), nil
}

func (s *Server) handleRegisterFont(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.RegisterFontFile(pdf.RegisterFontRequest{Name: name, Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Registered {
		return mcp.NewToolResultError(fmt.Sprintf("font %s could not be registered: the file is not a usable TrueType font", name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Font %s registered and available to fill and draw requests", result.Name)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Argument helpers

// objectArgument returns the JSON form of an object argument, accepting
// clients that send the object as an encoded string
func objectArgument(args map[string]any, name string) (json.RawMessage, error) {
	value, ok := args[name]
	if !ok || value == nil {
		return nil, fmt.Errorf("required argument %q not found", name)
	}
	switch v := value.(type) {
	case string:
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("argument %q is not valid JSON", name)
		}
		return json.RawMessage(v), nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("argument %q cannot be encoded: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("argument %q must be an object", name)
}

func stringArgument(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

func boolArgument(args map[string]any, name string) *bool {
	switch v := args[name].(type) {
	case bool:
		return &v
	case string:
		b := strings.EqualFold(v, "true")
		return &b
	}
	return nil
}

// Formatting methods

func (s *Server) formatScanResult(result *pdf.ScanFileResult) string {
	text := fmt.Sprintf("Form: %s\n", result.Path)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	if !result.HasForm {
		text += "No AcroForm dictionary: the document has no fillable form\n"
	}
	text += fmt.Sprintf("Fields: %d\n", len(result.Fields))

	for i, f := range result.Fields {
		text += fmt.Sprintf("\n%d. %s (%s, page %d)\n", i+1, f.Name, f.Kind, f.Page)
		text += fmt.Sprintf("   Box: [%.1f %.1f %.1f %.1f]\n", f.Rect.X0, f.Rect.Y0, f.Rect.X1, f.Rect.Y1)
		if f.Value != nil {
			text += fmt.Sprintf("   Current value: %v\n", f.Value)
		}
		if f.Font != "" {
			text += fmt.Sprintf("   Font: %s", f.Font)
			if f.FontSize > 0 {
				text += fmt.Sprintf(" %.1fpt", f.FontSize)
			} else {
				text += " (auto size)"
			}
			text += "\n"
		}
		if f.MaxLength > 0 {
			text += fmt.Sprintf("   Max length: %d\n", f.MaxLength)
		}
		if f.Comb {
			text += "   Comb: one character per cell\n"
		}
		if f.Multiline {
			text += "   Multiline\n"
		}
		if len(f.Choices) > 0 {
			text += fmt.Sprintf("   Choices: %s\n", strings.Join(f.Choices, ", "))
		}
		if f.OptionCount > 0 {
			text += fmt.Sprintf("   Options: %d (value is the zero-based index)\n", f.OptionCount)
		}
		if f.ReadOnly {
			text += "   Read-only\n"
		}
	}

	text += formatWarnings(result.Warnings)
	return text
}

func (s *Server) formatWriteResult(verb string, result *pdf.WriteResult) string {
	text := fmt.Sprintf("%s %s\n", verb, result.Path)
	text += fmt.Sprintf("Output: %s\n", result.OutputPath)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += formatWarnings(result.Warnings)
	return text
}

func formatWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	text := fmt.Sprintf("\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		text += fmt.Sprintf("  • %s\n", w)
	}
	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Directory: %s\n", result.Directory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	if len(result.Forms) > 0 {
		text += fmt.Sprintf("📂 Forms (%d PDF files found):\n", len(result.Forms))
		for i, file := range result.Forms {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.Forms)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		if result.Truncated {
			text += "   (listing truncated)\n"
		}
		text += "\n"
	} else {
		text += "📂 Forms: No PDF files found in the directory\n\n"
	}

	text += "🔤 Registered Fonts:"
	if len(result.RegisteredFonts) == 0 {
		text += " none (standard fonts only)\n"
	} else {
		text += "\n"
		for _, f := range result.RegisteredFonts {
			text += fmt.Sprintf("  • %s (%s)\n", f.Name, f.Family)
		}
	}
	if len(result.FontFiles) > 0 {
		text += "Font files available to pdf_register_font:\n"
		for _, f := range result.FontFiles {
			text += fmt.Sprintf("  • %s\n", f.Path)
		}
	}

	text += "\n🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedImageFormats) > 0 {
		text += "\n🖼️  Supported Image Formats:\n"
		for _, format := range result.SupportedImageFormats {
			text += fmt.Sprintf("  • %s\n", format)
		}
	}

	text += "\n" + result.UsageGuidance
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	logging.Logger().Debug("starting PDF form server in stdio mode", "directory", s.config.PDFDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over server-sent events until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))
	logging.Logger().Info("starting PDF form server", "address", addr, "directory", s.config.PDFDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// MCPServer exposes the underlying server, mainly for in-process clients
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
