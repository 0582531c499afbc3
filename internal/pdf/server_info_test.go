package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/a3tai/mcp-pdf-filler/internal/form"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document/testpdf"
	"golang.org/x/image/font/gofont/goregular"
)

func TestServerInfo(t *testing.T) {
	tempDir := t.TempDir()
	files := map[string][]byte{
		"form.pdf":            testpdf.Form(),
		"archive/old.pdf":     testpdf.Blank(1),
		"fonts/GoRegular.ttf": goregular.TTF,
		".hidden/secret.pdf":  testpdf.Blank(1),
		"notes.txt":           []byte("not listed"),
	}
	for name, data := range files {
		path := filepath.Join(tempDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	maxFileSize := int64(100 * 1024 * 1024) // 100MB
	serverName := "test-pdf-server"
	version := "1.0.0-test"

	pdfService, err := NewService(maxFileSize, tempDir, form.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create PDF service: %v", err)
	}
	if _, err := pdfService.RegisterFontFile(RegisterFontRequest{Name: "Body", Path: "fonts/GoRegular.ttf"}); err != nil {
		t.Fatal(err)
	}

	result, err := pdfService.ServerInfo(context.Background(), serverName, version)
	if err != nil {
		t.Fatalf("Server info failed: %v", err)
	}

	if result.ServerName != serverName {
		t.Errorf("Expected server name %s, got %s", serverName, result.ServerName)
	}
	if result.Version != version {
		t.Errorf("Expected version %s, got %s", version, result.Version)
	}
	if result.Directory != tempDir {
		t.Errorf("Expected directory %s, got %s", tempDir, result.Directory)
	}
	if result.MaxFileSize != maxFileSize {
		t.Errorf("Expected max file size %d, got %d", maxFileSize, result.MaxFileSize)
	}

	expectedTools := []string{
		"pdf_form_scan",
		"pdf_form_fill",
		"pdf_draw",
		"pdf_register_font",
		"pdf_validate_file",
		"pdf_server_info",
	}
	if len(result.AvailableTools) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(result.AvailableTools))
	}
	toolMap := make(map[string]bool)
	for _, tool := range result.AvailableTools {
		toolMap[tool.Name] = true
		if tool.Description == "Tool description not available" {
			t.Errorf("Tool %s has no description", tool.Name)
		}
	}
	for _, name := range expectedTools {
		if !toolMap[name] {
			t.Errorf("Expected tool %s not found", name)
		}
	}

	if len(result.Forms) != 2 {
		t.Errorf("Expected 2 forms (hidden directory skipped), got %d: %+v", len(result.Forms), result.Forms)
	}
	if len(result.FontFiles) != 1 {
		t.Errorf("Expected 1 font file, got %d", len(result.FontFiles))
	}
	if len(result.RegisteredFonts) != 1 || result.RegisteredFonts[0].Name != "Body" {
		t.Errorf("Expected registered font Body, got %+v", result.RegisteredFonts)
	}
	if result.UsageGuidance == "" {
		t.Error("Expected usage guidance")
	}
	if len(result.SupportedImageFormats) == 0 {
		t.Error("Expected supported image formats")
	}
}

func TestServerInfo_Cached(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "a.pdf"), testpdf.Blank(1), 0o644); err != nil {
		t.Fatal(err)
	}
	pdfService, err := NewService(1024*1024, tempDir, form.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	first, err := pdfService.ServerInfo(context.Background(), "s", "v")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "b.pdf"), testpdf.Blank(1), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := pdfService.ServerInfo(context.Background(), "s", "v")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Forms) != 1 || len(second.Forms) != 1 {
		t.Errorf("Expected the cached listing to be reused, got %d then %d", len(first.Forms), len(second.Forms))
	}
}

func TestDirectoryCache(t *testing.T) {
	cache := NewDirectoryCache(time.Millisecond)

	if !cache.TryStartScan("/forms") {
		t.Fatal("first scan should start")
	}
	if cache.TryStartScan("/forms") {
		t.Error("concurrent scan should be refused")
	}
	cache.Set("/forms", &ScanResult{Forms: []FileInfo{{Name: "a.pdf"}}})
	cache.FinishScan("/forms")

	if got := cache.Get("/forms"); got != nil && !got.FromCache {
		t.Error("cached result should be marked FromCache")
	}

	time.Sleep(5 * time.Millisecond)
	if cache.Get("/forms") != nil {
		t.Error("expired entry should not be returned")
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected expired entries to be cleared, %d left", cache.Len())
	}
}

func TestDirectoryScanner_Limits(t *testing.T) {
	tempDir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "deep/one/two/d.pdf"} {
		path := filepath.Join(tempDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	limited, err := NewDirectoryScanner(0, 2, 0).Scan(context.Background(), tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited.Forms) != 2 || !limited.Truncated {
		t.Errorf("Expected 2 forms and truncation, got %d truncated=%v", len(limited.Forms), limited.Truncated)
	}

	shallow, err := NewDirectoryScanner(2, 0, 0).Scan(context.Background(), tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(shallow.Forms) != 3 {
		t.Errorf("Expected depth limit to skip the nested form, got %d", len(shallow.Forms))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDirectoryScanner(0, 0, 0).Scan(ctx, tempDir); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
