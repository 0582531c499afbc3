package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document/testpdf"
)

// call sends a JSON-RPC message through the MCP server and returns the
// encoded response
func call(t *testing.T, s *Server, id int, method string, params interface{}) string {
	t.Helper()
	msg := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}

	response := s.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
	return string(out)
}

func initialize(t *testing.T, s *Server) {
	t.Helper()
	resp := call(t, s, 0, "initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test-client", "version": "1.0.0"},
	})
	if !strings.Contains(resp, "test-server") {
		t.Fatalf("unexpected initialize response: %s", resp)
	}
}

func TestServerToolsRegistration(t *testing.T) {
	server, _ := newTestServer(t)
	initialize(t, server)

	resp := call(t, server, 1, "tools/list", nil)
	for _, tool := range []string{
		"pdf_form_scan",
		"pdf_form_fill",
		"pdf_draw",
		"pdf_register_font",
		"pdf_validate_file",
		"pdf_server_info",
	} {
		if !strings.Contains(resp, fmt.Sprintf("%q", tool)) {
			t.Errorf("tool %s not registered: %s", tool, resp)
		}
	}
}

func TestServerIntegration(t *testing.T) {
	server, tempDir := newTestServer(t)
	initialize(t, server)

	resp := call(t, server, 1, "tools/call", map[string]interface{}{
		"name":      "pdf_form_scan",
		"arguments": map[string]interface{}{"path": "form.pdf"},
	})
	if !strings.Contains(resp, testpdf.FieldSignature) {
		t.Fatalf("scan response lacks the signature field: %s", resp)
	}

	resp = call(t, server, 2, "tools/call", map[string]interface{}{
		"name": "pdf_form_fill",
		"arguments": map[string]interface{}{
			"path": "form.pdf",
			"values": map[string]interface{}{
				testpdf.FieldName:    "Grace Hopper",
				testpdf.FieldCode:    "ABC",
				testpdf.FieldCountry: "Canada",
			},
			"output_path": "filled.pdf",
		},
	})
	if strings.Contains(resp, `"isError":true`) {
		t.Fatalf("fill failed: %s", resp)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "filled.pdf")); err != nil {
		t.Fatalf("filled form not written: %v", err)
	}

	resp = call(t, server, 3, "tools/call", map[string]interface{}{
		"name":      "pdf_validate_file",
		"arguments": map[string]interface{}{"path": "filled.pdf"},
	})
	if !strings.Contains(resp, "valid and readable (2 pages)") {
		t.Errorf("filled form did not validate: %s", resp)
	}

	resp = call(t, server, 4, "tools/call", map[string]interface{}{
		"name":      "pdf_form_scan",
		"arguments": map[string]interface{}{"path": "filled.pdf"},
	})
	if !strings.Contains(resp, "Current value: Grace Hopper") {
		t.Errorf("filled value not read back: %s", resp)
	}
}
