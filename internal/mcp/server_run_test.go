package mcp

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/form"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func newRunServer(t *testing.T, port int) *Server {
	t.Helper()
	tempDir := t.TempDir()
	cfg := &config.Config{
		Mode:         "server",
		Host:         "127.0.0.1",
		Port:         port,
		PDFDirectory: tempDir,
		LogLevel:     "info",
		MaxFileSize:  100 * 1024 * 1024,
		ServerName:   "test-server",
		Version:      "1.0.0",
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, tempDir, form.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create PDF service: %v", err)
	}
	server, err := NewServer(cfg, pdfService)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return server
}

func TestServer_Run_ServerMode(t *testing.T) {
	port := freePort(t)
	server := newRunServer(t, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	// wait for the listener
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", server.config.Address())
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never accepted connections: %v", err)
	}
	conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil after cancellation", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestServer_Run_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	server := newRunServer(t, l.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Run(ctx)
	if err == nil {
		t.Fatal("expected an error for a port already in use")
	}
	if !strings.Contains(err.Error(), "failed to serve") {
		t.Errorf("Run() error = %v, expected serve error", err)
	}
}

func TestServer_Run_ContextCancellation(t *testing.T) {
	server := newRunServer(t, freePort(t))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := server.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 6*time.Second {
		t.Errorf("Run() took %v to stop", elapsed)
	}
}

func TestServer_Run_NilConfig(t *testing.T) {
	pdfService, err := pdf.NewService(1024, t.TempDir(), form.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create PDF service: %v", err)
	}
	if _, err := NewServer(nil, pdfService); err == nil {
		t.Error("NewServer() expected error for nil config")
	}
}

func TestServer_Run_NilPDFService(t *testing.T) {
	cfg := &config.Config{Mode: "server", Host: "127.0.0.1", Port: 8080}
	if _, err := NewServer(cfg, nil); err == nil {
		t.Error("NewServer() expected error for nil PDF service")
	}
}
