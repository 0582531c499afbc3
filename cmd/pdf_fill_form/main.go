package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

const maxFileSize = 100 * 1024 * 1024

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one subcommand. Files are confined to the directory of the
// input PDF.
func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("command required")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "scan", "fill", "draw":
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", command)
	}

	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "Output format: text, json")
	fontDir := fs.String("fontdir", "", "Directory of TrueType fonts to register")
	verbose := fs.BoolP("verbose", "v", false, "Log engine warnings to stderr")
	output := fs.StringP("out", "o", "", "Output file (fill and draw)")
	dataFile := fs.StringP("data", "d", "", "JSON file of values (fill) or instructions (draw)")
	mode := fs.String("mode", "simple", "Fill mode: simple, overlay")
	flatten := fs.Bool("flatten", false, "Mark every field read-only after filling")
	appearances := fs.Bool("appearances", true, "Write appearance streams in simple mode")
	stylesFile := fs.String("styles", "", "JSON file of style overrides keyed by field name (fill)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s requires exactly one PDF file", command)
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("unsupported output format: %s", *format)
	}

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer logging.SetLogger(nil)
	}

	input, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.Appearances = *appearances
	service, err := pdf.NewService(maxFileSize, filepath.Dir(input), cfg.FillerOptions())
	if err != nil {
		return err
	}
	if *fontDir != "" {
		if _, err := service.RegisterFontDir(*fontDir); err != nil {
			return err
		}
	}

	var result any
	switch command {
	case "scan":
		result, err = service.ScanFile(pdf.ScanFileRequest{Path: input})
	case "fill":
		var raw []byte
		if raw, err = readData(*dataFile); err != nil {
			return err
		}
		var values map[string]any
		if err := json.Unmarshal(raw, &values); err != nil {
			return fmt.Errorf("values must be a JSON object keyed by field name: %w", err)
		}
		var styles map[string]widget.StyleOverride
		if *stylesFile != "" {
			rawStyles, err := os.ReadFile(*stylesFile)
			if err != nil {
				return fmt.Errorf("cannot read styles file: %w", err)
			}
			if err := json.Unmarshal(rawStyles, &styles); err != nil {
				return fmt.Errorf("styles must be a JSON object keyed by field name: %w", err)
			}
		}
		result, err = service.FillFile(pdf.FillFileRequest{
			Path:       input,
			Values:     values,
			Mode:       *mode,
			OutputPath: *output,
			Flatten:    flatten,
			Styles:     styles,
		})
	case "draw":
		var raw []byte
		if raw, err = readData(*dataFile); err != nil {
			return err
		}
		result, err = service.DrawFile(pdf.DrawFileRequest{
			Path:         input,
			Instructions: raw,
			OutputPath:   *output,
		})
	}
	if err != nil {
		return err
	}

	if *format == "json" {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	printText(stdout, result)
	return nil
}

func readData(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("a JSON data file is required (--data)")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read data file: %w", err)
	}
	return data, nil
}

func printText(w io.Writer, result any) {
	switch r := result.(type) {
	case *pdf.ScanFileResult:
		fmt.Fprintf(w, "%s: %d pages, %d fields\n", r.Path, r.Pages, len(r.Fields))
		for _, f := range r.Fields {
			fmt.Fprintf(w, "  %-24s %-10s page %d", f.Name, f.Kind, f.Page)
			if len(f.Choices) > 0 {
				fmt.Fprintf(w, "  [%s]", strings.Join(f.Choices, " | "))
			}
			if f.OptionCount > 0 {
				fmt.Fprintf(w, "  (%d options)", f.OptionCount)
			}
			if f.MaxLength > 0 {
				fmt.Fprintf(w, "  max %d", f.MaxLength)
			}
			if f.Value != nil {
				fmt.Fprintf(w, "  = %v", f.Value)
			}
			fmt.Fprintln(w)
		}
		printWarnings(w, r.Warnings)
	case *pdf.WriteResult:
		fmt.Fprintf(w, "Wrote %s (%d pages, %d bytes)\n", r.OutputPath, r.Pages, r.Size)
		printWarnings(w, r.Warnings)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "⚠️  %d warnings:\n", len(warnings))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  • %s\n", msg)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "PDF Fill Form - scan, fill and draw on PDF forms from the command line")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_fill_form scan [OPTIONS] <pdf_file>")
	fmt.Fprintln(w, "  pdf_fill_form fill [OPTIONS] --data values.json <pdf_file>")
	fmt.Fprintln(w, "  pdf_fill_form draw [OPTIONS] --data instructions.json <pdf_file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  --format       Output format: text (default), json")
	fmt.Fprintln(w, "  --fontdir      Directory of TrueType fonts to register")
	fmt.Fprintln(w, "  -d, --data     JSON data file, or - for stdin")
	fmt.Fprintln(w, "  -o, --out      Output file, relative to the input's directory")
	fmt.Fprintln(w, "  --mode         Fill mode: simple (default), overlay")
	fmt.Fprintln(w, "  --flatten      Mark every field read-only after filling")
	fmt.Fprintln(w, "  --appearances  Write appearance streams in simple mode (default true)")
	fmt.Fprintln(w, "  --styles       JSON file of style overrides keyed by field name")
	fmt.Fprintln(w, "  -v, --verbose  Log engine warnings to stderr")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_fill_form scan application.pdf")
	fmt.Fprintln(w, "  pdf_fill_form fill -d values.json -o done.pdf application.pdf")
	fmt.Fprintln(w, "  pdf_fill_form fill -d values.json --styles styles.json --mode overlay application.pdf")
	fmt.Fprintln(w, "  pdf_fill_form draw -d stamp.json --format json contract.pdf")
}
