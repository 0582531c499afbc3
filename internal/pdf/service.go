package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-filler/internal/form"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/security"
)

const outputFilePerm = 0o644

// Service runs form operations on files inside one directory
type Service struct {
	maxFileSize int64
	validator   *Validator
	paths       *security.PathValidator
	filler      *form.Filler
	defaults    form.Options
	info        *ServerInfo
}

// NewService creates a service confined to directory. Image paths given as
// values or draw sources are resolved inside the same directory.
func NewService(maxFileSize int64, directory string, opts form.Options) (*Service, error) {
	paths, err := security.NewPathValidator(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	s := &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		paths:       paths,
		defaults:    opts,
	}
	opts.Loader = s.LoadImage
	s.filler = form.NewFiller(opts)
	s.info = NewServerInfo(s)
	return s, nil
}

// Filler returns the underlying form filler
func (s *Service) Filler() *form.Filler {
	return s.filler
}

// Directory returns the directory the service is confined to
func (s *Service) Directory() string {
	return s.paths.Directory()
}

// GetMaxFileSize returns the maximum accepted file size
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ScanFile lists the fields of a form
func (s *Service) ScanFile(req ScanFileRequest) (*ScanFileResult, error) {
	path, data, err := s.read(req.Path)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.filler.Scan(data)
	if err != nil {
		return nil, err
	}

	result := &ScanFileResult{Path: path, Pages: tmpl.PageCount, HasForm: tmpl.HasForm, Fields: []FieldInfo{}}
	for _, e := range tmpl.Entries() {
		result.Fields = append(result.Fields, fieldInfo(e.Widget))
	}
	result.Warnings = messages(tmpl.Warnings.Warnings)
	return result, nil
}

// FillFile fills a form and writes the result next to it unless an output
// path is given. Style overrides are applied before filling.
func (s *Service) FillFile(req FillFileRequest) (*WriteResult, error) {
	mode, err := form.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	path, data, err := s.read(req.Path)
	if err != nil {
		return nil, err
	}

	flatten, appearances := s.defaults.Flatten, s.defaults.GenerateAppearances
	if req.Flatten != nil {
		flatten = *req.Flatten
	}
	if req.Appearances != nil {
		appearances = *req.Appearances
	}
	var restyleWarnings []*errors.PDFError
	if len(req.Styles) > 0 {
		restyled, err := s.filler.Restyle(data, req.Styles)
		if err != nil {
			return nil, err
		}
		data, restyleWarnings = restyled.Document, restyled.Warnings
	}
	res, err := s.filler.With(flatten, appearances).Fill(data, req.Values, mode)
	if err != nil {
		return nil, err
	}
	if len(restyleWarnings) > 0 {
		res = &form.Result{Document: res.Document, Warnings: append(restyleWarnings, res.Warnings...)}
	}
	return s.write(path, req.OutputPath, "filled", res)
}

// DrawFile draws instructions onto a PDF
func (s *Service) DrawFile(req DrawFileRequest) (*WriteResult, error) {
	var instructions map[int][]layout.Instruction
	if len(req.Instructions) > 0 {
		decoded, err := layout.DecodeInstructions(req.Instructions)
		if err != nil {
			return nil, err
		}
		instructions = decoded
	}
	path, data, err := s.read(req.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.filler.Draw(data, instructions)
	if err != nil {
		return nil, err
	}
	return s.write(path, req.OutputPath, "drawn", res)
}

// RegisterFontFile registers a TrueType file inside the directory
func (s *Service) RegisterFontFile(req RegisterFontRequest) (*RegisterFontResult, error) {
	path, err := s.paths.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read font: %w", err)
	}
	return &RegisterFontResult{Name: req.Name, Registered: s.filler.RegisterFont(req.Name, data)}, nil
}

// RegisterFontDir registers every .ttf file of dir under its file stem and
// returns how many were registered
func (s *Service) RegisterFontDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("cannot read font directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".ttf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Logger().Warn("font file unreadable", "font", name, "error", err)
			continue
		}
		if s.filler.RegisterFont(strings.TrimSuffix(name, filepath.Ext(name)), data) {
			count++
		}
	}
	return count, nil
}

// ServerInfo describes the server, its fonts and the forms it can reach
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	return s.info.GetServerInfo(ctx, serverName, version)
}

// ValidateFile checks that a file inside the directory is a readable PDF
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.paths.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(path), nil
}

// LoadImage reads an image file inside the directory
func (s *Service) LoadImage(source string) ([]byte, error) {
	path, err := s.paths.Resolve(source)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidImage, "image path rejected", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidImage, "cannot access image", err)
	}
	if info.Size() > s.maxFileSize {
		return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidImage, "image too large",
			fmt.Sprintf("%d bytes (max: %d bytes)", info.Size(), s.maxFileSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidImage, "cannot read image", err)
	}
	return data, nil
}

func (s *Service) read(reqPath string) (string, []byte, error) {
	path, err := s.paths.Resolve(reqPath)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}
	data, err := s.validator.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

func (s *Service) write(path, output, suffix string, res *form.Result) (*WriteResult, error) {
	if output == "" {
		ext := filepath.Ext(path)
		output = strings.TrimSuffix(path, ext) + "_" + suffix + ext
	}
	outPath, err := s.paths.ResolveOutput(output)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "cannot create output directory", err)
	}
	if err := os.WriteFile(outPath, res.Document, outputFilePerm); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "cannot write output", err)
	}

	result := &WriteResult{
		Path:       path,
		OutputPath: outPath,
		Size:       int64(len(res.Document)),
		Warnings:   messages(res.Warnings),
	}
	pages, err := s.validator.ValidateBytes(res.Document)
	if err != nil {
		logging.Logger().Warn("output failed independent validation", "output", outPath, "error", err)
		result.Warnings = append(result.Warnings, "output did not pass independent validation: "+err.Error())
	}
	result.Pages = pages
	return result, nil
}

func fieldInfo(w *widget.Widget) FieldInfo {
	info := FieldInfo{
		Name:     w.Name,
		Kind:     w.Kind(),
		Page:     w.Page,
		Rect:     w.Rect,
		Value:    w.Value(),
		ReadOnly: w.ReadOnly,
		Font:     w.Style.FontName,
		FontSize: w.Style.FontSize,
	}
	switch a := w.Attrs.(type) {
	case *widget.TextAttributes:
		info.MaxLength = a.MaxLength
		info.Multiline = a.Multiline
		info.Comb = a.IsComb()
	case *widget.DropdownAttributes:
		info.Choices = a.Choices
	case *widget.RadioAttributes:
		info.OptionCount = a.OptionCount
	}
	return info
}

func messages(warnings []*errors.PDFError) []string {
	var out []string
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}
	if s.maxFileSize > 1024*1024*1024 {
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}
	return nil
}
