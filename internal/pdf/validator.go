package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks PDF files with a reader independent of the one used for
// filling, so that produced documents are confirmed readable by a second parser
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator rejecting files larger than maxFileSize
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateFile reports whether the file at filePath is a readable PDF. An
// unreadable file is a negative result, not an error.
func (v *Validator) ValidateFile(filePath string) *ValidateFileResult {
	result := &ValidateFileResult{Path: filePath}

	data, err := v.ReadFile(filePath)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	pages, err := v.ValidateBytes(data)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Valid = true
	result.Pages = pages
	return result
}

// ReadFile loads a PDF after checking its extension and size
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(filePath, info); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

// ValidateBytes parses data and returns its page count
func (v *Validator) ValidateBytes(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("document is empty")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	pages := r.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}

// ValidateFileInfo performs the checks that need no parsing
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}
	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), v.maxFileSize)
	}
	return nil
}
