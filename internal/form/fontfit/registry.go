package fontfit

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/font"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// RegisteredFont describes a font added with Register
type RegisteredFont struct {
	Name   string `json:"name"`
	Family string `json:"family"`
	Size   int    `json:"size"`
}

// Registry holds registered TrueType fonts and measures text in both those
// and the standard 14 fonts. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]*document.FontProgram
	families map[string]string
	// byResource indexes programs by their /DA resource name
	byResource map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		programs:   make(map[string]*document.FontProgram),
		families:   make(map[string]string),
		byResource: make(map[string]string),
	}
}

// Register parses ttf and makes it usable under name. Invalid font
// programs yield ErrorTypeFontRegistration and leave the registry unchanged.
func (r *Registry) Register(name string, ttf []byte) error {
	if name == "" {
		return errors.NewPDFError(errors.ErrorTypeFontRegistration, "font name is empty")
	}
	if widget.IsStandardFont(name) {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeFontRegistration,
			"name is reserved for a standard font", name)
	}
	prog, family, err := loadProgram(name, ttf)
	if err != nil {
		return errors.WrapError(errors.ErrorTypeFontRegistration, "invalid TrueType font", err).WithContext(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[name] = prog
	r.families[name] = family
	r.byResource[widget.ResourceName(name)] = name

	logging.Logger().Info("font registered", "font", name, "family", family, "bytes", len(ttf))
	return nil
}

// Program implements document.FontSource. name may be a registered name or its resource name.
func (r *Registry) Program(name string) (*document.FontProgram, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.programs[name]; ok {
		return p, true
	}
	if registered, ok := r.byResource[name]; ok {
		return r.programs[registered], true
	}
	return nil, false
}

// Has reports whether name can be used for drawing text
func (r *Registry) Has(name string) bool {
	if widget.IsStandardFont(name) {
		return true
	}
	_, ok := r.Program(name)
	return ok
}

// Fonts lists the registered fonts
func (r *Registry) Fonts() []RegisteredFont {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RegisteredFont, 0, len(r.programs))
	for name, p := range r.programs {
		out = append(out, RegisteredFont{Name: name, Family: r.families[name], Size: len(p.Data)})
	}
	return out
}

// Resolve maps a font name or /DA resource name to a drawable font name.
// Unknown fonts resolve to the default font.
func (r *Registry) Resolve(name string) string {
	switch {
	case name == "":
		return widget.DefaultFont
	case widget.IsStandardFont(name):
		return name
	}
	if std, ok := widget.FontForResource(name); ok {
		return std
	}
	if p, ok := r.Program(name); ok {
		return p.Name
	}
	return widget.DefaultFont
}

// TextWidth returns the advance width of text in points
func (r *Registry) TextWidth(text, fontName string, size float64) float64 {
	fontName = r.Resolve(fontName)
	if p, ok := r.Program(fontName); ok {
		total := 0
		for _, code := range canvas.Encode(fontName, text) {
			total += p.Widths[code]
		}
		return float64(total) * size / 1000
	}
	// pdfcpu measures in whole points; measure at 1000pt and scale
	return font.TextWidth(text, fontName, 1000) * size / 1000
}

// GlyphWidth returns the advance width of a single character in points
func (r *Registry) GlyphWidth(ch rune, fontName string, size float64) float64 {
	return r.TextWidth(string(ch), fontName, size)
}
