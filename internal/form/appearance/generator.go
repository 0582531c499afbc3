// Package appearance regenerates field appearances after values were written
// into field dictionaries, memoizing the result per document and mode.
package appearance

import (
	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/scanner"
	"github.com/a3tai/mcp-pdf-filler/internal/form/watermark"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Generator writes NeedAppearances and, on request, explicit normal
// appearance streams
type Generator struct {
	fit     *fontfit.Fitter
	engine  *layout.Engine
	painter *watermark.Compositor
	cache   *Cache
}

// NewGenerator creates a generator. A nil cache disables memoization.
func NewGenerator(fit *fontfit.Fitter, cache *Cache) *Generator {
	return &Generator{
		fit:     fit,
		engine:  layout.NewEngine(fit),
		painter: watermark.New(fit),
		cache:   cache,
	}
}

// Regenerate returns data with the AcroForm NeedAppearances flag set. With
// full, every text and dropdown field holding a value additionally receives
// an explicit /AP /N stream. Results are memoized by content and full.
func (g *Generator) Regenerate(data []byte, full bool) (*Entry, error) {
	key := Key(full, data)
	if g.cache != nil {
		if hit, ok := g.cache.Get(key); ok {
			logging.Logger().Debug("appearance cache hit", "full", full)
			return hit, nil
		}
	}

	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	tmpl, err := scanner.New(g.fit.Fonts()).Scan(doc)
	if err != nil {
		return nil, err
	}
	warnings, err := g.Generate(doc, tmpl, full)
	if err != nil {
		return nil, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	entry := &Entry{Document: out, Warnings: warnings.Warnings}
	if g.cache != nil {
		g.cache.Put(key, entry)
	}
	return entry, nil
}

// Generate updates doc in place from the values read into tmpl
func (g *Generator) Generate(doc *document.Document, tmpl *scanner.Template, full bool) (*errors.ErrorCollection, error) {
	warnings := errors.NewErrorCollection()
	doc.SetNeedAppearances(true)
	if !full {
		return warnings, nil
	}

	written := 0
	for _, e := range tmpl.Entries() {
		kind := e.Widget.Kind()
		if (kind != widget.KindText && kind != widget.KindDropdown) || !e.Widget.HasValue() {
			continue
		}
		ok, err := g.stream(doc, e)
		if err != nil {
			perr, isPDF := errors.As(err)
			if !isPDF || !perr.Recoverable {
				return nil, err
			}
			logging.Logger().Warn("appearance not generated", "page", e.Widget.Page, "widget", e.Key, "rule", e.Rule)
			warnings.Add(perr.WithWidget(e.Key).WithPage(e.Widget.Page))
			continue
		}
		if ok {
			written++
		}
	}
	logging.Logger().Debug("appearance streams generated", "count", written)
	return warnings, nil
}

// stream lays the widget out in its own coordinate space and installs the
// result as the annotation's normal appearance
func (g *Generator) stream(doc *document.Document, e *scanner.Entry) (bool, error) {
	local := e.Widget.Clone()
	local.Rect = widget.NewRect(0, 0, e.Widget.Rect.Width(), e.Widget.Rect.Height())

	instructions, err := g.engine.Widget(local, false)
	if err != nil {
		return false, err
	}
	content, skipped, err := g.painter.Paint(instructions)
	if err != nil {
		return false, err
	}
	if len(skipped) > 0 {
		return false, skipped[0]
	}
	if content == nil {
		return false, nil
	}
	return true, doc.SetNormalAppearance(e.Annotation, content, g.fit.Fonts())
}
