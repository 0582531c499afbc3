// Package form is the entry point of the form engine: it scans templates,
// fills them either by writing field values or by drawing an overlay, draws
// free instructions onto pages and manages registered fonts.
package form

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/a3tai/mcp-pdf-filler/internal/form/appearance"
	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/scanner"
	"github.com/a3tai/mcp-pdf-filler/internal/form/simplefill"
	"github.com/a3tai/mcp-pdf-filler/internal/form/watermark"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Mode selects how Fill renders values
type Mode int

const (
	// ModeSimple writes values into the field dictionaries
	ModeSimple Mode = iota
	// ModeOverlay draws values as page content on top of the fields
	ModeOverlay
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeOverlay:
		return "overlay"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses "simple" or "overlay"; the empty string selects simple
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return ModeSimple, nil
	case "overlay":
		return ModeOverlay, nil
	}
	return 0, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidData, "unknown fill mode", s)
}

// ImageLoader resolves an image path given as a widget value or draw source
type ImageLoader func(source string) ([]byte, error)

// Options configure a Filler
type Options struct {
	Fit fontfit.Options
	// Flatten marks every field read-only after filling
	Flatten bool
	// GenerateAppearances writes explicit appearance streams in simple mode
	// instead of relying on the viewer alone
	GenerateAppearances bool
	// Loader resolves image paths; without one, path values are reported as warnings
	Loader ImageLoader
	// Cache memoizes fill results; nil disables memoization
	Cache *appearance.Cache
	// Rules override the scanner's classification rules
	Rules []scanner.Rule
}

// DefaultOptions returns options with the default font settings
func DefaultOptions() Options {
	return Options{Fit: fontfit.DefaultOptions()}
}

// Result is a produced document and the non-fatal problems met producing it
type Result struct {
	Document []byte             `json:"-"`
	Warnings []*errors.PDFError `json:"warnings"`
}

// Filler runs fill, draw and scan operations
type Filler struct {
	opts        Options
	fonts       *fontfit.Registry
	fit         *fontfit.Fitter
	compositor  *watermark.Compositor
	appearances *appearance.Generator
}

// NewFiller creates a filler with its own font registry
func NewFiller(opts Options) *Filler {
	fonts := fontfit.NewRegistry()
	fit := fontfit.NewFitter(opts.Fit, fonts)
	return &Filler{
		opts:        opts,
		fonts:       fonts,
		fit:         fit,
		compositor:  watermark.New(fit),
		appearances: appearance.NewGenerator(fit, opts.Cache),
	}
}

// With returns a filler sharing fonts and cache whose flatten and appearance
// settings are replaced
func (f *Filler) With(flatten, appearances bool) *Filler {
	c := *f
	c.opts.Flatten = flatten
	c.opts.GenerateAppearances = appearances
	return &c
}

// Fonts returns the registry of fonts usable by name
func (f *Filler) Fonts() *fontfit.Registry {
	return f.fonts
}

// RegisterFont makes a TrueType font usable by name in later operations. It
// reports false when the font cannot be registered.
func (f *Filler) RegisterFont(name string, ttf []byte) bool {
	if err := f.fonts.Register(name, ttf); err != nil {
		logging.Logger().Warn("font registration failed", "font", name, "error", err)
		return false
	}
	return true
}

// Scan returns the typed widgets of a document
func (f *Filler) Scan(data []byte) (*scanner.Template, error) {
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	return f.scan(doc)
}

func (f *Filler) scan(doc *document.Document) (*scanner.Template, error) {
	return scanner.New(f.fonts, f.opts.Rules...).Scan(doc)
}

// Fill assigns values by widget name and renders them with mode. Every value
// is checked against its widget kind before the document is touched; a
// mismatch fails with ErrorTypeInvalidData. Names the document does not
// contain are ignored.
func (f *Filler) Fill(data []byte, values map[string]any, mode Mode) (*Result, error) {
	if mode != ModeSimple && mode != ModeOverlay {
		return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidData, "unknown fill mode", mode.String())
	}
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	tmpl, err := f.scan(doc)
	if err != nil {
		return nil, err
	}
	if err := validate(tmpl, values); err != nil {
		return nil, err
	}

	var images map[string]loadedImage
	if mode == ModeOverlay {
		images = f.loadImages(tmpl, values)
	}
	key, err := f.cacheKey(data, values, images, mode)
	if err != nil {
		return nil, err
	}
	if f.opts.Cache != nil {
		if hit, ok := f.opts.Cache.Get(key); ok {
			logging.Logger().Debug("fill cache hit", "mode", mode.String())
			return &Result{Document: hit.Document, Warnings: hit.Warnings}, nil
		}
	}

	warnings := errors.NewErrorCollection()
	warnings.Merge(tmpl.Warnings)

	var res *Result
	if mode == ModeSimple {
		res, err = f.fillSimple(doc, tmpl, values, warnings)
	} else {
		res, err = f.fillOverlay(data, doc, tmpl, values, images, warnings)
	}
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("form filled", "mode", mode.String(), "values", len(values),
		"pages", doc.PageCount(), "warnings", len(res.Warnings))
	if f.opts.Cache != nil {
		f.opts.Cache.Put(key, &appearance.Entry{Document: res.Document, Warnings: res.Warnings})
	}
	return res, nil
}

// Restyle applies style overrides by widget name and returns the rewritten
// document. An invalid override fails with ErrorTypeInvalidData; names the
// document does not contain are reported as warnings.
func (f *Filler) Restyle(data []byte, styles map[string]widget.StyleOverride) (*Result, error) {
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	if len(styles) == 0 {
		return &Result{Document: append([]byte(nil), data...), Warnings: []*errors.PDFError{}}, nil
	}
	tmpl, err := f.scan(doc)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)

	warnings := errors.NewErrorCollection()
	var updates []widget.Update
	for _, name := range names {
		entries := tmpl.Lookup(name)
		if len(entries) == 0 {
			perr := errors.NewPDFError(errors.ErrorTypeInvalidData, "style names no widget").WithWidget(name)
			perr.Recoverable = true
			warnings.Add(perr)
			continue
		}
		// one widget per name: updates rewrite every annotation sharing it
		u, err := entries[0].Widget.Clone().ApplyStyle(styles[name])
		if err != nil {
			return nil, errors.WrapError(errors.ErrorTypeInvalidData, "invalid style", err).WithWidget(name)
		}
		updates = append(updates, u...)
	}

	if len(updates) == 0 {
		return &Result{Document: append([]byte(nil), data...), Warnings: warnings.Warnings}, nil
	}
	if err := doc.ApplyUpdates(updates, f.fonts); err != nil {
		return nil, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("form restyled", "widgets", len(names), "updates", len(updates), "warnings", len(warnings.Warnings))
	return &Result{Document: out, Warnings: warnings.Warnings}, nil
}

func (f *Filler) fillSimple(doc *document.Document, tmpl *scanner.Template, values map[string]any, warnings *errors.ErrorCollection) (*Result, error) {
	written, err := simplefill.Fill(tmpl, values, simplefill.Options{Flatten: f.opts.Flatten})
	if err != nil {
		return nil, err
	}
	warnings.Merge(written)

	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	entry, err := f.appearances.Regenerate(out, f.opts.GenerateAppearances)
	if err != nil {
		return nil, err
	}
	for _, w := range entry.Warnings {
		warnings.Add(w)
	}
	return &Result{Document: entry.Document, Warnings: warnings.Warnings}, nil
}

func (f *Filler) fillOverlay(data []byte, doc *document.Document, tmpl *scanner.Template, values map[string]any, images map[string]loadedImage, warnings *errors.ErrorCollection) (*Result, error) {
	for _, e := range tmpl.Entries() {
		value, ok := values[e.Key]
		if !ok {
			continue
		}
		if err := e.Widget.Assign(value); err != nil {
			return nil, err
		}
		if img := e.Widget.Image(); img != nil && img.Source != "" {
			loaded := images[img.Source]
			img.Source = ""
			img.Data = loaded.data
			if err := loaded.err; err != nil {
				// widgets sharing a source share the load error
				perr := *toWarning(err)
				logging.Logger().Warn("image not loaded", "page", e.Widget.Page, "widget", e.Key, "rule", e.Rule, "error", perr.Message)
				warnings.Add(perr.WithWidget(e.Key).WithPage(e.Widget.Page))
			}
		}
	}

	job, err := f.compositor.Compose(doc, tmpl.Widgets())
	if err != nil {
		return nil, err
	}
	warnings.Merge(job.Warnings)

	if len(job.Grafted()) == 0 && !f.opts.Flatten {
		return &Result{Document: append([]byte(nil), data...), Warnings: warnings.Warnings}, nil
	}
	if f.opts.Flatten {
		for _, e := range tmpl.Entries() {
			e.Annotation.SetFlags(widget.FlagReadOnly, true)
		}
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return &Result{Document: out, Warnings: warnings.Warnings}, nil
}

// Draw paints instructions keyed by 1-based page. Without instructions the
// input is returned unchanged.
func (f *Filler) Draw(data []byte, instructions map[int][]layout.Instruction) (*Result, error) {
	count := 0
	for _, ins := range instructions {
		count += len(ins)
	}
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &Result{Document: append([]byte(nil), data...), Warnings: []*errors.PDFError{}}, nil
	}

	warnings := errors.NewErrorCollection()
	resolved := make(map[int][]layout.Instruction, len(instructions))
	for page, ins := range instructions {
		for _, in := range ins {
			if img, ok := in.(layout.Image); ok && len(img.Data) == 0 && img.Source != "" && f.opts.Loader != nil {
				loaded, err := f.opts.Loader(img.Source)
				if err != nil {
					warnings.Add(toWarning(err).WithPage(page))
					continue
				}
				img.Data = loaded
				in = img
			}
			resolved[page] = append(resolved[page], in)
		}
	}

	job, err := f.compositor.Draw(doc, resolved)
	if err != nil {
		return nil, err
	}
	warnings.Merge(job.Warnings)

	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("instructions drawn", "instructions", count, "pages", job.Grafted(), "warnings", len(warnings.Warnings))
	return &Result{Document: out, Warnings: warnings.Warnings}, nil
}

type loadedImage struct {
	data []byte
	err  error
}

// loadImages resolves each image path among values once. The loaded bytes
// feed the cache key, so a changed image file is never served stale.
func (f *Filler) loadImages(tmpl *scanner.Template, values map[string]any) map[string]loadedImage {
	images := make(map[string]loadedImage)
	for name, value := range values {
		for _, e := range tmpl.Lookup(name) {
			w := e.Widget.Clone()
			if err := w.Assign(value); err != nil {
				continue
			}
			img := w.Image()
			if img == nil || img.Source == "" {
				continue
			}
			if _, done := images[img.Source]; done {
				continue
			}
			images[img.Source] = f.loadImage(img.Source)
		}
	}
	return images
}

func (f *Filler) loadImage(source string) loadedImage {
	if f.opts.Loader == nil {
		return loadedImage{err: errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidImage, "no image loader configured", source)}
	}
	data, err := f.opts.Loader(source)
	if err != nil {
		return loadedImage{err: err}
	}
	return loadedImage{data: data}
}

// validate assigns every value to a copy of each widget it addresses
func validate(tmpl *scanner.Template, values map[string]any) error {
	for name, value := range values {
		for _, e := range tmpl.Lookup(name) {
			if err := e.Widget.Clone().Assign(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// cacheKey digests everything that determines a fill result, image content included
func (f *Filler) cacheKey(data []byte, values map[string]any, images map[string]loadedImage, mode Mode) (string, error) {
	if f.opts.Cache == nil {
		return "", nil
	}
	canonical, err := json.Marshal(values)
	if err != nil {
		return "", errors.WrapError(errors.ErrorTypeInvalidData, "values cannot be encoded", err)
	}
	settings, err := json.Marshal(struct {
		Mode    string          `json:"mode"`
		Flatten bool            `json:"flatten"`
		Fit     fontfit.Options `json:"fit"`
		Fonts   []string        `json:"fonts"`
	}{mode.String(), f.opts.Flatten, f.fit.Options(), fontNames(f.fonts)})
	if err != nil {
		return "", errors.WrapError(errors.ErrorTypeInvalidData, "options cannot be encoded", err)
	}

	parts := [][]byte{data, canonical, settings}
	sources := make([]string, 0, len(images))
	for source := range images {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		parts = append(parts, []byte(source), images[source].data)
	}
	return appearance.Key(f.opts.GenerateAppearances, parts...), nil
}

func fontNames(r *fontfit.Registry) []string {
	var names []string
	for _, f := range r.Fonts() {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func toWarning(err error) *errors.PDFError {
	perr, ok := errors.As(err)
	if !ok {
		perr = errors.WrapError(errors.ErrorTypeInvalidImage, "image not loaded", err)
	}
	perr.Recoverable = true
	return perr
}
