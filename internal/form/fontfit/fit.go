// Package fontfit chooses fonts and font sizes for text widgets, wraps
// paragraph text, and measures standard and registered TrueType fonts.
package fontfit

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
)

// Options tunes font selection and the shrink-to-fit loop
type Options struct {
	DefaultFont string  `json:"default_font"`
	DefaultSize float64 `json:"default_size"`
	MinSize     float64 `json:"min_size"`
	Step        float64 `json:"step"`
	// LineMargin is added to the font size to get the line height of paragraphs
	LineMargin float64 `json:"line_margin"`
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		DefaultFont: widget.DefaultFont,
		DefaultSize: 12,
		MinSize:     2,
		Step:        0.1,
		LineMargin:  2,
	}
}

// withDefaults fills unset fields from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DefaultFont == "" {
		o.DefaultFont = d.DefaultFont
	}
	if o.DefaultSize <= 0 {
		o.DefaultSize = d.DefaultSize
	}
	if o.MinSize <= 0 {
		o.MinSize = d.MinSize
	}
	if o.Step <= 0 {
		o.Step = d.Step
	}
	if o.LineMargin < 0 {
		o.LineMargin = d.LineMargin
	}
	return o
}

// Result is the outcome of fitting one text widget
type Result struct {
	Font       string
	Size       float64
	Lines      []string
	Iterations int
	// Fits is false when the floor was reached before the text fit
	Fits bool
}

// Fitter sizes text widgets. It is safe for concurrent use.
type Fitter struct {
	opts  Options
	fonts *Registry
}

// NewFitter creates a fitter measuring with fonts; a nil registry knows only
// the standard fonts
func NewFitter(opts Options, fonts *Registry) *Fitter {
	if fonts == nil {
		fonts = NewRegistry()
	}
	return &Fitter{opts: opts.withDefaults(), fonts: fonts}
}

// Options returns the effective options
func (f *Fitter) Options() Options {
	return f.opts
}

// Fonts returns the registry used for measuring
func (f *Fitter) Fonts() *Registry {
	return f.fonts
}

// LineHeight returns the distance between paragraph baselines at size
func (f *Fitter) LineHeight(size float64) float64 {
	return size + f.opts.LineMargin
}

// Font resolves the font a widget draws with
func (f *Fitter) Font(w *widget.Widget) string {
	if w.Style.FontName == "" {
		return f.fonts.Resolve(f.opts.DefaultFont)
	}
	return f.fonts.Resolve(w.Style.FontName)
}

// Apply fits w and stores the chosen font, size and wrapped lines on it
func (f *Fitter) Apply(w *widget.Widget) Result {
	res := f.Fit(w)
	w.Style.FontName = res.Font
	w.Style.FontSize = res.Size
	if t := w.Text(); t != nil {
		t.TextLines = res.Lines
	}
	return res
}

// Fit computes font and size for w without modifying it. Non-text widgets get
// their explicit size or the default size.
func (f *Fitter) Fit(w *widget.Widget) Result {
	font := f.Font(w)
	t := w.Text()
	if t == nil {
		size := w.Style.FontSize
		if size <= 0 {
			size = f.opts.DefaultSize
		}
		return Result{Font: font, Size: size, Fits: true}
	}

	value := ""
	if t.Value != nil {
		value = *t.Value
	}
	auto := w.Style.FontSize <= 0
	shrink := auto && t.Value != nil && t.MaxLength == 0
	width, height := w.Rect.Width(), w.Rect.Height()

	if t.Multiline {
		initial := w.Style.FontSize
		if auto {
			initial = f.opts.DefaultSize
		}
		wrapAt := func(size float64) []string {
			return f.Wrap(value, font, size, width, t.TextWrapLength)
		}
		fits := func(size float64) bool {
			return float64(len(wrapAt(size)))*f.LineHeight(size) <= height
		}
		size, iterations, ok := initial, 0, true
		if shrink {
			size, iterations, ok = f.FitFontSize(initial, fits)
		}
		return Result{Font: font, Size: size, Lines: wrapAt(size), Iterations: iterations, Fits: ok}
	}

	if !auto {
		return Result{Font: font, Size: w.Style.FontSize, Fits: true}
	}
	initial := height * 2 / 3
	if !shrink {
		return Result{Font: font, Size: math.Max(initial, f.opts.MinSize), Fits: true}
	}
	size, iterations, ok := f.FitFontSize(initial, func(size float64) bool {
		return f.fonts.TextWidth(value, font, size) <= width
	})
	return Result{Font: font, Size: size, Iterations: iterations, Fits: ok}
}

// FitFontSize shrinks from initial by Step until fits reports true or the floor
// is reached. It runs at most ceil((initial-MinSize)/Step) iterations and never
// returns a size below MinSize.
func (f *Fitter) FitFontSize(initial float64, fits func(size float64) bool) (size float64, iterations int, ok bool) {
	floor, step := f.opts.MinSize, f.opts.Step
	if initial <= floor {
		return floor, 0, fits(floor)
	}
	limit := int(math.Ceil((initial - floor) / step))
	size = initial
	for iterations < limit {
		if fits(size) {
			return size, iterations, true
		}
		iterations++
		size = math.Max(initial-float64(iterations)*step, floor)
	}
	return size, iterations, fits(size)
}

// Wrap breaks text into lines no wider than width at the given font and size.
// Explicit newlines always break. Words wider than a line are split between
// characters. A positive wrapLength additionally caps the characters per line.
func (f *Fitter) Wrap(text, font string, size, width float64, wrapLength int) []string {
	fits := func(s string) bool {
		if wrapLength > 0 && utf8.RuneCountInString(s) > wrapLength {
			return false
		}
		return f.fonts.TextWidth(s, font, size) <= width
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, merge(wrapParagraph(paragraph, fits), fits)...)
	}
	return lines
}

func wrapParagraph(paragraph string, fits func(string) bool) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := ""
	for _, word := range words {
		if !fits(word) {
			if line != "" {
				lines = append(lines, line)
			}
			chunks := splitWord(word, fits)
			lines = append(lines, chunks[:len(chunks)-1]...)
			line = chunks[len(chunks)-1]
			continue
		}
		switch candidate := line + " " + word; {
		case line == "":
			line = word
		case fits(candidate):
			line = candidate
		default:
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}

// splitWord cuts an oversize word into the longest fitting pieces, keeping at
// least one character per piece
func splitWord(word string, fits func(string) bool) []string {
	var chunks []string
	cur := ""
	for _, r := range word {
		next := cur + string(r)
		if cur != "" && !fits(next) {
			chunks = append(chunks, cur)
			next = string(r)
		}
		cur = next
	}
	return append(chunks, cur)
}

// merge joins consecutive lines whenever the joined line still fits
func merge(lines []string, fits func(string) bool) []string {
	if len(lines) < 2 {
		return lines
	}
	out := []string{lines[0]}
	for _, l := range lines[1:] {
		last := out[len(out)-1]
		if last != "" && l != "" && fits(last+" "+l) {
			out[len(out)-1] = last + " " + l
			continue
		}
		out = append(out, l)
	}
	return out
}
