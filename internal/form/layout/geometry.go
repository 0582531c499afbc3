// Package layout computes where widget values are drawn. Every function is
// deterministic: identical widgets produce identical instructions.
package layout

import (
	"math"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
)

const (
	// ascentRatio approximates the cap height of the standard fonts as a fraction of size
	ascentRatio = 0.7
	// firstLineRatio places the first baseline of a paragraph below the top edge
	firstLineRatio = 1.5
	// symbolDrop lowers a symbol baseline from the vertical midpoint, in units of size
	symbolDrop = 0.35
)

// Measurer reports the rendered width of text
type Measurer interface {
	TextWidth(text, font string, size float64) float64
}

// TextX returns the baseline x of a string of width textWidth
func TextX(r widget.Rect, align widget.Alignment, textWidth float64) float64 {
	switch align {
	case widget.AlignCenter:
		return r.MidX() - textWidth/2
	case widget.AlignRight:
		return r.X1 - textWidth
	default:
		return r.X0
	}
}

// BaselineY returns the y of the first baseline
func BaselineY(r widget.Rect, size float64, multiline bool) float64 {
	if multiline {
		return r.Y1 - firstLineRatio*size
	}
	return r.MidY() - size*ascentRatio/2
}

// CombOffsets returns the x offset of each character relative to the start of
// the value, centering every character in its cell of width rect/maxLength
func CombOffsets(width float64, maxLength int, glyphWidths []float64) []float64 {
	if maxLength <= 0 {
		return nil
	}
	cell := width / float64(maxLength)
	offsets := make([]float64, len(glyphWidths))
	for i, w := range glyphWidths {
		offsets[i] = float64(i)*cell + (cell-w)/2
	}
	return offsets
}

// CombX returns the x of the first cell for an aligned comb value. offsets and
// glyphWidths describe the value as returned by CombOffsets.
func CombX(r widget.Rect, align widget.Alignment, maxLength int, offsets, glyphWidths []float64) float64 {
	n := len(offsets)
	if n == 0 {
		return r.X0
	}
	span := offsets[n-1] + glyphWidths[n-1]
	x := TextX(r, align, span)
	switch align {
	case widget.AlignCenter:
		x -= offsets[0] / 2
		if n%2 == 0 {
			x -= offsets[0] + glyphWidths[0]/2
		}
	case widget.AlignRight:
		cell := r.Width() / float64(maxLength)
		x -= (cell - glyphWidths[n-1]) / 2
	}
	return x
}

// SymbolSize returns the size of a check or radio symbol. A positive size wins;
// otherwise it is two thirds of the shorter side.
func SymbolSize(r widget.Rect, size float64) float64 {
	if size > 0 {
		return size
	}
	return math.Min(r.Width(), r.Height()) * 2 / 3
}

// SymbolPosition centers a glyph of width glyphWidth drawn at size in r
func SymbolPosition(r widget.Rect, glyphWidth, size float64) (x, y float64) {
	return r.X0 + (r.Width()-glyphWidth)/2, r.MidY() - size*symbolDrop
}

// PlaceImage fits an image of iw x ih pixels into r. With preserve the image
// keeps its aspect ratio and is centered; otherwise it fills r exactly.
func PlaceImage(r widget.Rect, iw, ih float64, preserve bool) widget.Rect {
	if !preserve || iw <= 0 || ih <= 0 || r.Empty() {
		return r
	}
	ratio := math.Max(iw/r.Width(), ih/r.Height())
	w, h := iw/ratio, ih/ratio
	x := r.X0 + (r.Width()-w)/2
	y := r.Y0 + (r.Height()-h)/2
	return widget.Rect{X0: x, Y0: y, X1: x + w, Y1: y + h}
}

// Circle returns the box of the circle inscribed in r, centered on its midpoint
func Circle(r widget.Rect) widget.Rect {
	radius := math.Min(r.Width(), r.Height()) / 2
	return widget.Rect{
		X0: r.MidX() - radius,
		Y0: r.MidY() - radius,
		X1: r.MidX() + radius,
		Y1: r.MidY() + radius,
	}
}

// Border returns the shapes drawing a widget's border and background. Nothing
// is drawn unless a border or background color is set.
func Border(w *widget.Widget) []Instruction {
	s := w.Style
	if s.BorderColor == nil && s.BackgroundColor == nil {
		return nil
	}
	paint := Paint{Stroke: s.BorderColor, Fill: s.BackgroundColor, LineWidth: s.BorderWidth}
	if s.BorderStyle == widget.BorderDashed {
		paint.Dash = s.DashArray
	}

	switch {
	case s.BorderStyle == widget.BorderUnderline:
		var out []Instruction
		if s.BackgroundColor != nil {
			out = append(out, Rect{Box: w.Rect, Paint: Paint{Fill: s.BackgroundColor}})
		}
		if s.BorderColor != nil {
			out = append(out, Line{
				X0: w.Rect.X0, Y0: w.Rect.Y0, X1: w.Rect.X1, Y1: w.Rect.Y0,
				Paint: Paint{Stroke: s.BorderColor, LineWidth: s.BorderWidth},
			})
		}
		return out
	case w.Kind() == widget.KindRadio:
		return []Instruction{Ellipse{Box: Circle(w.Rect), Paint: paint}}
	default:
		return []Instruction{Rect{Box: w.Rect, Paint: paint}}
	}
}
