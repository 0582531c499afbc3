// Package widget is the in-memory model of one interactive form field:
// its kind, current value, geometry and style.
package widget

import (
	"fmt"
	"math"
)

// Kind identifies the semantic type of a widget
type Kind int

const (
	KindText Kind = iota + 1
	KindCheckbox
	KindRadio
	KindDropdown
	KindSignature
	KindImage
)

// String returns the lower-case name used in JSON output and tool arguments
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	case KindDropdown:
		return "dropdown"
	case KindSignature:
		return "signature"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Valid reports whether k names one of the widget kinds
func (k Kind) Valid() bool {
	return k >= KindText && k <= KindImage
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Alignment is the horizontal text alignment (PDF quadding)
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// ButtonStyle selects the ZapfDingbats symbol drawn for checked buttons
type ButtonStyle int

const (
	ButtonCheck ButtonStyle = iota
	ButtonCross
	ButtonCircle
)

// Symbol returns the ZapfDingbats character code for the style
func (s ButtonStyle) Symbol() string {
	switch s {
	case ButtonCross:
		return "8"
	case ButtonCircle:
		return "l"
	default:
		return "4"
	}
}

// String returns the style name
func (s ButtonStyle) String() string {
	switch s {
	case ButtonCross:
		return "cross"
	case ButtonCircle:
		return "circle"
	default:
		return "check"
	}
}

// ParseButtonStyle maps a style name onto a ButtonStyle.
func ParseButtonStyle(name string) (ButtonStyle, bool) {
	switch name {
	case "check", "":
		return ButtonCheck, true
	case "cross":
		return ButtonCross, true
	case "circle":
		return ButtonCircle, true
	}
	return ButtonCheck, false
}

// ButtonStyleFromSymbol maps a ZapfDingbats caption back onto a ButtonStyle
func ButtonStyleFromSymbol(symbol string) ButtonStyle {
	switch symbol {
	case ButtonCross.Symbol():
		return ButtonCross
	case ButtonCircle.Symbol():
		return ButtonCircle
	}
	return ButtonCheck
}

// BorderStyle mirrors the /BS /S names of a widget annotation
type BorderStyle int

const (
	BorderSolid BorderStyle = iota
	BorderDashed
	BorderBeveled
	BorderInset
	BorderUnderline
)

// PDFName returns the border style name written to /BS /S
func (b BorderStyle) PDFName() string {
	switch b {
	case BorderDashed:
		return "D"
	case BorderBeveled:
		return "B"
	case BorderInset:
		return "I"
	case BorderUnderline:
		return "U"
	default:
		return "S"
	}
}

// BorderStyleFromPDF maps a /BS /S name back onto a BorderStyle
func BorderStyleFromPDF(name string) BorderStyle {
	switch name {
	case "D":
		return BorderDashed
	case "B":
		return BorderBeveled
	case "I":
		return BorderInset
	case "U":
		return BorderUnderline
	default:
		return BorderSolid
	}
}

// Field flag bits (PDF 32000-1 tables 221, 226, 228, 230)
const (
	FlagReadOnly   = 1 << 0
	FlagRequired   = 1 << 1
	FlagMultiline  = 1 << 12
	FlagRadio      = 1 << 15
	FlagPushbutton = 1 << 16
	FlagCombo      = 1 << 17
	FlagComb       = 1 << 24
)

// Rect is a rectangle in PDF user space with origin bottom-left.
// X1 >= X0 and Y1 >= Y0 always hold for values built by NewRect.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect builds a normalized rectangle from two opposite corners
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) MidX() float64   { return (r.X0 + r.X1) / 2 }
func (r Rect) MidY() float64   { return (r.Y0 + r.Y1) / 2 }

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Color is an RGB triple with components in [0,1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 1, G: 1, B: 1}
)

// Valid reports whether every component lies in [0,1]
func (c Color) Valid() bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(c.R) && in(c.G) && in(c.B)
}

// Style holds the presentation attributes shared by all widget kinds
type Style struct {
	FontName        string      `json:"font_name,omitempty"`
	FontSize        float64     `json:"font_size,omitempty"` // 0 means auto
	FontColor       Color       `json:"font_color"`
	BorderColor     *Color      `json:"border_color,omitempty"`
	BackgroundColor *Color      `json:"background_color,omitempty"`
	BorderWidth     float64     `json:"border_width,omitempty"`
	BorderStyle     BorderStyle `json:"border_style,omitempty"`
	DashArray       []float64   `json:"dash_array,omitempty"`
}

// Widget is one form field instance on a page
type Widget struct {
	Name     string     `json:"name"`
	Page     int        `json:"page"` // 1-based
	Rect     Rect       `json:"rect"`
	Style    Style      `json:"style"`
	ReadOnly bool       `json:"read_only,omitempty"`
	Attrs    Attributes `json:"attributes"`
}

// New creates a widget of the given kind with default attributes
func New(kind Kind, name string, rect Rect) *Widget {
	w := &Widget{
		Name: name,
		Rect: rect,
	}
	switch kind {
	case KindText:
		w.Attrs = &TextAttributes{}
	case KindCheckbox:
		w.Attrs = &CheckboxAttributes{}
	case KindRadio:
		w.Attrs = &RadioAttributes{}
	case KindDropdown:
		w.Attrs = &DropdownAttributes{}
	case KindSignature:
		w.Attrs = &SignatureAttributes{ImageAttributes{PreserveAspectRatio: true}}
	case KindImage:
		w.Attrs = &ImageAttributes{PreserveAspectRatio: true}
	default:
		panic(fmt.Sprintf("widget: unknown kind %d", kind))
	}
	return w
}

// Kind returns the widget kind, derived from its attributes
func (w *Widget) Kind() Kind {
	if w.Attrs == nil {
		return 0
	}
	return w.Attrs.Kind()
}

// Text returns the text attributes, or nil for other kinds
func (w *Widget) Text() *TextAttributes {
	a, _ := w.Attrs.(*TextAttributes)
	return a
}

// Checkbox returns the checkbox attributes, or nil for other kinds
func (w *Widget) Checkbox() *CheckboxAttributes {
	a, _ := w.Attrs.(*CheckboxAttributes)
	return a
}

// Radio returns the radio attributes, or nil for other kinds
func (w *Widget) Radio() *RadioAttributes {
	a, _ := w.Attrs.(*RadioAttributes)
	return a
}

// Dropdown returns the dropdown attributes, or nil for other kinds
func (w *Widget) Dropdown() *DropdownAttributes {
	a, _ := w.Attrs.(*DropdownAttributes)
	return a
}

// Image returns the image attributes for Image and Signature widgets
func (w *Widget) Image() *ImageAttributes {
	switch a := w.Attrs.(type) {
	case *ImageAttributes:
		return a
	case *SignatureAttributes:
		return &a.ImageAttributes
	}
	return nil
}

// HasValue reports whether a value has been assigned
func (w *Widget) HasValue() bool {
	return w.Value() != nil
}

// Value returns the current value in its natural Go type, or nil when unset.
// Text yields string, Checkbox bool, Radio and Dropdown int, Image and Signature
// the source path (or "<bytes>" marker) of the assigned image.
func (w *Widget) Value() any {
	switch a := w.Attrs.(type) {
	case *TextAttributes:
		if a.Value != nil {
			return *a.Value
		}
	case *CheckboxAttributes:
		if a.Value != nil {
			return *a.Value
		}
	case *RadioAttributes:
		if a.Value != nil {
			return *a.Value
		}
	case *DropdownAttributes:
		if a.Value != nil {
			return *a.Value
		}
	case *ImageAttributes:
		return a.value()
	case *SignatureAttributes:
		return a.value()
	}
	return nil
}

// Clone returns a deep copy so callers can assign values without touching scanned state
func (w *Widget) Clone() *Widget {
	c := *w
	c.Style.DashArray = append([]float64(nil), w.Style.DashArray...)
	if w.Style.BorderColor != nil {
		bc := *w.Style.BorderColor
		c.Style.BorderColor = &bc
	}
	if w.Style.BackgroundColor != nil {
		bg := *w.Style.BackgroundColor
		c.Style.BackgroundColor = &bg
	}
	if w.Attrs != nil {
		c.Attrs = w.Attrs.clone()
	}
	return &c
}
