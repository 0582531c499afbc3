package layout

import (
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
)

// Layer orders instructions on an overlay page. Lower layers are painted first.
type Layer int

const (
	LayerShapes Layer = iota
	LayerImages
	LayerText
)

// Instruction is one drawing operation on a page overlay. The set of
// implementations is closed: Text, Image, Line, Rect and Ellipse.
type Instruction interface {
	Layer() Layer
}

// Text draws a string with its baseline origin at (X, Y). When Lines is set
// the lines are drawn top-down from (X, Y), Leading apart, and Text is ignored.
type Text struct {
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Text    string       `json:"text,omitempty"`
	Lines   []string     `json:"lines,omitempty"`
	Leading float64      `json:"leading,omitempty"`
	Font    string       `json:"font"`
	Size    float64      `json:"size"`
	Color   widget.Color `json:"color"`
}

// Image draws an image into the box with lower-left corner (X, Y).
// Either Data or Source is set; Source is resolved by the caller's loader.
type Image struct {
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	Width               float64 `json:"width"`
	Height              float64 `json:"height"`
	Data                []byte  `json:"-"`
	Source              string  `json:"source,omitempty"`
	Rotation            float64 `json:"rotation,omitempty"`
	PreserveAspectRatio bool    `json:"preserve_aspect_ratio,omitempty"`
}

// Box returns the target rectangle
func (i Image) Box() widget.Rect {
	return widget.NewRect(i.X, i.Y, i.X+i.Width, i.Y+i.Height)
}

// Paint describes stroke and fill of a shape. A nil color skips that operation.
type Paint struct {
	Stroke    *widget.Color `json:"stroke,omitempty"`
	Fill      *widget.Color `json:"fill,omitempty"`
	LineWidth float64       `json:"line_width,omitempty"`
	Dash      []float64     `json:"dash,omitempty"`
}

// Line strokes a segment from (X0, Y0) to (X1, Y1)
type Line struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	Paint
}

// Rect paints a rectangle
type Rect struct {
	Box widget.Rect `json:"box"`
	Paint
}

// Ellipse paints the ellipse inscribed in Box
type Ellipse struct {
	Box widget.Rect `json:"box"`
	Paint
}

func (Text) Layer() Layer    { return LayerText }
func (Image) Layer() Layer   { return LayerImages }
func (Line) Layer() Layer    { return LayerShapes }
func (Rect) Layer() Layer    { return LayerShapes }
func (Ellipse) Layer() Layer { return LayerShapes }
