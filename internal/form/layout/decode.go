package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Spec is the JSON form of one draw instruction
type Spec struct {
	Type string `json:"type"` // text, image, line, rect or ellipse

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	X1     float64 `json:"x1,omitempty"`
	Y1     float64 `json:"y1,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Text    string        `json:"text,omitempty"`
	Font    string        `json:"font,omitempty"`
	Size    float64       `json:"size,omitempty"`
	Color   *widget.Color `json:"color,omitempty"`
	Leading float64       `json:"leading,omitempty"`

	Image               []byte  `json:"image,omitempty"` // base64 in JSON
	Source              string  `json:"source,omitempty"`
	Rotation            float64 `json:"rotation,omitempty"`
	PreserveAspectRatio bool    `json:"preserve_aspect_ratio,omitempty"`

	Stroke    *widget.Color `json:"stroke,omitempty"`
	Fill      *widget.Color `json:"fill,omitempty"`
	LineWidth float64       `json:"line_width,omitempty"`
	Dash      []float64     `json:"dash,omitempty"`
}

// Instruction validates s and converts it
func (s Spec) Instruction() (Instruction, error) {
	invalid := func(msg string) error {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, msg, s.Type)
	}
	for _, c := range []*widget.Color{s.Color, s.Stroke, s.Fill} {
		if c != nil && !c.Valid() {
			return nil, invalid("color components must lie in [0,1]")
		}
	}
	paint := Paint{Stroke: s.Stroke, Fill: s.Fill, LineWidth: s.LineWidth, Dash: s.Dash}
	box := func() (widget.Rect, error) {
		if s.Width <= 0 || s.Height <= 0 {
			return widget.Rect{}, invalid("width and height must be positive")
		}
		return widget.NewRect(s.X, s.Y, s.X+s.Width, s.Y+s.Height), nil
	}

	switch strings.ToLower(s.Type) {
	case "text":
		if s.Size < 0 {
			return nil, invalid("font size must not be negative")
		}
		t := Text{X: s.X, Y: s.Y, Font: s.Font, Size: s.Size, Leading: s.Leading}
		if s.Color != nil {
			t.Color = *s.Color
		}
		if strings.ContainsAny(s.Text, "\r\n") {
			t.Lines = strings.Split(strings.ReplaceAll(s.Text, "\r\n", "\n"), "\n")
		} else {
			t.Text = s.Text
		}
		return t, nil
	case "image":
		if len(s.Image) == 0 && s.Source == "" {
			return nil, invalid("image needs data or a source")
		}
		r, err := box()
		if err != nil {
			return nil, err
		}
		return Image{
			X: r.X0, Y: r.Y0, Width: r.Width(), Height: r.Height(),
			Data: s.Image, Source: s.Source,
			Rotation: s.Rotation, PreserveAspectRatio: s.PreserveAspectRatio,
		}, nil
	case "line":
		return Line{X0: s.X, Y0: s.Y, X1: s.X1, Y1: s.Y1, Paint: paint}, nil
	case "rect":
		r, err := box()
		if err != nil {
			return nil, err
		}
		return Rect{Box: r, Paint: paint}, nil
	case "ellipse":
		r, err := box()
		if err != nil {
			return nil, err
		}
		return Ellipse{Box: r, Paint: paint}, nil
	}
	return nil, invalid("unknown instruction type")
}

// DecodeInstructions converts a page-number keyed JSON object of instruction
// lists, as accepted by the draw tools
func DecodeInstructions(data []byte) (map[int][]Instruction, error) {
	var raw map[string][]Spec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidInstruction, "cannot decode draw instructions", err)
	}
	out := make(map[int][]Instruction, len(raw))
	for key, specs := range raw {
		page, err := strconv.Atoi(key)
		if err != nil || page < 1 {
			return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction,
				"page keys must be positive integers", key)
		}
		for i, s := range specs {
			instr, err := s.Instruction()
			if err != nil {
				if perr, ok := errors.As(err); ok {
					perr.WithPage(page).WithContext(fmt.Sprintf("instruction %d: %s", i, perr.Context))
				}
				return nil, err
			}
			out[page] = append(out[page], instr)
		}
	}
	return out, nil
}
