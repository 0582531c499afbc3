package widget

import (
	"fmt"
	"strings"
)

// StyleOverride is a partial style change requested by name. Nil members
// leave the widget's current setting alone.
type StyleOverride struct {
	Font            *string   `json:"font,omitempty"`
	FontSize        *float64  `json:"font_size,omitempty"`
	FontColor       *Color    `json:"font_color,omitempty"`
	Alignment       *string   `json:"alignment,omitempty"`
	BorderColor     *Color    `json:"border_color,omitempty"`
	BackgroundColor *Color    `json:"background_color,omitempty"`
	BorderWidth     *float64  `json:"border_width,omitempty"`
	BorderStyle     *string   `json:"border_style,omitempty"`
	DashArray       []float64 `json:"dash_array,omitempty"`
	MaxLength       *int      `json:"max_length,omitempty"`
	Comb            *bool     `json:"comb,omitempty"`
	Multiline       *bool     `json:"multiline,omitempty"`
	ReadOnly        *bool     `json:"read_only,omitempty"`
	ButtonStyle     *string   `json:"button_style,omitempty"`
}

// ParseAlignment maps left, center or right onto an Alignment
func ParseAlignment(name string) (Alignment, bool) {
	switch strings.ToLower(name) {
	case "left", "":
		return AlignLeft, true
	case "center", "centre":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	}
	return AlignLeft, false
}

// ParseBorderStyle maps a border style name or its /BS /S letter onto a BorderStyle
func ParseBorderStyle(name string) (BorderStyle, bool) {
	switch strings.ToLower(name) {
	case "solid", "s", "":
		return BorderSolid, true
	case "dashed", "d":
		return BorderDashed, true
	case "beveled", "b":
		return BorderBeveled, true
	case "inset", "i":
		return BorderInset, true
	case "underline", "u":
		return BorderUnderline, true
	}
	return BorderSolid, false
}

// Validate checks names, colors and sizes without touching any widget
func (o StyleOverride) Validate() error {
	bad := func(field string, v any) error {
		return fmt.Errorf("invalid %s: %v", field, v)
	}
	for field, c := range map[string]*Color{"font_color": o.FontColor, "border_color": o.BorderColor, "background_color": o.BackgroundColor} {
		if c != nil && !c.Valid() {
			return bad(field, *c)
		}
	}
	if o.FontSize != nil && *o.FontSize < 0 {
		return bad("font_size", *o.FontSize)
	}
	if o.BorderWidth != nil && *o.BorderWidth < 0 {
		return bad("border_width", *o.BorderWidth)
	}
	if o.MaxLength != nil && *o.MaxLength < 0 {
		return bad("max_length", *o.MaxLength)
	}
	for _, d := range o.DashArray {
		if d < 0 {
			return bad("dash_array", o.DashArray)
		}
	}
	if o.Alignment != nil {
		if _, ok := ParseAlignment(*o.Alignment); !ok {
			return bad("alignment", *o.Alignment)
		}
	}
	if o.BorderStyle != nil {
		if _, ok := ParseBorderStyle(*o.BorderStyle); !ok {
			return bad("border_style", *o.BorderStyle)
		}
	}
	if o.ButtonStyle != nil {
		if _, ok := ParseButtonStyle(*o.ButtonStyle); !ok {
			return bad("button_style", *o.ButtonStyle)
		}
	}
	return nil
}

// ApplyStyle applies every member of o to the widget and returns the
// resulting annotation rewrites. Members that do not apply to the widget's
// kind are ignored.
func (w *Widget) ApplyStyle(o StyleOverride) ([]Update, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	var updates []Update
	if o.Font != nil {
		updates = append(updates, w.SetFont(*o.Font)...)
	}
	if o.FontSize != nil {
		updates = append(updates, w.SetFontSize(*o.FontSize)...)
	}
	if o.FontColor != nil {
		updates = append(updates, w.SetFontColor(*o.FontColor)...)
	}
	if o.Alignment != nil {
		a, _ := ParseAlignment(*o.Alignment)
		updates = append(updates, w.SetAlignment(a)...)
	}
	if o.BorderColor != nil {
		c := *o.BorderColor
		updates = append(updates, w.SetBorderColor(&c)...)
	}
	if o.BackgroundColor != nil {
		c := *o.BackgroundColor
		updates = append(updates, w.SetBackgroundColor(&c)...)
	}
	if o.BorderWidth != nil {
		updates = append(updates, w.SetBorderWidth(*o.BorderWidth)...)
	}
	if o.BorderStyle != nil {
		s, _ := ParseBorderStyle(*o.BorderStyle)
		updates = append(updates, w.SetBorderStyle(s)...)
	}
	if o.DashArray != nil {
		updates = append(updates, w.SetDashArray(o.DashArray)...)
	}
	if o.MaxLength != nil {
		updates = append(updates, w.SetMaxLength(*o.MaxLength)...)
	}
	if o.Comb != nil {
		updates = append(updates, w.SetComb(*o.Comb)...)
	}
	if o.Multiline != nil {
		updates = append(updates, w.SetMultiline(*o.Multiline)...)
	}
	if o.ReadOnly != nil {
		updates = append(updates, w.SetReadOnly(*o.ReadOnly)...)
	}
	if o.ButtonStyle != nil {
		s, _ := ParseButtonStyle(*o.ButtonStyle)
		updates = append(updates, w.SetButtonStyle(s)...)
	}
	return updates, nil
}
