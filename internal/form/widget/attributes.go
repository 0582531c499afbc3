package widget

// Attributes carries the kind-specific state of a widget.
// The set of implementations is closed; switch over the concrete types.
type Attributes interface {
	Kind() Kind
	clone() Attributes
}

// TextAttributes describes a text field
type TextAttributes struct {
	Value          *string   `json:"value,omitempty"`
	MaxLength      int       `json:"max_length,omitempty"` // 0 means unlimited
	Comb           bool      `json:"comb,omitempty"`
	Alignment      Alignment `json:"alignment"`
	Multiline      bool      `json:"multiline,omitempty"`
	TextWrapLength int       `json:"text_wrap_length,omitempty"`
	// TextLines is computed by the font-fit engine for multiline fields
	TextLines []string `json:"text_lines,omitempty"`
}

func (a *TextAttributes) Kind() Kind { return KindText }

func (a *TextAttributes) clone() Attributes {
	c := *a
	if a.Value != nil {
		v := *a.Value
		c.Value = &v
	}
	c.TextLines = append([]string(nil), a.TextLines...)
	return &c
}

// IsComb reports whether the field lays characters out in fixed cells
func (a *TextAttributes) IsComb() bool {
	return a.Comb && a.MaxLength > 0
}

// CheckboxAttributes describes a checkbox
type CheckboxAttributes struct {
	Value       *bool       `json:"value,omitempty"`
	ButtonStyle ButtonStyle `json:"button_style"`
	Size        float64     `json:"size,omitempty"` // 0 derives the symbol size from the rect
	// OnState is the appearance name used for the checked state, usually "Yes"
	OnState string `json:"on_state,omitempty"`
}

func (a *CheckboxAttributes) Kind() Kind { return KindCheckbox }

func (a *CheckboxAttributes) clone() Attributes {
	c := *a
	if a.Value != nil {
		v := *a.Value
		c.Value = &v
	}
	return &c
}

// RadioAttributes describes one radio group. The same value is shared by every
// sibling; the sibling whose occurrence index equals Value is the selected one.
type RadioAttributes struct {
	Value       *int        `json:"value,omitempty"`
	ButtonStyle ButtonStyle `json:"button_style"`
	Size        float64     `json:"size,omitempty"`
	OptionCount int         `json:"option_count"`
	// OnState is the appearance name of this particular sibling
	OnState string `json:"on_state,omitempty"`
}

func (a *RadioAttributes) Kind() Kind { return KindRadio }

func (a *RadioAttributes) clone() Attributes {
	c := *a
	if a.Value != nil {
		v := *a.Value
		c.Value = &v
	}
	return &c
}

// DropdownAttributes describes a combo/list choice field
type DropdownAttributes struct {
	Value   *int     `json:"value,omitempty"`
	Choices []string `json:"choices"`
	// ExportValues parallels Choices; an empty entry means the display text is exported
	ExportValues []string `json:"export_values,omitempty"`
}

func (a *DropdownAttributes) Kind() Kind { return KindDropdown }

func (a *DropdownAttributes) clone() Attributes {
	c := *a
	if a.Value != nil {
		v := *a.Value
		c.Value = &v
	}
	c.Choices = append([]string(nil), a.Choices...)
	c.ExportValues = append([]string(nil), a.ExportValues...)
	return &c
}

// ExportValue returns the value written to /V for choice i
func (a *DropdownAttributes) ExportValue(i int) string {
	if i < 0 || i >= len(a.Choices) {
		return ""
	}
	if i < len(a.ExportValues) && a.ExportValues[i] != "" {
		return a.ExportValues[i]
	}
	return a.Choices[i]
}

// Selected returns the display text of the selected choice, or "" when unset
func (a *DropdownAttributes) Selected() string {
	if a.Value == nil || *a.Value < 0 || *a.Value >= len(a.Choices) {
		return ""
	}
	return a.Choices[*a.Value]
}

// IndexOf returns the index whose display or export value equals s
func (a *DropdownAttributes) IndexOf(s string) int {
	for i, c := range a.Choices {
		if c == s || a.ExportValue(i) == s {
			return i
		}
	}
	return -1
}

// ImageAttributes describes a pushbutton field used as an image placeholder
type ImageAttributes struct {
	// Source is a path resolved by the filler's image loader
	Source              string  `json:"source,omitempty"`
	Data                []byte  `json:"-"`
	PreserveAspectRatio bool    `json:"preserve_aspect_ratio"`
	Rotation            float64 `json:"rotation,omitempty"`
}

func (a *ImageAttributes) Kind() Kind { return KindImage }

func (a *ImageAttributes) clone() Attributes {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

func (a *ImageAttributes) value() any {
	switch {
	case a.Source != "":
		return a.Source
	case len(a.Data) > 0:
		return "<bytes>"
	}
	return nil
}

// SignatureAttributes describes a signature field, rendered as an image
type SignatureAttributes struct {
	ImageAttributes
}

func (a *SignatureAttributes) Kind() Kind { return KindSignature }

func (a *SignatureAttributes) clone() Attributes {
	c := a.ImageAttributes.clone().(*ImageAttributes)
	return &SignatureAttributes{ImageAttributes: *c}
}
