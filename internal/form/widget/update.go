package widget

// UpdateKey names the annotation entry an Update rewrites
type UpdateKey string

const (
	UpdateAppearance      UpdateKey = "DA"
	UpdateBorderColor     UpdateKey = "MK/BC"
	UpdateBackgroundColor UpdateKey = "MK/BG"
	UpdateBorderWidth     UpdateKey = "BS/W"
	UpdateBorderStyle     UpdateKey = "BS/S"
	UpdateDashArray       UpdateKey = "BS/D"
	UpdateQuadding        UpdateKey = "Q"
	UpdateMaxLength       UpdateKey = "MaxLen"
	UpdateFlags           UpdateKey = "Ff"
	UpdateCaption         UpdateKey = "MK/CA"
)

// Update is one pending structural change to the annotations named Widget.
// Value is a string (DA, BS/S, MK/CA), float64 (BS/W), int (Q, MaxLen),
// *Color (MK entries, nil removes), []float64 (BS/D) or FlagChange (Ff).
type Update struct {
	Widget string    `json:"widget"`
	Key    UpdateKey `json:"key"`
	Value  any       `json:"value"`
}

// FlagChange sets or clears the bits of Mask in /Ff
type FlagChange struct {
	Mask int  `json:"mask"`
	Set  bool `json:"set"`
}

func (w *Widget) update(key UpdateKey, value any) []Update {
	return []Update{{Widget: w.Name, Key: key, Value: value}}
}

func (w *Widget) appearanceUpdate() []Update {
	return w.update(UpdateAppearance, DefaultAppearance(w.Style))
}

// SetFont changes the font and returns the /DA rewrite
func (w *Widget) SetFont(name string) []Update {
	w.Style.FontName = name
	return w.appearanceUpdate()
}

// SetFontSize changes the font size; 0 selects auto sizing
func (w *Widget) SetFontSize(size float64) []Update {
	if size < 0 {
		size = 0
	}
	w.Style.FontSize = size
	return w.appearanceUpdate()
}

// SetFontColor changes the text color
func (w *Widget) SetFontColor(c Color) []Update {
	w.Style.FontColor = c
	return w.appearanceUpdate()
}

// SetAlignment changes text quadding. Other kinds ignore it.
func (w *Widget) SetAlignment(a Alignment) []Update {
	t := w.Text()
	if t == nil {
		return nil
	}
	t.Alignment = a
	return w.update(UpdateQuadding, int(a))
}

// SetBorderColor sets or, with nil, removes the border color
func (w *Widget) SetBorderColor(c *Color) []Update {
	w.Style.BorderColor = c
	return w.update(UpdateBorderColor, c)
}

// SetBackgroundColor sets or, with nil, removes the background color
func (w *Widget) SetBackgroundColor(c *Color) []Update {
	w.Style.BackgroundColor = c
	return w.update(UpdateBackgroundColor, c)
}

// SetBorderWidth changes the border line width
func (w *Widget) SetBorderWidth(width float64) []Update {
	w.Style.BorderWidth = width
	return w.update(UpdateBorderWidth, width)
}

// SetBorderStyle changes the border style
func (w *Widget) SetBorderStyle(s BorderStyle) []Update {
	w.Style.BorderStyle = s
	return w.update(UpdateBorderStyle, s.PDFName())
}

// SetDashArray changes the dash pattern; a non-empty pattern also switches the style to dashed
func (w *Widget) SetDashArray(dash []float64) []Update {
	w.Style.DashArray = append([]float64(nil), dash...)
	updates := w.update(UpdateDashArray, w.Style.DashArray)
	if len(dash) > 0 && w.Style.BorderStyle != BorderDashed {
		updates = append(updates, w.SetBorderStyle(BorderDashed)...)
	}
	return updates
}

// SetMaxLength changes the maximum text length; 0 removes the limit
func (w *Widget) SetMaxLength(n int) []Update {
	t := w.Text()
	if t == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	t.MaxLength = n
	return w.update(UpdateMaxLength, n)
}

// SetComb toggles comb layout. Comb only takes effect once MaxLength is set.
func (w *Widget) SetComb(comb bool) []Update {
	t := w.Text()
	if t == nil {
		return nil
	}
	t.Comb = comb
	return w.update(UpdateFlags, FlagChange{Mask: FlagComb, Set: comb})
}

// SetMultiline toggles paragraph layout
func (w *Widget) SetMultiline(multiline bool) []Update {
	t := w.Text()
	if t == nil {
		return nil
	}
	t.Multiline = multiline
	return w.update(UpdateFlags, FlagChange{Mask: FlagMultiline, Set: multiline})
}

// SetReadOnly toggles the read-only flag
func (w *Widget) SetReadOnly(readOnly bool) []Update {
	w.ReadOnly = readOnly
	return w.update(UpdateFlags, FlagChange{Mask: FlagReadOnly, Set: readOnly})
}

// SetButtonStyle changes the symbol drawn for a checked button. Other kinds ignore it.
func (w *Widget) SetButtonStyle(s ButtonStyle) []Update {
	switch a := w.Attrs.(type) {
	case *CheckboxAttributes:
		a.ButtonStyle = s
	case *RadioAttributes:
		a.ButtonStyle = s
	default:
		return nil
	}
	return w.update(UpdateCaption, s.Symbol())
}
