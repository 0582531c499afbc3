package layout

import (
	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

// Engine turns widgets with values into draw instructions
type Engine struct {
	fit *fontfit.Fitter
}

// NewEngine creates an engine sizing text with fit
func NewEngine(fit *fontfit.Fitter) *Engine {
	return &Engine{fit: fit}
}

// Layout produces the instructions for pages 1..pageCount. Every page is
// present in the result, with an empty slice when nothing is drawn on it.
// Widgets are fitted in place. Widgets that cannot be laid out are skipped
// and reported as warnings.
func (e *Engine) Layout(pages map[int][]*widget.Widget, pageCount int) (map[int][]Instruction, *errors.ErrorCollection) {
	out := make(map[int][]Instruction, pageCount)
	warnings := &errors.ErrorCollection{}
	radios := newRadioCounter()

	for page := 1; page <= pageCount; page++ {
		out[page] = []Instruction{}
		for _, w := range pages[page] {
			selected := false
			if r := w.Radio(); r != nil {
				selected = radios.next(w.Name, r.Value)
			}
			instr, err := e.Widget(w, selected)
			if err != nil {
				perr := toWarning(err, w, page)
				logging.Logger().Warn("widget skipped during layout",
					"page", page, "widget", w.Name, "error", perr.Message)
				warnings.Add(perr)
				continue
			}
			out[page] = append(out[page], instr...)
		}
	}
	return out, warnings
}

// Widget lays out one widget. selected only matters for radio buttons and
// tells whether this sibling carries the group's value. Borders are drawn
// only for widgets holding a value.
func (e *Engine) Widget(w *widget.Widget, selected bool) ([]Instruction, error) {
	if w.Attrs == nil {
		return nil, errors.NewPDFError(errors.ErrorTypeMalformedWidget, "widget has no type")
	}
	if w.Rect.Empty() {
		return nil, errors.NewPDFError(errors.ErrorTypeMalformedWidget, "widget has an empty rectangle")
	}

	// empty widgets keep the template's own decoration
	var out []Instruction
	if w.HasValue() {
		out = Border(w)
	}
	switch a := w.Attrs.(type) {
	case *widget.TextAttributes:
		out = append(out, e.text(w)...)
	case *widget.CheckboxAttributes:
		if a.Value != nil && *a.Value {
			out = append(out, e.symbol(w, a.ButtonStyle, a.Size))
		}
	case *widget.RadioAttributes:
		if selected {
			out = append(out, e.symbol(w, a.ButtonStyle, a.Size))
		}
	case *widget.DropdownAttributes:
		if choice := a.Selected(); choice != "" {
			proxy := &widget.Widget{
				Name:  w.Name,
				Page:  w.Page,
				Rect:  w.Rect,
				Style: w.Style,
				Attrs: &widget.TextAttributes{Value: &choice},
			}
			out = append(out, e.text(proxy)...)
		}
	case *widget.ImageAttributes, *widget.SignatureAttributes:
		img := w.Image()
		if len(img.Data) == 0 {
			break
		}
		placed, err := FinalizeImage(Image{
			X: w.Rect.X0, Y: w.Rect.Y0, Width: w.Rect.Width(), Height: w.Rect.Height(),
			Data: img.Data, Rotation: img.Rotation, PreserveAspectRatio: img.PreserveAspectRatio,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, placed)
	}
	return out, nil
}

func (e *Engine) text(w *widget.Widget) []Instruction {
	t := w.Text()
	if t.Value == nil || *t.Value == "" {
		return nil
	}
	res := e.fit.Apply(w)
	m := e.fit.Fonts()
	base := Text{Font: res.Font, Size: res.Size, Color: w.Style.FontColor}

	var out []Instruction
	switch {
	case t.Multiline:
		y := BaselineY(w.Rect, res.Size, true)
		for _, line := range res.Lines {
			if line != "" {
				txt := base
				txt.X = TextX(w.Rect, t.Alignment, m.TextWidth(line, res.Font, res.Size))
				txt.Y = y
				txt.Text = line
				out = append(out, txt)
			}
			y -= e.fit.LineHeight(res.Size)
		}
	case t.IsComb():
		chars := truncate([]rune(*t.Value), t.MaxLength)
		widths := make([]float64, len(chars))
		for i, r := range chars {
			widths[i] = m.TextWidth(string(r), res.Font, res.Size)
		}
		offsets := CombOffsets(w.Rect.Width(), t.MaxLength, widths)
		x := CombX(w.Rect, t.Alignment, t.MaxLength, offsets, widths)
		y := BaselineY(w.Rect, res.Size, false)
		for i, r := range chars {
			txt := base
			txt.X, txt.Y, txt.Text = x+offsets[i], y, string(r)
			out = append(out, txt)
		}
	default:
		value := string(truncate([]rune(*t.Value), t.MaxLength))
		txt := base
		txt.X = TextX(w.Rect, t.Alignment, m.TextWidth(value, res.Font, res.Size))
		txt.Y = BaselineY(w.Rect, res.Size, false)
		txt.Text = value
		out = append(out, txt)
	}
	return out
}

func (e *Engine) symbol(w *widget.Widget, style widget.ButtonStyle, size float64) Instruction {
	symbol := style.Symbol()
	size = SymbolSize(w.Rect, size)
	x, y := SymbolPosition(w.Rect, e.fit.Fonts().TextWidth(symbol, widget.SymbolFont, size), size)
	return Text{X: x, Y: y, Text: symbol, Font: widget.SymbolFont, Size: size, Color: w.Style.FontColor}
}

// FinalizeImage rotates the image data when asked and resolves aspect-ratio
// placement, returning an instruction that draws exactly into its box
func FinalizeImage(img Image) (Image, error) {
	data := img.Data
	if img.Rotation != 0 {
		rotated, err := imaging.Rotate(data, img.Rotation)
		if err != nil {
			return Image{}, err
		}
		data = rotated
	}
	iw, ih, err := imaging.Dimensions(data)
	if err != nil {
		return Image{}, err
	}
	box := PlaceImage(img.Box(), float64(iw), float64(ih), img.PreserveAspectRatio)
	return Image{X: box.X0, Y: box.Y0, Width: box.Width(), Height: box.Height(), Data: data}, nil
}

func truncate(r []rune, maxLength int) []rune {
	if maxLength > 0 && len(r) > maxLength {
		return r[:maxLength]
	}
	return r
}

// radioCounter tracks the running occurrence index of every radio group
type radioCounter struct {
	seen  map[string]int
	drawn map[string]bool
}

func newRadioCounter() *radioCounter {
	return &radioCounter{seen: make(map[string]int), drawn: make(map[string]bool)}
}

// next advances the group's counter and reports whether this occurrence is
// the selected one. Once a group has been drawn later siblings are not checked.
func (c *radioCounter) next(group string, value *int) bool {
	idx := c.seen[group]
	c.seen[group] = idx + 1
	if value == nil || c.drawn[group] || *value != idx {
		return false
	}
	c.drawn[group] = true
	return true
}

func toWarning(err error, w *widget.Widget, page int) *errors.PDFError {
	perr, ok := errors.As(err)
	if !ok {
		perr = errors.WrapError(errors.ErrorTypeMalformedWidget, "cannot lay out widget", err)
	}
	perr.Recoverable = true
	return perr.WithWidget(w.Name).WithPage(page)
}
