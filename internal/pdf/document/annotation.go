package document

import (
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Annotation is one entry of a page's /Annots array together with its field parent
type Annotation struct {
	Page  int // 0-based
	Index int // position within /Annots
	Dict  types.Dict

	doc    *Document
	parent types.Dict
}

// Annotations returns the annotations of a page in /Annots order
func (d *Document) Annotations(page int) ([]*Annotation, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if cached, ok := d.annots[page]; ok {
		return cached, nil
	}

	pageDict, _, _, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidDocument, "failed to read page", err).WithPage(page + 1)
	}

	var out []*Annotation
	if obj, found := pageDict.Find("Annots"); found {
		for i, entry := range d.array(obj) {
			dict := d.dict(entry)
			if dict == nil {
				continue
			}
			a := &Annotation{Page: page, Index: i, Dict: dict, doc: d}
			if p, found := dict.Find("Parent"); found {
				a.parent = d.dict(p)
			}
			out = append(out, a)
		}
	}
	d.annots[page] = out
	return out, nil
}

// Subtype returns the annotation subtype, e.g. "Widget" or "Link"
func (a *Annotation) Subtype() string {
	return a.doc.name(a.Dict["Subtype"])
}

// IsWidget reports whether the annotation is a form widget
func (a *Annotation) IsWidget() bool {
	return a.Subtype() == "Widget"
}

// HasParent reports whether the annotation hangs below a field dictionary
func (a *Annotation) HasParent() bool {
	return a.parent != nil
}

// Name returns the annotation's own partial field name (/T)
func (a *Annotation) Name() string {
	s, _ := a.doc.text(a.Dict["T"])
	return s
}

// ParentName returns the parent field's /T
func (a *Annotation) ParentName() string {
	if a.parent == nil {
		return ""
	}
	s, _ := a.doc.text(a.parent["T"])
	return s
}

// FieldType returns the annotation's own /FT
func (a *Annotation) FieldType() string {
	return a.doc.name(a.Dict["FT"])
}

// ParentFieldType returns the parent's /FT
func (a *Annotation) ParentFieldType() string {
	if a.parent == nil {
		return ""
	}
	return a.doc.name(a.parent["FT"])
}

// Flags returns the annotation's own /Ff
func (a *Annotation) Flags() int {
	f, _ := a.doc.integer(a.Dict["Ff"])
	return f
}

// ParentFlags returns the parent's /Ff
func (a *Annotation) ParentFlags() int {
	if a.parent == nil {
		return 0
	}
	f, _ := a.doc.integer(a.parent["Ff"])
	return f
}

// SiblingCount returns the number of kids of the parent field
func (a *Annotation) SiblingCount() int {
	if a.parent == nil {
		return 0
	}
	return len(a.doc.array(a.parent["Kids"]))
}

// field returns the dictionary holding the field value: the annotation itself
// when it is named, else its parent.
func (a *Annotation) field() types.Dict {
	if _, named := a.Dict["T"]; !named && a.parent != nil {
		return a.parent
	}
	return a.Dict
}

// inherited looks up key on the annotation, then its parent, then the AcroForm
func (a *Annotation) inherited(key string, acroForm bool) types.Object {
	if o, found := a.Dict[key]; found {
		return o
	}
	if a.parent != nil {
		if o, found := a.parent[key]; found {
			return o
		}
	}
	if acroForm {
		if af := a.doc.acroForm(); af != nil {
			return af[key]
		}
	}
	return nil
}

// Rect returns the normalized annotation rectangle
func (a *Annotation) Rect() (widget.Rect, bool) {
	nums := a.doc.numbers(a.Dict["Rect"])
	if len(nums) != 4 {
		return widget.Rect{}, false
	}
	return widget.NewRect(nums[0], nums[1], nums[2], nums[3]), true
}

// DefaultAppearance returns the effective /DA string
func (a *Annotation) DefaultAppearance() string {
	s, _ := a.doc.text(a.inherited("DA", true))
	return s
}

// Quadding returns the effective /Q alignment
func (a *Annotation) Quadding() int {
	q, _ := a.doc.integer(a.inherited("Q", true))
	return q
}

// MaxLen returns the effective /MaxLen, 0 when absent
func (a *Annotation) MaxLen() int {
	n, _ := a.doc.integer(a.inherited("MaxLen", false))
	return n
}

// AppearanceStates returns the sorted names of the normal appearance states
func (a *Annotation) AppearanceStates() []string {
	ap := a.doc.dict(a.Dict["AP"])
	if ap == nil {
		return nil
	}
	n := a.doc.dict(ap["N"])
	if n == nil {
		return nil
	}
	states := make([]string, 0, len(n))
	for k := range n {
		states = append(states, k)
	}
	sort.Strings(states)
	return states
}

// OnState returns the first appearance state other than Off, or ""
func (a *Annotation) OnState() string {
	for _, s := range a.AppearanceStates() {
		if s != "Off" {
			return s
		}
	}
	return ""
}

// AppearanceState returns /AS
func (a *Annotation) AppearanceState() string {
	return a.doc.name(a.Dict["AS"])
}

// Value is a field value as stored in /V
type Value struct {
	Text   string
	IsName bool
	Set    bool
}

// Value returns the field's current /V
func (a *Annotation) Value() Value {
	obj := a.doc.resolve(a.inherited("V", false))
	switch v := obj.(type) {
	case types.Name:
		return Value{Text: string(v), IsName: true, Set: true}
	case types.StringLiteral, types.HexLiteral:
		s, ok := a.doc.text(v)
		return Value{Text: s, Set: ok}
	case types.Array:
		// multi-select lists: report the first selection
		if len(v) > 0 {
			s, ok := a.doc.text(v[0])
			return Value{Text: s, Set: ok}
		}
	}
	return Value{}
}

// Options returns the display texts and export values of a choice field's /Opt
func (a *Annotation) Options() (display, export []string) {
	for _, opt := range a.doc.array(a.inherited("Opt", false)) {
		if s, ok := a.doc.text(opt); ok {
			display = append(display, s)
			export = append(export, "")
			continue
		}
		pair := a.doc.array(opt)
		if len(pair) < 2 {
			continue
		}
		exp, _ := a.doc.text(pair[0])
		disp, _ := a.doc.text(pair[1])
		display = append(display, disp)
		export = append(export, exp)
	}
	return display, export
}

// Border returns the /BS width, style name and dash pattern
func (a *Annotation) Border() (width float64, style string, dash []float64) {
	width = 1
	bs := a.doc.dict(a.Dict["BS"])
	if bs == nil {
		return width, "S", nil
	}
	if w, ok := a.doc.number(bs["W"]); ok {
		width = w
	}
	style = a.doc.name(bs["S"])
	if style == "" {
		style = "S"
	}
	return width, style, a.doc.numbers(bs["D"])
}

// Colors returns the /MK border and background colors, nil when absent
func (a *Annotation) Colors() (border, background *widget.Color) {
	mk := a.doc.dict(a.Dict["MK"])
	if mk == nil {
		return nil, nil
	}
	return colorFrom(a.doc.numbers(mk["BC"])), colorFrom(a.doc.numbers(mk["BG"]))
}

// Caption returns the /MK /CA normal caption; check boxes keep their ZapfDingbats symbol there
func (a *Annotation) Caption() string {
	mk := a.doc.dict(a.Dict["MK"])
	if mk == nil {
		return ""
	}
	s, _ := a.doc.text(mk["CA"])
	return s
}

func colorFrom(c []float64) *widget.Color {
	switch len(c) {
	case 1:
		return &widget.Color{R: c[0], G: c[0], B: c[0]}
	case 3:
		return &widget.Color{R: c[0], G: c[1], B: c[2]}
	case 4:
		k := 1 - c[3]
		return &widget.Color{R: (1 - c[0]) * k, G: (1 - c[1]) * k, B: (1 - c[2]) * k}
	}
	return nil
}

// SetValue writes /V on the field dictionary
func (a *Annotation) SetValue(v types.Object) {
	a.field()["V"] = v
}

// SetAppearanceState writes /AS on the widget annotation
func (a *Annotation) SetAppearanceState(state string) {
	a.Dict["AS"] = types.Name(state)
}

// SetFlags sets or clears mask in the field's /Ff
func (a *Annotation) SetFlags(mask int, set bool) {
	f := a.field()
	cur, _ := a.doc.integer(f["Ff"])
	if set {
		cur |= mask
	} else {
		cur &^= mask
	}
	f["Ff"] = types.Integer(cur)
}
