package document

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Widgets returns every widget annotation of the document in page order
func (d *Document) Widgets() ([]*Annotation, error) {
	var out []*Annotation
	for page := 0; page < d.PageCount(); page++ {
		annots, err := d.Annotations(page)
		if err != nil {
			return nil, err
		}
		for _, a := range annots {
			if a.IsWidget() {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// ApplyUpdates writes a batch of widget style updates. Every annotation whose
// field name matches an update's widget is rewritten; updates naming unknown
// widgets are skipped.
func (d *Document) ApplyUpdates(updates []widget.Update, fonts FontSource) error {
	if len(updates) == 0 {
		return nil
	}
	all, err := d.Widgets()
	if err != nil {
		return err
	}
	byName := make(map[string][]*Annotation)
	for _, a := range all {
		name := a.Name()
		if name == "" {
			name = a.ParentName()
		}
		byName[name] = append(byName[name], a)
	}

	for _, u := range updates {
		targets := byName[u.Widget]
		if len(targets) == 0 {
			logging.Logger().Debug("update for unknown widget skipped", "widget", u.Widget, "key", u.Key)
			continue
		}
		for _, a := range targets {
			if err := d.applyUpdate(a, u, fonts); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Document) applyUpdate(a *Annotation, u widget.Update, fonts FontSource) error {
	bad := func() error {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "invalid update value",
			fmt.Sprintf("%s: %T", u.Key, u.Value)).WithWidget(u.Widget)
	}

	switch u.Key {
	case widget.UpdateAppearance:
		da, ok := u.Value.(string)
		if !ok {
			return bad()
		}
		a.field()["DA"] = types.StringLiteral(canvas.Escape([]byte(da)))
		return d.ensureFormFont(da, fonts)
	case widget.UpdateQuadding:
		q, ok := u.Value.(int)
		if !ok {
			return bad()
		}
		a.field()["Q"] = types.Integer(q)
	case widget.UpdateMaxLength:
		n, ok := u.Value.(int)
		if !ok {
			return bad()
		}
		if n == 0 {
			delete(a.field(), "MaxLen")
		} else {
			a.field()["MaxLen"] = types.Integer(n)
		}
	case widget.UpdateFlags:
		fc, ok := u.Value.(widget.FlagChange)
		if !ok {
			return bad()
		}
		a.SetFlags(fc.Mask, fc.Set)
	case widget.UpdateBorderColor, widget.UpdateBackgroundColor:
		c, ok := u.Value.(*widget.Color)
		if !ok {
			return bad()
		}
		key := strings.TrimPrefix(string(u.Key), "MK/")
		mk := d.subDict(a.Dict, "MK")
		if c == nil {
			delete(mk, key)
		} else {
			mk[key] = types.Array{types.Float(c.R), types.Float(c.G), types.Float(c.B)}
		}
	case widget.UpdateCaption:
		ca, ok := u.Value.(string)
		if !ok {
			return bad()
		}
		d.subDict(a.Dict, "MK")["CA"] = types.StringLiteral(canvas.Escape([]byte(ca)))
	case widget.UpdateBorderWidth:
		w, ok := u.Value.(float64)
		if !ok {
			return bad()
		}
		d.subDict(a.Dict, "BS")["W"] = types.Float(w)
	case widget.UpdateBorderStyle:
		s, ok := u.Value.(string)
		if !ok {
			return bad()
		}
		d.subDict(a.Dict, "BS")["S"] = types.Name(s)
	case widget.UpdateDashArray:
		dash, ok := u.Value.([]float64)
		if !ok {
			return bad()
		}
		arr := make(types.Array, len(dash))
		for i, v := range dash {
			arr[i] = types.Float(v)
		}
		d.subDict(a.Dict, "BS")["D"] = arr
	default:
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "unknown update key",
			string(u.Key)).WithWidget(u.Widget)
	}
	return nil
}

// subDict returns parent[key] as a dictionary, creating it when absent
func (d *Document) subDict(parent types.Dict, key string) types.Dict {
	if sub := d.dict(parent[key]); sub != nil {
		return sub
	}
	sub := types.Dict{}
	parent[key] = sub
	return sub
}

// ensureFormFont makes the font named by a /DA string available in the AcroForm /DR
func (d *Document) ensureFormFont(da string, fonts FontSource) error {
	af := d.acroForm()
	if af == nil {
		return nil
	}
	fields := strings.Fields(da)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil
	}
	resource := strings.TrimPrefix(fields[0], "/")

	fontDict := d.subDict(d.subDict(af, "DR"), "Font")
	if _, present := fontDict[resource]; present {
		return nil
	}
	name, ok := widget.FontForResource(resource)
	if !ok {
		name = resource
	}
	obj, err := d.fontObject(name, fonts)
	if err != nil {
		return err
	}
	fontDict[resource] = obj
	return nil
}
