// Package simplefill writes caller values straight into field dictionaries,
// leaving rendering to the viewer or to appearance regeneration.
package simplefill

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-filler/internal/form/scanner"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

const offState = "Off"

// Options control a simple fill
type Options struct {
	// Flatten marks every scanned field read-only after writing
	Flatten bool
}

// Fill assigns data to the widgets of tmpl and writes the values into the
// underlying annotations. All values are validated before the first write: a
// value of the wrong shape returns an ErrorTypeInvalidData error and leaves
// the document untouched. Names absent from tmpl are ignored.
//
// Image and signature values cannot be expressed as field values and are
// reported as warnings.
func Fill(tmpl *scanner.Template, data map[string]any, opts Options) (*errors.ErrorCollection, error) {
	if err := validate(tmpl, data); err != nil {
		return nil, err
	}

	log := logging.Logger()
	warnings := errors.NewErrorCollection()
	for name := range data {
		if tmpl.Lookup(name) == nil {
			log.Debug("value for unknown widget ignored", "widget", name)
		}
	}

	written := 0
	radios := make(map[string]int)
	for _, e := range tmpl.Entries() {
		value, ok := data[e.Key]
		occurrence := radios[e.Key]
		if e.Widget.Kind() == widget.KindRadio {
			radios[e.Key]++
		}
		if !ok || value == nil {
			continue
		}
		if err := e.Widget.Assign(value); err != nil {
			return nil, err
		}
		if err := write(e, occurrence); err != nil {
			perr, ok := errors.As(err)
			if !ok || !perr.Recoverable {
				return nil, err
			}
			log.Warn("value not written", "page", e.Widget.Page, "widget", e.Key, "rule", e.Rule, "error", perr.Message)
			warnings.Add(perr.WithWidget(e.Key).WithPage(e.Widget.Page))
			continue
		}
		written++
	}

	if opts.Flatten {
		for _, e := range tmpl.Entries() {
			e.Annotation.SetFlags(widget.FlagReadOnly, true)
			e.Widget.ReadOnly = true
		}
	}
	log.Debug("simple fill applied", "values", len(data), "written", written, "flatten", opts.Flatten)
	return warnings, nil
}

// validate assigns every value to a clone of each widget it addresses
func validate(tmpl *scanner.Template, data map[string]any) error {
	for name, value := range data {
		for _, e := range tmpl.Lookup(name) {
			if err := e.Widget.Clone().Assign(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// write stores the widget's assigned value on its annotation. occurrence is
// the position of a radio sibling within its group.
func write(e *scanner.Entry, occurrence int) error {
	a := e.Annotation
	switch attrs := e.Widget.Attrs.(type) {
	case *widget.TextAttributes:
		a.SetValue(document.TextString(*attrs.Value))
	case *widget.CheckboxAttributes:
		state := offState
		if *attrs.Value {
			state = attrs.OnState
		}
		a.SetValue(types.Name(state))
		a.SetAppearanceState(state)
	case *widget.RadioAttributes:
		if *attrs.Value != occurrence {
			a.SetAppearanceState(offState)
			return nil
		}
		state := attrs.OnState
		if state == "" {
			return errors.NewPDFError(errors.ErrorTypeMalformedWidget, "radio button has no on state")
		}
		a.SetValue(types.Name(state))
		a.SetAppearanceState(state)
	case *widget.DropdownAttributes:
		a.SetValue(document.TextString(attrs.ExportValue(*attrs.Value)))
	case *widget.ImageAttributes, *widget.SignatureAttributes:
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidImage,
			"image values need overlay mode", e.Widget.Kind().String())
	}
	return nil
}
