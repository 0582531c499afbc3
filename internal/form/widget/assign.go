package widget

import (
	"fmt"
	"math"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Assign validates value against the widget kind and stores it.
//
// Accepted shapes:
//   - Text: string
//   - Checkbox: bool
//   - Radio: integer (int kinds or integral float64, as produced by encoding/json)
//   - Dropdown: integer index, or a string matching a choice's display or export value
//   - Image, Signature: []byte image data, or a string path
//
// A nil value leaves the widget untouched. Any other shape yields an
// ErrorTypeInvalidData error and the widget is not modified.
func (w *Widget) Assign(value any) error {
	if value == nil {
		return nil
	}
	switch a := w.Attrs.(type) {
	case *TextAttributes:
		s, ok := value.(string)
		if !ok {
			return w.shapeError(value, "string")
		}
		a.Value = &s
	case *CheckboxAttributes:
		b, ok := value.(bool)
		if !ok {
			return w.shapeError(value, "bool")
		}
		a.Value = &b
	case *RadioAttributes:
		i, ok := toIndex(value)
		if !ok {
			return w.shapeError(value, "integer")
		}
		if i < 0 || (a.OptionCount > 0 && i >= a.OptionCount) {
			return w.rangeError(i, a.OptionCount)
		}
		a.Value = &i
	case *DropdownAttributes:
		i, ok := toIndex(value)
		if !ok {
			s, isString := value.(string)
			if !isString {
				return w.shapeError(value, "integer or string")
			}
			if i = a.IndexOf(s); i < 0 {
				return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidData,
					"value is not one of the choices", fmt.Sprintf("%q", s)).WithWidget(w.Name)
			}
		}
		if i < 0 || (len(a.Choices) > 0 && i >= len(a.Choices)) {
			return w.rangeError(i, len(a.Choices))
		}
		a.Value = &i
	case *ImageAttributes:
		return assignImage(w, a, value)
	case *SignatureAttributes:
		return assignImage(w, &a.ImageAttributes, value)
	default:
		return errors.NewPDFError(errors.ErrorTypeInvalidData, "widget has no kind").WithWidget(w.Name)
	}
	return nil
}

func assignImage(w *Widget, a *ImageAttributes, value any) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return w.shapeError(value, "non-empty image bytes")
		}
		a.Data = v
		a.Source = ""
	case string:
		if v == "" {
			return w.shapeError(value, "non-empty image path")
		}
		a.Source = v
		a.Data = nil
	default:
		return w.shapeError(value, "image bytes or path")
	}
	return nil
}

func (w *Widget) shapeError(value any, want string) error {
	return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidData,
		fmt.Sprintf("%s widget requires %s value", w.Kind(), want),
		fmt.Sprintf("got %T", value)).WithWidget(w.Name)
}

func (w *Widget) rangeError(i, count int) error {
	return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidData,
		fmt.Sprintf("%s index out of range", w.Kind()),
		fmt.Sprintf("index %d, %d options", i, count)).WithWidget(w.Name)
}

func toIndex(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
