// Package scanner classifies the widget annotations of a document into typed
// widgets, reading back their current values and styles.
package scanner

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Entry ties a scanned widget to the annotation it was read from
type Entry struct {
	Key        string
	Rule       string
	Widget     *widget.Widget
	Annotation *document.Annotation
}

// Template is the typed view of a document's form
type Template struct {
	PageCount int
	// HasForm reports whether the document carries an AcroForm dictionary
	HasForm  bool
	Warnings *errors.ErrorCollection

	entries []*Entry
	byKey   map[string][]*Entry
	order   []string
}

// Entries returns every classified widget in page and /Annots order
func (t *Template) Entries() []*Entry {
	return t.entries
}

// Lookup returns the entries addressed by key; radio groups yield one per sibling
func (t *Template) Lookup(key string) []*Entry {
	return t.byKey[key]
}

// Names returns the distinct widget keys in first-seen order
func (t *Template) Names() []string {
	return append([]string(nil), t.order...)
}

// Widgets returns the widgets per 1-based page. Every page of the document is
// present, with an empty slice when it holds no widgets.
func (t *Template) Widgets() map[int][]*widget.Widget {
	out := make(map[int][]*widget.Widget, t.PageCount)
	for p := 1; p <= t.PageCount; p++ {
		out[p] = []*widget.Widget{}
	}
	for _, e := range t.entries {
		out[e.Widget.Page] = append(out[e.Widget.Page], e.Widget)
	}
	return out
}

// Scanner classifies annotations with an ordered rule list
type Scanner struct {
	rules []Rule
	fonts *fontfit.Registry
}

// New creates a scanner. fonts, when set, lets /DA strings naming registered
// fonts resolve to them; rules default to DefaultRules. Rules naming an
// unknown widget kind are dropped.
func New(fonts *fontfit.Registry, rules ...Rule) *Scanner {
	valid := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Kind.Valid() {
			logging.Logger().Warn("classification rule with unknown kind dropped", "rule", r.Name, "kind", int(r.Kind))
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		valid = DefaultRules
	}
	return &Scanner{rules: valid, fonts: fonts}
}

// Classify returns the first rule matching a
func (s *Scanner) Classify(a *document.Annotation) (Rule, bool) {
	for _, r := range s.rules {
		if r.Match(a) {
			return r, true
		}
	}
	return Rule{}, false
}

// Scan walks every page's annotations. It never modifies doc. Widgets that
// match no rule or have no usable geometry are reported as warnings.
func (s *Scanner) Scan(doc *document.Document) (*Template, error) {
	t := &Template{
		PageCount: doc.PageCount(),
		HasForm:   doc.HasForm(),
		Warnings:  errors.NewErrorCollection(),
		byKey:     make(map[string][]*Entry),
	}
	log := logging.Logger()

	for page := 0; page < doc.PageCount(); page++ {
		annots, err := doc.Annotations(page)
		if err != nil {
			return nil, err
		}
		for _, a := range annots {
			if !a.IsWidget() {
				continue
			}
			key := Key(a)
			rule, ok := s.Classify(a)
			if !ok {
				t.warn(errors.NewPDFError(errors.ErrorTypeMalformedWidget, "annotation matches no widget rule"), key, page+1)
				log.Warn("unrecognized widget skipped", "page", page+1, "widget", key, "rule", "")
				continue
			}
			rect, ok := a.Rect()
			if !ok {
				t.warn(errors.NewPDFError(errors.ErrorTypeMalformedWidget, "widget has no rectangle"), key, page+1)
				log.Warn("widget without rectangle skipped", "page", page+1, "widget", key, "rule", rule.Name)
				continue
			}

			w := widget.New(rule.Kind, key, rect)
			w.Page = page + 1
			s.readStyle(w, a)
			readAttributes(w, a)

			e := &Entry{Key: key, Rule: rule.Name, Widget: w, Annotation: a}
			t.entries = append(t.entries, e)
			if _, seen := t.byKey[key]; !seen {
				t.order = append(t.order, key)
			}
			t.byKey[key] = append(t.byKey[key], e)
		}
	}
	t.resolveRadioGroups()

	log.Debug("form scanned", "pages", t.PageCount, "widgets", len(t.entries), "warnings", len(t.Warnings.Warnings))
	return t, nil
}

func (t *Template) warn(err *errors.PDFError, key string, page int) {
	err.Recoverable = true
	t.Warnings.Add(err.WithWidget(key).WithPage(page))
}

func (s *Scanner) readStyle(w *widget.Widget, a *document.Annotation) {
	da := a.DefaultAppearance()
	app := fontfit.ParseAppearance(da)

	w.Style.FontName = fontfit.AutoDetectFont(da)
	if s.fonts != nil {
		if p, ok := s.fonts.Program(app.Font); ok {
			w.Style.FontName = p.Name
		}
	}
	w.Style.FontSize = app.Size
	w.Style.FontColor = app.Color
	w.Style.BorderColor, w.Style.BackgroundColor = a.Colors()

	width, style, dash := a.Border()
	w.Style.BorderWidth = width
	w.Style.BorderStyle = widget.BorderStyleFromPDF(style)
	w.Style.DashArray = dash

	_, flags := fieldTypeAndFlags(a, ScopeInherited)
	w.ReadOnly = flags&widget.FlagReadOnly != 0
}

func readAttributes(w *widget.Widget, a *document.Annotation) {
	_, flags := fieldTypeAndFlags(a, ScopeInherited)

	switch attrs := w.Attrs.(type) {
	case *widget.TextAttributes:
		attrs.MaxLength = a.MaxLen()
		attrs.Comb = flags&widget.FlagComb != 0
		attrs.Multiline = flags&widget.FlagMultiline != 0
		attrs.Alignment = widget.Alignment(a.Quadding())
		if v := a.Value(); v.Set && !v.IsName {
			text := v.Text
			attrs.Value = &text
		}
	case *widget.CheckboxAttributes:
		attrs.OnState = a.OnState()
		if attrs.OnState == "" {
			attrs.OnState = "Yes"
		}
		attrs.ButtonStyle = widget.ButtonStyleFromSymbol(a.Caption())
		state := a.AppearanceState()
		if state == "" {
			state = a.Value().Text
		}
		if state != "" {
			checked := state != "Off"
			attrs.Value = &checked
		}
	case *widget.RadioAttributes:
		attrs.OnState = a.OnState()
		attrs.ButtonStyle = widget.ButtonStyleFromSymbol(a.Caption())
	case *widget.DropdownAttributes:
		attrs.Choices, attrs.ExportValues = a.Options()
		if v := a.Value(); v.Set {
			if idx := attrs.IndexOf(v.Text); idx >= 0 {
				attrs.Value = &idx
			}
		}
	}
}

// resolveRadioGroups sets the option count of every radio sibling and reads
// back the selected occurrence: the first sibling whose on state equals the
// group value, or failing that the first sibling whose /AS is not Off.
func (t *Template) resolveRadioGroups() {
	for _, key := range t.order {
		var group []*Entry
		for _, e := range t.byKey[key] {
			if e.Widget.Kind() == widget.KindRadio {
				group = append(group, e)
			}
		}
		if len(group) == 0 {
			continue
		}
		if kids := group[0].Annotation.SiblingCount(); kids > len(group) {
			t.warn(errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedWidget, "radio group has unclassified kids",
				fmt.Sprintf("%d of %d kids usable", len(group), kids)), key, group[0].Widget.Page)
		}

		selected := -1
		if v := group[0].Annotation.Value(); v.Set && v.Text != "Off" {
			for i, e := range group {
				if e.Widget.Radio().OnState == v.Text {
					selected = i
					break
				}
			}
		}
		if selected < 0 {
			for i, e := range group {
				if as := e.Annotation.AppearanceState(); as != "" && as != "Off" {
					selected = i
					break
				}
			}
		}

		for _, e := range group {
			r := e.Widget.Radio()
			r.OptionCount = len(group)
			if selected >= 0 {
				idx := selected
				r.Value = &idx
			}
		}
	}
}
