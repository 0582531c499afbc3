package scanner

import (
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
)

// Scope selects which dictionary a rule inspects
type Scope int

const (
	// ScopeInherited reads the annotation's own entries and falls back to its parent
	ScopeInherited Scope = iota
	// ScopeOwn reads only the annotation's own entries
	ScopeOwn
	// ScopeParent reads only the parent field's entries
	ScopeParent
)

// Rule is one structural classification rule. An annotation matches when the
// field type in scope equals FieldType, every bit of FlagsAll is set and no
// bit of FlagsNone is set.
type Rule struct {
	Name      string
	Kind      widget.Kind
	FieldType string
	FlagsAll  int
	FlagsNone int
	Scope     Scope
}

// DefaultRules is the classification order. Earlier rules win: a radio kid
// carries the same /FT as a check box and only its parent flags tell them apart.
var DefaultRules = []Rule{
	{Name: "signature", Kind: widget.KindSignature, FieldType: "Sig", Scope: ScopeInherited},
	{Name: "image", Kind: widget.KindImage, FieldType: "Btn", FlagsAll: widget.FlagPushbutton, Scope: ScopeInherited},
	{Name: "radio", Kind: widget.KindRadio, FieldType: "Btn", FlagsAll: widget.FlagRadio, Scope: ScopeOwn},
	{Name: "radio-kid", Kind: widget.KindRadio, FieldType: "Btn", FlagsAll: widget.FlagRadio, Scope: ScopeParent},
	{Name: "checkbox", Kind: widget.KindCheckbox, FieldType: "Btn", FlagsNone: widget.FlagRadio | widget.FlagPushbutton, Scope: ScopeInherited},
	{Name: "dropdown", Kind: widget.KindDropdown, FieldType: "Ch", Scope: ScopeInherited},
	{Name: "text", Kind: widget.KindText, FieldType: "Tx", Scope: ScopeInherited},
}

// Match reports whether a satisfies the rule
func (r Rule) Match(a *document.Annotation) bool {
	ft, flags := fieldTypeAndFlags(a, r.Scope)
	if ft != r.FieldType {
		return false
	}
	return flags&r.FlagsAll == r.FlagsAll && flags&r.FlagsNone == 0
}

func fieldTypeAndFlags(a *document.Annotation, scope Scope) (string, int) {
	switch scope {
	case ScopeOwn:
		return a.FieldType(), a.Flags()
	case ScopeParent:
		return a.ParentFieldType(), a.ParentFlags()
	}
	ft := a.FieldType()
	if ft == "" {
		ft = a.ParentFieldType()
	}
	return ft, a.Flags() | a.ParentFlags()
}

// Key returns the name a widget is addressed by: its own field name, or the
// parent's name for unnamed kids such as radio buttons
func Key(a *document.Annotation) string {
	if name := a.Name(); name != "" || !a.HasParent() {
		return name
	}
	return a.ParentName()
}
