package fontfit

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
)

// Appearance is the parsed content of a /DA string
type Appearance struct {
	Font  string // resource name without the leading slash
	Size  float64
	Color widget.Color
}

// ParseAppearance extracts the font resource, size and fill color from a /DA string
func ParseAppearance(da string) Appearance {
	var a Appearance
	parts := strings.Fields(da)
	num := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "Tf":
			if i >= 2 {
				a.Font = strings.TrimPrefix(parts[i-2], "/")
				a.Size = num(parts[i-1])
			}
		case "rg":
			if i >= 3 {
				a.Color = widget.Color{R: num(parts[i-3]), G: num(parts[i-2]), B: num(parts[i-1])}
			}
		case "g":
			if i >= 1 {
				v := num(parts[i-1])
				a.Color = widget.Color{R: v, G: v, B: v}
			}
		case "k":
			if i >= 4 {
				c, m, y, k := num(parts[i-4]), num(parts[i-3]), num(parts[i-2]), num(parts[i-1])
				a.Color = widget.Color{R: (1 - c) * (1 - k), G: (1 - m) * (1 - k), B: (1 - y) * (1 - k)}
			}
		}
	}
	if !a.Color.Valid() {
		a.Color = widget.Black
	}
	return a
}

// familyAliases maps normalized family segments onto standard families
var familyAliases = map[string]string{
	"helvetica":       "Helvetica",
	"helv":            "Helvetica",
	"arial":           "Helvetica",
	"arialmt":         "Helvetica",
	"times":           "Times",
	"timesroman":      "Times",
	"timesnewroman":   "Times",
	"timesnewromanps": "Times",
	"tiro":            "Times",
	"courier":         "Courier",
	"couriernew":      "Courier",
	"cour":            "Courier",
	"symbol":          "Symbol",
	"zapfdingbats":    "ZapfDingbats",
	"dingbats":        "ZapfDingbats",
}

// AutoDetectFont guesses the standard font named by a /DA string. It returns
// DefaultFont when nothing matches with confidence.
func AutoDetectFont(da string) string {
	resource := ParseAppearance(da).Font
	if resource == "" {
		return widget.DefaultFont
	}
	if widget.IsStandardFont(resource) {
		return resource
	}
	if std, ok := widget.FontForResource(resource); ok {
		return std
	}
	return matchStandard(resource)
}

// matchStandard compares the normalized segments of a font name against the
// standard families and styles
func matchStandard(name string) string {
	// drop a subset tag such as "ABCDEF+"
	if i := strings.IndexByte(name, '+'); i == 6 {
		name = name[i+1:]
	}
	segments := splitSegments(name)

	family := ""
	bold, italic := false, false
	joined := ""
	for _, seg := range segments {
		joined += seg
		if f, ok := familyAliases[joined]; ok && family == "" {
			family = f
			continue
		}
		if f, ok := familyAliases[seg]; ok && family == "" {
			family = f
		}
		switch {
		case seg == "bold" || seg == "bd" || seg == "b" || strings.HasSuffix(seg, "bold"):
			bold = true
		case seg == "italic" || seg == "oblique" || seg == "it" || seg == "i":
			italic = true
		case seg == "bolditalic" || seg == "boldoblique" || seg == "bi":
			bold, italic = true, true
		}
	}
	if family == "" {
		return widget.DefaultFont
	}
	return standardName(family, bold, italic)
}

func standardName(family string, bold, italic bool) string {
	switch family {
	case "Symbol", "ZapfDingbats":
		return family
	case "Times":
		switch {
		case bold && italic:
			return "Times-BoldItalic"
		case bold:
			return "Times-Bold"
		case italic:
			return "Times-Italic"
		}
		return "Times-Roman"
	}
	suffix := ""
	switch {
	case bold && italic:
		suffix = "-BoldOblique"
	case bold:
		suffix = "-Bold"
	case italic:
		suffix = "-Oblique"
	}
	return family + suffix
}

// splitSegments lowercases name and splits it on separators and case changes,
// so "TimesNewRoman,Bold" yields times, new, roman, bold
func splitSegments(name string) []string {
	var segs []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			segs = append(segs, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '-' || r == ',' || r == '_' || r == ' ' || r == '#':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0 && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return segs
}
