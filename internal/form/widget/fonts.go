package widget

import (
	"strings"
	"unicode"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
)

// DefaultFont is used when no font is set and none can be detected
const DefaultFont = "Helvetica"

// SymbolFont draws checkbox and radio symbols
const SymbolFont = "ZapfDingbats"

// StandardFonts lists the 14 standard Type 1 fonts every viewer provides
var StandardFonts = []string{
	"Courier", "Courier-Bold", "Courier-BoldOblique", "Courier-Oblique",
	"Helvetica", "Helvetica-Bold", "Helvetica-BoldOblique", "Helvetica-Oblique",
	"Symbol",
	"Times-Bold", "Times-BoldItalic", "Times-Italic", "Times-Roman",
	"ZapfDingbats",
}

// resourceNames are the conventional AcroForm /DR font keys of the standard fonts
var resourceNames = map[string]string{
	"Helvetica":             "Helv",
	"Helvetica-Bold":        "HeBo",
	"Helvetica-Oblique":     "HeOb",
	"Helvetica-BoldOblique": "HeBO",
	"Times-Roman":           "TiRo",
	"Times-Bold":            "TiBo",
	"Times-Italic":          "TiIt",
	"Times-BoldItalic":      "TiBI",
	"Courier":               "Cour",
	"Courier-Bold":          "CoBo",
	"Courier-Oblique":       "CoOb",
	"Courier-BoldOblique":   "CoBO",
	"Symbol":                "Symb",
	"ZapfDingbats":          "ZaDb",
}

// IsStandardFont reports whether name is one of the standard 14 fonts
func IsStandardFont(name string) bool {
	_, ok := resourceNames[name]
	return ok
}

// ResourceName returns the font resource key used in /DA strings and /DR.
// Registered fonts use their name stripped to letters and digits.
func ResourceName(font string) string {
	if font == "" {
		font = DefaultFont
	}
	if rn, ok := resourceNames[font]; ok {
		return rn
	}
	var b strings.Builder
	for _, r := range font {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "F0"
	}
	return b.String()
}

// FontForResource maps a standard resource abbreviation back to its font name
func FontForResource(resource string) (string, bool) {
	for font, rn := range resourceNames {
		if rn == resource {
			return font, true
		}
	}
	return "", false
}

// DefaultAppearance renders the /DA operator string for a style
func DefaultAppearance(s Style) string {
	c := s.FontColor
	color := canvas.Number(c.R) + " " + canvas.Number(c.G) + " " + canvas.Number(c.B) + " rg"
	if c.R == c.G && c.G == c.B {
		color = canvas.Number(c.R) + " g"
	}
	return "/" + ResourceName(s.FontName) + " " + canvas.Number(s.FontSize) + " Tf " + color
}
