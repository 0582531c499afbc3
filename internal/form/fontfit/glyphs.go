package fontfit

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
)

// Font descriptor flags (PDF 32000-1 table 123)
const (
	flagFixedPitch  = 1 << 0
	flagNonsymbolic = 1 << 5
)

// metricsFont is the subset of font metrics needed for embedding
type metricsFont struct {
	family     string
	unitsPerEm int
	advance    func(r rune) (units int, ok bool)
	notdef     int
	bbox       [4]int
	ascent     int
	descent    int
}

// ComputeGlyphWidths maps each of the 256 WinAnsi codes to its glyph advance
// in 1/1000 em. Codes without a glyph receive missingWidth.
func ComputeGlyphWidths(ttf []byte, missingWidth int) ([256]int, error) {
	mf, err := parseMetrics(ttf)
	if err != nil {
		return [256]int{}, err
	}
	return mf.widths(missingWidth), nil
}

func (mf *metricsFont) widths(missingWidth int) [256]int {
	var w [256]int
	for code := 0; code < 256; code++ {
		r := charmap.Windows1252.DecodeByte(byte(code))
		units, ok := mf.advance(r)
		if !ok {
			w[code] = missingWidth
			continue
		}
		w[code] = mf.toPDF(units)
	}
	return w
}

func (mf *metricsFont) toPDF(units int) int {
	if mf.unitsPerEm == 0 {
		return units
	}
	return (units*1000 + mf.unitsPerEm/2) / mf.unitsPerEm
}

// parseMetrics reads a TrueType font with freetype, falling back to sfnt for
// fonts freetype rejects (OpenType CFF outlines, newer cmap formats).
func parseMetrics(ttf []byte) (*metricsFont, error) {
	if mf, err := parseTrueType(ttf); err == nil {
		return mf, nil
	}
	return parseSFNT(ttf)
}

func parseTrueType(ttf []byte) (*metricsFont, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	upem := int(f.FUnitsPerEm())
	scale := fixed.Int26_6(upem)

	b := f.Bounds(scale)
	face := truetype.NewFace(f, &truetype.Options{Size: float64(upem), DPI: 72, Hinting: font.HintingNone})
	m := face.Metrics()
	_ = face.Close()

	mf := &metricsFont{
		family:     f.Name(truetype.NameIDFontFamily),
		unitsPerEm: upem,
		advance: func(r rune) (int, bool) {
			idx := f.Index(r)
			if idx == 0 {
				return 0, false
			}
			return int(f.HMetric(scale, idx).AdvanceWidth), true
		},
		bbox:    [4]int{int(b.Min.X), int(b.Min.Y), int(b.Max.X), int(b.Max.Y)},
		ascent:  m.Ascent.Round(),
		descent: -m.Descent.Round(),
	}
	mf.notdef = int(f.HMetric(scale, 0).AdvanceWidth)
	return mf, nil
}

func parseSFNT(ttf []byte) (*metricsFont, error) {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("unsupported font program: %w", err)
	}
	var buf sfnt.Buffer
	upem := int(f.UnitsPerEm())
	ppem := fixed.Int26_6(upem) << 6

	family, _ := f.Name(&buf, sfnt.NameIDFamily)
	m, err := f.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("read font metrics: %w", err)
	}
	b, err := f.Bounds(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("read font bounds: %w", err)
	}

	advance := func(idx sfnt.GlyphIndex) (int, bool) {
		adv, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return 0, false
		}
		return adv.Round(), true
	}
	mf := &metricsFont{
		family:     family,
		unitsPerEm: upem,
		advance: func(r rune) (int, bool) {
			idx, err := f.GlyphIndex(&buf, r)
			if err != nil || idx == 0 {
				return 0, false
			}
			return advance(idx)
		},
		// sfnt reports y growing downwards
		bbox:    [4]int{b.Min.X.Round(), -b.Max.Y.Round(), b.Max.X.Round(), -b.Min.Y.Round()},
		ascent:  m.Ascent.Round(),
		descent: -m.Descent.Round(),
	}
	mf.notdef, _ = advance(0)
	return mf, nil
}

// loadProgram parses ttf into an embeddable font program named name and
// returns the font's family name alongside it
func loadProgram(name string, ttf []byte) (*document.FontProgram, string, error) {
	mf, err := parseMetrics(ttf)
	if err != nil {
		return nil, "", err
	}
	prog := &document.FontProgram{
		Name:      name,
		Data:      ttf,
		Widths:    mf.widths(mf.toPDF(mf.notdef)),
		Ascent:    mf.toPDF(mf.ascent),
		Descent:   mf.toPDF(mf.descent),
		CapHeight: mf.toPDF(mf.ascent),
		Flags:     flagNonsymbolic,
	}
	for i, v := range mf.bbox {
		prog.BBox[i] = mf.toPDF(v)
	}
	if w := prog.Widths; w['i'] == w['W'] && w['i'] != 0 {
		prog.Flags |= flagFixedPitch
	}
	return prog, mf.family, nil
}
