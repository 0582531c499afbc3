package document

import (
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document/testpdf"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

func openForm(t *testing.T) *Document {
	t.Helper()
	doc, err := Open(testpdf.Form())
	require.NoError(t, err)
	return doc
}

func reopen(t *testing.T, doc *Document) *Document {
	t.Helper()
	out, err := doc.Bytes()
	require.NoError(t, err)
	again, err := Open(out)
	require.NoError(t, err)
	return again
}

func findWidget(t *testing.T, doc *Document, name string) *Annotation {
	t.Helper()
	all, err := doc.Widgets()
	require.NoError(t, err)
	for _, a := range all {
		if a.Name() == name || (a.Name() == "" && a.ParentName() == name) {
			return a
		}
	}
	t.Fatalf("widget %q not found", name)
	return nil
}

func TestOpen_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not a pdf")},
		{"truncated", testpdf.Form()[:100]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidDocument))
		})
	}
}

func TestOpen_TruncatedNeverPanics(t *testing.T) {
	src := testpdf.Form()
	for cut := 1; cut < len(src); cut += 97 {
		assert.NotPanics(t, func() {
			if _, err := Open(src[:cut]); err != nil {
				assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidDocument), "cut at %d: %v", cut, err)
			}
		})
	}
}

func TestDocument_Pages(t *testing.T) {
	doc := openForm(t)
	assert.Equal(t, 2, doc.PageCount())
	assert.True(t, doc.HasForm())

	box, err := doc.MediaBox(1)
	require.NoError(t, err)
	assert.Equal(t, widget.NewRect(0, 0, 612, 792), box)

	_, err = doc.MediaBox(2)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInstruction))
}

func TestAnnotations(t *testing.T) {
	doc := openForm(t)

	page1, err := doc.Annotations(0)
	require.NoError(t, err)
	require.Len(t, page1, 8)
	assert.Equal(t, "Link", page1[7].Subtype())
	assert.False(t, page1[7].IsWidget())

	all, err := doc.Widgets()
	require.NoError(t, err)
	assert.Len(t, all, 11)
}

func TestAnnotation_Accessors(t *testing.T) {
	doc := openForm(t)

	radio := findWidget(t, doc, testpdf.FieldSize)
	assert.Equal(t, "", radio.Name())
	assert.True(t, radio.HasParent())
	assert.Equal(t, "Btn", radio.ParentFieldType())
	assert.Equal(t, 49152, radio.ParentFlags())
	assert.Equal(t, 3, radio.SiblingCount())
	assert.Equal(t, "S", radio.OnState())
	assert.Equal(t, "/ZaDb 0 Tf 0 g", radio.DefaultAppearance())

	notes := findWidget(t, doc, testpdf.FieldNotes)
	assert.Equal(t, 1, notes.Quadding())
	width, style, dash := notes.Border()
	assert.Equal(t, 2.0, width)
	assert.Equal(t, "D", style)
	assert.Equal(t, []float64{3, 2}, dash)
	border, background := notes.Colors()
	assert.Equal(t, &widget.Color{R: 1}, border)
	assert.Equal(t, &widget.Color{R: 0.9, G: 0.9, B: 0.9}, background)

	code := findWidget(t, doc, testpdf.FieldCode)
	assert.Equal(t, 3, code.MaxLen())
	assert.Equal(t, widget.FlagComb, code.Flags())
	rect, ok := code.Rect()
	require.True(t, ok)
	assert.Equal(t, 90.0, rect.Width())

	name := findWidget(t, doc, testpdf.FieldName)
	assert.Equal(t, "/Helv 0 Tf 0 g", name.DefaultAppearance(), "inherits nothing, has its own DA")
	assert.Equal(t, 0, name.Quadding())

	country := findWidget(t, doc, testpdf.FieldCountry)
	display, export := country.Options()
	assert.Equal(t, []string{"Canada", "Mexico", "United States"}, display)
	assert.Equal(t, []string{"CA", "", "US"}, export)

	agree := findWidget(t, doc, testpdf.FieldAgree)
	assert.Equal(t, []string{"Off", "Yes"}, agree.AppearanceStates())
	assert.Equal(t, "Off", agree.AppearanceState())
	assert.Equal(t, Value{Text: "Off", IsName: true, Set: true}, agree.Value())
}

func TestAnnotation_MutationsSurviveWrite(t *testing.T) {
	doc := openForm(t)

	findWidget(t, doc, testpdf.FieldName).SetValue(TextString("Zoë (test)"))
	findWidget(t, doc, testpdf.FieldCountry).SetValue(TextString("US"))
	agree := findWidget(t, doc, testpdf.FieldAgree)
	agree.SetValue(types.Name("Yes"))
	agree.SetAppearanceState("Yes")
	agree.SetFlags(widget.FlagReadOnly, true)

	radio := findWidget(t, doc, testpdf.FieldSize)
	radio.SetValue(types.Name("S"))

	doc = reopen(t, doc)

	assert.Equal(t, Value{Text: "Zoë (test)", Set: true}, findWidget(t, doc, testpdf.FieldName).Value())
	assert.Equal(t, "US", findWidget(t, doc, testpdf.FieldCountry).Value().Text)
	agree = findWidget(t, doc, testpdf.FieldAgree)
	assert.Equal(t, "Yes", agree.AppearanceState())
	assert.Equal(t, widget.FlagReadOnly, agree.Flags())
	radio = findWidget(t, doc, testpdf.FieldSize)
	assert.Equal(t, "S", radio.Value().Text, "radio value lives on the parent field")
	assert.Equal(t, 49152, radio.ParentFlags())
}

func TestNeedAppearances(t *testing.T) {
	doc := openForm(t)
	assert.False(t, doc.NeedAppearances())
	doc.SetNeedAppearances(true)
	doc = reopen(t, doc)
	assert.True(t, doc.NeedAppearances())

	blank, err := Open(testpdf.Blank(1))
	require.NoError(t, err)
	blank.SetNeedAppearances(true)
	assert.False(t, blank.NeedAppearances())
}

func TestBytes_Repeatable(t *testing.T) {
	doc := openForm(t)
	findWidget(t, doc, testpdf.FieldName).SetValue(TextString("Ada"))

	first, err := doc.Bytes()
	require.NoError(t, err)
	second, err := doc.Bytes()
	require.NoError(t, err)

	for _, out := range [][]byte{first, second} {
		again, err := Open(out)
		require.NoError(t, err)
		assert.Equal(t, 2, again.PageCount())
		assert.Equal(t, "Ada", findWidget(t, again, testpdf.FieldName).Value().Text)
	}

	// the document stays usable after a write
	findWidget(t, doc, testpdf.FieldName).SetValue(TextString("Grace"))
	assert.Equal(t, "Grace", findWidget(t, reopen(t, doc), testpdf.FieldName).Value().Text)
}

func TestBytes_Deterministic(t *testing.T) {
	write := func() []byte {
		doc := openForm(t)
		findWidget(t, doc, testpdf.FieldCountry).SetValue(TextString("US"))
		out, err := doc.Bytes()
		require.NoError(t, err)
		return out
	}

	first := write()
	time.Sleep(1100 * time.Millisecond)
	second := write()
	assert.Equal(t, first, second)
	assert.Contains(t, string(first), pinnedDate)
}

func TestPinFileID(t *testing.T) {
	id := "0123456789abcdef0123456789abcdef"
	out := []byte("trailer << /ID [<" + id + "> <" + id + ">] >>")

	pinned := pinFileID(out, id)
	assert.Len(t, pinned, len(out))
	assert.NotContains(t, string(pinned), id)
	assert.Equal(t, pinned, pinFileID(out, id))

	other := pinFileID([]byte("trailer << /ID [<"+id+"> <"+id+">] /Size 9 >>"), id)
	assert.NotEqual(t, pinned[:60], other[:60], "the digest covers the surrounding bytes")

	assert.Equal(t, out, pinFileID(out, ""))
}

func TestGraft(t *testing.T) {
	doc := openForm(t)

	img, err := imaging.Decode(testpdf.PNG(4, 4, true))
	require.NoError(t, err)

	c := canvas.New()
	c.Rect(100, 100, 50, 50, canvas.Paint{Fill: &canvas.RGB{R: 1}})
	c.DrawImage(img, 10, 10, 40, 40)
	c.SetFont("Helvetica", 12)
	c.DrawString(100, 700, "hello")

	require.NoError(t, doc.Graft(1, c.Page(), nil))
	require.NoError(t, doc.Graft(0, canvas.New().Page(), nil), "empty overlay is a no-op")

	doc = reopen(t, doc)
	assert.Equal(t, 2, doc.PageCount())

	page2, _, _, err := doc.ctx.PageDict(2, false)
	require.NoError(t, err)
	res := doc.dict(page2["Resources"])
	require.NotNil(t, res, "inherited resources are copied onto the page")
	assert.Contains(t, doc.dict(res["Font"]), "F1")
	assert.Contains(t, doc.dict(res["XObject"]), "Fill0")
	assert.Len(t, doc.array(page2["Contents"]), 3)

	page1, _, _, err := doc.ctx.PageDict(1, false)
	require.NoError(t, err)
	assert.NotContains(t, doc.dict(doc.dict(page1["Resources"])["XObject"]), "Fill0")

	annots, err := doc.Annotations(1)
	require.NoError(t, err)
	assert.Len(t, annots, 4, "widgets stay in place")
}

func TestGraft_TwiceUsesDistinctKeys(t *testing.T) {
	doc, err := Open(testpdf.Blank(1))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c := canvas.New()
		c.DrawString(10, 10, "x")
		require.NoError(t, doc.Graft(0, c.Page(), nil))
	}
	page, _, _, err := doc.ctx.PageDict(1, false)
	require.NoError(t, err)
	xo := doc.dict(doc.dict(page["Resources"])["XObject"])
	assert.Contains(t, xo, "Fill0")
	assert.Contains(t, xo, "Fill1")
}

func TestApplyUpdates(t *testing.T) {
	doc := openForm(t)

	w := widget.New(widget.KindText, testpdf.FieldName, widget.NewRect(0, 0, 1, 1))
	var updates []widget.Update
	updates = append(updates, w.SetFont("Times-Bold")...)
	updates = append(updates, w.SetFontSize(10)...)
	updates = append(updates, w.SetAlignment(widget.AlignCenter)...)
	updates = append(updates, w.SetBorderColor(&widget.Color{B: 1})...)
	updates = append(updates, w.SetBorderWidth(3)...)
	updates = append(updates, w.SetMaxLength(5)...)
	updates = append(updates, w.SetReadOnly(true)...)
	updates = append(updates, widget.Update{Widget: "missing", Key: widget.UpdateQuadding, Value: 1})

	require.NoError(t, doc.ApplyUpdates(updates, nil))
	doc = reopen(t, doc)

	a := findWidget(t, doc, testpdf.FieldName)
	assert.Equal(t, "/TiBo 10 Tf 0 g", a.DefaultAppearance())
	assert.Equal(t, 1, a.Quadding())
	assert.Equal(t, 5, a.MaxLen())
	assert.Equal(t, widget.FlagReadOnly, a.Flags())
	border, _ := a.Colors()
	assert.Equal(t, &widget.Color{B: 1}, border)
	width, _, _ := a.Border()
	assert.Equal(t, 3.0, width)

	dr := doc.dict(doc.dict(doc.acroForm()["DR"])["Font"])
	assert.Contains(t, dr, "TiBo", "new DA font is added to the form resources")
}

func TestApplyUpdates_Caption(t *testing.T) {
	doc := openForm(t)

	w := widget.New(widget.KindCheckbox, testpdf.FieldAgree, widget.NewRect(0, 0, 1, 1))
	require.NoError(t, doc.ApplyUpdates(w.SetButtonStyle(widget.ButtonCross), nil))
	doc = reopen(t, doc)

	assert.Equal(t, widget.ButtonCross.Symbol(), findWidget(t, doc, testpdf.FieldAgree).Caption())
}

func TestApplyUpdates_BadValue(t *testing.T) {
	doc := openForm(t)
	err := doc.ApplyUpdates([]widget.Update{{Widget: testpdf.FieldName, Key: widget.UpdateQuadding, Value: "x"}}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInstruction))
}

func TestTextString(t *testing.T) {
	assert.Equal(t, types.StringLiteral(`a\(b\)`), TextString("a(b)"))
	assert.Equal(t, types.HexLiteral("feff00e9"), TextString("é"))
}
