package form

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/a3tai/mcp-pdf-filler/internal/form/appearance"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document/testpdf"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

func widgetCount(t *testing.T, data []byte) int {
	t.Helper()
	doc, err := document.Open(data)
	require.NoError(t, err)
	all, err := doc.Widgets()
	require.NoError(t, err)
	return len(all)
}

func TestFill_RoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeSimple, ModeOverlay} {
		t.Run(mode.String(), func(t *testing.T) {
			f := NewFiller(DefaultOptions())
			src := testpdf.Form()
			before, err := f.Scan(src)
			require.NoError(t, err)

			res, err := f.Fill(src, map[string]any{}, mode)
			require.NoError(t, err)
			after, err := f.Scan(res.Document)
			require.NoError(t, err)

			assert.Equal(t, before.Names(), after.Names())
			assert.Equal(t, len(before.Entries()), len(after.Entries()))
			assert.Equal(t, widgetCount(t, src), widgetCount(t, res.Document))
		})
	}
}

func TestFill_SimpleValueFidelity(t *testing.T) {
	f := NewFiller(DefaultOptions())
	values := map[string]any{
		testpdf.FieldName:    "Katherine Johnson",
		testpdf.FieldAgree:   true,
		testpdf.FieldSize:    float64(2),
		testpdf.FieldCountry: "Mexico",
	}
	res, err := f.Fill(testpdf.Form(), values, ModeSimple)
	require.NoError(t, err)

	tmpl, err := f.Scan(res.Document)
	require.NoError(t, err)
	assert.Equal(t, "Katherine Johnson", tmpl.Lookup(testpdf.FieldName)[0].Widget.Value())
	assert.Equal(t, true, tmpl.Lookup(testpdf.FieldAgree)[0].Widget.Value())
	assert.Equal(t, 1, tmpl.Lookup(testpdf.FieldCountry)[0].Widget.Value())
	for _, e := range tmpl.Lookup(testpdf.FieldSize) {
		assert.Equal(t, 2, e.Widget.Value())
	}

	doc, err := document.Open(res.Document)
	require.NoError(t, err)
	assert.True(t, doc.NeedAppearances())
}

func TestFill_Warnings(t *testing.T) {
	res, err := NewFiller(DefaultOptions()).Fill(testpdf.Form(), nil, ModeSimple)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, errors.ErrorTypeMalformedWidget, res.Warnings[0].Type)
	assert.Equal(t, testpdf.FieldOrphan, res.Warnings[0].Widget)
}

func TestFill_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    []byte
		values map[string]any
		mode   Mode
		want   errors.ErrorType
	}{
		{"invalid document", []byte("not a pdf at all"), nil, ModeSimple, errors.ErrorTypeInvalidDocument},
		{"truncated document", testpdf.Form()[:100], map[string]any{}, ModeSimple, errors.ErrorTypeInvalidDocument},
		{"wrong shape simple", testpdf.Form(), map[string]any{testpdf.FieldAgree: "yes"}, ModeSimple, errors.ErrorTypeInvalidData},
		{"wrong shape overlay", testpdf.Form(), map[string]any{testpdf.FieldName: "ok", testpdf.FieldSize: 7}, ModeOverlay, errors.ErrorTypeInvalidData},
		{"unknown mode", testpdf.Form(), nil, Mode(9), errors.ErrorTypeInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFiller(DefaultOptions()).Fill(tt.doc, tt.values, tt.mode)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.IsType(err, tt.want), err.Error())
		})
	}
}

func TestFill_Overlay(t *testing.T) {
	opts := DefaultOptions()
	opts.Loader = func(source string) ([]byte, error) {
		if source == "photo.png" {
			return testpdf.PNG(4, 3, false), nil
		}
		return nil, fmt.Errorf("no such image: %s", source)
	}
	f := NewFiller(opts)

	res, err := f.Fill(testpdf.Form(), map[string]any{
		testpdf.FieldName:      "Ada",
		testpdf.FieldPhoto:     "photo.png",
		testpdf.FieldSignature: "missing.png",
	}, ModeOverlay)
	require.NoError(t, err)

	var imageWarnings int
	for _, w := range res.Warnings {
		if w.Type == errors.ErrorTypeInvalidImage {
			imageWarnings++
			assert.Equal(t, testpdf.FieldSignature, w.Widget)
		}
	}
	assert.Equal(t, 1, imageWarnings)

	tmpl, err := f.Scan(res.Document)
	require.NoError(t, err)
	assert.Nil(t, tmpl.Lookup(testpdf.FieldName)[0].Widget.Value(), "overlay leaves the field empty and editable")
	assert.False(t, tmpl.Lookup(testpdf.FieldName)[0].Widget.ReadOnly)
	assert.Equal(t, 11, widgetCount(t, res.Document))
}

func TestFill_Flatten(t *testing.T) {
	for _, mode := range []Mode{ModeSimple, ModeOverlay} {
		t.Run(mode.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Flatten = true
			f := NewFiller(opts)
			res, err := f.Fill(testpdf.Form(), map[string]any{testpdf.FieldName: "x"}, mode)
			require.NoError(t, err)

			tmpl, err := f.Scan(res.Document)
			require.NoError(t, err)
			for _, e := range tmpl.Entries() {
				assert.True(t, e.Widget.ReadOnly, e.Key)
			}
		})
	}
}

func TestFill_Memoized(t *testing.T) {
	opts := DefaultOptions()
	opts.Cache = appearance.NewCache(8)
	opts.GenerateAppearances = true
	f := NewFiller(opts)
	values := map[string]any{testpdf.FieldName: "Ada", testpdf.FieldCountry: 0}

	first, err := f.Fill(testpdf.Form(), values, ModeSimple)
	require.NoError(t, err)
	second, err := f.Fill(testpdf.Form(), values, ModeSimple)
	require.NoError(t, err)
	assert.Equal(t, first.Document, second.Document, "identical requests yield identical bytes")

	third, err := f.Fill(testpdf.Form(), map[string]any{testpdf.FieldName: "Bob"}, ModeSimple)
	require.NoError(t, err)
	assert.NotEqual(t, first.Document, third.Document)
	assert.Equal(t, int64(1), opts.Cache.Stats().Hits)
}

func TestFill_DeterministicWithoutCache(t *testing.T) {
	values := map[string]any{testpdf.FieldName: "Ada", testpdf.FieldAgree: true, testpdf.FieldNotes: "line"}
	for _, mode := range []Mode{ModeSimple, ModeOverlay} {
		t.Run(mode.String(), func(t *testing.T) {
			first, err := NewFiller(DefaultOptions()).Fill(testpdf.Form(), values, mode)
			require.NoError(t, err)
			time.Sleep(1100 * time.Millisecond)
			second, err := NewFiller(DefaultOptions()).Fill(testpdf.Form(), values, mode)
			require.NoError(t, err)
			assert.Equal(t, first.Document, second.Document)
		})
	}
}

func TestFill_OverlayWithoutValuesKeepsBytes(t *testing.T) {
	src := testpdf.Form()
	res, err := NewFiller(DefaultOptions()).Fill(src, map[string]any{}, ModeOverlay)
	require.NoError(t, err)
	assert.Equal(t, src, res.Document, "decorated but empty widgets draw nothing")
}

func TestFill_CacheSeesImageContent(t *testing.T) {
	image := testpdf.PNG(4, 3, false)
	opts := DefaultOptions()
	opts.Cache = appearance.NewCache(8)
	opts.Loader = func(source string) ([]byte, error) {
		return image, nil
	}
	f := NewFiller(opts)
	values := map[string]any{testpdf.FieldPhoto: "photo.png"}

	first, err := f.Fill(testpdf.Form(), values, ModeOverlay)
	require.NoError(t, err)
	again, err := f.Fill(testpdf.Form(), values, ModeOverlay)
	require.NoError(t, err)
	assert.Equal(t, first.Document, again.Document)
	assert.Equal(t, int64(1), opts.Cache.Stats().Hits)

	image = testpdf.PNG(8, 2, true)
	changed, err := f.Fill(testpdf.Form(), values, ModeOverlay)
	require.NoError(t, err)
	assert.NotEqual(t, first.Document, changed.Document, "a replaced image file is not served from cache")
	assert.Equal(t, int64(1), opts.Cache.Stats().Hits)
}

func TestRestyle(t *testing.T) {
	f := NewFiller(DefaultOptions())
	size := 9.0
	align := "right"
	cross := "cross"

	res, err := f.Restyle(testpdf.Form(), map[string]widget.StyleOverride{
		testpdf.FieldName:  {FontSize: &size, Alignment: &align, BorderColor: &widget.Color{B: 1}},
		testpdf.FieldAgree: {ButtonStyle: &cross},
		"missing":          {FontSize: &size},
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "missing", res.Warnings[0].Widget)

	tmpl, err := f.Scan(res.Document)
	require.NoError(t, err)
	name := tmpl.Lookup(testpdf.FieldName)[0].Widget
	assert.Equal(t, 9.0, name.Style.FontSize)
	assert.Equal(t, widget.AlignRight, name.Text().Alignment)
	assert.Equal(t, &widget.Color{B: 1}, name.Style.BorderColor)
	assert.Equal(t, widget.ButtonCross, tmpl.Lookup(testpdf.FieldAgree)[0].Widget.Checkbox().ButtonStyle)

	filled, err := f.Fill(res.Document, map[string]any{testpdf.FieldName: "Ada"}, ModeOverlay)
	require.NoError(t, err)
	assert.NotEqual(t, res.Document, filled.Document)
}

func TestRestyle_Errors(t *testing.T) {
	f := NewFiller(DefaultOptions())
	src := testpdf.Form()

	res, err := f.Restyle(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, res.Document)

	bad := "sideways"
	_, err = f.Restyle(src, map[string]widget.StyleOverride{testpdf.FieldName: {Alignment: &bad}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidData))

	_, err = f.Restyle([]byte("nope"), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidDocument))
}

func TestDraw_NoInstructionsKeepsBytes(t *testing.T) {
	src := testpdf.Form()
	f := NewFiller(DefaultOptions())

	for _, ins := range []map[int][]layout.Instruction{nil, {1: {}, 2: nil}} {
		res, err := f.Draw(src, ins)
		require.NoError(t, err)
		assert.Equal(t, src, res.Document)
		assert.Empty(t, res.Warnings)
	}

	_, err := f.Draw([]byte("nope"), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidDocument))
}

func TestDraw(t *testing.T) {
	opts := DefaultOptions()
	opts.Loader = func(source string) ([]byte, error) {
		if source == "logo.png" {
			return testpdf.PNG(10, 10, true), nil
		}
		return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidImage, "not found", source)
	}
	f := NewFiller(opts)
	src := testpdf.Form()

	res, err := f.Draw(src, map[int][]layout.Instruction{
		1: {
			layout.Text{X: 20, Y: 20, Text: "DRAFT", Size: 30, Color: widget.Color{R: 1}},
			layout.Image{X: 400, Y: 20, Width: 50, Height: 50, Source: "logo.png"},
		},
		2: {
			layout.Image{X: 0, Y: 0, Width: 50, Height: 50, Source: "gone.png"},
			layout.Ellipse{Box: widget.NewRect(10, 10, 60, 40), Paint: layout.Paint{Stroke: &widget.Color{}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].PageNumber)
	assert.NotEqual(t, src, res.Document)

	doc, err := document.Open(res.Document)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, 11, widgetCount(t, res.Document))

	_, err = f.Draw(src, map[int][]layout.Instruction{5: {layout.Text{Text: "x"}}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInstruction))
}

func TestRegisterFont(t *testing.T) {
	f := NewFiller(DefaultOptions())
	assert.True(t, f.RegisterFont("Go Regular", goregular.TTF))
	assert.False(t, f.RegisterFont("Broken", []byte("not a font")))
	assert.False(t, f.RegisterFont("", goregular.TTF))
	assert.True(t, f.Fonts().Has("Go Regular"))

	res, err := f.Draw(testpdf.Blank(1), map[int][]layout.Instruction{
		1: {layout.Text{X: 10, Y: 10, Text: "über", Font: "Go Regular", Size: 12}},
	})
	require.NoError(t, err)
	_, err = document.Open(res.Document)
	assert.NoError(t, err)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeSimple, false},
		{"simple", ModeSimple, false},
		{" Overlay ", ModeOverlay, false},
		{"watermark", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
