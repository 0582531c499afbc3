package watermark

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/scanner"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document/testpdf"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

func newCompositor(fonts *fontfit.Registry) *Compositor {
	return New(fontfit.NewFitter(fontfit.DefaultOptions(), fonts))
}

func openForm(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Open(testpdf.Form())
	require.NoError(t, err)
	return doc
}

func widgetCount(t *testing.T, data []byte) int {
	t.Helper()
	doc, err := document.Open(data)
	require.NoError(t, err)
	all, err := doc.Widgets()
	require.NoError(t, err)
	return len(all)
}

func TestDraw(t *testing.T) {
	doc := openForm(t)
	red := &widget.Color{R: 1}

	job, err := newCompositor(nil).Draw(doc, map[int][]layout.Instruction{
		2: {
			layout.Text{X: 50, Y: 50, Text: "stamped", Size: 14},
			layout.Rect{Box: widget.NewRect(40, 40, 200, 70), Paint: layout.Paint{Fill: red}},
			layout.Image{X: 300, Y: 300, Width: 40, Height: 20, Data: testpdf.PNG(8, 2, true), PreserveAspectRatio: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, job.State)
	assert.Equal(t, []int{2}, job.Grafted())
	assert.Nil(t, job.Overlays[1], "page without instructions keeps a placeholder")
	assert.Contains(t, job.Overlays, 1)

	content := job.Overlays[2].Content
	shape := bytes.Index(content, []byte(" re "))
	image := bytes.Index(content, []byte(" Do "))
	text := bytes.Index(content, []byte("(stamped) Tj"))
	require.True(t, shape >= 0 && image >= 0 && text >= 0, string(content))
	assert.Less(t, shape, image, "shapes paint below images")
	assert.Less(t, image, text, "text paints last")
	assert.Contains(t, string(content), "q 40 0 0 10 300 305 cm", "aspect ratio kept inside the box")

	out, err := doc.Bytes()
	require.NoError(t, err)
	again, err := document.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, again.PageCount())
	assert.Equal(t, 11, widgetCount(t, out), "interactive widgets remain in place")
}

func TestDraw_PageOutOfRange(t *testing.T) {
	for _, page := range []int{0, 3} {
		_, err := newCompositor(nil).Draw(openForm(t), map[int][]layout.Instruction{
			page: {layout.Text{Text: "x"}},
		})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInstruction))
	}
}

func TestDraw_BadImageIsWarning(t *testing.T) {
	job, err := newCompositor(nil).Draw(openForm(t), map[int][]layout.Instruction{
		1: {
			layout.Image{X: 0, Y: 0, Width: 10, Height: 10, Data: []byte("nope")},
			layout.Image{X: 0, Y: 0, Width: 10, Height: 10, Source: "unresolved.png"},
			layout.Line{X0: 0, Y0: 0, X1: 10, Y1: 10, Paint: layout.Paint{Stroke: &widget.Color{}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, job.Warnings.Warnings, 2)
	assert.Equal(t, errors.ErrorTypeInvalidImage, job.Warnings.Warnings[0].Type)
	assert.Equal(t, 1, job.Warnings.Warnings[0].PageNumber)
	assert.Equal(t, []int{1}, job.Grafted())
}

func TestDraw_Nothing(t *testing.T) {
	job, err := newCompositor(nil).Draw(openForm(t), nil)
	require.NoError(t, err)
	assert.Empty(t, job.Grafted())
	assert.Len(t, job.Overlays, 2)
}

func TestDraw_RegisteredFont(t *testing.T) {
	fonts := fontfit.NewRegistry()
	require.NoError(t, fonts.Register("Go Regular", goregular.TTF))
	doc, err := document.Open(testpdf.Blank(1))
	require.NoError(t, err)

	job, err := newCompositor(fonts).Draw(doc, map[int][]layout.Instruction{
		1: {layout.Text{X: 10, Y: 10, Text: "héllo", Font: "Go Regular", Size: 10}},
	})
	require.NoError(t, err)
	overlay := job.Overlays[1]
	require.Len(t, overlay.Fonts, 1)
	assert.Equal(t, "Go Regular", overlay.Fonts[0].Name)

	out, err := doc.Bytes()
	require.NoError(t, err)
	_, err = document.Open(out)
	assert.NoError(t, err, "document with the embedded font program reopens")
}

func TestCompose(t *testing.T) {
	doc := openForm(t)
	tmpl, err := scanner.New(nil).Scan(doc)
	require.NoError(t, err)

	pages := tmpl.Widgets()
	for _, ws := range pages {
		for _, w := range ws {
			switch w.Name {
			case testpdf.FieldName:
				require.NoError(t, w.Assign("Ada Lovelace"))
			case testpdf.FieldAgree:
				require.NoError(t, w.Assign(true))
			case testpdf.FieldSize:
				require.NoError(t, w.Assign(2))
			case testpdf.FieldCountry:
				require.NoError(t, w.Assign("US"))
			case testpdf.FieldNotes:
				require.NoError(t, w.Assign("See attached"))
			}
		}
	}

	job, err := newCompositor(nil).Compose(doc, pages)
	require.NoError(t, err)
	assert.Equal(t, StateDone, job.State)
	assert.Equal(t, []int{1, 2}, job.Grafted())

	page1 := string(job.Overlays[1].Content)
	assert.Contains(t, page1, "(Ada Lovelace) Tj")
	assert.Contains(t, page1, "(4) Tj", "check mark and radio symbol")
	assert.Contains(t, page1, "1 0 0 RG", "notes border keeps its color")
	assert.Contains(t, string(job.Overlays[2].Content), "(United States) Tj")

	var symbols int
	for _, in := range job.Instructions[1] {
		if txt, ok := in.(layout.Text); ok && txt.Font == widget.SymbolFont {
			symbols++
		}
	}
	assert.Equal(t, 2, symbols, "one check box and exactly one radio sibling")
}

func TestJob_Transitions(t *testing.T) {
	c := newCompositor(nil)
	job := c.NewJob(openForm(t))

	err := c.Render(job)
	require.Error(t, err, "render needs layout first")
	assert.Equal(t, StateScan, job.State)

	require.NoError(t, c.Layout(job, nil))
	require.NoError(t, c.Render(job))
	require.NoError(t, c.Graft(job))
	assert.Equal(t, StateGraft, job.State)
	assert.Equal(t, "graft", job.State.String())
}
