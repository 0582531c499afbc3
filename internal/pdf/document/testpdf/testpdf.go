// Package testpdf synthesizes small, valid PDF documents in memory for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// Builder assembles numbered objects and writes them with a classic xref table
type Builder struct {
	objects []string
}

// New creates an empty builder
func New() *Builder {
	return &Builder{}
}

// Reserve allocates an object number to be filled in later with Set
func (b *Builder) Reserve() int {
	b.objects = append(b.objects, "null")
	return len(b.objects)
}

// Add appends an object and returns its number
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Set replaces the body of object num
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// Stream appends an unfiltered stream object; dict holds extra entries without brackets
func (b *Builder) Stream(dict string, content string) int {
	return b.Add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content))
}

// Bytes serializes the document with root as the catalog
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, root, xref)
	return buf.Bytes()
}

func ref(n int) string {
	return fmt.Sprintf("%d 0 R", n)
}

func refs(ns ...int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = ref(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Blank returns a document with the given number of empty US Letter pages and no form
func Blank(pages int) []byte {
	b := New()
	catalog := b.Reserve()
	tree := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	kids := make([]int, 0, pages)
	for i := 0; i < pages; i++ {
		content := b.Stream("", fmt.Sprintf("BT /F1 12 Tf 72 720 Td (Page %d) Tj ET", i+1))
		kids = append(kids, b.Add(fmt.Sprintf(
			"<< /Type /Page /Parent %s /Contents %s /Resources << /Font << /F1 %s >> >> >>",
			ref(tree), ref(content), ref(font))))
	}
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids %s /Count %d /MediaBox [0 0 612 792] >>", refs(kids...), pages))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s >>", ref(tree)))
	return b.Bytes(catalog)
}

// Field names and geometry of the Form fixture
const (
	FieldName      = "name"      // text, page 1, auto font size
	FieldCode      = "code"      // comb text, MaxLen 3, width 90
	FieldNotes     = "notes"     // multiline text, centered
	FieldAgree     = "agree"     // checkbox, on state "Yes"
	FieldSize      = "size"      // radio group with options S, M, L
	FieldCountry   = "country"   // dropdown, page 2
	FieldSignature = "signature" // signature, page 2
	FieldPhoto     = "photo"     // pushbutton image, page 2
	FieldOrphan    = "orphan"    // widget without field type, page 2
)

// Form returns a two-page AcroForm document.
//
// Page 1 holds name, code, notes, agree, the three size radio buttons and a Link
// annotation. Page 2 holds country, signature, photo and orphan and inherits its
// resources from the page tree.
func Form() []byte {
	b := New()
	catalog := b.Reserve()
	tree := b.Reserve()
	page1 := b.Reserve()
	page2 := b.Reserve()

	helv := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	zadb := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /ZapfDingbats >>")
	onAP := b.Stream("/Type /XObject /Subtype /Form /BBox [0 0 15 15]", "q 0 g BT /ZaDb 12 Tf 2 3 Td (4) Tj ET Q")
	offAP := b.Stream("/Type /XObject /Subtype /Form /BBox [0 0 15 15]", "")

	name := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [100 700 300 720] /DA (/Helv 0 Tf 0 g) /P %s >>",
		FieldName, ref(page1)))
	code := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Ff 16777216 /MaxLen 3 /Rect [100 650 190 670] /DA (/Cour 12 Tf 0 g) /P %s >>",
		FieldCode, ref(page1)))
	notes := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Ff 4096 /Q 1 /Rect [100 500 400 600] /DA (/TiRo 10 Tf 0 0 1 rg) /MK << /BC [1 0 0] /BG [0.9] >> /BS << /W 2 /S /D /D [3 2] >> /P %s >>",
		FieldNotes, ref(page1)))
	agree := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /Rect [100 450 115 465] /DA (/ZaDb 0 Tf 0 g) /AP << /N << /Yes %s /Off %s >> >> /AS /Off /V /Off /P %s >>",
		FieldAgree, ref(onAP), ref(offAP), ref(page1)))

	size := b.Reserve()
	var radios []int
	for i, state := range []string{"S", "M", "L"} {
		x := 100 + 30*i
		radios = append(radios, b.Add(fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /Parent %s /Rect [%d 400 %d 415] /AP << /N << /%s %s /Off %s >> >> /AS /Off /P %s >>",
			ref(size), x, x+15, state, ref(onAP), ref(offAP), ref(page1))))
	}
	b.Set(size, fmt.Sprintf("<< /FT /Btn /T (%s) /Ff 49152 /DA (/ZaDb 0 Tf 0 g) /Kids %s >>", FieldSize, refs(radios...)))

	link := b.Add("<< /Type /Annot /Subtype /Link /Rect [10 10 50 50] /Border [0 0 0] >>")

	country := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Ch /T (%s) /Ff 131072 /Opt [[(CA) (Canada)] (Mexico) [(US) (United States)]] /Rect [100 700 300 720] /DA (/Helv 12 Tf 0 g) /P %s >>",
		FieldCountry, ref(page2)))
	signature := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Sig /T (%s) /Rect [100 100 300 150] /P %s >>",
		FieldSignature, ref(page2)))
	photo := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /Ff 65536 /Rect [350 100 550 250] /P %s >>",
		FieldPhoto, ref(page2)))
	orphan := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /T (%s) /Rect [10 10 20 20] /P %s >>",
		FieldOrphan, ref(page2)))

	content1 := b.Stream("", "BT /F1 18 Tf 72 750 Td (Application form) Tj ET")
	content2 := b.Stream("", "0 0 1 RG 10 10 100 100 re S")

	b.Set(page1, fmt.Sprintf("<< /Type /Page /Parent %s /Contents %s /Resources << /Font << /F1 %s >> >> /Annots %s >>",
		ref(tree), ref(content1), ref(helv), refs(append([]int{name, code, notes, agree}, append(radios, link)...)...)))
	b.Set(page2, fmt.Sprintf("<< /Type /Page /Parent %s /Contents %s /Annots %s >>",
		ref(tree), ref(content2), refs(country, signature, photo, orphan)))
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids %s /Count 2 /MediaBox [0 0 612 792] /Resources << /Font << /F1 %s >> >> >>",
		refs(page1, page2), ref(helv)))

	acroForm := b.Add(fmt.Sprintf("<< /Fields %s /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv %s /ZaDb %s >> >> >>",
		refs(name, code, notes, agree, size, country, signature, photo, orphan), ref(helv), ref(zadb)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s >>", ref(tree), ref(acroForm)))
	return b.Bytes(catalog)
}

// PNG returns a solid-color PNG; with alpha the pixels are half transparent
func PNG(w, h int, alpha bool) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
	if alpha {
		c.A = 128
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
