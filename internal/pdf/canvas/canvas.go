// Package canvas builds page content streams from drawing primitives.
// A Canvas produces the operators and the font and image resources they refer
// to; grafting them onto a document is left to the document package.
package canvas

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

// kappa places cubic bezier control points for a quarter ellipse
const kappa = 0.5522847498

// RGB is a device RGB color with components in [0,1]
type RGB struct {
	R, G, B float64
}

// Paint describes how a path is stroked and filled. A nil color skips that operation.
type Paint struct {
	Stroke *RGB
	Fill   *RGB
	Width  float64
	Dash   []float64
}

// FontResource names a font used by the content stream
type FontResource struct {
	Key  string
	Name string
}

// ImageResource names an image drawn by the content stream
type ImageResource struct {
	Key   string
	Image *imaging.Image
}

// Page is the output of one canvas: a content stream plus its resources
type Page struct {
	Content []byte
	Fonts   []FontResource
	Images  []ImageResource
}

// Canvas accumulates drawing operations for one page
type Canvas struct {
	buf      bytes.Buffer
	fonts    []FontResource
	fontKeys map[string]string
	images   []ImageResource

	font  string
	size  float64
	color RGB
}

// New creates an empty canvas. Text defaults to 12pt black Helvetica.
func New() *Canvas {
	return &Canvas{
		fontKeys: make(map[string]string),
		font:     "Helvetica",
		size:     12,
	}
}

// SetFont selects the font and size used by subsequent text operations
func (c *Canvas) SetFont(name string, size float64) {
	c.font = name
	c.size = size
}

// SetFillColor selects the text color
func (c *Canvas) SetFillColor(rgb RGB) {
	c.color = rgb
}

// Empty reports whether nothing has been drawn
func (c *Canvas) Empty() bool {
	return c.buf.Len() == 0
}

// DrawString draws one line of text with its baseline origin at (x, y)
func (c *Canvas) DrawString(x, y float64, text string) {
	key := c.fontKey(c.font)
	fmt.Fprintf(&c.buf, "q BT %s rg /%s %s Tf %s %s Td %s Tj ET Q\n",
		colorOperands(c.color), key, Number(c.size), Number(x), Number(y), c.literal(text))
}

// DrawText draws lines top-down inside one text object, starting at (x, y)
// and moving down by leading after each line.
func (c *Canvas) DrawText(x, y, leading float64, lines []string) {
	if len(lines) == 0 {
		return
	}
	key := c.fontKey(c.font)
	fmt.Fprintf(&c.buf, "q BT %s rg /%s %s Tf %s TL %s %s Td",
		colorOperands(c.color), key, Number(c.size), Number(leading), Number(x), Number(y))
	for i, line := range lines {
		if i > 0 {
			c.buf.WriteString(" T*")
		}
		fmt.Fprintf(&c.buf, " %s Tj", c.literal(line))
	}
	c.buf.WriteString(" ET Q\n")
}

// DrawImage paints img scaled into the box with lower-left corner (x, y)
func (c *Canvas) DrawImage(img *imaging.Image, x, y, w, h float64) {
	key := "Im" + strconv.Itoa(len(c.images)+1)
	c.images = append(c.images, ImageResource{Key: key, Image: img})
	fmt.Fprintf(&c.buf, "q %s 0 0 %s %s %s cm /%s Do Q\n",
		Number(w), Number(h), Number(x), Number(y), key)
}

// Line strokes a straight segment
func (c *Canvas) Line(x0, y0, x1, y1 float64, p Paint) {
	p.Fill = nil
	c.path(p, fmt.Sprintf("%s %s m %s %s l", Number(x0), Number(y0), Number(x1), Number(y1)))
}

// Rect paints a rectangle with lower-left corner (x, y)
func (c *Canvas) Rect(x, y, w, h float64, p Paint) {
	c.path(p, fmt.Sprintf("%s %s %s %s re", Number(x), Number(y), Number(w), Number(h)))
}

// Ellipse paints the ellipse inscribed in the box (x0, y0)-(x1, y1)
func (c *Canvas) Ellipse(x0, y0, x1, y1 float64, p Paint) {
	cx, cy := (x0+x1)/2, (y0+y1)/2
	rx, ry := (x1-x0)/2, (y1-y0)/2
	ox, oy := rx*kappa, ry*kappa
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s m", Number(cx+rx), Number(cy))
	curve := func(x1, y1, x2, y2, x3, y3 float64) {
		fmt.Fprintf(&b, " %s %s %s %s %s %s c",
			Number(x1), Number(y1), Number(x2), Number(y2), Number(x3), Number(y3))
	}
	curve(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	curve(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	curve(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	curve(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	c.path(p, b.String())
}

// Page returns the content stream and resources drawn so far
func (c *Canvas) Page() *Page {
	return &Page{
		Content: append([]byte(nil), c.buf.Bytes()...),
		Fonts:   append([]FontResource(nil), c.fonts...),
		Images:  append([]ImageResource(nil), c.images...),
	}
}

func (c *Canvas) path(p Paint, construct string) {
	var op string
	switch {
	case p.Stroke != nil && p.Fill != nil:
		op = "B"
	case p.Fill != nil:
		op = "f"
	case p.Stroke != nil:
		op = "S"
	default:
		return
	}
	c.buf.WriteString("q")
	if p.Width > 0 {
		fmt.Fprintf(&c.buf, " %s w", Number(p.Width))
	}
	if len(p.Dash) > 0 {
		parts := make([]string, len(p.Dash))
		for i, d := range p.Dash {
			parts[i] = Number(d)
		}
		fmt.Fprintf(&c.buf, " [%s] 0 d", strings.Join(parts, " "))
	}
	if p.Stroke != nil {
		fmt.Fprintf(&c.buf, " %s RG", colorOperands(*p.Stroke))
	}
	if p.Fill != nil {
		fmt.Fprintf(&c.buf, " %s rg", colorOperands(*p.Fill))
	}
	fmt.Fprintf(&c.buf, " %s %s Q\n", construct, op)
}

func (c *Canvas) fontKey(name string) string {
	if key, ok := c.fontKeys[name]; ok {
		return key
	}
	key := "F" + strconv.Itoa(len(c.fonts)+1)
	c.fontKeys[name] = key
	c.fonts = append(c.fonts, FontResource{Key: key, Name: name})
	return key
}

func (c *Canvas) literal(text string) string {
	return "(" + Escape(Encode(c.font, text)) + ")"
}

func colorOperands(c RGB) string {
	return Number(c.R) + " " + Number(c.G) + " " + Number(c.B)
}

// IsSymbolic reports whether the font uses its built-in encoding rather than WinAnsi
func IsSymbolic(font string) bool {
	return font == "ZapfDingbats" || font == "Symbol"
}

// Encode converts text to the single-byte codes used to show it in font.
// Characters outside the encoding become '?'.
func Encode(font, text string) []byte {
	if IsSymbolic(font) {
		out := make([]byte, 0, len(text))
		for _, r := range text {
			if r > 0x7f {
				r = '?'
			}
			out = append(out, byte(r))
		}
		return out
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// Escape renders bytes as the body of a PDF literal string
func Escape(b []byte) string {
	var sb strings.Builder
	for _, ch := range b {
		switch {
		case ch == '(' || ch == ')' || ch == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		case ch < 0x20 || ch > 0x7e:
			fmt.Fprintf(&sb, "\\%03o", ch)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// Number prints a PDF number with at most four decimals and no trailing zeros
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
