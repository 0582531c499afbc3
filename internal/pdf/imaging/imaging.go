// Package imaging decodes image bytes for embedding and rotates them.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// SupportedFormats lists the image formats Decode accepts
var SupportedFormats = []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}

// Image is a decoded raster ready for embedding as an image XObject
type Image struct {
	Width  int
	Height int
	Format string
	img    image.Image
}

// Decode parses image bytes in any registered format (png, jpeg, gif, bmp, tiff, webp)
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidImage, "cannot decode image", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidImage, "image has no pixels")
	}
	return &Image{Width: b.Dx(), Height: b.Dy(), Format: format, img: img}, nil
}

// Dimensions returns the pixel size without decoding the full image
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.WrapError(errors.ErrorTypeInvalidImage, "cannot read image header", err)
	}
	return cfg.Width, cfg.Height, nil
}

// RGB returns the pixels as packed 8-bit RGB samples and, when any pixel is
// not fully opaque, a parallel 8-bit alpha channel. alpha is nil for opaque images.
func (i *Image) RGB() (rgb, alpha []byte) {
	b := i.img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), i.img, b.Min, draw.Src)

	n := b.Dx() * b.Dy()
	rgb = make([]byte, 0, n*3)
	alpha = make([]byte, 0, n)
	opaque := true
	for p := 0; p < len(nrgba.Pix); p += 4 {
		rgb = append(rgb, nrgba.Pix[p], nrgba.Pix[p+1], nrgba.Pix[p+2])
		a := nrgba.Pix[p+3]
		alpha = append(alpha, a)
		if a != 0xff {
			opaque = false
		}
	}
	if opaque {
		alpha = nil
	}
	return rgb, alpha
}

// Rotate turns the image counter-clockwise by degrees, growing the canvas to
// fit the rotated bounds, and re-encodes it in its original format.
// WebP has no encoder and is re-encoded as PNG.
func Rotate(data []byte, degrees float64) ([]byte, error) {
	degrees = math.Mod(degrees, 360)
	if degrees == 0 {
		return data, nil
	}
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}

	theta := degrees * math.Pi / 180
	sin, cos := math.Sincos(theta)
	w, h := float64(src.Width), float64(src.Height)
	dw := math.Abs(w*cos) + math.Abs(h*sin)
	dh := math.Abs(w*sin) + math.Abs(h*cos)
	dst := image.NewNRGBA(image.Rect(0, 0, int(math.Round(dw)), int(math.Round(dh))))

	// y grows downwards in image space, so a visual counter-clockwise turn
	// maps (x, y) to (x cos + y sin, -x sin + y cos) around the centers.
	sb := src.img.Bounds()
	scx := float64(sb.Min.X) + w/2
	scy := float64(sb.Min.Y) + h/2
	dcx, dcy := float64(dst.Bounds().Dx())/2, float64(dst.Bounds().Dy())/2
	m := f64.Aff3{
		cos, sin, dcx - (cos*scx + sin*scy),
		-sin, cos, dcy - (-sin*scx + cos*scy),
	}
	draw.BiLinear.Transform(dst, m, src.img, sb, draw.Over, nil)

	return encode(dst, src.Format)
}

func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidImage, fmt.Sprintf("cannot encode %s image", format), err)
	}
	return buf.Bytes(), nil
}
