package document

import (
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

// FontProgram is an embeddable TrueType font with its single-byte metrics
type FontProgram struct {
	Name        string
	Data        []byte
	Widths      [256]int
	BBox        [4]int
	Ascent      int
	Descent     int
	CapHeight   int
	ItalicAngle float64
	Flags       int
}

// FontSource resolves registered (non-standard) fonts by name
type FontSource interface {
	Program(name string) (*FontProgram, bool)
}

// Graft composes an overlay onto a page. The overlay becomes a form XObject
// sized to the media box; the existing page content is wrapped in q/Q so its
// graphics state cannot leak into the overlay. Annotations are left untouched.
func (d *Document) Graft(page int, overlay *canvas.Page, fonts FontSource) error {
	if overlay == nil || len(overlay.Content) == 0 {
		return nil
	}
	if err := d.checkPage(page); err != nil {
		return err
	}
	box, err := d.MediaBox(page)
	if err != nil {
		return err
	}
	pageDict, _, inh, err := d.ctx.PageDict(page+1, true)
	if err != nil {
		return errors.WrapError(errors.ErrorTypeInvalidDocument, "failed to read page", err).WithPage(page + 1)
	}

	res, err := d.resources(overlay, fonts)
	if err != nil {
		return err
	}
	formRef, err := d.newStream(overlay.Content, types.Dict{
		"Type":      types.Name("XObject"),
		"Subtype":   types.Name("Form"),
		"BBox":      rectArray(box),
		"Resources": res,
	})
	if err != nil {
		return err
	}

	var base types.Dict
	if obj, found := pageDict.Find("Resources"); found {
		base = d.dict(obj)
	} else if inh != nil {
		base = inh.Resources
	}
	pageRes := copyDict(base)
	xobjects := copyDict(d.dict(pageRes["XObject"]))
	key := uniqueKey("Fill", xobjects)
	xobjects[key] = *formRef
	pageRes["XObject"] = xobjects
	pageDict["Resources"] = pageRes

	paint := []byte("q /" + key + " Do Q\n")
	existing, hasContent := pageDict.Find("Contents")
	if !hasContent {
		ref, err := d.newStream(paint, nil)
		if err != nil {
			return err
		}
		pageDict["Contents"] = types.Array{*ref}
		return nil
	}

	pre, err := d.newStream([]byte("q\n"), nil)
	if err != nil {
		return err
	}
	post, err := d.newStream(append([]byte("Q\n"), paint...), nil)
	if err != nil {
		return err
	}
	contents := types.Array{*pre}
	if arr, ok := d.resolve(existing).(types.Array); ok {
		contents = append(contents, arr...)
	} else {
		contents = append(contents, existing)
	}
	pageDict["Contents"] = append(contents, *post)

	logging.Logger().Debug("grafted overlay", "page", page+1, "xobject", key,
		"fonts", len(overlay.Fonts), "images", len(overlay.Images))
	return nil
}

// SetNormalAppearance installs content as the annotation's /AP /N stream,
// drawn in a coordinate space whose origin is the lower-left corner of its rect.
func (d *Document) SetNormalAppearance(a *Annotation, content *canvas.Page, fonts FontSource) error {
	rect, ok := a.Rect()
	if !ok {
		return errors.NewPDFError(errors.ErrorTypeMalformedWidget, "annotation has no rect").
			WithWidget(a.Name()).WithPage(a.Page + 1)
	}
	res, err := d.resources(content, fonts)
	if err != nil {
		return err
	}
	ref, err := d.newStream(content.Content, types.Dict{
		"Type":      types.Name("XObject"),
		"Subtype":   types.Name("Form"),
		"BBox":      rectArray(widget.NewRect(0, 0, rect.Width(), rect.Height())),
		"Resources": res,
	})
	if err != nil {
		return err
	}
	a.Dict["AP"] = types.Dict{"N": *ref}
	return nil
}

func (d *Document) resources(p *canvas.Page, fonts FontSource) (types.Dict, error) {
	res := types.Dict{}
	if len(p.Fonts) > 0 {
		fd := types.Dict{}
		for _, f := range p.Fonts {
			obj, err := d.fontObject(f.Name, fonts)
			if err != nil {
				return nil, err
			}
			fd[f.Key] = obj
		}
		res["Font"] = fd
	}
	if len(p.Images) > 0 {
		xd := types.Dict{}
		for _, im := range p.Images {
			ref, err := d.imageObject(im.Image)
			if err != nil {
				return nil, err
			}
			xd[im.Key] = *ref
		}
		res["XObject"] = xd
	}
	return res, nil
}

// fontObject returns the font dictionary for name, embedding registered
// TrueType programs once per document.
func (d *Document) fontObject(name string, fonts FontSource) (types.Object, error) {
	if obj, ok := d.fonts[name]; ok {
		return obj, nil
	}

	var obj types.Object
	if widget.IsStandardFont(name) {
		fd := types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(name),
		}
		if !canvas.IsSymbolic(name) {
			fd["Encoding"] = types.Name("WinAnsiEncoding")
		}
		obj = fd
	} else {
		var prog *FontProgram
		var ok bool
		if fonts != nil {
			prog, ok = fonts.Program(name)
		}
		if !ok {
			logging.Logger().Warn("font not registered, falling back", "font", name, "fallback", widget.DefaultFont)
			return d.fontObject(widget.DefaultFont, fonts)
		}
		ref, err := d.embedTrueType(prog)
		if err != nil {
			return nil, err
		}
		obj = *ref
	}
	d.fonts[name] = obj
	return obj, nil
}

func (d *Document) embedTrueType(prog *FontProgram) (*types.IndirectRef, error) {
	file, err := d.newStream(prog.Data, types.Dict{"Length1": types.Integer(len(prog.Data))})
	if err != nil {
		return nil, err
	}
	baseFont := types.Name(widget.ResourceName(prog.Name))
	descriptor, err := d.ctx.IndRefForNewObject(types.Dict{
		"Type":        types.Name("FontDescriptor"),
		"FontName":    baseFont,
		"Flags":       types.Integer(prog.Flags),
		"FontBBox":    types.Array{types.Integer(prog.BBox[0]), types.Integer(prog.BBox[1]), types.Integer(prog.BBox[2]), types.Integer(prog.BBox[3])},
		"ItalicAngle": types.Float(prog.ItalicAngle),
		"Ascent":      types.Integer(prog.Ascent),
		"Descent":     types.Integer(prog.Descent),
		"CapHeight":   types.Integer(prog.CapHeight),
		"StemV":       types.Integer(80),
		"FontFile2":   *file,
	})
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to add font descriptor", err)
	}
	widths := make(types.Array, 256)
	for i, w := range prog.Widths {
		widths[i] = types.Integer(w)
	}
	ref, err := d.ctx.IndRefForNewObject(types.Dict{
		"Type":           types.Name("Font"),
		"Subtype":        types.Name("TrueType"),
		"BaseFont":       baseFont,
		"FirstChar":      types.Integer(0),
		"LastChar":       types.Integer(255),
		"Widths":         widths,
		"Encoding":       types.Name("WinAnsiEncoding"),
		"FontDescriptor": *descriptor,
	})
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to add font", err)
	}
	return ref, nil
}

func (d *Document) imageObject(img *imaging.Image) (*types.IndirectRef, error) {
	rgb, alpha := img.RGB()
	entries := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(img.Width),
		"Height":           types.Integer(img.Height),
		"ColorSpace":       types.Name("DeviceRGB"),
		"BitsPerComponent": types.Integer(8),
	}
	if alpha != nil {
		mask, err := d.newStream(alpha, types.Dict{
			"Type":             types.Name("XObject"),
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(img.Width),
			"Height":           types.Integer(img.Height),
			"ColorSpace":       types.Name("DeviceGray"),
			"BitsPerComponent": types.Integer(8),
		})
		if err != nil {
			return nil, err
		}
		entries["SMask"] = *mask
	}
	return d.newStream(rgb, entries)
}

// newStream adds a Flate-encoded stream object carrying entries
func (d *Document) newStream(content []byte, entries types.Dict) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to create stream", err)
	}
	for k, v := range entries {
		sd.Dict[k] = v
	}
	if err := sd.Encode(); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to encode stream", err)
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to add stream", err)
	}
	return ref, nil
}

func rectArray(r widget.Rect) types.Array {
	return types.Array{types.Float(r.X0), types.Float(r.Y0), types.Float(r.X1), types.Float(r.Y1)}
}

func copyDict(src types.Dict) types.Dict {
	out := types.Dict{}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func uniqueKey(prefix string, taken types.Dict) string {
	for i := 0; ; i++ {
		key := prefix + strconv.Itoa(i)
		if _, used := taken[key]; !used {
			return key
		}
	}
}
