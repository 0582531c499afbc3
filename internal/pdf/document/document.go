// Package document adapts a pdfcpu model.Context to the operations the form
// engine needs: page geometry, widget annotations, field mutation, overlay
// grafting and serialization. Page indices are 0-based throughout.
package document

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/crypto/blake2b"

	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// Document is a parsed PDF open for reading and in-place mutation
type Document struct {
	ctx    *model.Context
	annots map[int][]*Annotation
	fonts  map[string]types.Object
}

// Open parses PDF bytes. Unparseable input yields ErrorTypeInvalidDocument.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidDocument, "empty document")
	}

	ctx, err := read(data)
	if err != nil {
		return nil, err
	}
	if ctx.Encrypt != nil {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidDocument, "encrypted documents are not supported")
	}

	return &Document{
		ctx:    ctx,
		annots: make(map[int][]*Annotation),
		fonts:  make(map[string]types.Object),
	}, nil
}

// read parses data into a pdfcpu context. pdfcpu panics on some truncated
// input; those panics surface as ErrorTypeInvalidDocument.
func read(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidDocument, "failed to parse PDF", fmt.Sprint(r))
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err = api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidDocument, "failed to parse PDF", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidDocument, "failed to count pages", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

func (d *Document) checkPage(page int) error {
	if page < 0 || page >= d.ctx.PageCount {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "page out of range",
			fmt.Sprintf("page index %d, document has %d pages", page, d.ctx.PageCount))
	}
	return nil
}

// MediaBox returns the media box of a page
func (d *Document) MediaBox(page int) (widget.Rect, error) {
	if err := d.checkPage(page); err != nil {
		return widget.Rect{}, err
	}
	_, _, inh, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return widget.Rect{}, errors.WrapError(errors.ErrorTypeInvalidDocument, "failed to read page", err).WithPage(page + 1)
	}
	if inh == nil || inh.MediaBox == nil {
		// US Letter is the conventional default
		return widget.NewRect(0, 0, 612, 792), nil
	}
	mb := inh.MediaBox
	return widget.NewRect(mb.LL.X, mb.LL.Y, mb.UR.X, mb.UR.Y), nil
}

// Bytes serializes the document. Identical documents serialize to identical
// bytes: the writer's timestamps and file ID are pinned. The document is
// re-read from the output, so Bytes may be called repeatedly; annotations
// obtained before the call no longer alias the document.
func (d *Document) Bytes() ([]byte, error) {
	out, err := d.write()
	if err != nil {
		return nil, err
	}
	ctx, err := read(out)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "written PDF does not parse", err)
	}
	d.ctx = ctx
	d.annots = make(map[int][]*Annotation)
	d.fonts = make(map[string]types.Object)
	return out, nil
}

func (d *Document) write() (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.NewPDFErrorWithContext(errors.ErrorTypeWriteFailure, "failed to write PDF", fmt.Sprint(r))
		}
	}()

	var buf bytes.Buffer
	start := time.Now()
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailure, "failed to write PDF", err)
	}
	out = pinDates(buf.Bytes(), start, time.Now())
	if len(d.ctx.ID) == 2 {
		if id, ok := d.ctx.ID[1].(types.HexLiteral); ok {
			out = pinFileID(out, string(id))
		}
	}
	return out, nil
}

// pinnedDate replaces the Info dates the writer stamps
var pinnedDate = types.DateString(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

// pinDates replaces every date string the writer could have stamped between
// start and end. Date strings have a fixed width, so xref offsets hold.
func pinDates(out []byte, start, end time.Time) []byte {
	for t := start.Truncate(time.Second); !t.After(end); t = t.Add(time.Second) {
		stamp := types.DateString(t)
		if len(stamp) == len(pinnedDate) {
			out = bytes.ReplaceAll(out, []byte(stamp), []byte(pinnedDate))
		}
	}
	return out
}

// pinFileID replaces the time-derived half of the file ID with a digest of
// the output taken with that half blanked
func pinFileID(out []byte, id string) []byte {
	if id == "" {
		return out
	}
	old := []byte("<" + id + ">")
	blank := []byte("<" + strings.Repeat("0", len(id)) + ">")
	sum := blake2b.Sum256(bytes.ReplaceAll(out, old, blank))
	digest := hex.EncodeToString(sum[:])
	for len(digest) < len(id) {
		digest += digest
	}
	return bytes.ReplaceAll(out, old, []byte("<"+digest[:len(id)]+">"))
}

// acroForm returns the document's AcroForm dictionary, or nil
func (d *Document) acroForm() types.Dict {
	root, err := d.ctx.Catalog()
	if err != nil {
		return nil
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return nil
	}
	af, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return af
}

// HasForm reports whether the document carries an AcroForm dictionary
func (d *Document) HasForm() bool {
	return d.acroForm() != nil
}

// SetNeedAppearances toggles the AcroForm flag asking viewers to rebuild field appearances
func (d *Document) SetNeedAppearances(need bool) {
	af := d.acroForm()
	if af == nil {
		return
	}
	af["NeedAppearances"] = types.Boolean(need)
}

// NeedAppearances reports the current AcroForm flag
func (d *Document) NeedAppearances() bool {
	af := d.acroForm()
	if af == nil {
		return false
	}
	obj, found := af.Find("NeedAppearances")
	if !found {
		return false
	}
	b, ok := d.resolve(obj).(types.Boolean)
	return ok && bool(b)
}

func (d *Document) resolve(obj types.Object) types.Object {
	o, err := d.ctx.Dereference(obj)
	if err != nil {
		logging.Logger().Debug("unresolvable object", "error", err)
		return nil
	}
	return o
}

func (d *Document) dict(obj types.Object) types.Dict {
	if obj == nil {
		return nil
	}
	dict, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return dict
}

func (d *Document) array(obj types.Object) types.Array {
	if obj == nil {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	return arr
}

func (d *Document) name(obj types.Object) string {
	if obj == nil {
		return ""
	}
	n, err := d.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(n)
}

func (d *Document) text(obj types.Object) (string, bool) {
	if obj == nil {
		return "", false
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return "", false
	}
	return s, true
}

func (d *Document) integer(obj types.Object) (int, bool) {
	if obj == nil {
		return 0, false
	}
	i, err := d.ctx.DereferenceInteger(obj)
	if err != nil || i == nil {
		return 0, false
	}
	return int(*i), true
}

func (d *Document) number(obj types.Object) (float64, bool) {
	if obj == nil {
		return 0, false
	}
	f, err := d.ctx.DereferenceNumber(obj)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (d *Document) numbers(obj types.Object) []float64 {
	arr := d.array(obj)
	out := make([]float64, 0, len(arr))
	for _, o := range arr {
		if f, ok := d.number(o); ok {
			out = append(out, f)
		}
	}
	return out
}
