// Package watermark renders draw instructions into per-page overlays and
// grafts them onto the source document.
package watermark

import (
	"fmt"
	"sort"

	"github.com/a3tai/mcp-pdf-filler/internal/form/fontfit"
	"github.com/a3tai/mcp-pdf-filler/internal/form/layout"
	"github.com/a3tai/mcp-pdf-filler/internal/form/widget"
	"github.com/a3tai/mcp-pdf-filler/internal/logging"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/canvas"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

// State is the stage a Job has reached
type State int

const (
	StateScan State = iota
	StateLayout
	StateRender
	StateGraft
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScan:
		return "scan"
	case StateLayout:
		return "layout"
	case StateRender:
		return "render"
	case StateGraft:
		return "graft"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Job carries one overlay operation through its stages
type Job struct {
	State        State
	Instructions map[int][]layout.Instruction
	// Overlays holds the rendered overlay of every 1-based page; nil marks a
	// page without content, which is left untouched.
	Overlays map[int]*canvas.Page
	Warnings *errors.ErrorCollection

	doc *document.Document
}

// Grafted returns the 1-based pages that received an overlay
func (j *Job) Grafted() []int {
	var pages []int
	for p, o := range j.Overlays {
		if o != nil {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}

func (j *Job) advance(to State) error {
	if to != j.State+1 {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "invalid overlay state transition",
			fmt.Sprintf("%s -> %s", j.State, to))
	}
	logging.Logger().Debug("overlay stage", "from", j.State.String(), "to", to.String())
	j.State = to
	return nil
}

// Compositor lays out, renders and grafts overlays
type Compositor struct {
	fit    *fontfit.Fitter
	engine *layout.Engine
}

// New creates a compositor measuring and sizing text with fit
func New(fit *fontfit.Fitter) *Compositor {
	return &Compositor{fit: fit, engine: layout.NewEngine(fit)}
}

// NewJob starts a job on doc in the scan state
func (c *Compositor) NewJob(doc *document.Document) *Job {
	return &Job{State: StateScan, doc: doc, Warnings: errors.NewErrorCollection()}
}

// Compose draws the values of scanned widgets onto their pages. Widgets are
// fitted in place, so callers pass copies.
func (c *Compositor) Compose(doc *document.Document, pages map[int][]*widget.Widget) (*Job, error) {
	job := c.NewJob(doc)
	if err := c.Layout(job, pages); err != nil {
		return nil, err
	}
	return job, c.finish(job)
}

// Draw renders caller supplied instructions keyed by 1-based page
func (c *Compositor) Draw(doc *document.Document, instructions map[int][]layout.Instruction) (*Job, error) {
	job := c.NewJob(doc)
	for page := range instructions {
		if page < 1 || page > doc.PageCount() {
			return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "page out of range",
				fmt.Sprintf("page %d of %d", page, doc.PageCount())).WithPage(page)
		}
	}
	if err := job.advance(StateLayout); err != nil {
		return nil, err
	}
	job.Instructions = make(map[int][]layout.Instruction, doc.PageCount())
	for p := 1; p <= doc.PageCount(); p++ {
		job.Instructions[p] = append([]layout.Instruction{}, instructions[p]...)
	}
	return job, c.finish(job)
}

// Layout computes the instructions of every page from widget values
func (c *Compositor) Layout(job *Job, pages map[int][]*widget.Widget) error {
	if err := job.advance(StateLayout); err != nil {
		return err
	}
	instr, warnings := c.engine.Layout(pages, job.doc.PageCount())
	job.Instructions = instr
	job.Warnings.Merge(warnings)
	return nil
}

func (c *Compositor) finish(job *Job) error {
	if err := c.Render(job); err != nil {
		return err
	}
	if err := c.Graft(job); err != nil {
		return err
	}
	return job.advance(StateDone)
}

// Render builds one overlay per page holding instructions
func (c *Compositor) Render(job *Job) error {
	if err := job.advance(StateRender); err != nil {
		return err
	}
	job.Overlays = make(map[int]*canvas.Page, len(job.Instructions))
	for page := 1; page <= job.doc.PageCount(); page++ {
		overlay, skipped, err := c.Paint(job.Instructions[page])
		if err != nil {
			return err
		}
		for _, perr := range skipped {
			logging.Logger().Warn("draw instruction skipped", "page", page, "error", perr.Message)
			job.Warnings.Add(perr.WithPage(page))
		}
		job.Overlays[page] = overlay
	}
	return nil
}

// Paint renders instructions onto a fresh canvas. Shapes are painted first,
// then images, then text. Instructions failing with a recoverable error are
// skipped and returned; the page is nil when nothing was drawn.
func (c *Compositor) Paint(instructions []layout.Instruction) (*canvas.Page, []*errors.PDFError, error) {
	ordered := append([]layout.Instruction(nil), instructions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Layer() < ordered[j].Layer()
	})

	var skipped []*errors.PDFError
	cv := canvas.New()
	for _, in := range ordered {
		if err := c.paint(cv, in); err != nil {
			perr, ok := errors.As(err)
			if !ok || !perr.Recoverable {
				return nil, nil, err
			}
			skipped = append(skipped, perr)
		}
	}
	if cv.Empty() {
		return nil, skipped, nil
	}
	return cv.Page(), skipped, nil
}

// Graft merges every non-empty overlay onto its page
func (c *Compositor) Graft(job *Job) error {
	if err := job.advance(StateGraft); err != nil {
		return err
	}
	for _, page := range job.Grafted() {
		if err := job.doc.Graft(page-1, job.Overlays[page], c.fit.Fonts()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compositor) paint(cv *canvas.Canvas, in layout.Instruction) error {
	switch v := in.(type) {
	case layout.Text:
		font := c.fit.Fonts().Resolve(v.Font)
		if v.Font == "" {
			font = c.fit.Fonts().Resolve(c.fit.Options().DefaultFont)
		}
		size := v.Size
		if size <= 0 {
			size = c.fit.Options().DefaultSize
		}
		cv.SetFont(font, size)
		cv.SetFillColor(rgb(v.Color))
		if len(v.Lines) > 0 {
			leading := v.Leading
			if leading <= 0 {
				leading = c.fit.LineHeight(size)
			}
			cv.DrawText(v.X, v.Y, leading, v.Lines)
		} else if v.Text != "" {
			cv.DrawString(v.X, v.Y, v.Text)
		}
	case layout.Image:
		if len(v.Data) == 0 {
			return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidImage, "image has no data", v.Source)
		}
		if v.Rotation != 0 || v.PreserveAspectRatio {
			placed, err := layout.FinalizeImage(v)
			if err != nil {
				return err
			}
			v = placed
		}
		img, err := imaging.Decode(v.Data)
		if err != nil {
			return err
		}
		cv.DrawImage(img, v.X, v.Y, v.Width, v.Height)
	case layout.Line:
		cv.Line(v.X0, v.Y0, v.X1, v.Y1, paint(v.Paint))
	case layout.Rect:
		cv.Rect(v.Box.X0, v.Box.Y0, v.Box.Width(), v.Box.Height(), paint(v.Paint))
	case layout.Ellipse:
		cv.Ellipse(v.Box.X0, v.Box.Y0, v.Box.X1, v.Box.Y1, paint(v.Paint))
	default:
		return errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidInstruction, "unsupported instruction", fmt.Sprintf("%T", in))
	}
	return nil
}

func rgb(c widget.Color) canvas.RGB {
	return canvas.RGB{R: c.R, G: c.G, B: c.B}
}

func paint(p layout.Paint) canvas.Paint {
	out := canvas.Paint{Width: p.LineWidth, Dash: p.Dash}
	if p.Stroke != nil {
		s := rgb(*p.Stroke)
		out.Stroke = &s
	}
	if p.Fill != nil {
		f := rgb(*p.Fill)
		out.Fill = &f
	}
	return out
}
