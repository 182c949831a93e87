package render

import (
	"bytes"
	"context"
	"errors"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain/invoice"
	"invoicer/pkg/logger"
)

var tracer = otel.Tracer("invoicer/render")

// ContentType of rendered documents.
const ContentType = "application/pdf"

const logoImageName = "logo"

// Compile-time check that Renderer implements invoice.Renderer.
var _ invoice.Renderer = (*Renderer)(nil)

// Renderer draws invoices as PDF with gofpdf. It is safe for concurrent
// use; every call works on its own document.
type Renderer struct {
	creator string
}

// NewRenderer creates a Renderer. creator is written to the document
// metadata.
func NewRenderer(creator string) *Renderer {
	return &Renderer{creator: creator}
}

// Render implements invoice.Renderer. A logo that cannot be embedded is
// logged and left out; only a failure of the PDF backend is an error.
func (r *Renderer) Render(ctx context.Context, inv *invoice.Invoice, issuer invoice.Issuer) (*invoice.Document, error) {
	ctx, span := tracer.Start(ctx, "render.Invoice",
		trace.WithAttributes(
			attribute.String("invoice.number", inv.Number),
			attribute.Int("invoice.lines", len(inv.LineItems)),
		),
	)
	defer span.End()

	logo, err := DecodeLogo(issuer.Logo)
	if err != nil && !errors.Is(err, ErrNoLogo) {
		logger.Warn(ctx, "rendering without logo", "number", inv.Number, "reason", err.Error())
		span.AddEvent("logo skipped", trace.WithAttributes(attribute.String("reason", err.Error())))
	}

	layout := Build(NewMeasurer(), inv, issuer, logo != nil)
	span.SetAttributes(attribute.Int("document.pages", len(layout.Pages)))

	data, err := Draw(layout, logo, Meta{
		Title:   "Invoice " + inv.Number,
		Author:  issuer.DisplayName,
		Creator: r.creator,
		Date:    inv.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "draw failed")
		return nil, apperror.NewRendering(err)
	}

	return &invoice.Document{Data: data, Filename: inv.Filename(), ContentType: ContentType}, nil
}

// Meta is the document information dictionary.
type Meta struct {
	Title   string
	Author  string
	Creator string
	// Date is used as creation and modification date so that output only
	// depends on the input.
	Date time.Time
}

// Draw writes l as a PDF document.
func Draw(l Layout, logo *Logo, meta Meta) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(meta.Date)
	pdf.SetModificationDate(meta.Date)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	if meta.Creator != "" {
		pdf.SetCreator(meta.Creator, true)
	}
	pdf.SetAutoPageBreak(false, 0)

	if logo != nil {
		pdf.RegisterImageOptionsReader(logoImageName, gofpdf.ImageOptions{ImageType: logo.Type}, bytes.NewReader(logo.Data))
	}

	c := canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), logo: logo}
	_, c.height = pdf.GetPageSize()

	for _, p := range l.Pages {
		pdf.AddPage()
		for _, o := range p.Ops {
			c.draw(o)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canvas flips bottom-left layout coordinates into gofpdf's top-left ones.
type canvas struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	logo   *Logo
	height float64
}

func (c canvas) draw(o Op) {
	switch o := o.(type) {
	case TextOp:
		c.pdf.SetFont(o.Font.Family, o.Font.Style, o.Font.Size)
		c.pdf.SetTextColor(to255(o.Color))
		c.pdf.Text(o.X, c.height-o.Y, c.tr(o.Text))

	case RectOp:
		style := ""
		if o.Fill != nil {
			c.pdf.SetFillColor(to255(*o.Fill))
			style += "F"
		}
		if o.Stroke != nil {
			c.pdf.SetDrawColor(to255(*o.Stroke))
			c.pdf.SetLineWidth(o.LineWidth)
			style += "D"
		}
		if style != "" {
			c.pdf.Rect(o.X, c.height-o.Y-o.H, o.W, o.H, style)
		}

	case LineOp:
		c.pdf.SetDrawColor(to255(o.Color))
		c.pdf.SetLineWidth(o.LineWidth)
		c.pdf.Line(o.X1, c.height-o.Y1, o.X2, c.height-o.Y2)

	case ImageOp:
		if c.logo == nil {
			return
		}
		if o.Alpha < 1 {
			c.pdf.SetAlpha(o.Alpha, "Normal")
			defer c.pdf.SetAlpha(1, "Normal")
		}
		c.pdf.ImageOptions(logoImageName, o.X, c.height-o.Y-o.H, o.W, o.H, false,
			gofpdf.ImageOptions{ImageType: c.logo.Type}, 0, "")
	}
}

func to255(c RGB) (int, int, int) {
	conv := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return conv(c.R), conv(c.G), conv(c.B)
}

// fpdfMeasurer measures text with the core font metrics shipped with gofpdf.
// It is not safe for concurrent use.
type fpdfMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// NewMeasurer returns a Measurer backed by gofpdf core font metrics.
func NewMeasurer() Measurer {
	pdf := gofpdf.New("P", "pt", "A4", "")
	return &fpdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fpdfMeasurer) Width(f Font, text string) float64 {
	m.pdf.SetFont(f.Family, f.Style, f.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}
