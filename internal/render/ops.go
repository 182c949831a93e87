// Package render lays out invoices as fixed A4 pages and draws them as PDF.
//
// Layout and drawing are separate phases. Build produces pages of drawing
// operations in PDF points with the origin at the bottom-left corner; the
// gofpdf backend converts them to its top-left coordinate system.
package render

// A4 page size in points.
const (
	PageWidth  = 595.2756
	PageHeight = 841.8898
)

// Font selects one of the PDF core fonts.
type Font struct {
	Family string // Helvetica
	Style  string // "", "B", "I"
	Size   float64
}

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// Gray returns a neutral color of level v.
func Gray(v float64) RGB {
	return RGB{v, v, v}
}

var (
	black     = RGB{}
	headColor = RGB{0, 0.3, 0.3}
	lightGray = Gray(0.827)
	gridGray  = Gray(0.5)
	footGray  = Gray(0.4)
)

// Measurer reports the rendered width of text in points.
type Measurer interface {
	Width(f Font, text string) float64
}

// Op is one drawing operation.
type Op interface {
	op()
}

// TextOp draws Text with its baseline starting at (X, Y).
type TextOp struct {
	X, Y  float64
	Text  string
	Font  Font
	Color RGB
}

// RectOp draws a rectangle whose bottom-left corner is (X, Y).
// A nil Fill or Stroke skips that part.
type RectOp struct {
	X, Y, W, H float64
	Fill       *RGB
	Stroke     *RGB
	LineWidth  float64
}

// LineOp draws a straight line.
type LineOp struct {
	X1, Y1, X2, Y2 float64
	Color          RGB
	LineWidth      float64
}

// ImageOp draws the logo with its bottom-left corner at (X, Y).
type ImageOp struct {
	X, Y, W, H float64
	// Alpha is the opacity, 1 for a normal image.
	Alpha float64
}

func (TextOp) op()  {}
func (RectOp) op()  {}
func (LineOp) op()  {}
func (ImageOp) op() {}

// Page is an ordered list of operations; later operations paint over
// earlier ones.
type Page struct {
	Ops []Op
}

// Layout is a laid out document.
type Layout struct {
	Pages []Page
}

// Texts returns the text of every TextOp on the page in drawing order.
func (p Page) Texts() []string {
	var out []string
	for _, o := range p.Ops {
		if t, ok := o.(TextOp); ok {
			out = append(out, t.Text)
		}
	}
	return out
}
