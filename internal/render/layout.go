package render

import (
	"strconv"
	"strings"

	"invoicer/internal/core/money"
	"invoicer/internal/domain/invoice"
)

// Page geometry in points, measured from the bottom-left corner.
const (
	watermarkSize  = 300
	watermarkAlpha = 0.08

	logoSize      = 100
	logoTopOffset = 130

	headerTopOffset = 150
	headerMaxWidth  = 460
	titleLineGap    = 22
	headerLineGap   = 15

	detailsTopOffset = 230
	leftColX         = 80
	leftColWidth     = 260
	rightColX        = 360
	rightColWidth    = 195
	detailsLineGap   = 15

	tableX         = 50
	tableTopOffset = 420
	rowHeight      = 18
	cellPadding    = 3
	cellBaseline   = 6
	bottomReserve  = 150

	continuationTop = PageHeight - 60

	totalsLabelX  = 450
	totalsValueX  = 550
	signatureX    = 525
	signatureRule = 100
	closingHeight = 190

	footerY = 40
)

var columnWidths = [4]float64{220, 80, 100, 100}

var tableHeader = [4]string{"Service/Product", "Qty", "Unit Price (Rs.)", "Total (Rs.)"}

var (
	fontTitle     = Font{"Helvetica", "B", 18}
	fontHeader    = Font{"Helvetica", "", 10}
	fontLabel     = Font{"Helvetica", "B", 12}
	fontBody      = Font{"Helvetica", "", 11}
	fontTableHead = Font{"Helvetica", "B", 10}
	fontTableBody = Font{"Helvetica", "", 10}
	fontTotal     = Font{"Helvetica", "B", 12}
	fontSignature = Font{"Helvetica", "I", 11}
	fontFooter    = Font{"Helvetica", "I", 9}
)

// FooterText closes every document.
const FooterText = "Thank you for your business!"

// Build lays out inv. withLogo adds the watermark to every page and the
// logo above the header.
func Build(m Measurer, inv *invoice.Invoice, issuer invoice.Issuer, withLogo bool) Layout {
	b := &builder{m: m, logo: withLogo}
	b.newPage()

	y := b.header(issuer)
	y = b.details(inv, issuer, min(PageHeight-detailsTopOffset, y-35))
	y = b.items(inv.LineItems, min(PageHeight-tableTopOffset, y-25))

	if y-closingHeight < footerY+20 {
		b.newPage()
		y = continuationTop
	}
	y -= 40
	b.totals(inv, y)
	b.signature(issuer, y-80)
	b.centered(PageWidth/2, footerY, FooterText, fontFooter, footGray)

	return Layout{Pages: b.pages}
}

type builder struct {
	m     Measurer
	logo  bool
	pages []Page
}

func (b *builder) newPage() {
	b.pages = append(b.pages, Page{})
	if b.logo {
		b.add(ImageOp{
			X:     (PageWidth - watermarkSize) / 2,
			Y:     (PageHeight - watermarkSize) / 2,
			W:     watermarkSize,
			H:     watermarkSize,
			Alpha: watermarkAlpha,
		})
	}
}

func (b *builder) add(o Op) {
	p := &b.pages[len(b.pages)-1]
	p.Ops = append(p.Ops, o)
}

func (b *builder) text(x, y float64, s string, f Font, c RGB) {
	b.add(TextOp{X: x, Y: y, Text: s, Font: f, Color: c})
}

func (b *builder) centered(cx, y float64, s string, f Font, c RGB) {
	b.text(cx-b.m.Width(f, s)/2, y, s, f, c)
}

func (b *builder) right(rx, y float64, s string, f Font, c RGB) {
	b.text(rx-b.m.Width(f, s), y, s, f, c)
}

// header draws logo, display name and contact lines and returns the
// baseline of the last line.
func (b *builder) header(is invoice.Issuer) float64 {
	if b.logo {
		b.add(ImageOp{
			X:     (PageWidth - logoSize) / 2,
			Y:     PageHeight - logoTopOffset,
			W:     logoSize,
			H:     logoSize,
			Alpha: 1,
		})
	}

	y := float64(PageHeight - headerTopOffset)
	for i, line := range Wrap(b.m, fontTitle, is.DisplayName, headerMaxWidth) {
		if i > 0 {
			y -= titleLineGap
		}
		b.centered(PageWidth/2, y, line, fontTitle, headColor)
	}

	for _, s := range contactLines(is) {
		for _, line := range Wrap(b.m, fontHeader, s, headerMaxWidth) {
			y -= headerLineGap
			b.centered(PageWidth/2, y, line, fontHeader, black)
		}
	}
	return y
}

func contactLines(is invoice.Issuer) []string {
	var lines []string
	if is.Address != "" {
		lines = append(lines, is.Address)
	}

	var contact []string
	if is.Email != "" {
		contact = append(contact, "Email: "+is.Email)
	}
	if is.Phone != "" {
		contact = append(contact, "Phone: "+is.Phone)
	}
	if len(contact) > 0 {
		lines = append(lines, strings.Join(contact, " | "))
	}

	if is.Website != "" {
		lines = append(lines, "Website: "+is.Website)
	}
	return lines
}

// details draws the invoice column on the left and the client column on
// the right, both starting at top. It returns the lowest baseline used.
func (b *builder) details(inv *invoice.Invoice, is invoice.Issuer, top float64) float64 {
	b.text(leftColX, top, "Invoice Details:", fontLabel, black)
	left := []string{
		"Invoice No: " + inv.Number,
		"Invoice Date: " + inv.Date.Format(invoice.DateLayout),
		"Due Date: " + inv.DueDate.Format(invoice.DateLayout),
	}
	if is.TaxID != "" {
		left = append(left, "GSTIN: "+is.TaxID)
	}
	if inv.Description != "" {
		left = append(left, Wrap(b.m, fontBody, "Description: "+inv.Description, leftColWidth)...)
	}
	ly := b.column(leftColX, top-20, left)

	b.text(rightColX, top, "Client Details:", fontLabel, black)
	right := []string{
		"Name: " + inv.Client.Name,
		"Email: " + orNA(inv.Client.Email),
		"Phone: " + orNA(inv.Client.Phone),
	}
	if inv.Client.PurchaseOrder != "" {
		right = append(right, "PO: "+inv.Client.PurchaseOrder)
	}
	right = append(right, Wrap(b.m, fontBody, "Address: "+orNA(inv.Client.Address), rightColWidth)...)
	ry := b.column(rightColX, top-20, right)

	return min(ly, ry)
}

func (b *builder) column(x, y float64, lines []string) float64 {
	last := y
	for _, s := range lines {
		b.text(x, y, s, fontBody, black)
		last = y
		y -= detailsLineGap
	}
	return last
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// items draws the line item table starting at top. When the table does not
// fit above the bottom reserve, rows are split into chunks that each get a
// page of their own, with the header row repeated. It returns the bottom
// edge of the last row drawn.
func (b *builder) items(lines []invoice.LineItem, top float64) float64 {
	rows := make([][4]string, len(lines))
	for i, li := range lines {
		rows[i] = [4]string{
			li.Name,
			strconv.FormatInt(li.Quantity, 10),
			money.Format(li.UnitPrice),
			money.Format(li.Total),
		}
	}

	available := top - bottomReserve
	if float64(len(rows)+1)*rowHeight <= available {
		return b.table(top, rows)
	}

	perPage := RowsPerPage(available, rowHeight) - 1
	y := top
	for i, chunk := range Chunk(rows, perPage) {
		start := top
		if i > 0 {
			b.newPage()
			start = continuationTop
		}
		y = b.table(start, chunk)
	}
	return y
}

func (b *builder) table(top float64, rows [][4]string) float64 {
	fill := lightGray
	b.row(top, tableHeader, fontTableHead, &fill)
	y := top - rowHeight
	for _, r := range rows {
		b.row(y, r, fontTableBody, nil)
		y -= rowHeight
	}
	return y
}

func (b *builder) row(top float64, cells [4]string, f Font, fill *RGB) {
	stroke := gridGray
	x := float64(tableX)
	for i, w := range columnWidths {
		b.add(RectOp{X: x, Y: top - rowHeight, W: w, H: rowHeight, Fill: fill, Stroke: &stroke, LineWidth: 0.5})
		s := Ellipsize(b.m, f, cells[i], w-2*cellPadding)
		b.text(x+(w-b.m.Width(f, s))/2, top-rowHeight+cellBaseline, s, f, black)
		x += w
	}
}

// totals draws subtotal, tax and final total below baseline y.
func (b *builder) totals(inv *invoice.Invoice, y float64) {
	b.right(totalsLabelX, y, "Subtotal:", fontBody, black)
	b.right(totalsValueX, y, money.Format(inv.Subtotal), fontBody, black)

	label := "GST"
	if inv.TaxSelection.CGST || inv.TaxSelection.SGST {
		label = inv.TaxSelection.Label()
	}
	b.right(totalsLabelX, y-15, label+" ("+inv.TaxRate.String()+"%):", fontBody, black)
	b.right(totalsValueX, y-15, money.Format(inv.TaxAmount), fontBody, black)

	b.right(totalsLabelX, y-35, "Final Total:", fontTotal, black)
	b.right(totalsValueX, y-35, money.Format(inv.FinalTotal), fontTotal, black)
}

func (b *builder) signature(is invoice.Issuer, y float64) {
	b.right(signatureX, y, "Signature And Stamp", fontSignature, black)
	if is.Signatory != "" {
		b.right(signatureX, y-15, is.Signatory, fontSignature, black)
	}
	if is.SignatoryTitle != "" {
		b.right(signatureX+5, y-30, "("+is.SignatoryTitle+")", fontSignature, black)
	}
	b.add(LineOp{X1: signatureX - signatureRule, Y1: y - 70, X2: signatureX, Y2: y - 70, Color: black, LineWidth: 0.5})
}
