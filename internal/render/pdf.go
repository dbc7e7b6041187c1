package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/mmeshcher/invoice-system/internal/model"
)

const (
	pageWidth  = 210.0
	margin     = 15.0
	lineHeight = 5.0
)

// PDF возвращает счёт в формате PDF (A4).
func PDF(inv model.Invoice) ([]byte, error) {
	return renderPDF(inv, true)
}

func renderPDF(inv model.Invoice, compress bool) ([]byte, error) {
	doc := newDocument(inv)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentWidth := pageWidth - 2*margin

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(contentWidth, 12, "INVOICE", "", 1, "R", false, 0, "")
	pdf.Ln(4)

	half := contentWidth / 2
	top := pdf.GetY()
	writeParty(pdf, tr, "From:", doc.From, margin, half)
	fromBottom := pdf.GetY()
	pdf.SetY(top)
	writeParty(pdf, tr, "To:", doc.To, margin+half, half)
	if pdf.GetY() < fromBottom {
		pdf.SetY(fromBottom)
	}
	pdf.Ln(4)

	pdf.SetDrawColor(238, 238, 238)
	pdf.Line(margin, pdf.GetY(), pageWidth-margin, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, lineHeight, tr("Invoice #: "+doc.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Date: "+doc.Date, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Due Date: "+doc.DueDate, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	widths := []float64{contentWidth * 0.5, contentWidth * 0.15, contentWidth * 0.15, contentWidth * 0.2}
	aligns := []string{"L", "C", "R", "R"}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	for i, h := range []string{"Description", "Qty", "Price", "Total"} {
		pdf.CellFormat(widths[i], 7, h, "B", 0, aligns[i], false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetDrawColor(238, 238, 238)
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range doc.Rows {
		cells := []string{tr(r.Description), r.Quantity, r.Price, r.Amount}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "B", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	pdf.CellFormat(contentWidth, lineHeight, "Subtotal: "+doc.Subtotal, "", 1, "R", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Tax ("+doc.TaxRate+"%): "+doc.TaxAmount, "", 1, "R", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Discount: -"+doc.Discount, "", 1, "R", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth, 7, "Total: "+doc.Currency+" "+doc.Total, "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeParty(pdf *gofpdf.Fpdf, tr func(string) string, title string, p party, x, w float64) {
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(w, 7, title, "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(w, lineHeight, tr(p.Name), "", 2, "L", false, 0, "")
	for _, line := range p.Lines {
		pdf.CellFormat(w, lineHeight, tr(line), "", 2, "L", false, 0, "")
	}
}
