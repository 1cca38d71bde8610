package pdfsvc

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core/report"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
	cellPad    = 2.0
	minColW    = 14.0
)

// Renderer lays out report documents as A4 PDF files using the core fonts.
type Renderer struct {
	author string
}

var _ report.Renderer = (*Renderer)(nil)

func NewRenderer(author string) *Renderer {
	return &Renderer{author: author}
}

func (r *Renderer) Render(doc report.Document, w io.Writer) error {
	orientation := "P"
	for _, sec := range doc.Sections {
		if len(sec.Columns) > 5 {
			orientation = "L"
			break
		}
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252: accents & ñ
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(r.author, true)
	pdf.SetCreator(r.author, true)
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 15)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("%s - %s - Página %d/{nb}", doc.Subtitle, doc.GeneratedAt.Format("02/01/2006 15:04"), pdf.PageNo())
		pdf.CellFormat(0, 8, tr(footer), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(20, 40, 90)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, tr("Generado el "+doc.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	if len(doc.Filters) > 0 {
		pdf.Ln(2)
		pdf.SetFont(fontFamily, "B", 9)
		pdf.CellFormat(0, 5, tr("Filtros aplicados"), "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 9)
		for _, f := range doc.Filters {
			pdf.CellFormat(0, 5, tr("- "+f), "", 1, "L", false, 0, "")
		}
	}

	for _, sec := range doc.Sections {
		r.section(pdf, tr, sec)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

func (r *Renderer) section(pdf *fpdf.Fpdf, tr func(string) string, sec report.Section) {
	pdf.Ln(6)
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetTextColor(20, 40, 90)
	pdf.CellFormat(0, 8, tr(sec.Title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(sec.Rows) > 0 && len(sec.Columns) > 0 {
		widths := r.columnWidths(pdf, tr, sec)
		r.tableHeader(pdf, tr, sec.Columns, widths)

		pdf.SetFont(fontFamily, "", 9)
		pdf.SetTextColor(30, 30, 30)
		pdf.SetFillColor(242, 245, 250)
		_, pageH := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		for i, row := range sec.Rows {
			if pdf.GetY()+lineHeight > pageH-bottom-10 {
				pdf.AddPage()
				r.tableHeader(pdf, tr, sec.Columns, widths)
				pdf.SetFont(fontFamily, "", 9)
				pdf.SetTextColor(30, 30, 30)
				pdf.SetFillColor(242, 245, 250)
			}
			for j, w := range widths {
				var cell string
				if j < len(row) {
					cell = fit(pdf, tr(row[j]), w-cellPad)
				}
				pdf.CellFormat(w, lineHeight, cell, "", 0, "L", i%2 == 1, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if len(sec.Notes) > 0 {
		pdf.Ln(2)
		pdf.SetFont(fontFamily, "I", 9)
		pdf.SetTextColor(60, 60, 60)
		for _, note := range sec.Notes {
			pdf.MultiCell(0, 5, tr(note), "", "L", false)
		}
	}
}

func (r *Renderer) tableHeader(pdf *fpdf.Fpdf, tr func(string) string, columns []string, widths []float64) {
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(20, 40, 90)
	pdf.SetTextColor(255, 255, 255)
	for i, w := range widths {
		pdf.CellFormat(w, lineHeight+1, fit(pdf, tr(columns[i]), w-cellPad), "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// columnWidths spreads the printable width over the columns, proportionally to their widest content.
func (r *Renderer) columnWidths(pdf *fpdf.Fpdf, tr func(string) string, sec report.Section) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	avail := pageW - left - right

	pdf.SetFont(fontFamily, "", 9)
	natural := make([]float64, len(sec.Columns))
	var total float64
	for i, col := range sec.Columns {
		natural[i] = pdf.GetStringWidth(tr(col)) + 2*cellPad
		for _, row := range sec.Rows {
			if i < len(row) {
				if w := pdf.GetStringWidth(tr(row[i])) + 2*cellPad; w > natural[i] {
					natural[i] = w
				}
			}
		}
		if natural[i] < minColW {
			natural[i] = minColW
		}
		total += natural[i]
	}

	widths := make([]float64, len(natural))
	for i, w := range natural {
		widths[i] = w * avail / total
	}
	return widths
}

// fit truncates s (already translated to a single-byte code page) with an ellipsis so that it fits in w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
