package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/andresuchdata/produced-go/internal/produced"
)

// PDFOptions carries the report's heading.
type PDFOptions struct {
	Title       string
	GeneratedAt time.Time
	Format      Format
}

// WritePDF renders a landscape report with the period summary, the weekly
// statistics and the daily table.
func WritePDF(w io.Writer, results []produced.DailyResult, opts PDFOptions) error {
	if opts.Title == "" {
		opts.Title = "Produced Report"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	f := opts.Format
	if f.Precision < 0 {
		f.Precision = 2
	}

	summary := Summarize(results)
	weeks := Weekly(results)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	// Title
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 12, opts.Title, "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	if summary.Days > 0 {
		pdf.Cell(277, 6, fmt.Sprintf("Period: %s - %s (%d days)",
			summary.From.Format("02-01-2006"), summary.To.Format("02-01-2006"), summary.Days))
		pdf.Ln(6)
	}
	pdf.Cell(277, 6, fmt.Sprintf("Generated on: %s", opts.GeneratedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(10)

	// Summary
	sectionHeader(pdf, "Summary")
	summaryRows := [][2]string{
		{"Produced total (hl)", f.Number(summary.ProducedTotal)},
		{"Produced mean (hl/day)", f.Number(summary.ProducedMean)},
		{"Produced min (hl)", f.Number(summary.ProducedMin)},
		{"Produced max (hl)", f.Number(summary.ProducedMax)},
		{"Packed total (hl)", f.Number(summary.PackedTotal)},
		{"Cisterne total (hl std)", f.Number(summary.TruckTotal)},
		{"Opening stock, day 1 (hl std)", f.Number(summary.StockStart)},
		{"Closing stock, last day (hl std)", f.Number(summary.StockEnd)},
	}
	pdf.SetFont("Arial", "", 9)
	for _, row := range summaryRows {
		pdf.CellFormat(90, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Weekly
	sectionHeader(pdf, "Weekly statistics")
	weekHeader := []string{"Week", "From", "To", "Days", "Produced", "Mean", "Min", "Max", "Packed"}
	weekWidths := []float64{30, 28, 28, 15, 36, 34, 34, 34, 38}
	tableHeader(pdf, weekHeader, weekWidths)
	pdf.SetFont("Arial", "", 9)
	for _, wk := range weeks {
		cells := []string{
			wk.Week,
			wk.First.Format("02-01-2006"),
			wk.Last.Format("02-01-2006"),
			fmt.Sprintf("%d", wk.Days),
			f.Number(wk.ProducedTotal),
			f.Number(wk.ProducedMean),
			f.Number(wk.ProducedMin),
			f.Number(wk.ProducedMax),
			f.Number(wk.PackedTotal),
		}
		for i, c := range cells {
			align := "R"
			if i < 3 {
				align = "L"
			}
			pdf.CellFormat(weekWidths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Daily
	pdf.AddPage()
	sectionHeader(pdf, "Daily results")
	dayHeader := []string{"Date", "Packed", "Cisterne", "Stock start", "Stock end", "Delta", "Produced"}
	dayWidths := []float64{45, 38, 38, 40, 40, 36, 40}
	tableHeader(pdf, dayHeader, dayWidths)
	pdf.SetFont("Arial", "", 9)
	for _, r := range results {
		date := r.Label
		if !r.Date.IsZero() {
			date = r.Date.Format("02-01-2006")
		}
		cells := []string{
			date,
			f.Number(r.PackedTotal),
			f.Number(r.TruckTotal),
			f.Number(r.StockStart),
			f.Number(r.StockEnd),
			f.Number(r.StockDelta),
			f.Number(r.Produced),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(dayWidths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(277, 9, title, "1", 1, "L", true, 0, "")
	pdf.SetFillColor(255, 255, 255)
	pdf.Ln(2)
}

func tableHeader(pdf *gofpdf.Fpdf, header []string, widths []float64) {
	pdf.SetFillColor(200, 220, 240)
	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFillColor(255, 255, 255)
}
