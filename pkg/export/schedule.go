package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ScheduleRow is one effective-view line prepared for export.
type ScheduleRow struct {
	Date      string
	ShiftType string
	StartTime string
	EndTime   string
	Status    string
	Note      string
}

// ScheduleDocument is the effective schedule for one nurse over a range.
type ScheduleDocument struct {
	NurseName string
	From      string
	To        string
	Rows      []ScheduleRow
}

var scheduleHeaders = []string{"Date", "Shift", "Start", "End", "Status", "Note"}

func (d ScheduleDocument) records() [][]string {
	records := make([][]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		records = append(records, []string{row.Date, row.ShiftType, row.StartTime, row.EndTime, row.Status, row.Note})
	}
	return records
}

// RenderCSV produces the schedule as CSV bytes.
func RenderCSV(doc ScheduleDocument) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(scheduleHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, record := range doc.records() {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF produces the schedule as a simple tabular PDF.
func RenderPDF(doc ScheduleDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	title := strings.TrimSpace(fmt.Sprintf("Shift Schedule %s", doc.NurseName))
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	if doc.From != "" || doc.To != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s", doc.From, doc.To), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	colWidths := []float64{28, 40, 24, 24, 34, 40}
	pdf.SetFont("Arial", "B", 10)
	for i, header := range scheduleHeaders {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, record := range doc.records() {
		for i, value := range record {
			pdf.CellFormat(colWidths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
