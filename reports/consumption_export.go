package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"home-energy/usecases"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ContentType returns the MIME type and file extension for a format.
func ContentType(format string) (string, bool) {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	case FormatPDF:
		return "application/pdf", true
	}
	return "", false
}

// Build renders an hourly consumption report in the requested format.
func Build(format string, report *usecases.HourlyConsumption) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return BuildConsumptionXLSX(report)
	case FormatPDF:
		return BuildConsumptionPDF(report)
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}

// BuildConsumptionPDF renders an hourly consumption report as a PDF.
func BuildConsumptionPDF(report *usecases.HourlyConsumption) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Hourly Energy Consumption")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("From: %s", report.PeriodStart.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("To: %s", report.PeriodEnd.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Energy (kWh): %.3f", report.TotalConsumptionKWh))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Hour", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Room", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Energy (Wh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Devices", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, hour := range report.HourlyData {
		for _, room := range hour.Rooms {
			pdf.CellFormat(45, 6, hour.Hour.Start().Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(60, 6, roomLabel(room), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", room.TotalWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", len(room.Devices)), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildConsumptionXLSX renders an hourly consumption report as a workbook
// with a summary sheet and one row per device and hour.
func BuildConsumptionXLSX(report *usecases.HourlyConsumption) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	hourlySheet := "hourly"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(hourlySheet); err != nil {
		return nil, err
	}

	summary := &sheetWriter{f: f, sheet: summarySheet}
	summary.set("A1", "Hourly Energy Consumption")
	summary.set("A3", "From")
	summary.set("B3", report.PeriodStart.Format(time.RFC3339))
	summary.set("A4", "To")
	summary.set("B4", report.PeriodEnd.Format(time.RFC3339))
	summary.set("A5", "Hours")
	summary.set("B5", len(report.HourlyData))
	summary.set("A6", "Total Energy (kWh)")
	summary.set("B6", report.TotalConsumptionKWh)
	if summary.err != nil {
		return nil, summary.err
	}

	hourly := &sheetWriter{f: f, sheet: hourlySheet}
	hourly.row(1, "Hour", "Room ID", "Room", "Device ID", "Device", "Minutes On", "Energy (Wh)")
	row := 2
	for _, hour := range report.HourlyData {
		for _, room := range hour.Rooms {
			for _, dev := range room.Devices {
				hourly.row(row, hour.Hour.Start().Format("2006-01-02 15:04"), room.RoomID, room.RoomName,
					dev.DeviceID, dev.DeviceName, dev.MinutesOn, dev.EnergyWh)
				row++
			}
		}
	}
	if hourly.err != nil {
		return nil, hourly.err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error from a run of cell writes and skips the
// writes after it.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(cell string, value interface{}) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = fmt.Errorf("write %s!%s: %w", w.sheet, cell, err)
	}
}

func (w *sheetWriter) row(row int, values ...interface{}) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		w.set(cell, v)
	}
}

func roomLabel(room usecases.RoomBreakdown) string {
	if room.RoomName != "" {
		return room.RoomName
	}
	// room deleted since the record was written
	return room.RoomID
}
