package export

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/timmy/tubescribe/internal/domain"
)

const (
	pdfMargin     = 25.4 // 1 inch, in mm
	labelColWidth = 38.0
	valueColWidth = 122.0
)

func (e *Exporter) writePDF(rec *domain.RecordView) (string, error) {
	path, err := e.artifactPath(rec, "pdf")
	if err != nil {
		return "", err
	}

	title := rec.Title
	if title == "" {
		title = "Untitled"
	}

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(title), "", "C", false)
	pdf.Ln(6)

	// Metadata table
	metadata := [][2]string{
		{"Video ID:", rec.VideoID},
		{"URL:", rec.URL},
		{"Channel:", rec.ChannelName},
		{"Upload Date:", rec.UploadDate},
		{"Duration:", fmt.Sprintf("%d seconds", rec.DurationSeconds)},
	}
	for _, row := range metadata {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelColWidth, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(valueColWidth, 6, tr(row[1]), "", "L", false)
	}
	pdf.Ln(10)

	switch {
	case rec.Error != "":
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, "ERROR: VIDEO UNAVAILABLE", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(rec.Error), "", "L", false)
	case rec.TranscriptText == "":
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, "NO TRANSCRIPT AVAILABLE", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "This could be because:", "", "L", false)
		for _, cause := range noTranscriptCauses {
			pdf.MultiCell(0, 6, tr(cause), "", "L", false)
		}
	default:
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 7, "TRANSCRIPT", "", "L", false)
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 11)
		// Paragraph-split on blank lines
		for _, para := range strings.Split(rec.TranscriptText, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			pdf.MultiCell(0, 6, tr(para), "", "L", false)
			pdf.Ln(2)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
