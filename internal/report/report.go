// Package report renders an assessment run as a PDF digest.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/copperline/dealwatch/internal/processor"
	"github.com/copperline/dealwatch/internal/risk"
)

var levelFill = map[string][3]int{
	risk.LevelRed:    {255, 214, 216},
	risk.LevelYellow: {255, 243, 205},
	risk.LevelGreen:  {217, 247, 231},
}

// Render produces an A4 landscape digest of a run: summary counters
// followed by one row per deal.
func Render(run *processor.RunResult) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Deal Risk Digest")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(107, 112, 128)
	pdf.Cell(0, 6, fmt.Sprintf("Run %s - generated %s", run.RunID, run.FinishedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(8)

	pdf.SetTextColor(31, 31, 46)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Deals: %d    Red: %d    Yellow: %d    Green: %d    Failures: %d",
		len(run.Deals), run.Red, run.Yellow, run.Green, run.Failures))
	pdf.Ln(10)

	writeHeader(pdf)
	for _, d := range run.Deals {
		writeRow(pdf, d)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var columns = []struct {
	title string
	width float64
}{
	{"Client", 45},
	{"Stage", 20},
	{"Value", 25},
	{"Silent (d)", 18},
	{"Level", 18},
	{"Reason", 75},
	{"Next step", 76},
}

func writeHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 232, 239)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func writeRow(pdf *fpdf.Fpdf, d processor.DealResult) {
	pdf.SetFont("Helvetica", "", 8)

	level, reason, action := "n/a", d.Error, ""
	fill := [3]int{238, 238, 238}
	if d.Verdict != nil {
		level = d.Verdict.Level
		reason = d.Verdict.Reason
		action = d.Verdict.Action
		if c, ok := levelFill[level]; ok {
			fill = c
		}
	}
	pdf.SetFillColor(fill[0], fill[1], fill[2])

	cells := []string{
		clip(d.ClientName, 30),
		d.Stage,
		fmt.Sprintf("%.0f", d.DealValue),
		fmt.Sprintf("%d", d.LastContactDays),
		level,
		clip(reason, 55),
		clip(action, 55),
	}
	for i, col := range columns {
		pdf.CellFormat(col.width, 6, cells[i], "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
