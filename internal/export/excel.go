package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	RankedSheet  = "Ranked Candidates"
	SummarySheet = "Summary"

	maxJobPreview = 500
)

// Score bands used to colour ranked rows.
var bandFills = []struct {
	min   int
	color string
}{
	{min: 80, color: "C6EFCE"},
	{min: 60, color: "FFEB9C"},
	{min: 40, color: "FFC7CE"},
	{min: 0, color: "FF9999"},
}

// SaveExcel writes a workbook with the ranked candidates and a summary sheet.
// The .xlsx extension is added when missing.
func SaveExcel(path string, results *candidates.Results, job string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RankedSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return "", err
	}

	if err := rankedSheet(f, results); err != nil {
		return "", fmt.Errorf("ranked sheet: %w", err)
	}
	if err := summarySheet(f, results, job); err != nil {
		return "", fmt.Errorf("summary sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// SaveExcelInDir is SaveExcel with the run-based file name used for CSV.
func SaveExcelInDir(dir string, results *candidates.Results, job string) (string, error) {
	runID := ""
	if results != nil {
		runID = results.RunID
	}
	return SaveExcel(filepath.Join(dir, fileName(runID, "xlsx")), results, job)
}

func rankedSheet(f *excelize.File, results *candidates.Results) error {
	header, rows := Flatten(results)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	bandStyles := make([]int, len(bandFills))
	for i, band := range bandFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{band.color}, Pattern: 1},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		if err != nil {
			return err
		}
		bandStyles[i] = style
	}

	if err := f.SetSheetRow(RankedSheet, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(RankedSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		line := i + 2
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		// rank and score stay numeric so the sheet sorts correctly
		cells[0] = i + 1
		score, _ := strconv.Atoi(row[3])
		cells[3] = score

		start := fmt.Sprintf("A%d", line)
		if err := f.SetSheetRow(RankedSheet, start, &cells); err != nil {
			return err
		}
		if err := f.SetCellStyle(RankedSheet, start, fmt.Sprintf("%s%d", lastCol, line), bandStyles[band(score)]); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(RankedSheet, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetColWidth(RankedSheet, "F", "F", 60); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := f.AutoFilter(RankedSheet, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), nil); err != nil {
			return err
		}
	}
	return f.SetPanes(RankedSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func band(score int) int {
	for i, b := range bandFills {
		if score >= b.min {
			return i
		}
	}
	return len(bandFills) - 1
}

func summarySheet(f *excelize.File, results *candidates.Results, job string) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	total, average := 0, 0.0
	counts := map[candidates.AnalysisType]int{}
	runID := ""
	if results != nil {
		total = results.Len()
		average = results.AverageScore()
		counts = results.CountByType()
		runID = results.RunID
	}

	lines := [][]any{
		{"Screening Report"},
		{"Run ID", runID},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"Job description", utils.TruncateForLog(job, maxJobPreview)},
		{"Documents", total},
		{"Average score", fmt.Sprintf("%.1f", average)},
		{},
		{"Analysis type", "Documents"},
	}
	for _, t := range candidates.AnalysisTypes {
		lines = append(lines, []any{t.Caption(), counts[t]})
	}

	for i, line := range lines {
		cell := fmt.Sprintf("A%d", i+1)
		if len(line) == 0 {
			continue
		}
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "B", "B", 70)
}
