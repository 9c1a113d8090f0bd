package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spigell/cv-screener/internal/candidates"
)

// utf8BOM makes spreadsheet tools detect the encoding of accented names.
const utf8BOM = "\xEF\xBB\xBF"

// WriteCSV writes the flattened results to w.
func WriteCSV(w io.Writer, results *candidates.Results) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	header, rows := Flatten(results)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// SaveCSV writes results to dir/screening_<runID>.csv and returns the path.
func SaveCSV(dir, runID string, results *candidates.Results) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, fileName(runID, "csv"))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, results); err != nil {
		return "", err
	}
	return path, file.Close()
}

func fileName(runID, ext string) string {
	if runID == "" {
		runID = "run"
	}
	return fmt.Sprintf("screening_%s.%s", runID, ext)
}
