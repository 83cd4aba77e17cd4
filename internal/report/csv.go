package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/template"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/shanehull/asxreport/internal/types"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// csvRow mirrors types.Columns.
type csvRow struct {
	Symbol          string `csv:"Symbol"`
	Open            string `csv:"Open"`
	Close           string `csv:"Close"`
	OCChangePct     string `csv:"O-C change (%)"`
	High            string `csv:"High"`
	Low             string `csv:"Low"`
	HLChangePct     string `csv:"H-L change (%)"`
	DateTime        string `csv:"DateTime"`
	MarketSensitive string `csv:"Market Sensitive"`
	Headline        string `csv:"Headline"`
	Link            string `csv:"Link"`
}

func formatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func toCSVRows(t types.ReportTable) []*csvRow {
	rows := make([]*csvRow, 0, len(t))
	for _, a := range t {
		rows = append(rows, &csvRow{
			Symbol:          a.Symbol,
			Open:            formatPrice(a.Open),
			Close:           formatPrice(a.Close),
			OCChangePct:     formatPrice(a.OCChangePct),
			High:            formatPrice(a.High),
			Low:             formatPrice(a.Low),
			HLChangePct:     formatPrice(a.HLChangePct),
			DateTime:        a.DateTime.Format(csvTimeLayout),
			MarketSensitive: formatBool(a.MarketSensitive),
			Headline:        a.Headline,
			Link:            a.Link,
		})
	}
	return rows
}

// WriteCSV writes t with a header row in report column order. Missing prices
// are written as empty cells.
func WriteCSV(w io.Writer, t types.ReportTable) error {
	if err := gocsv.Marshal(toCSVRows(t), w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// OutputPath renders tmpl with the report date (YYYY-MM-DD as .Date) and
// joins it to dir.
func OutputPath(dir, tmpl string, date time.Time) (string, error) {
	t, err := template.New("output").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid output path template: %w", err)
	}
	var buf bytes.Buffer
	data := struct{ Date string }{Date: date.Format("2006-01-02")}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render output path: %w", err)
	}
	return filepath.Join(dir, buf.String()), nil
}

// Save writes the report to path, creating parent directories.
func Save(path string, t types.ReportTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
