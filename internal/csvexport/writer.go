package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"parsearena/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (17 columns).
var columns = []string{
	"Battle ID",
	"Document Name",
	"Document Ref",
	"Page Number",
	"Status",
	"Created At",
	"Provider A",
	"Provider B",
	"Result A Status",
	"Result B Status",
	"Cost A (USD)",
	"Cost B (USD)",
	"Duration A (ms)",
	"Duration B (ms)",
	"Preferred Labels",
	"Winner",
	"Revealed At",
}

// BattleRecord is one exportable battle: its run, the two blind result rows
// ordered A then B, and feedback when the battle has been revealed.
type BattleRecord struct {
	Run      domain.BattleRun
	Results  []domain.BattleResult
	Feedback *domain.BattleFeedback
	Winner   string
}

// Writer wraps csv.Writer for exporting battle history as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteBattles converts a batch of battle records to CSV rows and writes them.
func (w *Writer) WriteBattles(records []BattleRecord) error {
	for i := range records {
		if err := w.csv.Write(battleToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// battleToRow converts a single battle to a row. Provider names are only
// filled for revealed battles; an unrevealed battle stays blind even in an
// export.
func battleToRow(rec *BattleRecord) []string {
	row := make([]string, len(columns))

	row[0] = rec.Run.ID.String()
	row[1] = rec.Run.OriginalName
	row[2] = rec.Run.DocumentRef
	row[3] = strconv.Itoa(rec.Run.PageNumber)
	row[4] = string(rec.Run.Status)
	row[5] = rec.Run.CreatedAt.Format(time.RFC3339)

	for i := range rec.Results {
		res := &rec.Results[i]
		var col int
		switch res.Label {
		case domain.LabelA:
			col = 0
		case domain.LabelB:
			col = 1
		default:
			continue
		}
		if rec.Feedback != nil {
			row[6+col] = string(res.Provider)
		}
		row[8+col] = string(res.Status)
		if res.CostUSD != nil {
			row[10+col] = formatMoney(*res.CostUSD)
		}
		row[12+col] = strconv.FormatInt(res.DurationMS, 10)
	}

	if rec.Feedback != nil {
		labels := make([]string, len(rec.Feedback.PreferredLabels))
		for i, l := range rec.Feedback.PreferredLabels {
			labels[i] = string(l)
		}
		row[14] = strings.Join(labels, "|")
		row[15] = rec.Winner
		row[16] = rec.Feedback.RevealedAt.Format(time.RFC3339)
	}

	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
