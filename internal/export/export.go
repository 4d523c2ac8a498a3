// Package export writes configuration documents and simulation result
// history to JSON or CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kmorwood/drawsim-companion/internal/storage"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatJSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", name)
	}
}

// WriteConfigDocument writes an interchange document, indented for human
// consumption.
func WriteConfigDocument(w io.Writer, doc json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, doc, "", "  "); err != nil {
		return fmt.Errorf("indent document: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// WriteResults writes simulation result records in the requested format.
func WriteResults(w io.Writer, format Format, records []*storage.ResultRecord) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case FormatCSV:
		return writeResultsCSV(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

var resultCSVHeader = []string{
	"id",
	"created_at",
	"configuration_name",
	"deck_size",
	"hand_size",
	"simulations",
	"success_rate",
	"brick_rate",
	"success_count",
	"brick_count",
	"time_taken",
	"max_depth_reached_count",
}

func writeResultsCSV(w io.Writer, records []*storage.ResultRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(resultCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, record := range records {
		row := []string{
			strconv.Itoa(record.ID),
			record.CreatedAt.Format(time.RFC3339),
			record.ConfigurationName,
			strconv.Itoa(record.DeckSize),
			strconv.Itoa(record.HandSize),
			strconv.Itoa(record.Simulations),
			strconv.FormatFloat(record.SuccessRate, 'f', 4, 64),
			strconv.FormatFloat(record.BrickRate, 'f', 4, 64),
			strconv.Itoa(record.SuccessCount),
			strconv.Itoa(record.BrickCount),
			strconv.FormatFloat(record.TimeTaken, 'f', 4, 64),
			strconv.Itoa(record.MaxDepthReachedCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateFilename generates a default filename based on the export type and format.
func GenerateFilename(exportType string, format Format) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", exportType, timestamp, format)
}
