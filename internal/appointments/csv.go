// internal/appointments/csv.go
package appointments

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"hms-analytics/internal/models"
)

// CSVSource reads a PatientAppointmentEntry export on every Fetch.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Fetch(ctx context.Context) ([]models.Appointment, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open appointments csv: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, err
	}
	return Clean(rows), nil
}

// ReadCSV parses a CSV stream with a header row into raw records. Rows may be shorter
// than the header; absent cells count as missing.
func ReadCSV(ctx context.Context, r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("appointments csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []RawRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(RawRecord, len(header))
		for i, h := range header {
			if i < len(rec) && h != "" {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes rows with a header of every recognised column, in Columns order.
func WriteCSV(w io.Writer, rows []RawRecord) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = c.Header
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	rec := make([]string, len(Columns))
	for _, row := range rows {
		for i, c := range Columns {
			rec[i] = row[c.Header]
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
