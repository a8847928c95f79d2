package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/opmgt/beergame-coach/internal/entity"
)

const (
	csvContentType   = "text/csv; charset=utf-8"
	csvFileExtension = ".csv"
)

// CSVFormatter renders the transcript as the persisted tabular form: one
// role/content row per log entry, metadata rows last.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (cf *CSVFormatter) Format(transcript *entity.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"role", "content"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, row := range transcript.Rows {
		if err := w.Write([]string{row.Role, row.Content}); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func (cf *CSVFormatter) ContentType() string {
	return csvContentType
}

func (cf *CSVFormatter) FileExtension() string {
	return csvFileExtension
}
