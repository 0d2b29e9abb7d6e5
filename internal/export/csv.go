package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

type CSVWriter struct{}

func (cw *CSVWriter) Write(w io.Writer, specs []core.HeaderSpec, drivers []store.Driver) error {
	writer := csv.NewWriter(w)

	for _, row := range rosterRows(specs, drivers) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func (cw *CSVWriter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (cw *CSVWriter) Extension() string {
	return "csv"
}
