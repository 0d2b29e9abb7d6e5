package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

type ExcelWriter struct{}

func (ew *ExcelWriter) Write(w io.Writer, specs []core.HeaderSpec, drivers []store.Driver) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	for rowIdx, row := range rosterRows(specs, drivers) {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("excel cell name: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write excel output: %w", err)
	}
	return nil
}

func (ew *ExcelWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (ew *ExcelWriter) Extension() string {
	return "xlsx"
}
