package catalog

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"packhouse/internal/util"
)

// LoadXLSX reads the master table from a local workbook: first sheet, first
// row as headers. Fully blank rows are dropped here so projection sees only
// data.
func LoadXLSX(path string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open master xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("master xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read master sheet: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("master sheet %q is empty", sheets[0])
	}

	table := Table{Headers: rows[0]}
	for _, r := range rows[1:] {
		blank := true
		for _, cell := range r {
			if !util.IsEmptyCell(cell) {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, r)
	}
	return table, nil
}
