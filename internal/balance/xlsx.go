package balance

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a decoded worksheet: the original header order plus rows keyed by
// header text.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// DecodeWorkbook reads the first worksheet of an xlsx workbook. The first
// non-empty row is the header row; cells beyond the header width are
// dropped, short rows are padded with empty cells.
func DecodeWorkbook(data []byte) (*Sheet, error) {
	f, errOpen := excelize.OpenReader(bytes.NewReader(data))
	if errOpen != nil {
		return nil, fmt.Errorf("open workbook: %w", errOpen)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	name := sheets[0]

	raw, errRows := f.GetRows(name)
	if errRows != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, errRows)
	}

	out := &Sheet{Name: name}
	for _, cells := range raw {
		if out.Headers == nil {
			if rowEmpty(cells) {
				continue
			}
			out.Headers = headerNames(cells)
			continue
		}
		row := make(map[string]string, len(out.Headers))
		for i, header := range out.Headers {
			if i < len(cells) {
				row[header] = cells[i]
			} else {
				row[header] = ""
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if out.Headers == nil {
		return nil, fmt.Errorf("sheet %s is empty", name)
	}
	return out, nil
}

// rowEmpty reports whether every cell is blank.
func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// headerNames trims header cells and names blank ones by position so no
// column is silently lost.
func headerNames(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = fmt.Sprintf("column%d", i+1)
		}
		out[i] = name
	}
	return out
}
