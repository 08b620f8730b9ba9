package balance

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		cell, errCoord := excelize.CoordinatesToCellName(1, i+1)
		if errCoord != nil {
			t.Fatalf("cell name: %v", errCoord)
		}
		if errSet := f.SetSheetRow(sheet, cell, &row); errSet != nil {
			t.Fatalf("set row: %v", errSet)
		}
	}
	buf, errWrite := f.WriteToBuffer()
	if errWrite != nil {
		t.Fatalf("write workbook: %v", errWrite)
	}
	return buf.Bytes()
}

func TestDecodeWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"科目", "借方", "贷方"},
		{"现金", "100", "0"},
		{"现金", "50", "30"},
	})

	sheet, err := DecodeWorkbook(data)
	if err != nil {
		t.Fatalf("decode workbook: %v", err)
	}
	if len(sheet.Headers) != 3 || sheet.Headers[0] != "科目" {
		t.Fatalf("unexpected headers: %v", sheet.Headers)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(sheet.Rows))
	}
	if sheet.Rows[1]["借方"] != "50" || sheet.Rows[1]["贷方"] != "30" {
		t.Fatalf("unexpected row: %v", sheet.Rows[1])
	}
}

func TestDecodeWorkbook_ShortRowsPadded(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"科目", "借方", "贷方"},
		{"现金", "100"},
	})

	sheet, err := DecodeWorkbook(data)
	if err != nil {
		t.Fatalf("decode workbook: %v", err)
	}
	if sheet.Rows[0]["贷方"] != "" {
		t.Fatalf("short rows must pad missing cells with empty strings")
	}
}

func TestDecodeWorkbook_RejectsGarbage(t *testing.T) {
	if _, err := DecodeWorkbook([]byte("not a workbook")); err == nil {
		t.Fatalf("expected decode failure for non-xlsx bytes")
	}
}
