package export

import (
	"bytes"
	"fmt"

	"github.com/stemsi/papercraft/internal/document"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/xuri/excelize/v2"
)

const marksSheet = "Marks"

var marksHeaders = []string{"Section", "Question", "Type", "Text", "Marks"}

// MarksSheet builds a workbook listing every question's marks with a
// subtotal row per section and a grand total row.
func MarksSheet(p model.Paper) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", marksSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	write := func(values ...interface{}) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(marksSheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}
	boldRow := func() error {
		from, _ := excelize.CoordinatesToCellName(1, row-1)
		to, _ := excelize.CoordinatesToCellName(len(marksHeaders), row-1)
		return f.SetCellStyle(marksSheet, from, to, bold)
	}

	header := make([]interface{}, len(marksHeaders))
	for i, h := range marksHeaders {
		header[i] = h
	}
	if err := write(header...); err != nil {
		return nil, err
	}
	if err := boldRow(); err != nil {
		return nil, err
	}

	for _, s := range p.Sections {
		for i, q := range s.Questions {
			if err := write(s.Title, fmt.Sprintf("Q.%d", i+1), string(q.Type), q.Text, q.Marks); err != nil {
				return nil, err
			}
		}
		if err := write(s.Title, "", "", "Section total", document.SectionMarks(s)); err != nil {
			return nil, err
		}
		if err := boldRow(); err != nil {
			return nil, err
		}
	}

	if err := write("", "", "", "Total marks", document.TotalMarks(p)); err != nil {
		return nil, err
	}
	if err := boldRow(); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(marksSheet, "D", "D", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
