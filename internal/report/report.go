// Package report writes the outcome of a rendering pass as a table.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/poku-e/partyloader/internal/binding"
	"github.com/poku-e/partyloader/internal/record"
)

var header = []string{"kind", "path", "aux", "element", "resolved", "value", "action"}

func row(o binding.Outcome) []string {
	return []string{
		string(o.Kind), o.Path, o.Aux, o.Element,
		strconv.FormatBool(o.Resolved), o.Value, string(o.Action),
	}
}

// Write picks the format from the file extension: .csv or .xlsx.
func Write(path string, outcomes []binding.Outcome, leaves []record.Leaf) error {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		return WriteCSV(path, outcomes)
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		return WriteXLSX(path, outcomes, leaves)
	default:
		return errors.New("out must end with .csv or .xlsx")
	}
}

// ---------- CSV ----------

func WriteCSV(path string, outcomes []binding.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := w.Write(row(o)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ---------- XLSX ----------

const (
	bindingsSheet = "Bindings"
	recordSheet   = "Record"
)

// WriteXLSX writes the outcomes to a "Bindings" sheet and, when leaves is
// non-empty, every path of the character record to a "Record" sheet.
func WriteXLSX(path string, outcomes []binding.Outcome, leaves []record.Leaf) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bindingsSheet); err != nil {
		return err
	}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, row(o))
	}
	if err := streamRows(f, bindingsSheet, header, rows); err != nil {
		return err
	}

	if len(leaves) > 0 {
		if _, err := f.NewSheet(recordSheet); err != nil {
			return err
		}
		rows = rows[:0]
		for _, l := range leaves {
			rows = append(rows, []string{l.Path, l.Value.Kind().String(), l.Value.String()})
		}
		if err := streamRows(f, recordSheet, []string{"path", "type", "value"}, rows); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// StreamWriter keeps memory flat for large pages.
func streamRows(f *excelize.File, sheet string, head []string, rows [][]string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", cells(head)); err != nil {
		return err
	}
	for i, r := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err != nil {
			return err
		}
		if err := sw.SetRow(addr, cells(r)); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}
	return sw.Flush()
}

func cells(r []string) []interface{} {
	out := make([]interface{}, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}
