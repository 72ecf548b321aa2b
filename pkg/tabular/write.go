package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
)

// SheetName is the worksheet written to XLSX output.
const SheetName = "Sheet1"

// Write writes the table in the given format.
func Write(w io.Writer, format Format, t *Table) error {
	switch format {
	case FormatCSV:
		return writeDelimited(w, ',', t)
	case FormatTSV:
		return writeDelimited(w, '\t', t)
	case FormatXLSX:
		return writeXLSX(w, t)
	case FormatJSON:
		return writeJSON(w, t)
	case FormatYAML:
		return writeYAML(w, t)
	default:
		return &errors.ValidationError{Field: "format", Value: string(format), Message: "format cannot be written"}
	}
}

// WriteFile writes the table to path, choosing the format from the file
// extension. Parent directories are created as needed.
func WriteFile(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := Write(bw, FormatFromPath(path), t); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

func writeDelimited(w io.Writer, comma rune, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Header); err != nil {
		return errors.WrapIO("write", "", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row.Record(t.Header)); err != nil {
			return errors.WrapIO("write", "", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("write", "", cw.Error())
}

func writeXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.WrapIO("write", "", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.WrapIO("write", "", err)
		}
		values := make([]any, len(t.Header))
		for j, field := range t.Header {
			values[j] = t.cellValue(field, row.Value(field))
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return errors.WrapIO("write", "", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.WrapIO("write", "", err)
	}
	return nil
}

// object is a JSON object that keeps its key order.
type object []field

type field struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(w io.Writer, t *Table) error {
	records := make([]object, len(t.Rows))
	for i, row := range t.Rows {
		obj := make(object, len(t.Header))
		for j, h := range t.Header {
			obj[j] = field{key: h, value: t.cellValue(h, row.Value(h))}
		}
		records[i] = obj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WrapIO("write", "", enc.Encode(records))
}

func writeYAML(w io.Writer, t *Table) error {
	records := make([]yaml.MapSlice, len(t.Rows))
	for i, row := range t.Rows {
		item := make(yaml.MapSlice, len(t.Header))
		for j, h := range t.Header {
			item[j] = yaml.MapItem{Key: h, Value: t.cellValue(h, row.Value(h))}
		}
		records[i] = item
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	_, err = w.Write(data)
	return errors.WrapIO("write", "", err)
}

// cellValue returns the typed value of a cell: numeric columns holding
// an integer are written as numbers, everything else as text.
func (t *Table) cellValue(field, value string) any {
	if slices.Contains(t.Numeric, field) {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}
