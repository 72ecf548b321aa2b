package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/periodo/reconciler/pkg/errors"
)

// Read reads a table whose first record is the header.
func Read(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return readDelimited(r, ',')
	case FormatTSV:
		return readDelimited(r, '\t')
	case FormatXLSX:
		return readXLSX(r)
	default:
		return nil, &errors.ValidationError{Field: "format", Value: string(format), Message: "format cannot be read"}
	}
}

// ReadFile reads a table, choosing the format from the file extension.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(f, FormatFromPath(path))
	if err != nil {
		var perr *errors.ParseError
		if errors.As(err, &perr) && perr.File == "" {
			perr.File = path
		}
		return nil, err
	}
	return t, nil
}

func readDelimited(r io.Reader, comma rune) (*Table, error) {
	format := "csv"
	if comma == '\t' {
		format = "tsv"
	}

	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return NewTable(), nil
	}
	if err != nil {
		return nil, errors.WrapParse(format, "", err)
	}
	header = cleanHeader(header)

	t := NewTable(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse(format, "", err)
		}
		t.Append(NewRow(header, record))
	}
	return t, nil
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WrapParse("xlsx", "", fmt.Errorf("open workbook: %w", err))
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return NewTable(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapParse("xlsx", "", fmt.Errorf("get rows for sheet %q: %w", sheets[0], err))
	}
	if len(rows) == 0 {
		return NewTable(), nil
	}

	header := cleanHeader(rows[0])
	t := NewTable(header...)
	for _, record := range rows[1:] {
		// excelize trims trailing empty cells; pad so present columns stay present
		if len(record) < len(header) {
			record = append(record, make([]string, len(header)-len(record))...)
		}
		t.Append(NewRow(header, record))
	}
	return t, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
