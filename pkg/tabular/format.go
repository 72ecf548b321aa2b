package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/periodo/reconciler/pkg/errors"
)

// Format is a table file format.
type Format string

// Supported formats. JSON and YAML are write-only.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv", "":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", &errors.ValidationError{Field: "format", Value: s, Message: fmt.Sprintf("unsupported table format %q", s)}
	}
}

// FormatFromPath picks a format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatCSV
	}
	return f
}

// Readable reports whether tables can be read in this format.
func (f Format) Readable() bool {
	return f == FormatCSV || f == FormatTSV || f == FormatXLSX
}
