// Package dataset reads and writes WMS gridded dataset files: a DATASET
// header (scalar or vector), followed by TS time step blocks of cell
// values, closed by an ENDDS tag. Lines use CRLF terminators. The grid
// shape is not self-describing; the caller supplies the column count from
// external grid metadata to reshape the flat cell list into rows.
package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

// Dataset type tags.
const (
	ScalarType = "BEGSCL"
	VectorType = "BEGVEC"
)

const endTag = "ENDDS"

var (
	fileKeywords   = []string{"DATASET", "TS"}
	headerKeywords = []string{"DATASET", "OBJTYPE", "VECTYPE", "BEGSCL", "BEGVEC", "OBJID", "ND", "NC", "NAME"}
)

// File is a parsed WMS dataset.
type File struct {
	Type        string
	ObjectType  string
	VectorType  string
	ObjectID    int
	NumberData  int
	NumberCells int
	Name        string

	TimeSteps []*TimeStep
}

// TimeStep is one TS block. StatusCells carries the per-cell activity mask
// when Status is 1. Values holds the cell grid reshaped to the external
// column count, row-major.
type TimeStep struct {
	Status      int
	Timestamp   float64
	StatusCells []int
	Values      [][]float64
}

// Parse reads a WMS dataset, reshaping each time step's cells into rows of
// columns values.
func Parse(r io.Reader, columns int) (*File, error) {
	if columns <= 0 {
		return nil, gssha.Malformedf("grid column count must be positive, got %d", columns)
	}
	chunks, err := token.Read(fileKeywords, r)
	if err != nil {
		return nil, err
	}
	if len(chunks["DATASET"]) == 0 {
		return nil, gssha.Malformedf("missing DATASET header")
	}

	file, err := parseHeader(chunks["DATASET"][0])
	if err != nil {
		return nil, err
	}
	for _, c := range chunks["TS"] {
		ts, err := parseTimeStep(c, file.NumberCells, columns)
		if err != nil {
			return nil, err
		}
		file.TimeSteps = append(file.TimeSteps, ts)
	}
	return file, nil
}

func parseHeader(lines token.Chunk) (*File, error) {
	chunks, err := token.Split(headerKeywords, lines)
	if err != nil {
		return nil, err
	}

	file := &File{}
	for key, list := range chunks {
		for _, c := range list {
			fields := strings.Fields(c[0])
			switch key {
			case "BEGSCL", "BEGVEC":
				file.Type = key
			case "OBJTYPE":
				file.ObjectType = headerValue(fields)
			case "VECTYPE":
				file.VectorType = headerValue(fields)
			case "NAME":
				file.Name = headerValue(fields)
			case "OBJID":
				if file.ObjectID, err = headerInt(fields, c[0]); err != nil {
					return nil, err
				}
			case "ND":
				if file.NumberData, err = headerInt(fields, c[0]); err != nil {
					return nil, err
				}
			case "NC":
				if file.NumberCells, err = headerInt(fields, c[0]); err != nil {
					return nil, err
				}
			}
		}
	}
	if file.Type == "" {
		return nil, gssha.Malformedf("dataset header missing %s or %s tag", ScalarType, VectorType)
	}
	return file, nil
}

func headerValue(fields []string) string {
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func headerInt(fields []string, line string) (int, error) {
	if len(fields) < 2 {
		return 0, gssha.Malformedf("%s card missing value", fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, gssha.Malformedf("%s card value %q in %q", fields[0], fields[1], line)
	}
	return v, nil
}

func parseTimeStep(lines token.Chunk, numberCells, columns int) (*TimeStep, error) {
	fields := strings.Fields(lines[0])
	if len(fields) < 3 {
		return nil, gssha.Malformedf("TS card needs status and timestamp: %q", lines[0])
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, gssha.Malformedf("TS status %q", fields[1])
	}
	timestamp, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, gssha.Malformedf("TS timestamp %q", fields[2])
	}
	ts := &TimeStep{Status: status, Timestamp: timestamp}

	body := lines[1:]
	if len(body) > 0 && token.Discriminant(body[len(body)-1]) == endTag {
		body = body[:len(body)-1]
	}

	if status == 1 {
		if len(body) < numberCells {
			return nil, gssha.Malformedf("time step %g: %d status cells, want %d", timestamp, len(body), numberCells)
		}
		ts.StatusCells = make([]int, 0, numberCells)
		for _, line := range body[:numberCells] {
			v, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, gssha.Malformedf("status cell %q", strings.TrimSpace(line))
			}
			ts.StatusCells = append(ts.StatusCells, v)
		}
		body = body[numberCells:]
	}

	values := make([]float64, 0, len(body))
	for _, line := range body {
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			return nil, gssha.Malformedf("cell value %q", strings.TrimSpace(line))
		}
		values = append(values, v)
	}
	if len(values)%columns != 0 {
		return nil, gssha.Malformedf("time step %g: %d cells do not fill rows of %d columns", timestamp, len(values), columns)
	}
	for i := 0; i < len(values); i += columns {
		ts.Values = append(ts.Values, values[i:i+columns])
	}
	return ts, nil
}

// Write serializes a WMS dataset with CRLF line terminators.
func Write(w io.Writer, file *File) error {
	var b strings.Builder

	b.WriteString("DATASET\r\n")
	switch file.Type {
	case ScalarType:
		fmt.Fprintf(&b, "OBJTYPE %s\r\n", file.ObjectType)
		b.WriteString("BEGSCL\r\n")
	case VectorType:
		fmt.Fprintf(&b, "VECTYPE %s\r\n", file.VectorType)
		b.WriteString("BEGVEC\r\n")
	default:
		return gssha.Malformedf("dataset type %q is not %s or %s", file.Type, ScalarType, VectorType)
	}
	fmt.Fprintf(&b, "OBJID %d\r\n", file.ObjectID)
	fmt.Fprintf(&b, "ND %d\r\n", file.NumberData)
	fmt.Fprintf(&b, "NC %d\r\n", file.NumberCells)
	fmt.Fprintf(&b, "NAME %s\r\n", file.Name)

	for _, ts := range file.TimeSteps {
		fmt.Fprintf(&b, "TS %d %s\r\n", ts.Status, gssha.FormatCoord(ts.Timestamp))
		if ts.Status == 1 {
			for _, v := range ts.StatusCells {
				fmt.Fprintf(&b, "%d\r\n", v)
			}
		}
		for _, row := range ts.Values {
			for _, v := range row {
				fmt.Fprintf(&b, "%.6f\r\n", v)
			}
		}
	}
	b.WriteString(endTag + "\r\n")

	_, err := io.WriteString(w, b.String())
	return err
}
