// Package precip reads and writes the GSSHA precipitation file (.gag): one
// or more EVENT blocks, each declaring its gage coordinates and a series of
// timestamped value lines carrying one value per gage.
package precip

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

var (
	fileKeywords  = []string{"EVENT"}
	eventKeywords = []string{"EVENT", "NRPDS", "NRGAG", "COORD", "GAGES", "ACCUM", "RATES", "RADAR"}
	valueCards    = map[string]bool{"GAGES": true, "ACCUM": true, "RATES": true, "RADAR": true}
)

// File is a parsed precipitation file.
type File struct {
	Events []*Event
}

// Event is one EVENT block. NumGages and NumPeriods mirror the NRGAG and
// NRPDS cards; Lines holds the time series in file order.
type Event struct {
	Description string
	NumGages    int
	NumPeriods  int
	Gages       []Gage
	Lines       []ValueLine
}

// Gage is one COORD declaration.
type Gage struct {
	X           float64
	Y           float64
	Description string
}

// ValueLine is one timestamped value row. Type is the introducing card
// (GAGES, ACCUM, RATES or RADAR) and Values align positionally with the
// event's gages.
type ValueLine struct {
	Type   string
	Time   time.Time
	Values []float64
}

// Parse reads a precipitation file.
func Parse(r io.Reader, params *gssha.ReplaceParams) (*File, error) {
	chunks, err := token.Read(fileKeywords, r)
	if err != nil {
		return nil, err
	}

	file := &File{}
	for _, c := range chunks["EVENT"] {
		event, err := parseEvent(c, params)
		if err != nil {
			return nil, err
		}
		file.Events = append(file.Events, event)
	}
	return file, nil
}

func parseEvent(lines token.Chunk, params *gssha.ReplaceParams) (*Event, error) {
	chunks, err := token.Split(eventKeywords, lines)
	if err != nil {
		return nil, err
	}

	event := &Event{}
	for key, list := range chunks {
		for _, c := range list {
			switch {
			case key == "EVENT":
				fields := token.Fields(c[0])
				if len(fields) < 2 {
					return nil, gssha.Malformedf("EVENT card missing description: %q", c[0])
				}
				event.Description = fields[1]
			case key == "NRGAG":
				if event.NumGages, err = cardInt(c[0]); err != nil {
					return nil, err
				}
			case key == "NRPDS":
				if event.NumPeriods, err = cardInt(c[0]); err != nil {
					return nil, err
				}
			case key == "COORD":
				gage, err := parseCoord(c[0])
				if err != nil {
					return nil, err
				}
				event.Gages = append(event.Gages, gage)
			case valueCards[key]:
				line, err := parseValueLine(c[0], params)
				if err != nil {
					return nil, err
				}
				event.Lines = append(event.Lines, line)
			}
		}
	}
	return event, nil
}

func parseCoord(line string) (Gage, error) {
	fields := token.Fields(line)
	if len(fields) < 3 {
		return Gage{}, gssha.Malformedf("COORD card needs x and y: %q", line)
	}
	x, errX := strconv.ParseFloat(fields[1], 64)
	y, errY := strconv.ParseFloat(fields[2], 64)
	if errX != nil || errY != nil {
		return Gage{}, gssha.Malformedf("COORD ordinates %q", line)
	}
	gage := Gage{X: x, Y: y}
	if len(fields) > 3 {
		gage.Description = fields[3]
	}
	return gage, nil
}

func parseValueLine(line string, params *gssha.ReplaceParams) (ValueLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return ValueLine{}, gssha.Malformedf("value line needs a timestamp: %q", line)
	}
	parts := make([]int, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return ValueLine{}, gssha.Malformedf("timestamp field %q in %q", fields[i+1], line)
		}
		parts[i] = v
	}
	vl := ValueLine{
		Type: fields[0],
		Time: time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC),
	}
	for _, f := range fields[6:] {
		v, err := gssha.ParseFloat(f, params)
		if err != nil {
			return vl, gssha.Malformedf("precipitation value %q", f)
		}
		vl.Values = append(vl.Values, v)
	}
	return vl, nil
}

func cardInt(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, gssha.Malformedf("%s card missing value", fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, gssha.Malformedf("%s card value %q", fields[0], fields[1])
	}
	return v, nil
}

// Write serializes a precipitation file.
func Write(w io.Writer, file *File, params *gssha.ReplaceParams) error {
	var b strings.Builder
	for _, event := range file.Events {
		fmt.Fprintf(&b, "EVENT \"%s\"\nNRGAG %d\nNRPDS %d\n", event.Description, event.NumGages, event.NumPeriods)
		if event.NumGages <= 0 {
			continue
		}
		for _, gage := range event.Gages {
			fmt.Fprintf(&b, "COORD %s %s \"%s\"\n", gssha.FormatCoord(gage.X), gssha.FormatCoord(gage.Y), gage.Description)
		}
		for _, line := range event.Lines {
			var vals strings.Builder
			for _, v := range line.Values {
				if s, ok := params.WriteValue(v); ok {
					vals.WriteString(" " + s)
					continue
				}
				fmt.Fprintf(&vals, " %.3f", v)
			}
			fmt.Fprintf(&b, "%s %04d %02d %02d %02d %02d%s\n",
				line.Type,
				line.Time.Year(), int(line.Time.Month()), line.Time.Day(),
				line.Time.Hour(), line.Time.Minute(),
				vals.String())
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
