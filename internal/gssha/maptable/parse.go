package maptable

import (
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

// FileHeader is the magic first line of a mapping table file.
const FileHeader = "GSSHA_INDEX_MAP_TABLES"

// SentinelNoData marks an absent value in layered soil tables. Values at or
// below it are never serialized.
const SentinelNoData = -9999

var genericTables = []string{
	"ROUGHNESS", "INTERCEPTION", "RETENTION",
	"GREEN_AMPT_INFILTRATION", "GREEN_AMPT_INITIAL_SOIL_MOISTURE",
	"RICHARDS_EQN_INFILTRATION_BROOKS", "RICHARDS_EQN_INFILTRATION_HAVERCAMP",
	"EVAPOTRANSPIRATION", "WELL_TABLE", "OVERLAND_BOUNDARY",
	"TIME_SERIES_INDEX", "GROUNDWATER", "GROUNDWATER_BOUNDARY",
	"AREA_REDUCTION", "WETLAND_PROPERTIES", "MULTI_LAYER_SOIL",
	"SOIL_EROSION_PROPS",
}

var layeredTables = map[string]bool{
	"MULTI_LAYER_SOIL":                 true,
	"RICHARDS_EQN_INFILTRATION_BROOKS": true,
}

// soilErosionVars is the allow-list of header variables retained for the
// SOIL_EROSION_PROPS table; the sediment columns that follow them are
// replaced by NUM_SED synthetic XSEDIMENT slots.
var soilErosionVars = map[string]bool{
	"SPLASH_COEF": true, "DETACH_COEF": true, "DETACH_EXP": true,
	"DETACH_CRIT": true, "SED_COEF": true,
}

var fileKeywords = append([]string{"INDEX_MAP", "CONTAMINANT_TRANSPORT", "SEDIMENTS"}, genericTables...)

var numCards = map[string]bool{
	"NUM_IDS": true, "MAX_NUMBER_CELLS": true, "NUM_SED": true,
	"NUM_CONTAM": true, "MAX_SOIL_ID": true,
}

// Parse reads a mapping table file. Tables bound to an empty or undeclared
// index map are skipped with a diagnostic rather than materialized.
func Parse(r io.Reader, params *gssha.ReplaceParams) (*File, gssha.Diagnostics, error) {
	lines, err := token.Lines(r)
	if err != nil {
		return nil, nil, err
	}
	body, err := stripHeader(lines)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := token.Split(fileKeywords, body)
	if err != nil {
		return nil, nil, err
	}

	var diags gssha.Diagnostics
	file := &File{}

	for _, c := range chunks["INDEX_MAP"] {
		im, err := parseIndexMap(c)
		if err != nil {
			return nil, diags, err
		}
		file.IndexMaps = append(file.IndexMaps, im)
	}

	declared := make(map[string]bool, len(file.IndexMaps))
	for _, im := range file.IndexMaps {
		declared[im.Name] = true
	}

	for _, name := range genericTables {
		for _, c := range chunks[name] {
			table, err := parseGenericTable(name, c, params, &diags)
			if err != nil {
				return nil, diags, err
			}
			if table == nil {
				continue
			}
			if !declared[table.IndexMapName] {
				diags.Warnf("table %s references undeclared index map %q; skipping", table.Name, table.IndexMapName)
				continue
			}
			file.Tables = append(file.Tables, table)
		}
	}
	for _, c := range chunks["SEDIMENTS"] {
		table, err := parseSedimentTable(c, params, &diags)
		if err != nil {
			return nil, diags, err
		}
		if table != nil {
			file.Tables = append(file.Tables, table)
		}
	}
	for _, c := range chunks["CONTAMINANT_TRANSPORT"] {
		table, err := parseContaminantTable(c, params, &diags)
		if err != nil {
			return nil, diags, err
		}
		if table != nil {
			file.Tables = append(file.Tables, table)
		}
	}

	return file, diags, nil
}

func stripHeader(lines []string) ([]string, error) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if token.Discriminant(line) != FileHeader {
			return nil, gssha.Malformedf("expected %s header, found %q", FileHeader, strings.TrimSpace(line))
		}
		return lines[i+1:], nil
	}
	return nil, gssha.Malformedf("empty mapping table file")
}

func parseIndexMap(chunk token.Chunk) (IndexMap, error) {
	fields := token.Fields(chunk[0])
	if len(fields) < 3 {
		return IndexMap{}, gssha.Malformedf("INDEX_MAP needs filename and name: %q", chunk[0])
	}
	return IndexMap{Filename: fields[1], Name: fields[2]}, nil
}

func parseGenericTable(name string, chunk token.Chunk, params *gssha.ReplaceParams, diags *gssha.Diagnostics) (*Table, error) {
	header := token.Fields(chunk[0])
	if len(header) < 2 {
		return nil, gssha.Malformedf("table %s header missing index map name: %q", name, chunk[0])
	}
	if header[1] == "" {
		diags.Infof("no index map assigned to %s table; skipping", name)
		return nil, nil
	}

	table := &Table{Name: name, IndexMapName: header[1]}
	layered := layeredTables[name]

	var (
		current   IndexRow
		numLayers int
	)
	for _, line := range chunk[1:] {
		disc := token.Discriminant(line)
		switch {
		case numCards[disc]:
			if err := setNumCard(table, line); err != nil {
				return nil, err
			}
		case disc == "ID":
			table.Variables = buildVarList(line, name, table.NumSed)
		default:
			if layered && numLayers > 0 {
				layer, err := parseLayerLine(line, len(table.Variables), params)
				if err != nil {
					return nil, err
				}
				current.Layers = append(current.Layers, layer)
			} else {
				row, err := parseValueLine(line, params)
				if err != nil {
					return nil, err
				}
				current = row
			}
			numLayers++
			if !layered || numLayers >= 3 {
				table.Rows = append(table.Rows, current)
				current = IndexRow{}
				numLayers = 0
			}
		}
	}
	if layered && numLayers != 0 {
		return nil, gssha.Malformedf("table %s: %d trailing value lines do not form a complete 3-layer row", name, numLayers)
	}
	return table, nil
}

func setNumCard(table *Table, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return gssha.Malformedf("%s card missing value", fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return gssha.Malformedf("%s card value %q", fields[0], fields[1])
	}
	switch fields[0] {
	case "NUM_IDS":
		table.NumIDs = &v
	case "MAX_NUMBER_CELLS":
		table.MaxNumCells = &v
	case "NUM_SED":
		table.NumSed = &v
	case "NUM_CONTAM":
		table.NumContam = &v
	case "MAX_SOIL_ID":
		table.MaxSoilID = &v
	}
	return nil
}

// buildVarList extracts variable names from the ID header line. The
// SOIL_EROSION_PROPS table keeps only its known property columns and
// appends one synthetic XSEDIMENT slot per declared sediment.
func buildVarList(line, tableName string, numSed *int) []string {
	fields := strings.Fields(line)
	var vars []string
	if tableName == "SOIL_EROSION_PROPS" && numSed != nil {
		for _, f := range fields {
			if soilErosionVars[f] {
				vars = append(vars, f)
			}
		}
		for i := 0; i < *numSed; i++ {
			vars = append(vars, "XSEDIMENT")
		}
		return vars
	}
	for _, f := range fields {
		if f == "ID" || f == "DESCRIPTION1" || f == "DESCRIPTION2" {
			continue
		}
		vars = append(vars, f)
	}
	return vars
}

// parseValueLine slices the index and description prefix by fixed columns
// and splits the remainder into values.
func parseValueLine(line string, params *gssha.ReplaceParams) (IndexRow, error) {
	row := IndexRow{
		Index:        strings.TrimSpace(sliceColumns(line, 0, 6)),
		Description1: strings.TrimSpace(sliceColumns(line, 6, 46)),
		Description2: strings.TrimSpace(sliceColumns(line, 46, 86)),
	}
	values, err := parseValues(strings.Fields(sliceColumns(line, 86, len(line))), params)
	if err != nil {
		return row, gssha.Malformedf("row %s: %v", row.Index, err)
	}
	row.Layers = [][]float64{values}
	return row, nil
}

// parseLayerLine reads a continuation layer of a 3-layer row. Short lines
// are right-padded with the no-data sentinel; the bottom groundwater layer
// legitimately omits its depth.
func parseLayerLine(line string, width int, params *gssha.ReplaceParams) ([]float64, error) {
	values, err := parseValues(strings.Fields(line), params)
	if err != nil {
		return nil, err
	}
	for len(values) < width {
		values = append(values, SentinelNoData)
	}
	return values, nil
}

func parseValues(fields []string, params *gssha.ReplaceParams) ([]float64, error) {
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := gssha.ParseFloat(f, params)
		if err != nil {
			return nil, gssha.Malformedf("value %q", f)
		}
		values = append(values, v)
	}
	return values, nil
}

func sliceColumns(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

func parseSedimentTable(chunk token.Chunk, params *gssha.ReplaceParams, diags *gssha.Diagnostics) (*Table, error) {
	table := &Table{Name: "SEDIMENTS"}
	for _, line := range chunk[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "NUM_SED":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, gssha.Malformedf("NUM_SED value %q", fields[1])
			}
			if n == 0 {
				diags.Infof("no sediments in SEDIMENTS table (NUM_SED = 0); skipping")
				return nil, nil
			}
			table.NumSed = &n
		case "Sediment":
			// Column header line.
		default:
			if len(fields) < 4 {
				return nil, gssha.Malformedf("sediment row needs description, gravity, diameter and filename: %q", line)
			}
			grav, errG := gssha.ParseFloat(fields[1], params)
			diam, errD := gssha.ParseFloat(fields[2], params)
			if errG != nil || errD != nil {
				return nil, gssha.Malformedf("sediment row values %q", line)
			}
			table.Sediments = append(table.Sediments, Sediment{
				Description:      fields[0],
				SpecificGravity:  grav,
				ParticleDiameter: diam,
				OutputFilename:   fields[3],
			})
		}
	}
	return table, nil
}

func parseContaminantTable(chunk token.Chunk, params *gssha.ReplaceParams, diags *gssha.Diagnostics) (*Table, error) {
	table := &Table{Name: "CONTAMINANT_TRANSPORT"}
	var current *Contaminant

	for _, line := range chunk[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch {
		case fields[0] == "NUM_CONTAM":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, gssha.Malformedf("NUM_CONTAM value %q", fields[1])
			}
			if n == 0 {
				diags.Infof("no contaminants in CONTAMINANT_TRANSPORT table (NUM_CONTAM = 0); skipping")
				return nil, nil
			}
			table.NumContam = &n
		case strings.Contains(fields[0], `"`):
			qf := token.Fields(line)
			if len(qf) < 3 {
				return nil, gssha.Malformedf("contaminant declaration needs name, index map and output path: %q", line)
			}
			current = &Contaminant{Name: qf[0], IndexMapName: qf[1], OutputPath: qf[2]}
			table.Contaminants = append(table.Contaminants, current)
		case current == nil:
			return nil, gssha.Malformedf("contaminant card %q precedes any contaminant declaration", fields[0])
		case fields[0] == "PRECIP_CONC":
			v, err := gssha.ParseFloat(fields[1], params)
			if err != nil {
				return nil, gssha.Malformedf("PRECIP_CONC value %q", fields[1])
			}
			current.PrecipConc = v
		case fields[0] == "PARTITION":
			v, err := gssha.ParseFloat(fields[1], params)
			if err != nil {
				return nil, gssha.Malformedf("PARTITION value %q", fields[1])
			}
			current.Partition = v
		case fields[0] == "NUM_IDS":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, gssha.Malformedf("NUM_IDS value %q", fields[1])
			}
			current.NumIDs = n
		case fields[0] == "ID":
			current.Variables = buildVarList(line, table.Name, nil)
		default:
			row, err := parseValueLine(line, params)
			if err != nil {
				return nil, err
			}
			current.Rows = append(current.Rows, row)
		}
	}
	return table, nil
}
