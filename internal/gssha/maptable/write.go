package maptable

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
)

// Write serializes a mapping table file. Layout matches the source format
// byte for byte: index maps first, then each table with its header cards,
// ID header line, and unpivoted value rows.
func Write(w io.Writer, file *File, params *gssha.ReplaceParams) error {
	var b strings.Builder

	b.WriteString(FileHeader + "\n")
	for _, im := range file.IndexMaps {
		fmt.Fprintf(&b, "INDEX_MAP%s\"%s\" \"%s\"\n", strings.Repeat(" ", 16), im.Filename, im.Name)
	}

	for _, table := range file.Tables {
		switch table.Name {
		case "SEDIMENTS":
			writeSedimentTable(&b, table, params)
		case "CONTAMINANT_TRANSPORT":
			writeContaminantTable(&b, table, params)
		default:
			writeGenericTable(&b, table, params)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeGenericTable(b *strings.Builder, table *Table, params *gssha.ReplaceParams) {
	fmt.Fprintf(b, "%s \"%s\"\n", table.Name, table.IndexMapName)
	if table.NumIDs != nil {
		fmt.Fprintf(b, "NUM_IDS %d\n", *table.NumIDs)
	}
	if table.MaxNumCells != nil {
		fmt.Fprintf(b, "MAX_NUMBER_CELLS %d\n", *table.MaxNumCells)
	}
	if table.NumSed != nil {
		fmt.Fprintf(b, "NUM_SED %d\n", *table.NumSed)
	}
	if table.MaxSoilID != nil {
		fmt.Fprintf(b, "MAX_SOIL_ID %d\n", *table.MaxSoilID)
	}
	writeValueBlock(b, table.Variables, table.Rows, table.NumSed, params)
}

// writeValueBlock emits the ID header line and one unpivoted line per row
// (plus indentation-only continuation lines for layered rows).
func writeValueBlock(b *strings.Builder, variables []string, rows []IndexRow, numSed *int, params *gssha.ReplaceParams) {
	b.WriteString(headerLine(variables, numSed))
	for _, row := range rows {
		for layer, values := range row.Layers {
			if layer == 0 {
				// Index column is at least one space wide even for indices
				// that overflow the 6-character slot.
				fmt.Fprintf(b, "%s%s%s%s%s%s%s\n",
					row.Index, pad(max(1, 6-len(row.Index))),
					row.Description1, pad(40-len(row.Description1)),
					row.Description2, pad(40-len(row.Description2)),
					valueString(values, params))
			} else {
				fmt.Fprintf(b, "%s%s\n", pad(86), valueString(values, params))
			}
		}
	}
}

// headerLine rebuilds the ID declaration line. XSEDIMENT slots collapse
// into a single trailing "<N> SEDIMENTS...." label.
func headerLine(variables []string, numSed *int) string {
	var vars strings.Builder
	for i, v := range variables {
		if v == "XSEDIMENT" {
			if i == len(variables)-1 && numSed != nil {
				fmt.Fprintf(&vars, "%d SEDIMENTS....  ", *numSed)
			}
			continue
		}
		vars.WriteString(v + "  ")
	}
	return fmt.Sprintf("ID%sDESCRIPTION1%sDESCRIPTION2%s%s\n", pad(4), pad(28), pad(28), vars.String())
}

// valueString renders a row's values with three-space separators.
// Replacement parameters resolve first so that stored markers like
// ReplaceNoValue keep their field; only then are sentinel no-data values
// omitted entirely.
func valueString(values []float64, params *gssha.ReplaceParams) string {
	var b strings.Builder
	for _, v := range values {
		if s, ok := params.WriteValue(v); ok {
			b.WriteString(s + pad(3))
			continue
		}
		if v <= SentinelNoData {
			continue
		}
		s, _ := gssha.FormatSix(v)
		b.WriteString(s + pad(3))
	}
	return b.String()
}

func writeSedimentTable(b *strings.Builder, table *Table, params *gssha.ReplaceParams) {
	fmt.Fprintf(b, "%s\n", table.Name)
	if table.NumSed != nil {
		fmt.Fprintf(b, "NUM_SED %d\n", *table.NumSed)
	}
	fmt.Fprintf(b, "Sediment Description%sSpec. Grav%sPart. Dia%sOutput Filename\n", pad(22), pad(3), pad(5))
	for _, sed := range table.Sediments {
		fmt.Fprintf(b, "%s%s%s%s%s%s%s\n",
			sed.Description, pad(42-len(sed.Description)),
			gssha.FormatValue(sed.SpecificGravity, params), pad(5),
			gssha.FormatValue(sed.ParticleDiameter, params), pad(6),
			sed.OutputFilename)
	}
}

func writeContaminantTable(b *strings.Builder, table *Table, params *gssha.ReplaceParams) {
	fmt.Fprintf(b, "%s\n", table.Name)
	if table.NumContam != nil {
		fmt.Fprintf(b, "NUM_CONTAM %d\n", *table.NumContam)
	}
	for _, contam := range table.Contaminants {
		fmt.Fprintf(b, "\"%s\"  \"%s\"  %s\n", contam.Name, contam.IndexMapName, contam.OutputPath)
		fmt.Fprintf(b, "PRECIP_CONC%s%.2f\n", pad(10), contam.PrecipConc)
		fmt.Fprintf(b, "PARTITION%s%.2f\n", pad(12), contam.Partition)
		fmt.Fprintf(b, "NUM_IDS %d\n", contam.NumIDs)
		writeValueBlock(b, contam.Variables, contam.Rows, nil, params)
	}
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
