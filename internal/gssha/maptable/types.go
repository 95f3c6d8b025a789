// Package maptable reads and writes the GSSHA mapping table file (.cmt):
// index map declarations followed by parameter tables keyed to index map
// ids. Most tables share one generic grammar; SEDIMENTS and
// CONTAMINANT_TRANSPORT carry their own layouts, and the multi-layer soil
// tables group value lines three at a time into layered rows.
package maptable

// File is the parsed mapping table file.
type File struct {
	IndexMaps []IndexMap
	Tables    []*Table
}

// IndexMap is one INDEX_MAP declaration.
type IndexMap struct {
	Name     string
	Filename string
}

// Table is one mapping table. Generic tables populate Variables and Rows;
// SEDIMENTS populates Sediments; CONTAMINANT_TRANSPORT populates
// Contaminants. The Num* counters mirror the table's declared NUM_* cards
// and are nil when the card is absent.
type Table struct {
	Name         string
	IndexMapName string

	NumIDs      *int
	MaxNumCells *int
	NumSed      *int
	NumContam   *int
	MaxSoilID   *int

	Variables []string
	Rows      []IndexRow

	Sediments    []Sediment
	Contaminants []*Contaminant
}

// IndexRow is one table row: an index map id, two fixed-width description
// columns, and values aligned positionally to the table's variable list.
// Layers holds one slice for ordinary tables and three for the layered
// soil tables.
type IndexRow struct {
	Index        string
	Description1 string
	Description2 string
	Layers       [][]float64
}

// Values returns the single value layer of an unlayered row.
func (r IndexRow) Values() []float64 {
	if len(r.Layers) == 0 {
		return nil
	}
	return r.Layers[0]
}

// Sediment is one row of the SEDIMENTS table.
type Sediment struct {
	Description      string
	SpecificGravity  float64
	ParticleDiameter float64
	OutputFilename   string
}

// Contaminant is one constituent of the CONTAMINANT_TRANSPORT table, with
// its own index map binding and value rows.
type Contaminant struct {
	Name         string
	IndexMapName string
	OutputPath   string
	PrecipConc   float64
	Partition    float64
	NumIDs       int
	Variables    []string
	Rows         []IndexRow
}
