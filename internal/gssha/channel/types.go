// Package channel reads and writes the GSSHA channel input file (.cif): a
// GSSHA_CHAN header, global routing cards, CONNECT connectivity records,
// and one LINK block per stream link. Links come in three shapes — fluvial
// cross-section links, hydraulic structure links, and reservoir/lake links —
// selected by the first card inside the LINK block.
package channel

// Network is the parsed channel input file.
type Network struct {
	Alpha    float64
	Beta     float64
	Theta    float64
	Links    int
	MaxNodes int

	StreamLinks []*StreamLink
}

// StreamLink is one LINK block. Type carries the literal type keyword from
// the file: a cross-section keyword (TRAPEZOID, BREAKPOINT, TRAP and their
// ERODE/SUBSURFACE composites), STRUCTURE, RESERVOIR, or LAKE. Exactly one
// of the shape-specific field groups is populated.
type StreamLink struct {
	Number      int
	Type        string
	NumElements int

	// Connectivity, attached by PairConnectivity.
	DownstreamID int
	NumUpstream  int
	UpstreamIDs  []int

	// Cross-section links.
	DX         float64
	Erode      bool
	Subsurface bool
	Nodes      []Node
	Trapezoid  *TrapezoidalCS
	Breakpoint *BreakpointCS

	// Structure links.
	Weirs    []Weir
	Culverts []Culvert

	// Reservoir and lake links.
	Reservoir *Reservoir
}

// Node is one stream node with its position and elevation.
type Node struct {
	Number    int
	X         float64
	Y         float64
	Elevation float64
}

// XSProps are the optional cards shared by both cross-section kinds.
type XSProps struct {
	Erode      bool
	Subsurface bool
	MaxErosion *float64
	MRiver     *float64
	KRiver     *float64
}

// TrapezoidalCS is the XSEC block of a trapezoidal link.
type TrapezoidalCS struct {
	ManningsN     float64
	BottomWidth   float64
	BankfullDepth float64
	SideSlope     float64
	XSProps
}

// BreakpointCS is the XSEC block of a breakpoint (natural) link.
type BreakpointCS struct {
	ManningsN float64
	NumPairs  int
	NumInterp int
	XSProps
	Breakpoints []Breakpoint
}

// Breakpoint is one X1 station/elevation pair.
type Breakpoint struct {
	X float64
	Y float64
}

// Weir is one weir-family structure (WEIR, SAG_WEIR).
type Weir struct {
	Type                  string
	CrestLength           *float64
	CrestLowElevation     *float64
	DischargeCoeffForward *float64
	DischargeCoeffReverse *float64
	CrestLowLocation      *float64
	SteepSlope            *float64
	ShallowSlope          *float64
}

// Culvert is one culvert-family structure (ROUND_CULVERT, RECT_CULVERT).
type Culvert struct {
	Type                      string
	UpstreamInvert            *float64
	DownstreamInvert          *float64
	InletDischargeCoeff       *float64
	ReverseFlowDischargeCoeff *float64
	Slope                     *float64
	Length                    *float64
	Roughness                 *float64
	Diameter                  *float64
	Width                     *float64
	Height                    *float64
}

// Reservoir is the body of a RESERVOIR or LAKE link. Points are grid cell
// (i,j) coordinates covered by the pool.
type Reservoir struct {
	InitWSE float64
	MinWSE  float64
	MaxWSE  float64
	Points  []ReservoirPoint
}

// ReservoirPoint is one (i,j) grid cell.
type ReservoirPoint struct {
	I int
	J int
}

// Connectivity is one CONNECT record. CONNECT records carry no link key;
// the i-th record describes the i-th LINK block in file order.
type Connectivity struct {
	Link        int
	Downstream  int
	NumUpstream int
	UpstreamIDs []int
}
