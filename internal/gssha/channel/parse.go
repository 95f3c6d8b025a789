package channel

import (
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

// FileHeader is the magic first line of a channel input file.
const FileHeader = "GSSHA_CHAN"

var fileKeywords = []string{"ALPHA", "BETA", "THETA", "LINKS", "MAXNODES", "CONNECT", "LINK"}

var (
	weirTypes    = map[string]bool{"WEIR": true, "SAG_WEIR": true}
	culvertTypes = map[string]bool{"ROUND_CULVERT": true, "RECT_CULVERT": true}
	curveTypes   = map[string]bool{"RATING_CURVE": true, "SCHEDULED_RELEASE": true, "RULE_CURVE": true}
)

// xsecKeywords is the vocabulary for re-chunking a cross-section link: the
// structural cards plus every composite type keyword (a base cross-section
// shape optionally combined with ERODE and SUBSURFACE in any order).
var xsecKeywords = buildXSecKeywords()

func buildXSecKeywords() []string {
	kws := []string{"LINK", "DX", "NODES", "NODE", "XSEC"}
	seen := map[string]bool{}
	add := func(parts ...string) {
		k := strings.Join(parts, "_")
		if !seen[k] {
			seen[k] = true
			kws = append(kws, k)
		}
	}
	for _, base := range []string{"TRAPEZOID", "TRAP", "BREAKPOINT"} {
		add(base)
		add(base, "ERODE")
		add(base, "SUBSURFACE")
		add("ERODE", base)
		add("SUBSURFACE", base)
		add(base, "ERODE", "SUBSURFACE")
		add(base, "SUBSURFACE", "ERODE")
		add("ERODE", base, "SUBSURFACE")
		add("ERODE", "SUBSURFACE", base)
		add("SUBSURFACE", base, "ERODE")
		add("SUBSURFACE", "ERODE", base)
	}
	add("ERODE", "SUBSURFACE")
	add("SUBSURFACE", "ERODE")
	return kws
}

// Parse reads a channel input file into a Network. CONNECT records are
// paired with LINK blocks by position.
func Parse(r io.Reader, params *gssha.ReplaceParams) (*Network, gssha.Diagnostics, error) {
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
	net := &Network{}

	if net.Alpha, err = cardFloat(chunks, "ALPHA", params); err != nil {
		return nil, diags, err
	}
	if net.Beta, err = cardFloat(chunks, "BETA", params); err != nil {
		return nil, diags, err
	}
	if net.Theta, err = cardFloat(chunks, "THETA", params); err != nil {
		return nil, diags, err
	}
	if net.Links, err = cardInt(chunks, "LINKS"); err != nil {
		return nil, diags, err
	}
	if net.MaxNodes, err = cardInt(chunks, "MAXNODES"); err != nil {
		return nil, diags, err
	}

	var connects []Connectivity
	for _, c := range chunks["CONNECT"] {
		conn, err := parseConnect(c)
		if err != nil {
			return nil, diags, err
		}
		connects = append(connects, conn)
	}

	for _, c := range chunks["LINK"] {
		link, err := parseLink(c, params, &diags)
		if err != nil {
			return nil, diags, err
		}
		net.StreamLinks = append(net.StreamLinks, link)
	}

	if err := PairConnectivity(net.StreamLinks, connects); err != nil {
		return nil, diags, err
	}
	return net, diags, nil
}

// PairConnectivity zips CONNECT records onto links by position: the i-th
// record describes the i-th link in file order. A count mismatch is fatal —
// position is the only linkage the format provides.
func PairConnectivity(links []*StreamLink, connects []Connectivity) error {
	if len(links) != len(connects) {
		return gssha.Malformedf("connectivity mismatch: %d LINK blocks, %d CONNECT records", len(links), len(connects))
	}
	for i, link := range links {
		link.DownstreamID = connects[i].Downstream
		link.NumUpstream = connects[i].NumUpstream
		link.UpstreamIDs = connects[i].UpstreamIDs
	}
	return nil
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
	return nil, gssha.Malformedf("empty channel input file")
}

func parseConnect(chunk token.Chunk) (Connectivity, error) {
	fields := strings.Fields(chunk[0])
	if len(fields) < 4 {
		return Connectivity{}, gssha.Malformedf("CONNECT record needs link, downstream and count fields: %q", chunk[0])
	}
	conn := Connectivity{}
	var err error
	if conn.Link, err = strconv.Atoi(fields[1]); err != nil {
		return conn, gssha.Malformedf("CONNECT link number %q", fields[1])
	}
	if conn.Downstream, err = strconv.Atoi(fields[2]); err != nil {
		return conn, gssha.Malformedf("CONNECT downstream link %q", fields[2])
	}
	if conn.NumUpstream, err = strconv.Atoi(fields[3]); err != nil {
		return conn, gssha.Malformedf("CONNECT upstream count %q", fields[3])
	}
	for _, f := range fields[4:] {
		up, err := strconv.Atoi(f)
		if err != nil {
			return conn, gssha.Malformedf("CONNECT upstream link %q", f)
		}
		conn.UpstreamIDs = append(conn.UpstreamIDs, up)
	}
	return conn, nil
}

// parseLink dispatches a LINK chunk on its second line's discriminant.
func parseLink(chunk token.Chunk, params *gssha.ReplaceParams, diags *gssha.Diagnostics) (*StreamLink, error) {
	if len(chunk) < 2 {
		return nil, gssha.Malformedf("LINK block with no type card")
	}
	switch token.Discriminant(chunk[1]) {
	case "DX":
		return parseCrossSectionLink(chunk, params)
	case "STRUCTURE":
		return parseStructureLink(chunk, params, diags)
	case "RESERVOIR", "LAKE":
		return parseReservoirLink(chunk, params)
	default:
		return nil, gssha.Malformedf("unknown link type card %q", strings.TrimSpace(chunk[1]))
	}
}

func parseCrossSectionLink(lines token.Chunk, params *gssha.ReplaceParams) (*StreamLink, error) {
	chunks, err := token.Split(xsecKeywords, lines)
	if err != nil {
		return nil, err
	}

	link := &StreamLink{}
	var xsec token.Chunk

	for key, list := range chunks {
		for _, c := range list {
			switch key {
			case "NODE":
				node, err := parseNode(c)
				if err != nil {
					return nil, err
				}
				link.Nodes = append(link.Nodes, node)
			case "XSEC":
				xsec = c
			case "LINK":
				if link.Number, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
			case "DX":
				if link.DX, err = fieldFloat(c[0], 1, params); err != nil {
					return nil, err
				}
			case "NODES":
				if link.NumElements, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
			default:
				// Composite cross-section type keyword.
				link.Type = key
				if strings.Contains(key, "ERODE") {
					link.Erode = true
				}
				if strings.Contains(key, "SUBSURFACE") {
					link.Subsurface = true
				}
			}
		}
	}

	if link.Type == "" {
		return nil, gssha.Malformedf("cross-section link %d has no type keyword", link.Number)
	}
	if xsec == nil {
		return nil, gssha.Malformedf("cross-section link %d has no XSEC block", link.Number)
	}
	if err := attachCrossSection(link, xsec, params); err != nil {
		return nil, err
	}
	return link, nil
}

var xsecCardKeywords = []string{
	"MANNINGS_N", "BOTTOM_WIDTH", "BANKFULL_DEPTH", "SIDE_SLOPE",
	"NPAIRS", "NUM_INTERP", "X1", "ERODE", "MAX_EROSION", "SUBSURFACE",
	"M_RIVER", "K_RIVER",
}

// xsecFields accumulates the XSEC block before the link type decides which
// cross-section kind it becomes.
type xsecFields struct {
	manningsN     float64
	bottomWidth   float64
	bankfullDepth float64
	sideSlope     float64
	numPairs      int
	numInterp     int
	props         XSProps
	breakpoints   []Breakpoint
}

func attachCrossSection(link *StreamLink, xsec token.Chunk, params *gssha.ReplaceParams) error {
	chunks, err := token.Split(xsecCardKeywords, xsec[1:])
	if err != nil {
		return err
	}

	var f xsecFields
	for key, list := range chunks {
		for _, c := range list {
			switch key {
			case "X1":
				fields := strings.Fields(c[0])
				if len(fields) < 3 {
					return gssha.Malformedf("X1 breakpoint needs two ordinates: %q", c[0])
				}
				x, errX := strconv.ParseFloat(fields[1], 64)
				y, errY := strconv.ParseFloat(fields[2], 64)
				if errX != nil || errY != nil {
					return gssha.Malformedf("X1 breakpoint ordinates %q", c[0])
				}
				f.breakpoints = append(f.breakpoints, Breakpoint{X: x, Y: y})
			case "ERODE":
				f.props.Erode = true
			case "SUBSURFACE":
				f.props.Subsurface = true
			case "NPAIRS":
				if f.numPairs, err = fieldInt(c[0], 1); err != nil {
					return err
				}
			case "NUM_INTERP":
				if f.numInterp, err = fieldReplacedInt(c[0], 1, params); err != nil {
					return err
				}
			case "MANNINGS_N":
				if f.manningsN, err = fieldFloat(c[0], 1, params); err != nil {
					return err
				}
			case "BOTTOM_WIDTH":
				if f.bottomWidth, err = fieldFloat(c[0], 1, params); err != nil {
					return err
				}
			case "BANKFULL_DEPTH":
				if f.bankfullDepth, err = fieldFloat(c[0], 1, params); err != nil {
					return err
				}
			case "SIDE_SLOPE":
				if f.sideSlope, err = fieldFloat(c[0], 1, params); err != nil {
					return err
				}
			case "MAX_EROSION":
				if f.props.MaxErosion, err = fieldFloatPtr(c[0], 1, params); err != nil {
					return err
				}
			case "M_RIVER":
				if f.props.MRiver, err = fieldFloatPtr(c[0], 1, params); err != nil {
					return err
				}
			case "K_RIVER":
				if f.props.KRiver, err = fieldFloatPtr(c[0], 1, params); err != nil {
					return err
				}
			}
		}
	}

	switch {
	case strings.Contains(link.Type, "TRAPEZOID") || strings.Contains(link.Type, "TRAP"):
		link.Trapezoid = &TrapezoidalCS{
			ManningsN:     f.manningsN,
			BottomWidth:   f.bottomWidth,
			BankfullDepth: f.bankfullDepth,
			SideSlope:     f.sideSlope,
			XSProps:       f.props,
		}
	case strings.Contains(link.Type, "BREAKPOINT"):
		link.Breakpoint = &BreakpointCS{
			ManningsN:   f.manningsN,
			NumPairs:    f.numPairs,
			NumInterp:   f.numInterp,
			XSProps:     f.props,
			Breakpoints: f.breakpoints,
		}
	default:
		return gssha.Malformedf("unrecognized cross-section type %q", link.Type)
	}
	return nil
}

func parseNode(lines token.Chunk) (Node, error) {
	chunks, err := token.Split([]string{"NODE", "X_Y", "ELEV"}, lines)
	if err != nil {
		return Node{}, err
	}
	var node Node
	for key, list := range chunks {
		for _, c := range list {
			fields := strings.Fields(c[0])
			switch key {
			case "X_Y":
				if len(fields) < 3 {
					return node, gssha.Malformedf("X_Y card needs two ordinates: %q", c[0])
				}
				x, errX := strconv.ParseFloat(fields[1], 64)
				y, errY := strconv.ParseFloat(fields[2], 64)
				if errX != nil || errY != nil {
					return node, gssha.Malformedf("X_Y ordinates %q", c[0])
				}
				node.X, node.Y = x, y
			case "NODE":
				if node.Number, err = fieldInt(c[0], 1); err != nil {
					return node, err
				}
			case "ELEV":
				if node.Elevation, err = fieldFloat(c[0], 1, nil); err != nil {
					return node, err
				}
			}
		}
	}
	return node, nil
}

var structureKeywords = []string{"LINK", "STRUCTURE", "NUMSTRUCTS", "STRUCTTYPE"}

var weirKeywords = []string{
	"STRUCTTYPE", "CREST_LENGTH", "CREST_LOW_ELEV", "DISCHARGE_COEFF_FORWARD",
	"DISCHARGE_COEFF_REVERSE", "CREST_LOW_LOC", "STEEP_SLOPE", "SHALLOW_SLOPE",
}

var culvertKeywords = []string{
	"STRUCTTYPE", "UPINVERT", "DOWNINVERT", "INLET_DISCH_COEFF",
	"REV_FLOW_DISCH_COEFF", "SLOPE", "LENGTH", "ROUGH_COEFF",
	"DIAMETER", "WIDTH", "HEIGHT",
}

func parseStructureLink(lines token.Chunk, params *gssha.ReplaceParams, diags *gssha.Diagnostics) (*StreamLink, error) {
	chunks, err := token.Split(structureKeywords, lines)
	if err != nil {
		return nil, err
	}

	link := &StreamLink{Type: "STRUCTURE"}
	for key, list := range chunks {
		for _, c := range list {
			switch key {
			case "STRUCTTYPE":
				fields := strings.Fields(c[0])
				if len(fields) < 2 {
					return nil, gssha.Malformedf("STRUCTTYPE card missing type: %q", c[0])
				}
				structType := fields[1]
				switch {
				case weirTypes[structType]:
					weir, err := parseWeir(structType, c, params)
					if err != nil {
						return nil, err
					}
					link.Weirs = append(link.Weirs, weir)
				case culvertTypes[structType]:
					culvert, err := parseCulvert(structType, c, params)
					if err != nil {
						return nil, err
					}
					link.Culverts = append(link.Culverts, culvert)
				case curveTypes[structType]:
					diags.Warnf("structure type %s is recognized but not materialized; skipping", structType)
				default:
					return nil, gssha.Malformedf("unknown structure type %q", structType)
				}
			case "LINK":
				if link.Number, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
			case "NUMSTRUCTS":
				if link.NumElements, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
			}
		}
	}
	return link, nil
}

func parseWeir(structType string, lines token.Chunk, params *gssha.ReplaceParams) (Weir, error) {
	fields, err := structureFields(weirKeywords, lines, params)
	if err != nil {
		return Weir{}, err
	}
	return Weir{
		Type:                  structType,
		CrestLength:           fields["CREST_LENGTH"],
		CrestLowElevation:     fields["CREST_LOW_ELEV"],
		DischargeCoeffForward: fields["DISCHARGE_COEFF_FORWARD"],
		DischargeCoeffReverse: fields["DISCHARGE_COEFF_REVERSE"],
		CrestLowLocation:      fields["CREST_LOW_LOC"],
		SteepSlope:            fields["STEEP_SLOPE"],
		ShallowSlope:          fields["SHALLOW_SLOPE"],
	}, nil
}

func parseCulvert(structType string, lines token.Chunk, params *gssha.ReplaceParams) (Culvert, error) {
	fields, err := structureFields(culvertKeywords, lines, params)
	if err != nil {
		return Culvert{}, err
	}
	return Culvert{
		Type:                      structType,
		UpstreamInvert:            fields["UPINVERT"],
		DownstreamInvert:          fields["DOWNINVERT"],
		InletDischargeCoeff:       fields["INLET_DISCH_COEFF"],
		ReverseFlowDischargeCoeff: fields["REV_FLOW_DISCH_COEFF"],
		Slope:                     fields["SLOPE"],
		Length:                    fields["LENGTH"],
		Roughness:                 fields["ROUGH_COEFF"],
		Diameter:                  fields["DIAMETER"],
		Width:                     fields["WIDTH"],
		Height:                    fields["HEIGHT"],
	}, nil
}

// structureFields re-chunks a STRUCTTYPE block and collects each card's
// value, applying replacement-parameter substitution.
func structureFields(keywords []string, lines token.Chunk, params *gssha.ReplaceParams) (map[string]*float64, error) {
	chunks, err := token.Split(keywords, lines)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]*float64)
	for key, list := range chunks {
		if key == "STRUCTTYPE" {
			continue
		}
		for _, c := range list {
			v, err := fieldFloatPtr(c[0], 1, params)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		}
	}
	return fields, nil
}

var reservoirKeywords = []string{
	"LINK", "RESERVOIR", "RES_MINWSE", "RES_INITWSE", "RES_MAXWSE", "RES_NUMPTS",
	"LAKE", "MINWSE", "INITWSE", "MAXWSE", "NUMPTS",
}

func parseReservoirLink(lines token.Chunk, params *gssha.ReplaceParams) (*StreamLink, error) {
	chunks, err := token.Split(reservoirKeywords, lines)
	if err != nil {
		return nil, err
	}

	link := &StreamLink{Reservoir: &Reservoir{}}
	res := link.Reservoir
	for key, list := range chunks {
		for _, c := range list {
			switch key {
			case "NUMPTS", "RES_NUMPTS":
				if link.NumElements, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
				points, err := degroupPoints(c[1:])
				if err != nil {
					return nil, err
				}
				res.Points = points
			case "LAKE", "RESERVOIR":
				link.Type = key
			case "LINK":
				if link.Number, err = fieldInt(c[0], 1); err != nil {
					return nil, err
				}
			case "MINWSE", "RES_MINWSE":
				if res.MinWSE, err = fieldFloat(c[0], 1, params); err != nil {
					return nil, err
				}
			case "INITWSE", "RES_INITWSE":
				if res.InitWSE, err = fieldFloat(c[0], 1, params); err != nil {
					return nil, err
				}
			case "MAXWSE", "RES_MAXWSE":
				if res.MaxWSE, err = fieldFloat(c[0], 1, params); err != nil {
					return nil, err
				}
			}
		}
	}
	if link.Type == "" {
		return nil, gssha.Malformedf("reservoir link %d missing RESERVOIR or LAKE card", link.Number)
	}
	return link, nil
}

// degroupPoints splits continuation lines of whole numbers into (i,j)
// pairs, two ordinates at a time across line boundaries.
func degroupPoints(lines []string) ([]ReservoirPoint, error) {
	var ordinates []int
	for _, line := range lines {
		for _, f := range strings.Fields(line) {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, gssha.Malformedf("reservoir point ordinate %q", f)
			}
			ordinates = append(ordinates, v)
		}
	}
	if len(ordinates)%2 != 0 {
		return nil, gssha.Malformedf("reservoir points: odd ordinate count %d", len(ordinates))
	}
	points := make([]ReservoirPoint, 0, len(ordinates)/2)
	for i := 0; i < len(ordinates); i += 2 {
		points = append(points, ReservoirPoint{I: ordinates[i], J: ordinates[i+1]})
	}
	return points, nil
}

// --- field helpers ---

func fieldAt(line string, idx int) (string, error) {
	fields := strings.Fields(line)
	if idx >= len(fields) {
		return "", gssha.Malformedf("field %d missing from %q", idx, strings.TrimSpace(line))
	}
	return fields[idx], nil
}

func fieldInt(line string, idx int) (int, error) {
	f, err := fieldAt(line, idx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(f)
	if err != nil {
		return 0, gssha.Malformedf("expected integer, found %q in %q", f, strings.TrimSpace(line))
	}
	return v, nil
}

// fieldReplacedInt parses an integer card that may carry a replacement
// token; replacements resolve to negative ids, which fit an int.
func fieldReplacedInt(line string, idx int, params *gssha.ReplaceParams) (int, error) {
	f, err := fieldAt(line, idx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(params.ReadValue(f))
	if err != nil {
		return 0, gssha.Malformedf("expected integer, found %q in %q", f, strings.TrimSpace(line))
	}
	return v, nil
}

func fieldFloat(line string, idx int, params *gssha.ReplaceParams) (float64, error) {
	f, err := fieldAt(line, idx)
	if err != nil {
		return 0, err
	}
	v, err := gssha.ParseFloat(f, params)
	if err != nil {
		return 0, gssha.Malformedf("expected number, found %q in %q", f, strings.TrimSpace(line))
	}
	return v, nil
}

func fieldFloatPtr(line string, idx int, params *gssha.ReplaceParams) (*float64, error) {
	v, err := fieldFloat(line, idx, params)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func cardFloat(chunks token.Map, key string, params *gssha.ReplaceParams) (float64, error) {
	list := chunks[key]
	if len(list) == 0 {
		return 0, gssha.Malformedf("missing %s card", key)
	}
	return fieldFloat(list[0][0], 1, params)
}

func cardInt(chunks token.Map, key string) (int, error) {
	list := chunks[key]
	if len(list) == 0 {
		return 0, gssha.Malformedf("missing %s card", key)
	}
	return fieldInt(list[0][0], 1)
}
