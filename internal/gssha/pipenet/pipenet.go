// Package pipenet reads and writes the GSSHA storm pipe network file
// (.spn): CONNECT records joining super links to super junctions by id,
// SJUNC junction declarations, and SLINK blocks of nodes and pipes. Unlike
// the channel file, connectivity here is keyed: CONNECT records carry the
// super link id and resolve by lookup, not position.
package pipenet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

var (
	fileKeywords  = []string{"CONNECT", "SJUNC", "SLINK"}
	slinkKeywords = []string{"SLINK", "NODE", "PIPE"}
)

// Network is a parsed storm pipe network file.
type Network struct {
	Connections    []Connection
	SuperJunctions []SuperJunction
	SuperLinks     []*SuperLink
}

// Connection is one CONNECT record, joining a super link to its upstream
// and downstream super junctions by id.
type Connection struct {
	SlinkNumber     int
	UpSjuncNumber   int
	DownSjuncNumber int
}

// SuperJunction is one SJUNC record.
type SuperJunction struct {
	Number            int
	GroundSurfaceElev float64
	InvertElev        float64
	ManholeSA         float64
	InletCode         int
	LinkOrCellI       int
	NodeOrCellJ       int
	WeirSideLength    float64
	OrificeDiameter   float64
}

// SuperLink is one SLINK block with its nodes and pipes.
type SuperLink struct {
	Number   int
	NumPipes int
	Nodes    []SuperNode
	Pipes    []Pipe
}

// SuperNode is one NODE record within a super link.
type SuperNode struct {
	Number            int
	GroundSurfaceElev float64
	InvertElev        float64
	ManholeSA         float64
	InletCode         int
	CellI             int
	CellJ             int
	WeirSideLength    float64
	OrificeDiameter   float64
}

// Pipe is one PIPE record within a super link.
type Pipe struct {
	Number           int
	XSecType         int
	DiameterOrHeight float64
	Width            float64
	Slope            float64
	Roughness        float64
	Length           float64
	Conductance      float64
	DrainSpacing     float64
}

// Parse reads a storm pipe network file.
func Parse(r io.Reader, params *gssha.ReplaceParams) (*Network, error) {
	chunks, err := token.Read(fileKeywords, r)
	if err != nil {
		return nil, err
	}

	net := &Network{}
	for _, c := range chunks["CONNECT"] {
		conn, err := parseConnect(c[0])
		if err != nil {
			return nil, err
		}
		net.Connections = append(net.Connections, conn)
	}
	for _, c := range chunks["SJUNC"] {
		sjunc, err := parseSjunc(c[0], params)
		if err != nil {
			return nil, err
		}
		net.SuperJunctions = append(net.SuperJunctions, sjunc)
	}
	for _, c := range chunks["SLINK"] {
		slink, err := parseSlink(c, params)
		if err != nil {
			return nil, err
		}
		net.SuperLinks = append(net.SuperLinks, slink)
	}
	return net, nil
}

// Resolve validates the keyed connectivity: every CONNECT record must
// reference a declared super link and declared super junctions.
func (n *Network) Resolve() error {
	slinks := make(map[int]bool, len(n.SuperLinks))
	for _, sl := range n.SuperLinks {
		slinks[sl.Number] = true
	}
	sjuncs := make(map[int]bool, len(n.SuperJunctions))
	for _, sj := range n.SuperJunctions {
		sjuncs[sj.Number] = true
	}
	for _, conn := range n.Connections {
		if !slinks[conn.SlinkNumber] {
			return gssha.Malformedf("CONNECT references undeclared super link %d", conn.SlinkNumber)
		}
		if !sjuncs[conn.UpSjuncNumber] {
			return gssha.Malformedf("CONNECT for super link %d references undeclared upstream junction %d", conn.SlinkNumber, conn.UpSjuncNumber)
		}
		if !sjuncs[conn.DownSjuncNumber] {
			return gssha.Malformedf("CONNECT for super link %d references undeclared downstream junction %d", conn.SlinkNumber, conn.DownSjuncNumber)
		}
	}
	return nil
}

func parseConnect(line string) (Connection, error) {
	f, err := intFields(line, 4)
	if err != nil {
		return Connection{}, err
	}
	return Connection{SlinkNumber: f[1], UpSjuncNumber: f[2], DownSjuncNumber: f[3]}, nil
}

func parseSjunc(line string, params *gssha.ReplaceParams) (SuperJunction, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return SuperJunction{}, gssha.Malformedf("SJUNC record needs 9 fields: %q", line)
	}
	var (
		sj  SuperJunction
		err error
	)
	if sj.Number, err = atoi(fields[1], line); err != nil {
		return sj, err
	}
	if sj.GroundSurfaceElev, err = gssha.ParseFloat(fields[2], params); err != nil {
		return sj, badValue(fields[2], line)
	}
	if sj.InvertElev, err = gssha.ParseFloat(fields[3], params); err != nil {
		return sj, badValue(fields[3], line)
	}
	if sj.ManholeSA, err = gssha.ParseFloat(fields[4], params); err != nil {
		return sj, badValue(fields[4], line)
	}
	if sj.InletCode, err = atoi(fields[5], line); err != nil {
		return sj, err
	}
	if sj.LinkOrCellI, err = atoi(fields[6], line); err != nil {
		return sj, err
	}
	if sj.NodeOrCellJ, err = atoi(fields[7], line); err != nil {
		return sj, err
	}
	if sj.WeirSideLength, err = gssha.ParseFloat(fields[8], params); err != nil {
		return sj, badValue(fields[8], line)
	}
	if sj.OrificeDiameter, err = gssha.ParseFloat(fields[9], params); err != nil {
		return sj, badValue(fields[9], line)
	}
	return sj, nil
}

func parseSlink(lines token.Chunk, params *gssha.ReplaceParams) (*SuperLink, error) {
	chunks, err := token.Split(slinkKeywords, lines)
	if err != nil {
		return nil, err
	}

	slink := &SuperLink{}
	for key, list := range chunks {
		for _, c := range list {
			switch key {
			case "SLINK":
				f, err := intFields(c[0], 3)
				if err != nil {
					return nil, err
				}
				slink.Number, slink.NumPipes = f[1], f[2]
			case "NODE":
				node, err := parseNode(c[0], params)
				if err != nil {
					return nil, err
				}
				slink.Nodes = append(slink.Nodes, node)
			case "PIPE":
				pipe, err := parsePipe(c[0], params)
				if err != nil {
					return nil, err
				}
				slink.Pipes = append(slink.Pipes, pipe)
			}
		}
	}
	return slink, nil
}

func parseNode(line string, params *gssha.ReplaceParams) (SuperNode, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return SuperNode{}, gssha.Malformedf("NODE record needs 9 fields: %q", line)
	}
	var (
		n   SuperNode
		err error
	)
	if n.Number, err = atoi(fields[1], line); err != nil {
		return n, err
	}
	if n.GroundSurfaceElev, err = gssha.ParseFloat(fields[2], params); err != nil {
		return n, badValue(fields[2], line)
	}
	if n.InvertElev, err = gssha.ParseFloat(fields[3], params); err != nil {
		return n, badValue(fields[3], line)
	}
	if n.ManholeSA, err = gssha.ParseFloat(fields[4], params); err != nil {
		return n, badValue(fields[4], line)
	}
	if n.InletCode, err = atoi(fields[5], line); err != nil {
		return n, err
	}
	if n.CellI, err = atoi(fields[6], line); err != nil {
		return n, err
	}
	if n.CellJ, err = atoi(fields[7], line); err != nil {
		return n, err
	}
	if n.WeirSideLength, err = gssha.ParseFloat(fields[8], params); err != nil {
		return n, badValue(fields[8], line)
	}
	if n.OrificeDiameter, err = gssha.ParseFloat(fields[9], params); err != nil {
		return n, badValue(fields[9], line)
	}
	return n, nil
}

func parsePipe(line string, params *gssha.ReplaceParams) (Pipe, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return Pipe{}, gssha.Malformedf("PIPE record needs 9 fields: %q", line)
	}
	var (
		p   Pipe
		err error
	)
	if p.Number, err = atoi(fields[1], line); err != nil {
		return p, err
	}
	if p.XSecType, err = atoi(fields[2], line); err != nil {
		return p, err
	}
	if p.DiameterOrHeight, err = gssha.ParseFloat(fields[3], params); err != nil {
		return p, badValue(fields[3], line)
	}
	if p.Width, err = gssha.ParseFloat(fields[4], params); err != nil {
		return p, badValue(fields[4], line)
	}
	if p.Slope, err = gssha.ParseFloat(fields[5], params); err != nil {
		return p, badValue(fields[5], line)
	}
	if p.Roughness, err = gssha.ParseFloat(fields[6], params); err != nil {
		return p, badValue(fields[6], line)
	}
	if p.Length, err = gssha.ParseFloat(fields[7], params); err != nil {
		return p, badValue(fields[7], line)
	}
	if p.Conductance, err = gssha.ParseFloat(fields[8], params); err != nil {
		return p, badValue(fields[8], line)
	}
	if p.DrainSpacing, err = gssha.ParseFloat(fields[9], params); err != nil {
		return p, badValue(fields[9], line)
	}
	return p, nil
}

// Write serializes a storm pipe network file: connections, then junctions,
// then super link blocks.
func Write(w io.Writer, net *Network, params *gssha.ReplaceParams) error {
	var b strings.Builder
	for _, conn := range net.Connections {
		fmt.Fprintf(&b, "CONNECT  %d  %d  %d\n", conn.SlinkNumber, conn.UpSjuncNumber, conn.DownSjuncNumber)
	}
	for _, sj := range net.SuperJunctions {
		fmt.Fprintf(&b, "SJUNC  %d  %.2f  %.2f  %.6f  %d  %d  %d  %.6f  %.6f\n",
			sj.Number, sj.GroundSurfaceElev, sj.InvertElev, sj.ManholeSA,
			sj.InletCode, sj.LinkOrCellI, sj.NodeOrCellJ,
			sj.WeirSideLength, sj.OrificeDiameter)
	}
	for _, slink := range net.SuperLinks {
		fmt.Fprintf(&b, "SLINK   %d      %d\n", slink.Number, slink.NumPipes)
		for _, n := range slink.Nodes {
			fmt.Fprintf(&b, "NODE  %d  %.2f  %.2f  %.6f  %d  %d  %d  %.6f  %.6f\n",
				n.Number, n.GroundSurfaceElev, n.InvertElev, n.ManholeSA,
				n.InletCode, n.CellI, n.CellJ,
				n.WeirSideLength, n.OrificeDiameter)
		}
		for _, p := range slink.Pipes {
			fmt.Fprintf(&b, "PIPE  %d  %d  %.6f  %.6f  %.6f  %.6f  %.2f  %.6f  %.6f\n",
				p.Number, p.XSecType, p.DiameterOrHeight, p.Width,
				p.Slope, p.Roughness, p.Length, p.Conductance, p.DrainSpacing)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func intFields(line string, n int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, gssha.Malformedf("record needs %d fields: %q", n-1, line)
	}
	out := make([]int, n)
	for i := 1; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, gssha.Malformedf("expected integer, found %q in %q", fields[i], line)
		}
		out[i] = v
	}
	return out, nil
}

func atoi(field, line string) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, gssha.Malformedf("expected integer, found %q in %q", field, line)
	}
	return v, nil
}

func badValue(field, line string) error {
	return gssha.Malformedf("expected number, found %q in %q", field, line)
}
