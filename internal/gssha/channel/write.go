package channel

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
)

// Write serializes a Network in the channel input file layout. Connectivity
// records are emitted for every link before the LINK blocks, in link order.
func Write(w io.Writer, net *Network, params *gssha.ReplaceParams) error {
	var b strings.Builder

	b.WriteString(FileHeader + "\n")
	fmt.Fprintf(&b, "ALPHA%s%s\n", strings.Repeat(" ", 7), gssha.FormatValue(net.Alpha, params))
	fmt.Fprintf(&b, "BETA%s%s\n", strings.Repeat(" ", 8), gssha.FormatValue(net.Beta, params))
	fmt.Fprintf(&b, "THETA%s%s\n", strings.Repeat(" ", 7), gssha.FormatValue(net.Theta, params))
	fmt.Fprintf(&b, "LINKS%s%d\n", strings.Repeat(" ", 7), net.Links)
	fmt.Fprintf(&b, "MAXNODES%s%d\n", strings.Repeat(" ", 4), net.MaxNodes)

	writeConnectivity(&b, net.StreamLinks)

	for _, link := range net.StreamLinks {
		fmt.Fprintf(&b, "LINK           %d\n", link.Number)
		if err := writeLink(&b, link, params); err != nil {
			return err
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeConnectivity(b *strings.Builder, links []*StreamLink) {
	for _, link := range links {
		fmt.Fprintf(b, "CONNECT%5d%5d%5d", link.Number, link.DownstreamID, link.NumUpstream)
		for _, up := range link.UpstreamIDs {
			fmt.Fprintf(b, "%5d", up)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeLink(b *strings.Builder, link *StreamLink, params *gssha.ReplaceParams) error {
	switch {
	case link.Trapezoid != nil || link.Breakpoint != nil:
		return writeCrossSectionLink(b, link, params)
	case link.Type == "STRUCTURE":
		writeStructureLink(b, link, params)
		return nil
	case link.Reservoir != nil:
		writeReservoirLink(b, link, params)
		return nil
	default:
		return gssha.Malformedf("link %d has no writable body (type %q)", link.Number, link.Type)
	}
}

func writeCrossSectionLink(b *strings.Builder, link *StreamLink, params *gssha.ReplaceParams) error {
	fmt.Fprintf(b, "DX             %s\n", gssha.FormatValue(link.DX, params))
	fmt.Fprintf(b, "%s\n", link.Type)
	fmt.Fprintf(b, "NODES          %d\n", link.NumElements)

	for _, node := range link.Nodes {
		fmt.Fprintf(b, "NODE %d\n", node.Number)
		fmt.Fprintf(b, "X_Y  %.6f %.6f\n", node.X, node.Y)
		fmt.Fprintf(b, "ELEV %.6f\n", node.Elevation)

		if node.Number != 1 {
			continue
		}
		// Cross-section block follows the first node.
		b.WriteString("XSEC\n")
		switch {
		case link.Trapezoid != nil:
			xs := link.Trapezoid
			fmt.Fprintf(b, "MANNINGS_N     %s\n", gssha.FormatValue(xs.ManningsN, params))
			fmt.Fprintf(b, "BOTTOM_WIDTH   %s\n", gssha.FormatValue(xs.BottomWidth, params))
			fmt.Fprintf(b, "BANKFULL_DEPTH %s\n", gssha.FormatValue(xs.BankfullDepth, params))
			fmt.Fprintf(b, "SIDE_SLOPE     %s\n", gssha.FormatValue(xs.SideSlope, params))
			writeOptionalXSecCards(b, xs.XSProps, params)
		case link.Breakpoint != nil:
			xs := link.Breakpoint
			fmt.Fprintf(b, "MANNINGS_N     %s\n", gssha.FormatValue(xs.ManningsN, params))
			fmt.Fprintf(b, "NPAIRS         %d\n", xs.NumPairs)
			fmt.Fprintf(b, "NUM_INTERP     %s\n", formatReplacedInt(xs.NumInterp, params))
			writeOptionalXSecCards(b, xs.XSProps, params)
			for _, bp := range xs.Breakpoints {
				fmt.Fprintf(b, "X1   %.6f %.6f\n", bp.X, bp.Y)
			}
		default:
			return gssha.Malformedf("cross-section link %d has no cross section", link.Number)
		}
	}
	return nil
}

func writeOptionalXSecCards(b *strings.Builder, props XSProps, params *gssha.ReplaceParams) {
	if props.Erode {
		b.WriteString("ERODE\n")
	}
	if props.MaxErosion != nil {
		fmt.Fprintf(b, "MAX_EROSION    %s\n", gssha.FormatValue(*props.MaxErosion, params))
	}
	if props.Subsurface {
		b.WriteString("SUBSURFACE\n")
	}
	if props.MRiver != nil {
		fmt.Fprintf(b, "M_RIVER        %s\n", gssha.FormatValue(*props.MRiver, params))
	}
	if props.KRiver != nil {
		fmt.Fprintf(b, "K_RIVER        %s\n", gssha.FormatValue(*props.KRiver, params))
	}
}

func writeStructureLink(b *strings.Builder, link *StreamLink, params *gssha.ReplaceParams) {
	fmt.Fprintf(b, "%s\n", link.Type)
	fmt.Fprintf(b, "NUMSTRUCTS     %d\n", link.NumElements)

	for _, weir := range link.Weirs {
		fmt.Fprintf(b, "STRUCTTYPE     %s\n", weir.Type)
		writeStructCard(b, "CREST_LENGTH", weir.CrestLength, params)
		writeStructCard(b, "CREST_LOW_ELEV", weir.CrestLowElevation, params)
		writeStructCard(b, "DISCHARGE_COEFF_FORWARD", weir.DischargeCoeffForward, params)
		writeStructCard(b, "DISCHARGE_COEFF_REVERSE", weir.DischargeCoeffReverse, params)
		writeStructCard(b, "CREST_LOW_LOC", weir.CrestLowLocation, params)
		writeStructCard(b, "STEEP_SLOPE", weir.SteepSlope, params)
		writeStructCard(b, "SHALLOW_SLOPE", weir.ShallowSlope, params)
	}
	for _, culvert := range link.Culverts {
		fmt.Fprintf(b, "STRUCTTYPE     %s\n", culvert.Type)
		writeStructCard(b, "UPINVERT", culvert.UpstreamInvert, params)
		writeStructCard(b, "DOWNINVERT", culvert.DownstreamInvert, params)
		writeStructCard(b, "INLET_DISCH_COEFF", culvert.InletDischargeCoeff, params)
		writeStructCard(b, "REV_FLOW_DISCH_COEFF", culvert.ReverseFlowDischargeCoeff, params)
		writeStructCard(b, "SLOPE", culvert.Slope, params)
		writeStructCard(b, "LENGTH", culvert.Length, params)
		writeStructCard(b, "ROUGH_COEFF", culvert.Roughness, params)
		writeStructCard(b, "DIAMETER", culvert.Diameter, params)
		writeStructCard(b, "WIDTH", culvert.Width, params)
		writeStructCard(b, "HEIGHT", culvert.Height, params)
	}
}

// writeStructCard emits one optional structure card padded to a 25-column
// field, skipping absent values.
func writeStructCard(b *strings.Builder, card string, v *float64, params *gssha.ReplaceParams) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "%-25s%s\n", card, gssha.FormatValue(*v, params))
}

func writeReservoirLink(b *strings.Builder, link *StreamLink, params *gssha.ReplaceParams) {
	fmt.Fprintf(b, "%s\n", link.Type)
	res := link.Reservoir

	if link.Type == "LAKE" {
		fmt.Fprintf(b, "INITWSE      %s\n", gssha.FormatValue(res.InitWSE, params))
		fmt.Fprintf(b, "MINWSE       %s\n", gssha.FormatValue(res.MinWSE, params))
		fmt.Fprintf(b, "MAXWSE       %s\n", gssha.FormatValue(res.MaxWSE, params))
		fmt.Fprintf(b, "NUMPTS       %d\n", link.NumElements)
	} else {
		fmt.Fprintf(b, "RES_INITWSE      %s\n", gssha.FormatValue(res.InitWSE, params))
		fmt.Fprintf(b, "RES_MINWSE       %s\n", gssha.FormatValue(res.MinWSE, params))
		fmt.Fprintf(b, "RES_MAXWSE       %s\n", gssha.FormatValue(res.MaxWSE, params))
		fmt.Fprintf(b, "RES_NUMPTS       %d\n", link.NumElements)
	}

	// Ten (i,j) pairs per line.
	for idx, point := range res.Points {
		if (idx+1)%10 != 0 {
			fmt.Fprintf(b, "%d  %d     ", point.I, point.J)
		} else {
			fmt.Fprintf(b, "%d  %d\n", point.I, point.J)
		}
	}
	if len(res.Points)%10 != 0 {
		b.WriteString("\n")
	}
}

// formatReplacedInt renders an integer card value, resolving negative
// replacement ids back to their parameter names.
func formatReplacedInt(v int, params *gssha.ReplaceParams) string {
	if s, ok := params.WriteValue(float64(v)); ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}
