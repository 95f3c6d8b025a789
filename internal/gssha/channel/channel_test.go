package channel_test

import (
	"strings"
	"testing"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/channel"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trapezoidFile = "GSSHA_CHAN\n" +
	"ALPHA       1.000000\n" +
	"BETA        1.000000\n" +
	"THETA       1.000000\n" +
	"LINKS       2\n" +
	"MAXNODES    3\n" +
	"CONNECT    1    2    0\n" +
	"CONNECT    2    0    1    1\n" +
	"\n" +
	"LINK           1\n" +
	"DX             90.000000\n" +
	"TRAPEZOID\n" +
	"NODES          2\n" +
	"NODE 1\n" +
	"X_Y  100.000000 200.000000\n" +
	"ELEV 5.500000\n" +
	"XSEC\n" +
	"MANNINGS_N     0.035000\n" +
	"BOTTOM_WIDTH   4.000000\n" +
	"BANKFULL_DEPTH 1.500000\n" +
	"SIDE_SLOPE     2.000000\n" +
	"NODE 2\n" +
	"X_Y  190.000000 200.000000\n" +
	"ELEV 5.250000\n" +
	"\n" +
	"LINK           2\n" +
	"DX             90.000000\n" +
	"BREAKPOINT\n" +
	"NODES          2\n" +
	"NODE 1\n" +
	"X_Y  190.000000 200.000000\n" +
	"ELEV 5.250000\n" +
	"XSEC\n" +
	"MANNINGS_N     0.040000\n" +
	"NPAIRS         3\n" +
	"NUM_INTERP     10\n" +
	"ERODE\n" +
	"X1   0.000000 2.000000\n" +
	"X1   2.500000 0.000000\n" +
	"X1   5.000000 2.000000\n" +
	"NODE 2\n" +
	"X_Y  280.000000 200.000000\n" +
	"ELEV 5.000000\n" +
	"\n"

func TestParse_TrapezoidAndBreakpoint(t *testing.T) {
	net, diags, err := channel.Parse(strings.NewReader(trapezoidFile), nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, 1.0, net.Alpha)
	assert.Equal(t, 2, net.Links)
	assert.Equal(t, 3, net.MaxNodes)
	require.Len(t, net.StreamLinks, 2)

	trap := net.StreamLinks[0]
	assert.Equal(t, 1, trap.Number)
	assert.Equal(t, "TRAPEZOID", trap.Type)
	assert.Equal(t, 2, trap.NumElements)
	assert.Equal(t, 90.0, trap.DX)
	assert.Equal(t, 2, trap.DownstreamID)
	assert.Equal(t, 0, trap.NumUpstream)
	require.NotNil(t, trap.Trapezoid)
	assert.Equal(t, 0.035, trap.Trapezoid.ManningsN)
	assert.Equal(t, 4.0, trap.Trapezoid.BottomWidth)
	require.Len(t, trap.Nodes, 2)
	assert.Equal(t, 5.25, trap.Nodes[1].Elevation)

	bp := net.StreamLinks[1]
	assert.Equal(t, "BREAKPOINT", bp.Type)
	assert.Equal(t, 0, bp.DownstreamID)
	assert.Equal(t, []int{1}, bp.UpstreamIDs)
	require.NotNil(t, bp.Breakpoint)
	assert.Equal(t, 3, bp.Breakpoint.NumPairs)
	assert.Equal(t, 10, bp.Breakpoint.NumInterp)
	assert.True(t, bp.Breakpoint.Erode)
	require.Len(t, bp.Breakpoint.Breakpoints, 3)
	assert.Equal(t, 2.5, bp.Breakpoint.Breakpoints[1].X)
}

func TestParse_ErodeCompositeTypeSetsFlags(t *testing.T) {
	input := strings.Replace(trapezoidFile, "TRAPEZOID\n", "TRAPEZOID_ERODE_SUBSURFACE\n", 1)

	net, _, err := channel.Parse(strings.NewReader(input), nil)
	require.NoError(t, err)

	link := net.StreamLinks[0]
	assert.Equal(t, "TRAPEZOID_ERODE_SUBSURFACE", link.Type)
	assert.True(t, link.Erode)
	assert.True(t, link.Subsurface)
}

func TestParse_ConnectivityMismatch(t *testing.T) {
	input := strings.Replace(trapezoidFile, "CONNECT    2    0    1    1\n", "", 1)

	_, _, err := channel.Parse(strings.NewReader(input), nil)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
	assert.Contains(t, err.Error(), "connectivity mismatch")
}

func TestParse_MissingHeader(t *testing.T) {
	input := strings.TrimPrefix(trapezoidFile, "GSSHA_CHAN\n")

	_, _, err := channel.Parse(strings.NewReader(input), nil)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
}

func TestRoundTrip_ParseWriteParse(t *testing.T) {
	net, _, err := channel.Parse(strings.NewReader(trapezoidFile), nil)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, channel.Write(&out, net, nil))

	reparsed, _, err := channel.Parse(strings.NewReader(out.String()), nil)
	require.NoError(t, err)

	if diff := cmp.Diff(net, reparsed); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestWrite_StructureLink(t *testing.T) {
	crest := 10.0
	elev := 6.2
	net := &channel.Network{
		Alpha: 1, Beta: 1, Theta: 1, Links: 1, MaxNodes: 1,
		StreamLinks: []*channel.StreamLink{{
			Number:      1,
			Type:        "STRUCTURE",
			NumElements: 1,
			Weirs: []channel.Weir{{
				Type:              "WEIR",
				CrestLength:       &crest,
				CrestLowElevation: &elev,
			}},
		}},
	}

	var out strings.Builder
	require.NoError(t, channel.Write(&out, net, nil))

	text := out.String()
	assert.Contains(t, text, "STRUCTURE\nNUMSTRUCTS     1\n")
	assert.Contains(t, text, "STRUCTTYPE     WEIR\n")
	assert.Contains(t, text, "CREST_LENGTH             10.000000\n")
	assert.Contains(t, text, "CREST_LOW_ELEV           6.200000\n")
	assert.NotContains(t, text, "DISCHARGE_COEFF_FORWARD")
}

func TestRoundTrip_ReservoirLink(t *testing.T) {
	input := "GSSHA_CHAN\n" +
		"ALPHA       1.000000\n" +
		"BETA        1.000000\n" +
		"THETA       1.000000\n" +
		"LINKS       1\n" +
		"MAXNODES    1\n" +
		"CONNECT    1    0    0\n" +
		"\n" +
		"LINK           1\n" +
		"RESERVOIR\n" +
		"RES_INITWSE      12.000000\n" +
		"RES_MINWSE       10.000000\n" +
		"RES_MAXWSE       14.000000\n" +
		"RES_NUMPTS       3\n" +
		"5  6     5  7     6  7\n" +
		"\n"

	net, _, err := channel.Parse(strings.NewReader(input), nil)
	require.NoError(t, err)

	link := net.StreamLinks[0]
	assert.Equal(t, "RESERVOIR", link.Type)
	require.NotNil(t, link.Reservoir)
	assert.Equal(t, 12.0, link.Reservoir.InitWSE)
	want := []channel.ReservoirPoint{{I: 5, J: 6}, {I: 5, J: 7}, {I: 6, J: 7}}
	assert.Equal(t, want, link.Reservoir.Points)

	var out strings.Builder
	require.NoError(t, channel.Write(&out, net, nil))

	reparsed, _, err := channel.Parse(strings.NewReader(out.String()), nil)
	require.NoError(t, err)
	if diff := cmp.Diff(net, reparsed); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestParse_ReplacementParameter(t *testing.T) {
	params := &gssha.ReplaceParams{Targets: []gssha.TargetParameter{
		{ID: 1, Name: "ROUGH", Format: "%.6f"},
	}}
	input := strings.Replace(trapezoidFile, "MANNINGS_N     0.035000\n", "MANNINGS_N     [ROUGH]\n", 1)

	net, _, err := channel.Parse(strings.NewReader(input), params)
	require.NoError(t, err)
	assert.Equal(t, -1.0, net.StreamLinks[0].Trapezoid.ManningsN)

	var out strings.Builder
	require.NoError(t, channel.Write(&out, net, params))
	assert.Contains(t, out.String(), "MANNINGS_N     ROUGH\n")
}
