package gssha_test

import (
	"math"
	"testing"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() *gssha.ReplaceParams {
	return &gssha.ReplaceParams{Targets: []gssha.TargetParameter{
		{ID: 1, Name: "ROUGH", Format: "%.6f"},
		{ID: 2, Name: "DEPTH", Format: "%.6f"},
	}}
}

func TestReadValue(t *testing.T) {
	params := testParams()

	assert.Equal(t, "-2", params.ReadValue("[DEPTH]"))
	assert.Equal(t, "-999999", params.ReadValue("[UNKNOWN]"))
	assert.Equal(t, "0.45", params.ReadValue("0.45"), "plain tokens pass through")
}

func TestReadValue_NilParams(t *testing.T) {
	var params *gssha.ReplaceParams
	assert.Equal(t, "[DEPTH]", params.ReadValue("[DEPTH]"))
}

func TestWriteValue(t *testing.T) {
	params := testParams()

	s, ok := params.WriteValue(-1)
	require.True(t, ok)
	assert.Equal(t, "ROUGH", s)

	s, ok = params.WriteValue(gssha.ReplaceNoValue)
	require.True(t, ok)
	assert.Equal(t, gssha.NoVariable, s)

	_, ok = params.WriteValue(0.45)
	assert.False(t, ok)

	// Negative values without a matching id are ordinary numbers.
	_, ok = params.WriteValue(-7)
	assert.False(t, ok)
	_, ok = params.WriteValue(-1.5)
	assert.False(t, ok)
}

func TestParseFloat(t *testing.T) {
	params := testParams()

	v, err := gssha.ParseFloat("[ROUGH]", params)
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)

	v, err = gssha.ParseFloat("3.25", params)
	require.NoError(t, err)
	assert.Equal(t, 3.25, v)

	_, err = gssha.ParseFloat("abc", nil)
	require.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	params := testParams()

	assert.Equal(t, "DEPTH", gssha.FormatValue(-2, params))
	assert.Equal(t, "0.450000", gssha.FormatValue(0.45, params))
	assert.Equal(t, "0.450000", gssha.FormatValue(0.45, nil))
}

func TestFormatSix_NonFinite(t *testing.T) {
	s, ok := gssha.FormatSix(math.NaN())
	assert.False(t, ok)
	assert.Equal(t, "NaN", s)

	s, ok = gssha.FormatSix(1.0 / 3.0)
	assert.True(t, ok)
	assert.Equal(t, "0.333333", s)
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "368261.5", gssha.FormatCoord(368261.5))
	assert.Equal(t, "10.0", gssha.FormatCoord(10))
}

func TestDiagnostics(t *testing.T) {
	var diags gssha.Diagnostics
	diags.Infof("table %s skipped", "ROUGHNESS")
	diags.Warnf("unknown structure %q", "RULE_CURVE")

	require.Len(t, diags, 2)
	assert.Equal(t, gssha.DiagInfo, diags[0].Level)
	assert.Equal(t, "table ROUGHNESS skipped", diags[0].Message)
	assert.Equal(t, gssha.DiagWarn, diags[1].Level)
}
