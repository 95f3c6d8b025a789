package dataset_test

import (
	"strings"
	"testing"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/dataset"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarFile() string {
	lines := []string{
		"DATASET",
		"OBJTYPE \"mesh2d\"",
		"BEGSCL",
		"OBJID 1",
		"ND 4",
		"NC 4",
		"NAME depth",
		"TS 1 0.0",
		"1", "1", "0", "1",
		"0.000000", "0.250000", "0.000000", "1.500000",
		"TS 0 3600.0",
		"0.100000", "0.350000", "0.000000", "1.250000",
		"ENDDS",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParse_ScalarDataset(t *testing.T) {
	file, err := dataset.Parse(strings.NewReader(scalarFile()), 2)
	require.NoError(t, err)

	assert.Equal(t, dataset.ScalarType, file.Type)
	assert.Equal(t, "\"mesh2d\"", file.ObjectType)
	assert.Equal(t, 1, file.ObjectID)
	assert.Equal(t, 4, file.NumberData)
	assert.Equal(t, 4, file.NumberCells)
	assert.Equal(t, "depth", file.Name)

	require.Len(t, file.TimeSteps, 2)

	first := file.TimeSteps[0]
	assert.Equal(t, 1, first.Status)
	assert.Equal(t, 0.0, first.Timestamp)
	assert.Equal(t, []int{1, 1, 0, 1}, first.StatusCells)
	assert.Equal(t, [][]float64{{0, 0.25}, {0, 1.5}}, first.Values)

	second := file.TimeSteps[1]
	assert.Equal(t, 0, second.Status)
	assert.Equal(t, 3600.0, second.Timestamp)
	assert.Empty(t, second.StatusCells)
	assert.Equal(t, [][]float64{{0.1, 0.35}, {0, 1.25}}, second.Values)
}

func TestWrite_CRLFAndLayout(t *testing.T) {
	file, err := dataset.Parse(strings.NewReader(scalarFile()), 2)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, dataset.Write(&out, file))

	text := out.String()
	assert.Equal(t, scalarFile(), text)
	assert.NotContains(t, strings.ReplaceAll(text, "\r\n", ""), "\n")
}

func TestRoundTrip_ParseWriteParse(t *testing.T) {
	file, err := dataset.Parse(strings.NewReader(scalarFile()), 2)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, dataset.Write(&out, file))

	reparsed, err := dataset.Parse(strings.NewReader(out.String()), 2)
	require.NoError(t, err)
	if diff := cmp.Diff(file, reparsed); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestParse_VectorHeader(t *testing.T) {
	input := strings.Join([]string{
		"DATASET",
		"VECTYPE wind",
		"BEGVEC",
		"OBJID 2",
		"ND 0",
		"NC 0",
		"NAME gusts",
		"ENDDS",
	}, "\r\n") + "\r\n"

	file, err := dataset.Parse(strings.NewReader(input), 1)
	require.NoError(t, err)
	assert.Equal(t, dataset.VectorType, file.Type)
	assert.Equal(t, "wind", file.VectorType)
	assert.Empty(t, file.TimeSteps)
}

func TestParse_BadColumnCount(t *testing.T) {
	_, err := dataset.Parse(strings.NewReader(scalarFile()), 0)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)

	_, err = dataset.Parse(strings.NewReader(scalarFile()), 3)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
	assert.Contains(t, err.Error(), "columns")
}

func TestParse_ShortStatusArrayFails(t *testing.T) {
	input := strings.Replace(scalarFile(), "1\r\n1\r\n0\r\n1\r\n", "1\r\n1\r\n", 1)

	_, err := dataset.Parse(strings.NewReader(input), 2)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
	assert.Contains(t, err.Error(), "status cell")
}

func TestParse_MissingTypeTagFails(t *testing.T) {
	input := strings.Replace(scalarFile(), "BEGSCL\r\n", "", 1)

	_, err := dataset.Parse(strings.NewReader(input), 2)
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
}
