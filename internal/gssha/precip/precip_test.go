package precip_test

import (
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/precip"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gagFile = "EVENT \"Hurricane Event\"\n" +
	"NRGAG 2\n" +
	"NRPDS 3\n" +
	"COORD 368261.0 3882204.0 \"center of gage HL-83\"\n" +
	"COORD 368262.0 3882205.0 \"center of gage HL-84\"\n" +
	"GAGES 2016 0010 02 04 30 0.000 0.000\n" +
	"GAGES 2016 10 02 05 00 0.010 0.023\n" +
	"GAGES 2016 10 02 05 30 0.190 0.150\n"

func TestParse_Event(t *testing.T) {
	file, err := precip.Parse(strings.NewReader(gagFile), nil)
	require.NoError(t, err)
	require.Len(t, file.Events, 1)

	event := file.Events[0]
	assert.Equal(t, "Hurricane Event", event.Description)
	assert.Equal(t, 2, event.NumGages)
	assert.Equal(t, 3, event.NumPeriods)

	require.Len(t, event.Gages, 2)
	assert.Equal(t, 368261.0, event.Gages[0].X)
	assert.Equal(t, "center of gage HL-83", event.Gages[0].Description)

	require.Len(t, event.Lines, 3)
	assert.Equal(t, "GAGES", event.Lines[0].Type)
	assert.Equal(t, time.Date(2016, 10, 2, 4, 30, 0, 0, time.UTC), event.Lines[0].Time)
	assert.Equal(t, []float64{0.01, 0.023}, event.Lines[1].Values)
}

func TestWrite_Layout(t *testing.T) {
	file, err := precip.Parse(strings.NewReader(gagFile), nil)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, precip.Write(&out, file, nil))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "EVENT \"Hurricane Event\"\nNRGAG 2\nNRPDS 3\n"))
	assert.Contains(t, text, "COORD 368261.0 3882204.0 \"center of gage HL-83\"\n")
	assert.Contains(t, text, "GAGES 2016 10 02 04 30 0.000 0.000\n")
	assert.Contains(t, text, "GAGES 2016 10 02 05 30 0.190 0.150\n")
}

func TestRoundTrip_WriteIsStable(t *testing.T) {
	file, err := precip.Parse(strings.NewReader(gagFile), nil)
	require.NoError(t, err)

	var first strings.Builder
	require.NoError(t, precip.Write(&first, file, nil))

	reparsed, err := precip.Parse(strings.NewReader(first.String()), nil)
	require.NoError(t, err)

	var second strings.Builder
	require.NoError(t, precip.Write(&second, reparsed, nil))
	assert.Equal(t, first.String(), second.String())

	if diff := cmp.Diff(file, reparsed); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestParse_MultipleEvents(t *testing.T) {
	input := gagFile +
		"EVENT \"Second Event\"\n" +
		"NRGAG 0\n" +
		"NRPDS 0\n"

	file, err := precip.Parse(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, file.Events, 2)
	assert.Equal(t, "Second Event", file.Events[1].Description)
	assert.Empty(t, file.Events[1].Gages)

	var out strings.Builder
	require.NoError(t, precip.Write(&out, file, nil))
	assert.Contains(t, out.String(), "EVENT \"Second Event\"\nNRGAG 0\nNRPDS 0\n")
}

func TestRecords_PivotRoundTrip(t *testing.T) {
	file, err := precip.Parse(strings.NewReader(gagFile), nil)
	require.NoError(t, err)
	event := file.Events[0]

	recs := event.Records()
	require.Len(t, recs, 6)
	assert.Equal(t, precip.Record{Gage: 1, Type: "GAGES", Time: event.Lines[0].Time, Value: 0}, recs[1])

	want := append([]precip.ValueLine(nil), event.Lines...)
	require.NoError(t, event.SetRecords(recs))
	assert.Equal(t, want, event.Lines)
}

func TestSetRecords_MissingGageValueFails(t *testing.T) {
	file, err := precip.Parse(strings.NewReader(gagFile), nil)
	require.NoError(t, err)
	event := file.Events[0]

	recs := event.Records()
	err = event.SetRecords(recs[:len(recs)-1])
	require.ErrorIs(t, err, gssha.ErrMalformedInput)
}

func TestParse_ReplacementParameter(t *testing.T) {
	params := &gssha.ReplaceParams{Targets: []gssha.TargetParameter{
		{ID: 2, Name: "PEAK_RATE", Format: "%.3f"},
	}}
	input := strings.Replace(gagFile, "0.190", "[PEAK_RATE]", 1)

	file, err := precip.Parse(strings.NewReader(input), params)
	require.NoError(t, err)
	assert.Equal(t, -2.0, file.Events[0].Lines[2].Values[0])

	var out strings.Builder
	require.NoError(t, precip.Write(&out, file, params))
	assert.Contains(t, out.String(), "GAGES 2016 10 02 05 30 PEAK_RATE 0.150\n")
}
