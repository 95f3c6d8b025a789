package precip

import (
	"sort"
	"time"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
)

// Record is one normalized precipitation observation: the zero-based gage
// position within the event, the value card type, and the timestamp.
type Record struct {
	Gage  int
	Type  string
	Time  time.Time
	Value float64
}

// Records flattens the event's value lines into normalized observations.
func (e *Event) Records() []Record {
	var recs []Record
	for _, line := range e.Lines {
		for gage, v := range line.Values {
			recs = append(recs, Record{Gage: gage, Type: line.Type, Time: line.Time, Value: v})
		}
	}
	return recs
}

// SetRecords rebuilds the event's value lines from normalized observations,
// grouping by (timestamp, type) and ordering values by gage position.
// Every group must supply a value for every gage.
func (e *Event) SetRecords(recs []Record) error {
	type groupKey struct {
		t   time.Time
		typ string
	}
	groups := make(map[groupKey][]Record)
	var order []groupKey
	for _, rec := range recs {
		k := groupKey{rec.Time, rec.Type}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	lines := make([]ValueLine, 0, len(order))
	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Gage < group[j].Gage })
		if len(group) != e.NumGages {
			return gssha.Malformedf("event %q: %d values for %s at %s, want one per gage (%d)",
				e.Description, len(group), k.typ, k.t.Format("2006-01-02 15:04"), e.NumGages)
		}
		line := ValueLine{Type: k.typ, Time: k.t, Values: make([]float64, 0, len(group))}
		for _, rec := range group {
			line.Values = append(line.Values, rec.Value)
		}
		lines = append(lines, line)
	}
	e.Lines = lines
	return nil
}
