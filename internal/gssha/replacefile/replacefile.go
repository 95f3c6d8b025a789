// Package replacefile reads and writes the replacement parameter file: a
// declared parameter count followed by one "name format" line per target
// parameter. The resulting set drives bracket-token substitution in every
// other codec.
package replacefile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/token"
)

// Parse reads a replacement parameter file. Target ids are 1-based and
// assigned in declaration order.
func Parse(r io.Reader) (*gssha.ReplaceParams, error) {
	lines, err := token.Lines(r)
	if err != nil {
		return nil, err
	}

	params := &gssha.ReplaceParams{}
	declared := -1
	for _, line := range lines {
		fields := strings.Fields(line)
		switch len(fields) {
		case 0:
			continue
		case 1:
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, gssha.Malformedf("parameter count %q", fields[0])
			}
			declared = n
		default:
			params.Targets = append(params.Targets, gssha.TargetParameter{
				ID:     len(params.Targets) + 1,
				Name:   fields[0],
				Format: fields[1],
			})
		}
	}
	if declared >= 0 && declared != len(params.Targets) {
		return nil, gssha.Malformedf("declared %d parameters, found %d", declared, len(params.Targets))
	}
	return params, nil
}

// Write serializes a replacement parameter file.
func Write(w io.Writer, params *gssha.ReplaceParams) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(params.Targets))
	for _, t := range params.Targets {
		fmt.Fprintf(&b, "%s %s\n", t.Name, t.Format)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
