// Package token implements the keyword-chunked tokenizer underlying every
// GSSHA file codec. A chunk is a keyword line plus the non-keyword lines
// that follow it; one Split pass files chunks under their keywords. Grammar
// parsers call Split recursively on a chunk's own lines with a narrower
// keyword vocabulary to expose nested structure.
package token

import (
	"bufio"
	"io"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
)

// Chunk is an ordered, non-empty run of lines. The first line's
// discriminant equals the keyword the chunk is filed under.
type Chunk []string

// Map files chunks under their introducing keyword. Relative order within
// one keyword's list matches file order; order across keywords is not
// preserved. Consumers needing cross-keyword order must reconstruct it from
// the grammar (see the positional pairing in the channel package).
type Map map[string][]Chunk

// Split partitions lines into keyword chunks. Blank lines are skipped. A
// non-keyword line appearing before any keyword line is an orphan and
// returns ErrMalformedInput; there is no chunk it could belong to.
func Split(keywords []string, lines []string) (Map, error) {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}

	chunks := make(Map)
	curKey := ""
	curIdx := -1

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		disc := Discriminant(line)
		if set[disc] {
			chunks[disc] = append(chunks[disc], Chunk{line})
			curKey, curIdx = disc, len(chunks[disc])-1
			continue
		}
		if curIdx < 0 {
			return nil, gssha.Malformedf("orphan line %d: %q precedes any keyword", i+1, strings.TrimSpace(line))
		}
		chunks[curKey][curIdx] = append(chunks[curKey][curIdx], line)
	}

	return chunks, nil
}

// Read scans r into lines and chunks them.
func Read(keywords []string, r io.Reader) (Map, error) {
	lines, err := Lines(r)
	if err != nil {
		return nil, err
	}
	return Split(keywords, lines)
}

// Lines reads r into a slice of lines without terminators.
func Lines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

// Discriminant returns a line's first whitespace-delimited token.
func Discriminant(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Fields splits a line on whitespace while keeping double-quoted runs
// together, with the quotes stripped. An empty quoted pair yields an empty
// field, which the mapping-table grammar uses to mark an absent index map.
func Fields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuote  bool
		hasField bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasField = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasField {
				fields = append(fields, current.String())
				current.Reset()
				hasField = false
			}
		default:
			current.WriteRune(r)
			hasField = true
		}
	}
	if hasField {
		fields = append(fields, current.String())
	}
	return fields
}
