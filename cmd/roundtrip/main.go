// Command roundtrip converts GSSHA model files offline and reports whether
// each one survives a parse-write-parse cycle unchanged. It is the
// verification tool for new model projects before they are dropped into the
// ETL watch directory.
//
// Usage:
//
//	go run ./cmd/roundtrip \
//	  -params project.rep \
//	  -columns 24 \
//	  park_city.cif park_city.cmt event_1.gag
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/gssha-etl/internal/domain"
	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/replacefile"
)

func main() {
	paramPath := flag.String("params", "", "optional replacement parameter file")
	columns := flag.Int("columns", 0, "grid column count for dataset files")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: roundtrip [-params file] [-columns n] file...")
		os.Exit(1)
	}

	var params *gssha.ReplaceParams
	if *paramPath != "" {
		var err error
		params, err = loadParams(*paramPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "roundtrip: %s: %v\n", *paramPath, err)
			os.Exit(1)
		}
	}

	opts := domain.ConvertOptions{Params: params, GridColumns: *columns}
	failures := 0
	for _, path := range flag.Args() {
		if !check(path, opts) {
			failures++
		}
	}
	if failures > 0 {
		fmt.Printf("\n%d of %d files failed\n", failures, flag.NArg())
		os.Exit(1)
	}
	fmt.Printf("\nall %d files round-trip cleanly\n", flag.NArg())
}

func check(path string, opts domain.ConvertOptions) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("FAIL  %s: %v\n", path, err)
		return false
	}

	file := domain.ModelFile{Path: path, Kind: domain.DetectKind(path), Data: data}
	if file.Kind == domain.KindUnknown {
		fmt.Printf("SKIP  %s: unrecognized extension\n", path)
		return true
	}

	doc, err := domain.Convert(file, opts)
	if err != nil {
		fmt.Printf("FAIL  %s: %v\n", path, err)
		return false
	}

	for _, d := range doc.Diagnostics {
		fmt.Printf("      %s: %s\n", path, d)
	}
	if !doc.Stable {
		fmt.Printf("FAIL  %s: canonical output does not reproduce itself\n", path)
		return false
	}

	if bytes.Equal(data, doc.Canonical) {
		fmt.Printf("ok    %s (%s, exact round trip, %d bytes)\n", path, doc.Kind, len(data))
	} else {
		fmt.Printf("ok    %s (%s, normalized: %d bytes in, %d bytes canonical)\n",
			path, doc.Kind, len(data), len(doc.Canonical))
	}
	return true
}

func loadParams(path string) (*gssha.ReplaceParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return replacefile.Parse(f)
}
