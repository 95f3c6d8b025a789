package domain

import (
	"bytes"
	"fmt"

	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/channel"
	"github.com/couchcryptid/gssha-etl/internal/gssha/dataset"
	"github.com/couchcryptid/gssha-etl/internal/gssha/maptable"
	"github.com/couchcryptid/gssha-etl/internal/gssha/pipenet"
	"github.com/couchcryptid/gssha-etl/internal/gssha/precip"
)

// Payload carries the parsed record tree; exactly one field is set,
// matching the file's Kind.
type Payload struct {
	Channel     *channel.Network `json:"channel,omitempty"`
	MapTables   *maptable.File   `json:"map_tables,omitempty"`
	Precip      *precip.File     `json:"precipitation,omitempty"`
	PipeNetwork *pipenet.Network `json:"pipe_network,omitempty"`
	Dataset     *dataset.File    `json:"dataset,omitempty"`
}

// ConvertOptions carries the cross-file inputs a conversion needs: the
// replacement parameter set shared by the whole run, and the grid column
// count for dataset reshaping.
type ConvertOptions struct {
	Params      *gssha.ReplaceParams
	GridColumns int
}

// Convert parses a model file, re-serializes it, and verifies the output is
// stable: serializing the reparse of the canonical text must reproduce it
// byte for byte.
func Convert(file ModelFile, opts ConvertOptions) (ConvertedFile, error) {
	out := ConvertedFile{
		ID:          generateID(file.Kind, file.Path, file.Data),
		Kind:        file.Kind,
		SourcePath:  file.Path,
		ConvertedAt: clock.Now().UTC(),
	}

	payload, diags, err := parsePayload(file.Kind, file.Data, opts)
	if err != nil {
		return out, fmt.Errorf("convert %s: %w", file.Path, err)
	}
	out.Payload = payload
	for _, d := range diags {
		out.Diagnostics = append(out.Diagnostics, d.Level.String()+": "+d.Message)
	}

	if out.Canonical, err = serialize(out.Payload, opts); err != nil {
		return out, fmt.Errorf("serialize %s: %w", file.Path, err)
	}
	out.Stable, err = checkStable(file.Kind, out.Canonical, opts)
	if err != nil {
		return out, fmt.Errorf("round trip %s: %w", file.Path, err)
	}
	return out, nil
}

func parsePayload(kind Kind, data []byte, opts ConvertOptions) (Payload, gssha.Diagnostics, error) {
	var (
		p     Payload
		diags gssha.Diagnostics
		err   error
	)
	switch kind {
	case KindChannel:
		p.Channel, diags, err = channel.Parse(bytes.NewReader(data), opts.Params)
	case KindMapTable:
		p.MapTables, diags, err = maptable.Parse(bytes.NewReader(data), opts.Params)
	case KindPrecip:
		p.Precip, err = precip.Parse(bytes.NewReader(data), opts.Params)
	case KindPipeNetwork:
		p.PipeNetwork, err = pipenet.Parse(bytes.NewReader(data), opts.Params)
		if err == nil {
			err = p.PipeNetwork.Resolve()
		}
	case KindDataset:
		p.Dataset, err = dataset.Parse(bytes.NewReader(data), opts.GridColumns)
	default:
		err = fmt.Errorf("unrecognized file kind %q", kind)
	}
	return p, diags, err
}

func serialize(p Payload, opts ConvertOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch {
	case p.Channel != nil:
		err = channel.Write(&buf, p.Channel, opts.Params)
	case p.MapTables != nil:
		err = maptable.Write(&buf, p.MapTables, opts.Params)
	case p.Precip != nil:
		err = precip.Write(&buf, p.Precip, opts.Params)
	case p.PipeNetwork != nil:
		err = pipenet.Write(&buf, p.PipeNetwork, opts.Params)
	case p.Dataset != nil:
		err = dataset.Write(&buf, p.Dataset)
	}
	return buf.Bytes(), err
}

// checkStable reparses the canonical text and serializes it again; a stable
// codec reproduces the canonical bytes exactly.
func checkStable(kind Kind, canonical []byte, opts ConvertOptions) (bool, error) {
	payload, _, err := parsePayload(kind, canonical, opts)
	if err != nil {
		return false, err
	}
	second, err := serialize(payload, opts)
	if err != nil {
		return false, err
	}
	return bytes.Equal(canonical, second), nil
}
