package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies a GSSHA model file grammar.
type Kind string

const (
	KindChannel     Kind = "channel"
	KindMapTable    Kind = "map_table"
	KindPrecip      Kind = "precipitation"
	KindPipeNetwork Kind = "pipe_network"
	KindDataset     Kind = "dataset"
	KindUnknown     Kind = "unknown"
)

var kindByExtension = map[string]Kind{
	".cif": KindChannel,
	".cmt": KindMapTable,
	".gag": KindPrecip,
	".spn": KindPipeNetwork,
	".dep": KindDataset,
	".swe": KindDataset,
	".wms": KindDataset,
}

// DetectKind maps a file path to its grammar by extension.
func DetectKind(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindUnknown
}

// ModelFile is one file picked up from the drop directory, not yet parsed.
type ModelFile struct {
	Path    string
	Kind    Kind
	Data    []byte
	ModTime time.Time

	// Commit acknowledges the file after a successful (or permanently
	// failed) conversion, typically by moving it out of the drop directory.
	Commit func(ctx context.Context) error
}

// ConvertedFile is the normalized output of one conversion.
type ConvertedFile struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	SourcePath  string   `json:"source_path"`
	Payload     Payload  `json:"payload"`
	Canonical   []byte   `json:"canonical"`
	Stable      bool     `json:"stable"`
	Diagnostics []string `json:"diagnostics,omitempty"`

	ConvertedAt time.Time `json:"converted_at"`
}

// generateID produces a deterministic ID from the file's key fields.
// Deterministic IDs enable idempotent upserts downstream and replay safety:
// reprocessing the same file contents produces the same ID.
func generateID(kind Kind, path string, data []byte) string {
	content := sha256.Sum256(data)
	input := fmt.Sprintf("%s|%s|%s", kind, path, hex.EncodeToString(content[:]))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8])
}
