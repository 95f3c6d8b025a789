package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gssha-etl/internal/adapter/watch"
	"github.com/couchcryptid/gssha-etl/internal/domain"
	"github.com/couchcryptid/gssha-etl/internal/pipeline"
)

const gagFixture = "EVENT \"short storm\"\n" +
	"NRGAG 1\n" +
	"NRPDS 1\n" +
	"COORD 368261.0 3882204.0 \"center gage\"\n" +
	"GAGES 2016 10 02 05 30 0.150\n"

// TestPipeline_EndToEnd runs the full flow against a real drop directory:
// files land on disk, the watch extractor picks them up, the converter
// parses them, and successful documents reach the loader while the source
// files move to the processed directory.
func TestPipeline_EndToEnd(t *testing.T) {
	dropDir := t.TempDir()
	processedDir := filepath.Join(t.TempDir(), "processed")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	writeSettled(t, dropDir, "drainage.spn", spnFixture)
	writeSettled(t, dropDir, "event_1.gag", gagFixture)

	ext, err := watch.New(dropDir, processedDir, 20*time.Millisecond, logger)
	require.NoError(t, err)
	defer ext.Close()

	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewConverter(nil, 0, logger, newTestMetrics()), ldr, logger, newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return p.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Len(t, ldr.loaded, 2)
	kinds := map[domain.Kind]bool{}
	for _, doc := range ldr.loaded {
		kinds[doc.Kind] = true
		assert.True(t, doc.Stable, doc.SourcePath)
		assert.NotEmpty(t, doc.ID)
	}
	assert.True(t, kinds[domain.KindPipeNetwork])
	assert.True(t, kinds[domain.KindPrecip])

	assert.FileExists(t, filepath.Join(processedDir, "drainage.spn"))
	assert.FileExists(t, filepath.Join(processedDir, "event_1.gag"))
	assert.NoFileExists(t, filepath.Join(dropDir, "drainage.spn"))
}

func writeSettled(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := time.Now().Add(-time.Second)
	require.NoError(t, os.Chtimes(path, old, old))
}
