package griddef_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/gssha-etl/internal/griddef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeGrid(t, "columns: 24\nrows: 18\ncell_size: 90.0\nnorth: 4403462.0\nwest: 447580.0\n")

	grid, err := griddef.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, grid.Columns)
	assert.Equal(t, 18, grid.Rows)
	assert.Equal(t, 90.0, grid.CellSize)
}

func TestLoad_MissingColumnsFails(t *testing.T) {
	path := writeGrid(t, "rows: 18\n")

	_, err := griddef.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestLoad_BadYAMLFails(t *testing.T) {
	path := writeGrid(t, "columns: [\n")
	_, err := griddef.Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := griddef.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
