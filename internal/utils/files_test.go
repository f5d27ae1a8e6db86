package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "nested", "report.md")
	require.NoError(t, SafeWriteFile(p, []byte("# hi\n")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"rows": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rows\": 2\n}", string(b))

	_, err = PrettyJSON(make(chan int))
	assert.Error(t, err)
}

func TestSidecarDir(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "report_charts"), SidecarDir(filepath.Join("out", "report.md"), "charts"))
	assert.Equal(t, "report_charts", SidecarDir("report", "charts"))
}
