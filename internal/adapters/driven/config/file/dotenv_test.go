package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_DoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CITEQA_TEST_NEW=from-file\nCITEQA_TEST_SET=from-file\n"), 0600))
	t.Setenv("CITEQA_TEST_SET", "from-process")
	t.Setenv("CITEQA_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("CITEQA_TEST_NEW"))
	t.Chdir(t.TempDir())

	require.NoError(t, LoadDotEnv(dir))

	assert.Equal(t, "from-file", os.Getenv("CITEQA_TEST_NEW"))
	assert.Equal(t, "from-process", os.Getenv("CITEQA_TEST_SET"))
}

func TestLoadDotEnv_MissingFilesAreSkipped(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.NoError(t, LoadDotEnv(t.TempDir()))
}
