package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laolaw-rag/internal/rag"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "none.toml"))
	for _, key := range []string{"INDEX_BACKEND", "INDEX_PATH", "LLM_PROVIDER", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestBuild_EmptyDirectory(t *testing.T) {
	isolateEnv(t)
	t.Setenv("INDEX_BACKEND", "file")
	indexPath := filepath.Join(t.TempDir(), "db_vector")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"build", "--dir", t.TempDir(), "--index-path", indexPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var report rag.BuildReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Zero(t, report.Files)
	assert.FileExists(t, filepath.Join(indexPath, "index.json"))

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"stats", "--index-path", indexPath})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "records: 0")
}

func TestBuild_MissingDirectory(t *testing.T) {
	isolateEnv(t)
	t.Setenv("INDEX_BACKEND", "file")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"build", "--dir", filepath.Join(t.TempDir(), "missing"), "--index-path", t.TempDir()})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, rag.ErrConfiguration)
}
