package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, c)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmerctx.json")
	body := `{"log_file":"run.log","log_level":"debug","sqlite_path":"ctx.db","progress":true}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{LogFile: "run.log", LogLevel: "debug", SQLitePath: "ctx.db", Progress: true}, c)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"kmer_size":3}`), 0o644))
	_, err = LoadConfig(unknown)
	assert.Error(t, err)
}
