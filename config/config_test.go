package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.toml")
	content := "ListenAddr = \":40000\"\nHTTPAddr = \":9000\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":40000", cfg.ListenAddr)
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, 1, cfg.GroupCount) // untouched field keeps its default
}

func TestEnsureDefaultSeedsMissingFile(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.toml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("ListenAddr = \":1\"\n"), 0644))

	target := filepath.Join(dir, "node.toml")
	require.NoError(t, EnsureDefault(target, defaultPath))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(data), "ListenAddr")
}

func TestEnsureDefaultLeavesExistingFileAlone(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.toml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("ListenAddr = \":1\"\n"), 0644))

	target := filepath.Join(dir, "node.toml")
	require.NoError(t, os.WriteFile(target, []byte("ListenAddr = \":2\"\n"), 0644))

	require.NoError(t, EnsureDefault(target, defaultPath))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(data), ":2")
}
