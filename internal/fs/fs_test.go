package fs

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/log"
)

func testService(t *testing.T) (*Service, *config.Settings) {
	t.Helper()

	cfg := &config.Settings{UnitDir: t.TempDir()}
	provider := config.NewDefaultConfigProvider()
	provider.SetConfig(cfg)

	logger := log.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(provider, logger), cfg
}

func TestUnitFilePath(t *testing.T) {
	s, cfg := testService(t)

	assert.Equal(t, filepath.Join(cfg.UnitDir, "update-seeds.timer"), s.UnitFilePath("update-seeds.timer"))
	assert.Equal(t, cfg.UnitDir, s.UnitDir())
}

func TestHasUnitChanged(t *testing.T) {
	s, _ := testService(t)
	path := s.UnitFilePath("update-seeds.service")

	t.Run("missing file counts as changed", func(t *testing.T) {
		assert.True(t, s.HasUnitChanged(path, "[Unit]\n"))
	})

	require.NoError(t, s.WriteUnitFile(path, "[Unit]\n"))

	t.Run("identical content is unchanged", func(t *testing.T) {
		assert.False(t, s.HasUnitChanged(path, "[Unit]\n"))
	})

	t.Run("different content is changed", func(t *testing.T) {
		assert.True(t, s.HasUnitChanged(path, "[Unit]\nDescription=x\n"))
	})
}

func TestWriteUnitFile(t *testing.T) {
	s, _ := testService(t)
	path := s.UnitFilePath("update-seeds.service")

	require.NoError(t, s.WriteUnitFile(path, "[Unit]\nDescription=test\n"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[Unit]\nDescription=test\n", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteUnitFile_LeavesNoTempFiles(t *testing.T) {
	s, cfg := testService(t)
	require.NoError(t, s.WriteUnitFile(s.UnitFilePath("a.service"), "[Unit]\n"))

	entries, err := os.ReadDir(cfg.UnitDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.service", entries[0].Name())
}

func TestRemoveUnitFile(t *testing.T) {
	s, _ := testService(t)
	path := s.UnitFilePath("stale.timer")

	t.Run("missing file is not an error", func(t *testing.T) {
		assert.NoError(t, s.RemoveUnitFile(path))
	})

	require.NoError(t, s.WriteUnitFile(path, "[Timer]\n"))
	require.NoError(t, s.RemoveUnitFile(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestInstallScript(t *testing.T) {
	s, _ := testService(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "update-seeds")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\nexit 0\n"), 0o644))

	dst := filepath.Join(dir, "bin", "update-seeds")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, s.InstallScript(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestInstallScript_MissingSource(t *testing.T) {
	s, _ := testService(t)
	dir := t.TempDir()

	err := s.InstallScript(filepath.Join(dir, "nope"), filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.True(t, IsWriteError(err))
}

func TestInstallFile_CreatesParents(t *testing.T) {
	s, _ := testService(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "staticreports.conf")
	require.NoError(t, os.WriteFile(src, []byte("server {}\n"), 0o644))

	dst := filepath.Join(dir, "etc", "nginx", "conf.d", "staticreports.conf")
	require.NoError(t, s.InstallFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "server {}\n", string(content))
}

func TestEnsureOwnedDir_NoOwner(t *testing.T) {
	s, _ := testService(t)
	path := filepath.Join(t.TempDir(), "www", "seeds")

	require.NoError(t, s.EnsureOwnedDir(path, "", ""))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureOwnedDir_UnknownOwner(t *testing.T) {
	s, _ := testService(t)
	path := filepath.Join(t.TempDir(), "www")

	err := s.EnsureOwnedDir(path, "no-such-user-here", "")
	assert.True(t, IsWriteError(err))
}

func TestWriteCredential(t *testing.T) {
	s, _ := testService(t)
	path := filepath.Join(t.TempDir(), ".config", "lp.oauth")

	require.NoError(t, s.WriteCredential(path, "oauth-token-data", "", ""))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "oauth-token-data", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRemoveIfExists(t *testing.T) {
	s, _ := testService(t)
	path := filepath.Join(t.TempDir(), "default")

	assert.NoError(t, s.RemoveIfExists(path))

	require.NoError(t, os.WriteFile(path, []byte("site"), 0o644))
	require.NoError(t, s.RemoveIfExists(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewWriteError("/etc/systemd/system/a.service", cause)

	assert.Contains(t, err.Error(), "/etc/systemd/system/a.service")
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsWriteError(err))
	assert.False(t, IsWriteError(cause))
}
