// Package fs provides file system operations for unit and script
// installation: change detection, atomic writes, and ownership handling.
package fs

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/canonical/static-reports-operator/internal/config"
	"github.com/canonical/static-reports-operator/internal/log"
)

// WriteError represents a filesystem failure while installing a rendered
// unit or support file.
type WriteError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// NewWriteError creates a new WriteError.
func NewWriteError(path string, cause error) *WriteError {
	return &WriteError{Path: path, Cause: cause}
}

// IsWriteError checks if an error is a WriteError.
func IsWriteError(err error) bool {
	_, ok := err.(*WriteError)
	return ok
}

// Service provides file system operations with configurable paths.
type Service struct {
	configProvider config.Provider
	logger         log.Logger
}

// NewService creates a new filesystem service.
func NewService(configProvider config.Provider, logger log.Logger) *Service {
	return &Service{
		configProvider: configProvider,
		logger:         logger,
	}
}

// UnitFilePath returns the full path for a unit file by its full name,
// e.g. "update-seeds.timer".
func (s *Service) UnitFilePath(unitName string) string {
	return filepath.Join(s.configProvider.GetConfig().UnitDir, unitName)
}

// UnitDir returns the directory rendered unit files are written to.
func (s *Service) UnitDir() string {
	return s.configProvider.GetConfig().UnitDir
}

// HasUnitChanged reports whether the content of a unit file differs from
// what is on disk. A missing or unreadable file counts as changed.
func (s *Service) HasUnitChanged(unitPath, content string) bool {
	existing, err := os.ReadFile(unitPath) //nolint:gosec // Path is internally constructed, not user-controlled
	if err != nil {
		return true
	}

	if string(existing) == content {
		s.logger.Debug("Unit unchanged, skipping", "path", unitPath)
		return false
	}
	return true
}

// WriteUnitFile atomically writes unit content to the given path using a
// temp file and rename, so the service manager never observes a partial
// unit.
func (s *Service) WriteUnitFile(unitPath, content string) error {
	s.logger.Debug("Writing unit file", "path", unitPath)

	if err := os.MkdirAll(filepath.Dir(unitPath), 0o755); err != nil {
		return NewWriteError(unitPath, err)
	}

	if err := atomicWrite(unitPath, []byte(content), 0o644); err != nil {
		return NewWriteError(unitPath, err)
	}
	return nil
}

// RemoveUnitFile removes a unit file; a missing file is not an error.
func (s *Service) RemoveUnitFile(unitPath string) error {
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return NewWriteError(unitPath, err)
	}
	return nil
}

// InstallScript copies a script to its installed path with executable
// permissions.
func (s *Service) InstallScript(src, dst string) error {
	s.logger.Debug("Installing script", "src", src, "dst", dst)

	content, err := os.ReadFile(src) //nolint:gosec // Bundle-relative path from the registry
	if err != nil {
		return NewWriteError(dst, err)
	}

	if err := atomicWrite(dst, content, 0o755); err != nil {
		return NewWriteError(dst, err)
	}
	return nil
}

// InstallFile copies a regular file, such as the nginx site config.
func (s *Service) InstallFile(src, dst string) error {
	s.logger.Debug("Installing file", "src", src, "dst", dst)

	content, err := os.ReadFile(src) //nolint:gosec // Bundle-relative path from configuration
	if err != nil {
		return NewWriteError(dst, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return NewWriteError(dst, err)
	}

	if err := atomicWrite(dst, content, 0o644); err != nil {
		return NewWriteError(dst, err)
	}
	return nil
}

// EnsureOwnedDir creates a directory and, when owner is non-empty, hands
// it to that user and group.
func (s *Service) EnsureOwnedDir(path, owner, group string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return NewWriteError(path, err)
	}
	if owner == "" {
		return nil
	}

	uid, gid, err := lookupIDs(owner, group)
	if err != nil {
		return NewWriteError(path, err)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return NewWriteError(path, err)
	}
	return nil
}

// WriteCredential writes secret content to path with mode 0600 and, when
// owner is non-empty, hands it to that user. The parent directory is
// created as needed.
func (s *Service) WriteCredential(path, content, owner, group string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewWriteError(path, err)
	}

	if err := atomicWrite(path, []byte(content), 0o600); err != nil {
		return NewWriteError(path, err)
	}

	if owner != "" {
		uid, gid, err := lookupIDs(owner, group)
		if err != nil {
			return NewWriteError(path, err)
		}
		if err := os.Chown(path, uid, gid); err != nil {
			return NewWriteError(path, err)
		}
	}

	s.logger.Debug("Credential written", "path", path, "length", len(content))
	return nil
}

// RemoveIfExists removes a file, ignoring a missing one. Used to drop the
// distribution default nginx site.
func (s *Service) RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return NewWriteError(path, err)
	}
	return nil
}

// atomicWrite performs temp file -> fsync -> rename so readers never see a
// partially written file.
func atomicWrite(path string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// lookupIDs resolves a user and group name to numeric IDs. An empty group
// falls back to the user's primary group.
func lookupIDs(owner, group string) (int, int, error) {
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}

	gidStr := u.Gid
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return 0, 0, err
		}
		gidStr = g.Gid
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}
