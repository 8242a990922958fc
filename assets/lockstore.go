package assets

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"
)

// DefaultLockRoot holds one lock directory per (server, import path) job.
const DefaultLockRoot = "/tmp/acmd_assets_ingest"

// HashJob names the lock directory for an import: the first 8 hex characters of
// sha1("<server>:<path>").  It has to be stable across runs so an interrupted import resumes.
func HashJob(serverIdentity, importPath string) string {
	sum := sha1.Sum([]byte(serverIdentity + ":" + importPath))
	return hex.EncodeToString(sum[:])[:8]
}

// ResolveLockDir returns explicit (with ~ expanded) if given, otherwise the hashed directory
// under DefaultLockRoot.
func ResolveLockDir(explicit, serverIdentity, importPath string) (string, error) {
	if explicit != "" {
		dir, err := homedir.Expand(explicit)
		if err != nil {
			return "", fmt.Errorf("assets: couldn't expand lock dir %s: %w", explicit, err)
		}
		return filepath.Clean(dir), nil
	}
	return filepath.Join(DefaultLockRoot, HashJob(serverIdentity, importPath)), nil
}

// LockStore records which local files have already been uploaded, as zero-byte marker files
// mirroring the local path under Root.  Markers are never removed here; delete them by hand to
// force a re-upload.
type LockStore struct {
	Root string
}

// Path is the marker location for localFile: Root joined with its absolute path minus the leading
// separator.  Relative paths are made absolute first, so no marker lands outside Root.
func (s LockStore) Path(localFile string) (string, error) {
	abs, err := filepath.Abs(localFile)
	if err != nil {
		return "", fmt.Errorf("assets: couldn't resolve %s: %w", localFile, err)
	}
	return filepath.Join(s.Root, strings.TrimPrefix(abs, string(filepath.Separator))), nil
}

func (s LockStore) Exists(lockPath string) (bool, error) {
	_, err := os.Stat(lockPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("assets: couldn't stat lock file %s: %w", lockPath, err)
}

// Mark creates the marker, and any missing parent directories.
func (s LockStore) Mark(lockPath string) error {
	dir := filepath.Dir(lockPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("assets: couldn't create directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("assets: couldn't create lock file %s: %w", lockPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("assets: couldn't close lock file %s: %w", lockPath, err)
	}
	return nil
}

// Acquire takes an advisory lock on <Root>.lock so that two imports can't work the same lock
// directory at once.  Call the returned func to let go.
func (s LockStore) Acquire() (func() error, error) {
	root := filepath.Clean(s.Root)
	if err := os.MkdirAll(filepath.Dir(root), 0755); err != nil {
		return nil, fmt.Errorf("assets: couldn't create directory %s: %w", filepath.Dir(root), err)
	}

	fl := flock.New(root + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("assets: couldn't lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("assets: another import is already using %s", root)
	}

	return fl.Unlock, nil
}
