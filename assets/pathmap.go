package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const damRoot = "/content/dam"

// PathError is a local or remote path the importer refuses to work with.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("assets: %s: %s", e.Path, e.Reason)
}

// DefaultDestination is where an import root lands when no destination is given:
// /content/dam/<basename of the import root>.
func DefaultDestination(importRoot string) string {
	root := filepath.Clean(importRoot)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	base := filepath.Base(root)
	if base == string(filepath.Separator) || base == "." {
		return damRoot
	}
	return path.Join(damRoot, base)
}

// DAMPath returns the remote folder a local file is uploaded into: the file's parent directory,
// taken relative to importRoot segment by segment, re-rooted at destRoot.  The file name itself
// is not part of the result.
func DAMPath(localFile, importRoot, destRoot string) (string, error) {
	if destRoot == "" {
		destRoot = DefaultDestination(importRoot)
	}

	root := filepath.Clean(importRoot)
	dir := filepath.Dir(filepath.Clean(localFile))

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", &PathError{Path: localFile, Reason: fmt.Sprintf("can't relate to import root %s: %v", importRoot, err)}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Path: localFile, Reason: fmt.Sprintf("not under import root %s", importRoot)}
	}

	return path.Join(destRoot, filepath.ToSlash(rel)), nil
}

var allowedPath = regexp.MustCompile(`^[a-zA-Z0-9_/-]+$`)

// CleanPath replaces spaces in a repository path with underscores, and refuses anything else
// outside [a-zA-Z0-9_/-].
func CleanPath(p string) (string, error) {
	ret := strings.ReplaceAll(p, " ", "_")
	if !allowedPath.MatchString(ret) {
		return "", &PathError{Path: p, Reason: "contains disallowed characters"}
	}
	return ret, nil
}

func validDestination(dest string) error {
	if dest == "" {
		return nil
	}
	if !strings.HasPrefix(dest, "/") {
		return &PathError{Path: dest, Reason: "destination must be an absolute repository path"}
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
