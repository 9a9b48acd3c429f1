package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const DefaultExtension = ".rtf"

var (
	ErrDirectoryNotFound   = errors.New("directory not found")
	ErrDirectoryUnreadable = errors.New("directory unreadable")
)

// DirectoryError reports a directory-level failure. Kind is one of
// ErrDirectoryNotFound or ErrDirectoryUnreadable.
type DirectoryError struct {
	Path  string
	Kind  error
	Cause error
}

func (e *DirectoryError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Path, e.Cause)
}

func (e *DirectoryError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

type Result struct {
	// Files holds bare file names in directory listing order.
	Files    []string
	Warnings []string
}

// Candidates lists the regular files directly under dir whose names end in
// ext, compared case-insensitively. Subdirectories are not descended into.
func Candidates(dir, ext string) (Result, error) {
	if strings.TrimSpace(ext) == "" {
		ext = DefaultExtension
	}
	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, &DirectoryError{Path: dir, Kind: ErrDirectoryNotFound, Cause: err}
		}
		return Result{}, &DirectoryError{Path: dir, Kind: ErrDirectoryUnreadable, Cause: err}
	}
	if !st.IsDir() {
		return Result{}, &DirectoryError{Path: dir, Kind: ErrDirectoryUnreadable, Cause: errors.New("not a directory")}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, &DirectoryError{Path: dir, Kind: ErrDirectoryUnreadable, Cause: err}
	}

	res := Result{Files: []string{}}
	for _, e := range entries {
		name := e.Name()
		if !MatchExtension(name, ext) {
			continue
		}
		// follow symlinks so a link to a regular file still counts
		info, statErr := os.Stat(filepath.Join(dir, name))
		if statErr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped unreadable entry %s: %v", name, statErr))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		res.Files = append(res.Files, name)
	}
	return res, nil
}

func MatchExtension(name, ext string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}
