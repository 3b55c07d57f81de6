package remote

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalPath is a Host backed by a file on the local filesystem.
type LocalPath struct {
	Path string
	// Remote is the name inside the deposition; the basename of Path when empty.
	Remote string
}

func (l LocalPath) LocalFile() string {
	return filepath.Clean(l.Path)
}

func (l LocalPath) RemoteFile() string {
	if l.Remote != "" {
		return l.Remote
	}
	return filepath.Base(l.Path)
}

func (l LocalPath) LocalSize() (int64, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return 0, fmt.Errorf("could not stat '%s': %w", l.Path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("'%s' is a directory", l.Path)
	}
	return info.Size(), nil
}
