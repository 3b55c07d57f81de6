package zenodo

import (
	"encoding/json"
	"maps"
	"path/filepath"
	"slices"
)

// FileInfo is a snapshot of one file in a deposition, taken when the
// deposition was listed.
type FileInfo struct {
	Checksum string
	Size     int64
	ID       string
	Download string
}

// Files maps the basename of every file in a deposition to its FileInfo.
type Files map[string]FileInfo

// Lookup finds the entry for the basename of localPath.
func (f Files) Lookup(localPath string) (FileInfo, bool) {
	info, ok := f[filepath.Base(localPath)]
	return info, ok
}

// Names returns the file names in lexical order.
func (f Files) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

type deposition struct {
	ID int64 `json:"id"`
}

type fileEntry struct {
	ID       string      `json:"id"`
	Filename string      `json:"filename"`
	Filesize json.Number `json:"filesize"`
	Checksum string      `json:"checksum"`
	Links    struct {
		Download string `json:"download"`
	} `json:"links"`
}
