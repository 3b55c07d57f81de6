// Package remote exposes a Zenodo deposition through the remote file
// interface used by workflow rules.
package remote

import (
	"context"
	"time"

	"github.com/torfstack/zenremote/internal/zenodo"
)

// Epoch is reported as the modification time of every remote file. Zenodo has
// no per-file timestamps, so remote copies are always treated as older than
// any local file.
var Epoch = time.Unix(0, 0).UTC()

// Object is the set of operations a workflow engine invokes on a remote file.
type Object interface {
	Exists(ctx context.Context) (bool, error)
	Size(ctx context.Context) (int64, error)
	Mtime(ctx context.Context) (time.Time, error)
	Download(ctx context.Context) error
	Upload(ctx context.Context) error
	List(ctx context.Context) ([]string, error)
	Name() string
}

// Host is what the workflow engine knows about the local side of a remote
// file.
type Host interface {
	// LocalFile is the path the remote file is materialized at.
	LocalFile() string
	// RemoteFile is the name the file is stored under in the deposition.
	RemoteFile() string
	// LocalSize is the expected size of the local file.
	LocalSize() (int64, error)
}

// Depositions is implemented by *zenodo.Manager.
type Depositions interface {
	ListFiles(ctx context.Context) (zenodo.Files, error)
	Download(ctx context.Context, localPath string) error
	Upload(ctx context.Context, localPath, remoteName string, size int64) error
}

var _ Depositions = (*zenodo.Manager)(nil)
