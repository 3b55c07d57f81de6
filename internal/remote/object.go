package remote

import (
	"context"
	"fmt"
	"time"
)

// RemoteObject is one file of a deposition as seen by the workflow engine.
type RemoteObject struct {
	host Host
	zen  Depositions
}

var _ Object = (*RemoteObject)(nil)

func (o *RemoteObject) Exists(ctx context.Context) (bool, error) {
	files, err := o.zen.ListFiles(ctx)
	if err != nil {
		return false, err
	}
	_, ok := files.Lookup(o.host.LocalFile())
	return ok, nil
}

// Size is the listed size of the remote file, or the expected local size if
// the deposition does not have it.
func (o *RemoteObject) Size(ctx context.Context) (int64, error) {
	files, err := o.zen.ListFiles(ctx)
	if err != nil {
		return 0, err
	}
	if info, ok := files.Lookup(o.host.LocalFile()); ok {
		return info.Size, nil
	}
	return o.host.LocalSize()
}

func (o *RemoteObject) Mtime(context.Context) (time.Time, error) {
	return Epoch, nil
}

func (o *RemoteObject) Download(ctx context.Context) error {
	return o.zen.Download(ctx, o.host.LocalFile())
}

func (o *RemoteObject) Upload(ctx context.Context) error {
	size, err := o.host.LocalSize()
	if err != nil {
		return fmt.Errorf("could not determine size of '%s': %w", o.host.LocalFile(), err)
	}
	return o.zen.Upload(ctx, o.host.LocalFile(), o.host.RemoteFile(), size)
}

func (o *RemoteObject) List(ctx context.Context) ([]string, error) {
	files, err := o.zen.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return files.Names(), nil
}

func (o *RemoteObject) Name() string {
	return o.host.LocalFile()
}
