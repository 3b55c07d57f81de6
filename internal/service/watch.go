package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/torfstack/zenremote/internal/local"
	"github.com/torfstack/zenremote/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Watch uploads every file that appears below dir until ctx is done. A file
// is uploaded once it has not changed for the settle delay. Zenodo files
// cannot be replaced, so each path is uploaded at most once per run.
func (s *Service) Watch(ctx context.Context, dir string) error {
	w, err := local.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch: could not create watcher: %w", err)
	}
	defer w.Close()

	logging.Infof("Watching %s for new files to upload to deposition %d", dir, s.Deposition())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(gctx); err != nil {
			return fmt.Errorf("watch: error while running watcher: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.uploadSettled(gctx, dir, w.Events)
		return nil
	})
	return g.Wait()
}

func (s *Service) uploadSettled(ctx context.Context, dir string, events <-chan local.WatchEvent) {
	pending := make(map[string]time.Time)
	uploaded := make(map[string]bool)

	ticker := time.NewTicker(s.watchSettle / 4)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if uploaded[event.Path] {
				logging.Warnf("'%s' changed after it was uploaded; zenodo files cannot be replaced", event.Path)
				continue
			}
			pending[event.Path] = time.Now()

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < s.watchSettle {
					continue
				}
				delete(pending, path)
				uploaded[path] = true
				s.uploadWatched(ctx, dir, path)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) uploadWatched(ctx context.Context, dir, path string) {
	remoteName, err := filepath.Rel(dir, path)
	if err != nil {
		remoteName = filepath.Base(path)
	}
	remoteName = filepath.ToSlash(remoteName)

	if err = s.Upload(ctx, path, remoteName); err != nil {
		logging.Error(fmt.Sprintf("Could not upload '%s'", path), err)
		return
	}
	logging.Infof("Uploaded %s as '%s'", path, remoteName)
}
