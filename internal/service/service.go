package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/torfstack/zenremote/internal/config"
	"github.com/torfstack/zenremote/internal/db"
	"github.com/torfstack/zenremote/internal/logging"
	"github.com/torfstack/zenremote/internal/remote"
	"github.com/torfstack/zenremote/internal/zenodo"
)

const defaultWatchSettle = 2 * time.Second

type Service struct {
	cfg      config.Config
	db       *db.Database
	zen      *zenodo.Manager
	provider *remote.Provider

	watchSettle time.Duration
}

// NewService connects to the configured endpoint. The deposition is taken
// from cfg, else from the one remembered for the endpoint, else a new one is
// created and remembered.
func NewService(ctx context.Context, cfg config.Config, database *db.Database, opts ...zenodo.Option) (*Service, error) {
	if cfg.AccessToken == "" {
		return nil, zenodo.ErrAccessTokenRequired
	}

	endpoint := zenodo.Endpoint(cfg.Sandbox, opts...)
	deposition := cfg.Deposition
	if deposition == 0 {
		remembered, err := database.Deposition(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if remembered != 0 {
			logging.Debugf("Reusing deposition %d for %s", remembered, endpoint)
		}
		deposition = remembered
	}

	provider, zen, err := remote.NewProvider(ctx, zenodo.Options{
		AccessToken: cfg.AccessToken,
		Sandbox:     cfg.Sandbox,
		Deposition:  deposition,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", endpoint, err)
	}
	if err = database.UpsertDeposition(ctx, zen.BaseURL(), zen.Deposition()); err != nil {
		return nil, err
	}

	return &Service{
		cfg:         cfg,
		db:          database,
		zen:         zen,
		provider:    provider,
		watchSettle: defaultWatchSettle,
	}, nil
}

func (s *Service) Deposition() int64 {
	return s.zen.Deposition()
}

func (s *Service) Endpoint() string {
	return s.zen.BaseURL()
}

// CreateDeposition creates a fresh deposition and remembers it for later runs.
// The running service keeps using its current deposition.
func (s *Service) CreateDeposition(ctx context.Context) (int64, error) {
	id, err := s.zen.CreateDeposition(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not create deposition: %w", err)
	}
	if err = s.db.UpsertDeposition(ctx, s.zen.BaseURL(), id); err != nil {
		return 0, err
	}
	return id, nil
}

// LocalPath places relative paths below the configured local directory.
func (s *Service) LocalPath(path string) string {
	if filepath.IsAbs(path) || s.cfg.LocalDir == "" {
		return path
	}
	return filepath.Join(s.cfg.LocalDir, path)
}

func (s *Service) Object(localPath, remoteName string) *remote.RemoteObject {
	return s.provider.Remote(remote.LocalPath{Path: localPath, Remote: remoteName})
}

func (s *Service) ListFiles(ctx context.Context) (zenodo.Files, error) {
	return s.zen.ListFiles(ctx)
}

func (s *Service) Download(ctx context.Context, localPath string) error {
	if err := s.Object(localPath, "").Download(ctx); err != nil {
		return err
	}
	s.record(ctx, localPath, filepath.Base(localPath), db.Download)
	return nil
}

func (s *Service) Upload(ctx context.Context, localPath, remoteName string) error {
	host := remote.LocalPath{Path: localPath, Remote: remoteName}
	if err := s.provider.Remote(host).Upload(ctx); err != nil {
		return err
	}
	s.record(ctx, localPath, host.RemoteFile(), db.Upload)
	return nil
}

func (s *Service) History(ctx context.Context, limit int) ([]db.Transfer, error) {
	return s.db.Transfers(ctx, s.zen.BaseURL(), s.zen.Deposition(), limit)
}

// record stores a finished transfer. The checksum is taken from the listing,
// so it is the one the repository reports.
func (s *Service) record(ctx context.Context, localPath, name string, direction db.Direction) {
	t := db.Transfer{
		BaseURL:      s.zen.BaseURL(),
		DepositionID: s.zen.Deposition(),
		Filename:     name,
		Direction:    direction,
	}
	if info, err := os.Stat(localPath); err == nil {
		t.Size = info.Size()
	}
	files, err := s.zen.ListFiles(ctx)
	if err != nil {
		logging.Debugf("Could not list files to record %s of '%s': %s", direction, name, err)
	}
	if f, ok := files.Lookup(name); ok {
		t.Checksum = f.Checksum
		t.Size = f.Size
	}
	if _, err = s.db.RecordTransfer(ctx, t); err != nil {
		logging.Error("Could not record transfer", err)
	}
}

// IsNotFound reports whether err means the file is not in the deposition.
func IsNotFound(err error) bool {
	var missing *zenodo.MissingFileError
	return errors.As(err, &missing)
}
