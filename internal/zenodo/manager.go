package zenodo

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/torfstack/zenremote/internal/logging"
	"github.com/torfstack/zenremote/internal/util"
)

const (
	ProductionURL = "https://zenodo.org"
	SandboxURL    = "https://sandbox.zenodo.org"

	// MaxUploadSize is the per-file limit of the deposition API.
	MaxUploadSize int64 = 100_000_000

	// ChunkSize is the read size used while streaming downloads to disk.
	ChunkSize = 10 << 20
)

// Options selects the Zenodo instance and deposition a Manager works on.
type Options struct {
	AccessToken string
	Sandbox     bool
	// Deposition is an existing deposition id. Zero means a new deposition is
	// created when the Manager is constructed.
	Deposition int64
}

// Manager owns one deposition and provides listing, download and upload on
// top of Client. It does not synchronize concurrent writers to the same
// deposition.
type Manager struct {
	client     *Client
	deposition int64
}

// New builds a Manager. Sandbox and production are separate services, so a
// deposition id from one is meaningless on the other.
func New(ctx context.Context, o Options, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(o.AccessToken) == "" {
		return nil, ErrAccessTokenRequired
	}
	if o.Deposition < 0 {
		return nil, fmt.Errorf("invalid deposition id %d", o.Deposition)
	}

	client, err := NewClient(o.AccessToken, append([]Option{WithBaseURL(defaultEndpoint(o.Sandbox))}, opts...)...)
	if err != nil {
		return nil, err
	}

	m := &Manager{client: client, deposition: o.Deposition}
	if m.deposition == 0 {
		id, err := m.CreateDeposition(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not create deposition: %w", err)
		}
		logging.Infof("Created deposition %d at %s", id, client.BaseURL())
		m.deposition = id
	}
	return m, nil
}

// Endpoint returns the base URL a Manager built from the same sandbox flag and
// options talks to.
func Endpoint(sandbox bool, opts ...Option) string {
	c := &Client{baseURL: defaultEndpoint(sandbox)}
	for _, opt := range opts {
		opt(c)
	}
	return c.baseURL
}

func defaultEndpoint(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

func (m *Manager) Deposition() int64 {
	return m.deposition
}

func (m *Manager) BaseURL() string {
	return m.client.BaseURL()
}

// CreateDeposition creates a new, empty deposition and returns its id. The
// Manager keeps working on its current deposition.
func (m *Manager) CreateDeposition(ctx context.Context) (int64, error) {
	var d deposition
	err := m.client.DoJSON(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/api/deposit/depositions",
		Header: jsonHeader(),
		Body:   strings.NewReader("{}"),
	}, &d)
	if err != nil {
		return 0, err
	}
	if d.ID <= 0 {
		return 0, errors.New("zenodo: deposition response has no id")
	}
	return d.ID, nil
}

// ListFiles returns the current files of the deposition keyed by basename.
// When two files share a basename the one listed last by the server wins.
//
// If the server rejects the request (e.g. the deposition belongs to another
// user) a warning is logged and ListFiles returns a nil map and a nil error,
// so callers cannot tell a denied listing from an empty deposition.
func (m *Manager) ListFiles(ctx context.Context) (Files, error) {
	var entries []fileEntry
	err := m.client.DoJSON(ctx, &Request{
		Path:   m.filesPath(),
		Header: jsonHeader(),
	}, &entries)

	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		logging.Warnf(
			"Could not list deposition %d (%s). Use an HTTP remote to download files from other users' Zenodo depositions.",
			m.deposition, httpErr.Status,
		)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("could not list files of deposition %d: %w", m.deposition, err)
	}

	files := make(Files, len(entries))
	for _, e := range entries {
		size, err := e.Filesize.Int64()
		if err != nil {
			return nil, fmt.Errorf("invalid filesize '%s' for '%s': %w", e.Filesize, e.Filename, err)
		}
		name := path.Base(e.Filename)
		if prev, ok := files[name]; ok {
			logging.Debugf("File '%s' (id %s) shadows file id %s with the same basename", e.Filename, e.ID, prev.ID)
		}
		files[name] = FileInfo{
			Checksum: e.Checksum,
			Size:     size,
			ID:       e.ID,
			Download: e.Links.Download,
		}
	}
	return files, nil
}

// Download fetches the remote file named like the basename of localPath and
// writes it to localPath, creating parent directories as needed. The MD5 of
// the received bytes must match the listed checksum; on mismatch the written
// file is kept and an *IntegrityError is returned.
func (m *Manager) Download(ctx context.Context, localPath string) error {
	files, err := m.ListFiles(ctx)
	if err != nil {
		return err
	}
	info, ok := files.Lookup(localPath)
	if !ok {
		return &MissingFileError{Name: filepath.Base(localPath), Deposition: m.deposition}
	}

	resp, err := m.client.Do(ctx, &Request{Path: info.Download})
	if err != nil {
		return fmt.Errorf("could not download '%s': %w", filepath.Base(localPath), err)
	}
	defer closeBody(resp.Body)

	if err = util.MakeParents(localPath); err != nil {
		return fmt.Errorf("could not create parent directories of '%s': %w", localPath, err)
	}

	logging.Debugf("Downloading file id %s to %s", info.ID, localPath)
	actual, err := writeChunks(localPath, resp.Body)
	if err != nil {
		return err
	}

	expected := normalizeChecksum(info.Checksum)
	if actual != expected {
		return &IntegrityError{
			FileID:   info.ID,
			Path:     localPath,
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

// Upload sends localPath to the deposition as remoteName. size is the size
// of localPath as known by the caller; files above MaxUploadSize are refused
// without contacting the server.
func (m *Manager) Upload(ctx context.Context, localPath, remoteName string, size int64) error {
	if size > MaxUploadSize {
		return &SizeLimitError{Path: localPath, Size: size, Limit: MaxUploadSize}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open '%s' for upload: %w", localPath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logging.Debugf("Could not close '%s': %s", localPath, err)
		}
	}(f)

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("could not stat '%s' for upload: %w", localPath, err)
	}
	head, tail, contentType, err := uploadEnvelope(remoteName, filepath.Base(localPath))
	if err != nil {
		return fmt.Errorf("could not build upload form for '%s': %w", localPath, err)
	}

	logging.Debugf("Uploading %s as '%s' to deposition %d", localPath, remoteName, m.deposition)
	resp, err := m.client.Do(ctx, &Request{
		Method:        http.MethodPost,
		Path:          m.filesPath(),
		Header:        http.Header{"Content-Type": []string{contentType}},
		Body:          io.MultiReader(bytes.NewReader(head), f, bytes.NewReader(tail)),
		ContentLength: int64(len(head)) + stat.Size() + int64(len(tail)),
	})
	if err != nil {
		return fmt.Errorf("could not upload '%s': %w", localPath, err)
	}
	closeBody(resp.Body)
	return nil
}

func (m *Manager) filesPath() string {
	return fmt.Sprintf("/api/deposit/depositions/%d/files", m.deposition)
}

// uploadEnvelope renders the multipart form around the file content: the
// "filename" field and the "file" part header go before it, the closing
// boundary after it.
func uploadEnvelope(remoteName, localName string) (head, tail []byte, contentType string, err error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err = form.WriteField("filename", remoteName); err != nil {
		return nil, nil, "", err
	}
	if _, err = form.CreateFormFile("file", localName); err != nil {
		return nil, nil, "", err
	}
	head = bytes.Clone(buf.Bytes())
	buf.Reset()
	if err = form.Close(); err != nil {
		return nil, nil, "", err
	}
	return head, buf.Bytes(), form.FormDataContentType(), nil
}

// writeChunks streams r into a new file at path in ChunkSize pieces and
// returns the hex MD5 of everything written.
func writeChunks(path string, r io.Reader) (digest string, err error) {
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create file '%s': %w", path, err)
	}
	defer func(f *os.File) {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close file '%s': %w", path, cerr)
		}
	}(out)

	sum := md5.New()
	w := io.MultiWriter(out, sum)
	buf := make([]byte, ChunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("could not write file '%s': %w", path, werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("could not read download for '%s': %w", path, rerr)
		}
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// normalizeChecksum accepts both the bare hex digest and the "md5:<hex>"
// form returned by newer API versions.
func normalizeChecksum(checksum string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(checksum)), "md5:")
}
