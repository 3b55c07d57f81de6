package zenodo

import (
	"bytes"
	"fmt"

	"github.com/torfstack/zenremote/internal/auth"
)

// ErrAccessTokenRequired is returned when a client or manager is constructed
// without a personal access token.
var ErrAccessTokenRequired = auth.ErrAccessTokenRequired

// HTTPError is a non-2xx response from the repository.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return fmt.Sprintf("zenodo: %s %s: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("zenodo: %s %s: %s: %s", e.Method, e.URL, e.Status, body)
}

// IntegrityError reports a downloaded file whose digest differs from the
// checksum the repository advertised. The partial file is left on disk.
type IntegrityError struct {
	FileID   string
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"file checksums do not match for remote file id %s: expected %s, got %s",
		e.FileID, e.Expected, e.Actual,
	)
}

// SizeLimitError is returned before any request is made when a file is too
// large for a single upload.
type SizeLimitError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("'%s' is %d bytes, zenodo accepts at most %d bytes per file", e.Path, e.Size, e.Limit)
}

// MissingFileError is returned when a download is requested for a name that
// is not part of the deposition listing.
type MissingFileError struct {
	Name       string
	Deposition int64
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file '%s' not found in deposition %d", e.Name, e.Deposition)
}
