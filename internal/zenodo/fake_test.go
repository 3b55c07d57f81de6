package zenodo

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type fakeFile struct {
	id       string
	filename string
	content  []byte
	// checksum overrides the md5 of content when set
	checksum string
	// sizeAsString sends filesize as a JSON string
	sizeAsString bool
}

type fakeUpload struct {
	filename         string
	partName         string
	content          []byte
	contentLength    int64
	transferEncoding []string
}

// fakeZenodo serves the subset of the deposition API used by Manager.
type fakeZenodo struct {
	srv *httptest.Server

	mu             sync.Mutex
	requests       []string
	createBodies   []string
	nextID         int64
	files          []fakeFile
	listStatus     int
	downloadStatus int
	uploadStatus   int
	uploads        []fakeUpload
}

func newFakeZenodo(t *testing.T) *fakeZenodo {
	f := &fakeZenodo{nextID: 42}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/deposit/depositions", f.createDeposition)
	mux.HandleFunc("GET /api/deposit/depositions/{id}/files", f.listFiles)
	mux.HandleFunc("POST /api/deposit/depositions/{id}/files", f.uploadFile)
	mux.HandleFunc("GET /files/{id}", f.downloadFile)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"status": 401, "message": "unauthorized"}`, http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeZenodo) options() []Option {
	return []Option{WithBaseURL(f.srv.URL), WithHTTPClient(f.srv.Client())}
}

func (f *fakeZenodo) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeZenodo) addFile(file fakeFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, file)
}

func (f *fakeZenodo) createDeposition(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.createBodies = append(f.createBodies, r.Header.Get("Content-Type")+" "+string(body))
	id := f.nextID
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"id": %d, "state": "unsubmitted"}`, id)
}

func (f *fakeZenodo) listFiles(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listStatus != 0 {
		http.Error(w, `{"status": 403, "message": "forbidden"}`, f.listStatus)
		return
	}

	entries := make([]map[string]any, 0, len(f.files))
	for _, file := range f.files {
		checksum := file.checksum
		if checksum == "" {
			checksum = md5Hex(file.content)
		}
		var size any = len(file.content)
		if file.sizeAsString {
			size = strconv.Itoa(len(file.content))
		}
		entries = append(entries, map[string]any{
			"id":       file.id,
			"filename": file.filename,
			"filesize": size,
			"checksum": checksum,
			"links": map[string]string{
				"self":     f.srv.URL + "/api/deposit/depositions/1/files/" + file.id,
				"download": f.srv.URL + "/files/" + file.id,
			},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (f *fakeZenodo) downloadFile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadStatus != 0 {
		http.Error(w, "unavailable", f.downloadStatus)
		return
	}
	for _, file := range f.files {
		if file.id == r.PathValue("id") {
			_, _ = w.Write(file.content)
			return
		}
	}
	http.NotFound(w, r)
}

func (f *fakeZenodo) uploadFile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.uploadStatus
	f.mu.Unlock()
	if status != 0 {
		http.Error(w, `{"status": 400, "message": "bad request"}`, status)
		return
	}

	contentLength, transferEncoding := r.ContentLength, r.TransferEncoding
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer part.Close()
	content, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	upload := fakeUpload{
		filename:         r.FormValue("filename"),
		partName:         header.Filename,
		content:          content,
		contentLength:    contentLength,
		transferEncoding: transferEncoding,
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	f.files = append(f.files, fakeFile{
		id:       "uploaded-" + strconv.Itoa(len(f.uploads)),
		filename: upload.filename,
		content:  content,
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"filename": %q, "filesize": %d}`, upload.filename, len(content))
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func newTestManager(t *testing.T, f *fakeZenodo, deposition int64) *Manager {
	m, err := New(t.Context(), Options{AccessToken: testToken, Deposition: deposition}, f.options()...)
	require.NoError(t, err)
	return m
}
