package zenodo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/torfstack/zenremote/internal/auth"
	"github.com/torfstack/zenremote/internal/logging"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of a failed response is kept on HTTPError.
const maxErrorBody = 4 << 10

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used to send requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithBaseURL points the client at another Zenodo instance, e.g. a local
// test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// Client issues authenticated requests against the deposition API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      oauth2.TokenSource
}

// Request describes a single API call. Path is either relative to the base
// URL or an absolute URL, as used by download links. ContentLength is only
// needed for bodies whose length net/http cannot infer.
type Request struct {
	Method        string
	Path          string
	Header        http.Header
	Body          io.Reader
	ContentLength int64
}

func NewClient(accessToken string, opts ...Option) (*Client, error) {
	c := &Client{baseURL: ProductionURL, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url '%s': %w", c.baseURL, err)
	}

	token, err := auth.TokenSource(accessToken)
	if err != nil {
		return nil, err
	}
	c.token = token
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req once. Any status outside 2xx is turned into an *HTTPError
// and the response body is closed; otherwise the caller owns resp.Body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("zenodo: request is nil")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, req.Body)
	if err != nil {
		return nil, fmt.Errorf("zenodo: could not build request: %w", err)
	}
	if req.ContentLength > 0 {
		httpReq.ContentLength = req.ContentLength
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if err = auth.Authorize(httpReq, c.token); err != nil {
		return nil, fmt.Errorf("zenodo: %w", err)
	}

	logging.Debugf("%s %s", method, fullURL)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("zenodo: %s %s: %w", method, fullURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(method, fullURL, resp)
	}
	return resp, nil
}

// DoJSON performs req and decodes the response body into out.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer closeBody(resp.Body)

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zenodo: could not decode response of %s %s: %w", resp.Request.Method, resp.Request.URL, err)
	}
	return nil
}

func (c *Client) resolve(path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("zenodo: invalid request path '%s': %w", path, err)
	}
	if u.IsAbs() {
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

func newHTTPError(method, fullURL string, resp *http.Response) *HTTPError {
	defer closeBody(resp.Body)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		logging.Debugf("Could not read error body of %s %s: %s", method, fullURL, err)
	}
	return &HTTPError{
		Method:     method,
		URL:        fullURL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
}

func closeBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil {
		logging.Debugf("Could not close body: %s", err)
	}
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}
