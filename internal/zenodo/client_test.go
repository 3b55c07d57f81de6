package zenodo

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientDo(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		do      func(*testing.T, *Client, string)
	}{
		{
			name: "non-2xx becomes HTTPError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message": "denied"}`, http.StatusForbidden)
			},
			do: func(t *testing.T, c *Client, _ string) {
				var out map[string]any
				err := c.DoJSON(t.Context(), &Request{Path: "/api/thing"}, &out)

				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				require.Equal(t, http.StatusForbidden, httpErr.StatusCode)
				require.Equal(t, http.MethodGet, httpErr.Method)
				require.Contains(t, string(httpErr.Body), "denied")
				require.Nil(t, out)
			},
		},
		{
			name: "caller headers are added and token is kept",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"authorization": "` + r.Header.Get("Authorization") + `", "accept": "` + r.Header.Get("Accept") + `"}`))
			},
			do: func(t *testing.T, c *Client, _ string) {
				var out map[string]string
				err := c.DoJSON(t.Context(), &Request{
					Path: "api/echo",
					Header: http.Header{
						"Authorization": []string{"Bearer nope"},
						"Accept":        []string{"application/json"},
					},
				}, &out)
				require.NoError(t, err)
				require.Equal(t, "Bearer "+testToken, out["authorization"])
				require.Equal(t, "application/json", out["accept"])
			},
		},
		{
			name: "absolute paths are used as is",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`"` + r.URL.Path + `"`))
			},
			do: func(t *testing.T, c *Client, srvURL string) {
				var out string
				require.NoError(t, c.DoJSON(t.Context(), &Request{Path: srvURL + "/files/abc"}, &out))
				require.Equal(t, "/files/abc", out)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			do: func(t *testing.T, c *Client, _ string) {
				var out map[string]any
				err := c.DoJSON(t.Context(), &Request{Path: "/"}, &out)
				require.Error(t, err)

				var httpErr *HTTPError
				require.NotErrorAs(t, err, &httpErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c, err := NewClient(testToken, WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
			require.NoError(t, err)
			tt.do(t, c, srv.URL)
		})
	}
}

func TestClientRedirect(t *testing.T) {
	tests := []struct {
		name     string
		sameHost bool
		wantAuth string
	}{
		{
			name:     "token is dropped when redirected to another host",
			sameHost: false,
			wantAuth: "",
		},
		{
			name:     "token is kept when redirected on the same host",
			sameHost: true,
			wantAuth: "Bearer " + testToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []string
			blob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(`"blob"`))
			}))
			defer blob.Close()

			target := blob.URL + "/blob"
			if !tt.sameHost {
				target = strings.Replace(target, "127.0.0.1", "localhost", 1)
			}
			api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, target, http.StatusFound)
			}))
			defer api.Close()

			c, err := NewClient(testToken, WithBaseURL(api.URL))
			require.NoError(t, err)

			var out string
			require.NoError(t, c.DoJSON(t.Context(), &Request{Path: api.URL + "/files/x"}, &out))
			require.Equal(t, "blob", out)
			require.Equal(t, []string{tt.wantAuth}, seen)
		})
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	require.ErrorIs(t, err, ErrAccessTokenRequired)

	c, err := NewClient(testToken)
	require.NoError(t, err)
	require.Equal(t, ProductionURL, c.BaseURL())
}
