package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

var ErrAccessTokenRequired = errors.New(
	"zenodo personal access token must be passed in as access_token; " +
		"the sandbox at https://sandbox.zenodo.org needs its own registration and token",
)

// TokenSource returns a source that always yields the given personal access
// token. Zenodo tokens do not expire and are never refreshed.
func TokenSource(accessToken string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrAccessTokenRequired
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}), nil
}

// Authorize sets "Authorization: Bearer <token>" on req, replacing any value
// the caller put there. The header lives on the request only, so net/http
// drops it when a redirect leaves the original host.
func Authorize(req *http.Request, src oauth2.TokenSource) error {
	tok, err := src.Token()
	if err != nil {
		return fmt.Errorf("could not get access token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}
