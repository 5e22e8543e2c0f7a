// Package profile fetches the signed-in user's profile from the identity
// provider's userinfo endpoint.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/gsarma/jobboard/internal/model"
)

// DefaultEndpoint is Google's userinfo endpoint.
const DefaultEndpoint = "https://www.googleapis.com/userinfo/v2/me"

// Fetcher performs one bearer-authenticated GET per call. It does not retry
// and sets no timeout of its own.
type Fetcher struct {
	endpoint string
	base     *http.Client
}

// NewFetcher returns a Fetcher for endpoint; an empty endpoint selects
// DefaultEndpoint. base may be nil to use http.DefaultClient.
func NewFetcher(endpoint string, base *http.Client) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Fetcher{endpoint: endpoint, base: base}
}

// userInfo accepts both the v2 ("id") and OpenID ("sub") identifier keys.
type userInfo struct {
	ID      string `json:"id"`
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// FetchProfile exchanges accessToken for the user's profile.
func (f *Fetcher) FetchProfile(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	if f.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.base)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, unavailable(fmt.Errorf("build userinfo request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable(fmt.Errorf("userinfo request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(fmt.Errorf("read userinfo response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, unavailable(fmt.Errorf("userinfo returned %d", resp.StatusCode))
	}

	var info *userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, malformed(fmt.Errorf("userinfo decode: %w", err))
	}
	if info == nil {
		return nil, malformed(fmt.Errorf("userinfo decode: null body"))
	}

	id := info.ID
	if id == "" {
		id = info.Sub
	}
	return &model.UserProfile{
		ID:         id,
		Name:       info.Name,
		Email:      info.Email,
		PictureURL: info.Picture,
	}, nil
}

func unavailable(err error) error {
	return &model.FetchError{Kind: model.FetchNetworkUnavailable, Err: err}
}

func malformed(err error) error {
	return &model.FetchError{Kind: model.FetchMalformedResponse, Err: err}
}
