package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default Twitch endpoints, overridable for tests.
const (
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	twitchUsersURL = "https://api.twitch.tv/helix/users"
)

// Identity is the subset of the Twitch user profile the tracker keeps.
type Identity struct {
	ID          string
	DisplayName string
}

// TwitchClient performs the authorization-code exchange against Twitch.
type TwitchClient struct {
	clientID     string
	clientSecret string
	tokenURL     string
	usersURL     string
	httpClient   *http.Client
}

// NewTwitchClient creates a client for the registered Twitch application.
func NewTwitchClient(clientID, clientSecret string) *TwitchClient {
	return &TwitchClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     twitchTokenURL,
		usersURL:     twitchUsersURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Exchange trades an authorization code for an access token and resolves
// the authenticated user's identity.
func (c *TwitchClient) Exchange(ctx context.Context, code, redirectURI string) (*Identity, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return c.fetchIdentity(ctx, token.AccessToken)
}

// fetchIdentity resolves the access token's user via the Helix users
// endpoint.
func (c *TwitchClient) fetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building users request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user lookup failed with status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("user lookup returned no users")
	}

	return &Identity{
		ID:          body.Data[0].ID,
		DisplayName: body.Data[0].DisplayName,
	}, nil
}
