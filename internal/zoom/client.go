package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// BaseURL is the base URL for the Zoom REST API
	BaseURL = "https://api.zoom.us/v2"
	// AuthURL is the OAuth token endpoint
	AuthURL = "https://zoom.us/oauth/token"

	defaultTimeout = 30 * time.Second
)

// ClientAPI is the surface of the Zoom client consumed by services, kept as
// an interface so tests can mock the provider.
type ClientAPI interface {
	AccessToken(ctx context.Context) (string, error)
	GetMeeting(ctx context.Context, meetingID string) (*Meeting, error)
	GetRecordingsByUUID(ctx context.Context, meetingUUID string) (*RecordingSet, error)
	GetRecordingsByMeetingID(ctx context.Context, meetingID string) (*RecordingSet, error)
	ListUserRecordings(ctx context.Context, email string, from, to time.Time) ([]RecordingSet, error)
	DownloadText(ctx context.Context, downloadURL string) (string, error)
}

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	// Optional overrides for testing
	BaseURL string
	AuthURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenCache
}

var _ ClientAPI = (*Client)(nil)

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = AuthURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL,
		tokens:     NewTokenCache(config.AuthURL, config.AccountID, config.ClientID, config.ClientSecret),
	}
}

// AccessToken exposes the cached bearer token for callers that embed it in
// download URLs.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoom request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode zoom response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the Zoom API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoom api status %d: %s", e.StatusCode, e.Body)
}

// DownloadText fetches a recording artifact (typically a VTT transcript).
// Zoom download URLs accept the bearer token either as a header or as an
// access_token query parameter; both are sent, matching how the stored
// video URL is built.
func (c *Client) DownloadText(ctx context.Context, downloadURL string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, AppendAccessToken(downloadURL, token), nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read download body: %w", err)
	}
	return string(body), nil
}

// AppendAccessToken attaches the short-lived bearer token to a download URL
// as a query credential.
func AppendAccessToken(downloadURL, token string) string {
	separator := "?"
	if u, err := url.Parse(downloadURL); err == nil && u.RawQuery != "" {
		separator = "&"
	}
	return downloadURL + separator + "access_token=" + url.QueryEscape(token)
}
