package zoom

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenSafetyMargin is subtracted from the issued expiry so a token is
// refreshed before Zoom actually rejects it.
const tokenSafetyMargin = 5 * time.Minute

// TokenCache holds the Server-to-Server OAuth bearer token shared by every
// outbound Zoom call. Concurrent callers at expiry time may both trigger a
// refresh; both exchanges yield a valid token so no single-flight guard is
// needed.
type TokenCache struct {
	conf *clientcredentials.Config

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache(authURL, accountID, clientID, clientSecret string) *TokenCache {
	return &TokenCache{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     authURL,
			EndpointParams: url.Values{
				"grant_type": []string{"account_credentials"},
				"account_id": []string{accountID},
			},
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// Token returns the cached bearer token, exchanging credentials with Zoom
// when the cache is empty or past its safety-margin expiry.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	if tc.token != "" && time.Now().Before(tc.expiresAt) {
		token := tc.token
		tc.mu.Unlock()
		return token, nil
	}
	tc.mu.Unlock()

	tok, err := tc.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("zoom token exchange: %w", err)
	}

	tc.mu.Lock()
	tc.token = tok.AccessToken
	tc.expiresAt = tok.Expiry.Add(-tokenSafetyMargin)
	tc.mu.Unlock()

	return tok.AccessToken, nil
}
