package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client holds the app-level OAuth2 configuration. Per-user clients are
// derived from it with WithToken.
type Client struct {
	oauth     *oauth2.Config
	uploadURL string
	tweetURL  string
	timeout   time.Duration
	base      *http.Client
}

// NewClient builds a Client from the TWITTER_* settings.
func NewClient(cfg config.TwitterConfig) (*Client, error) {
	if strings.TrimSpace(cfg.UploadURL) == "" || strings.TrimSpace(cfg.TweetURL) == "" {
		return nil, fmt.Errorf("twitter upload and tweet urls must be provided")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			Scopes: []string{"tweet.read", "tweet.write", "users.read", "media.write", "offline.access"},
		},
		uploadURL: cfg.UploadURL,
		tweetURL:  cfg.TweetURL,
		timeout:   timeout,
		base:      &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient replaces the transport used underneath the OAuth2 layer.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.base = hc
	return &clone
}

// WithToken returns a client acting on behalf of the token's user. Expired
// tokens are refreshed through the configured token endpoint.
func (c *Client) WithToken(ctx context.Context, token *oauth2.Token) *UserClient {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	hc := c.oauth.Client(ctx, token)
	hc.Timeout = c.timeout
	return &UserClient{
		http:      hc,
		uploadURL: c.uploadURL,
		tweetURL:  c.tweetURL,
	}
}

// WithAccessToken wraps a bare bearer token.
func (c *Client) WithAccessToken(ctx context.Context, accessToken string) *UserClient {
	return c.WithToken(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}
