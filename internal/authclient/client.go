package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/shopcart/internal/tokens"
)

const (
	refreshPath    = "/auth/refresh"
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 64 << 10
)

var (
	// ErrRejected means the auth service refused the refresh token.
	ErrRejected = errors.New("authclient: refresh rejected")
	// ErrBadSession means the auth service answered 200 with unusable tokens.
	ErrBadSession = errors.New("authclient: bad session")
)

type Config struct {
	URL     string
	Secret  []byte
	Timeout time.Duration
}

// Client exchanges a refresh token for a new session at the auth service and
// checks the returned access token against the shared secret before handing
// it to the caller.
type Client struct {
	endpoint   string
	secret     []byte
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.URL, "/") + refreshPath,
		secret:   cfg.Secret,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Session is a freshly issued token pair. Claims holds the verified access
// token claims.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessExp    int64  `json:"access_exp"`
	RefreshExp   int64  `json:"refresh_exp"`

	Claims *tokens.AccessClaims `json:"-"`
}

func (c *Client) RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: refreshToken})
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: accessToken})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	body := io.LimitReader(resp.Body, maxBodyBytes)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, body)
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, body)
		return nil, fmt.Errorf("refresh failed with status: %d", resp.StatusCode)
	}

	var s Session
	if err := json.NewDecoder(body).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBadSession, err)
	}
	if err := c.verify(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// verify checks the access token signature and fills AccessExp from the token
// when the service left it out.
func (c *Client) verify(s *Session) error {
	if s.AccessToken == "" || s.RefreshToken == "" {
		return fmt.Errorf("%w: missing token", ErrBadSession)
	}
	if s.RefreshExp <= 0 {
		return fmt.Errorf("%w: missing refresh_exp", ErrBadSession)
	}

	claims, err := tokens.AccessClaimsFromToken(s.AccessToken, c.secret)
	if err != nil {
		return fmt.Errorf("%w: access token: %v", ErrBadSession, err)
	}
	if s.AccessExp <= 0 && claims.ExpiresAt != nil {
		s.AccessExp = claims.ExpiresAt.Unix()
	}
	s.Claims = claims
	return nil
}
