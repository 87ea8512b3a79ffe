package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAuthMissing reports that no credentials were supplied for a remote
// that requires them.
var ErrAuthMissing = errors.New("credentials not supplied")

// Credentials carries HTTP basic auth for a remote. The variable names
// they come from are the caller's business; the client only checks that
// something was provided.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credentials were supplied.
func (c Credentials) IsZero() bool {
	return strings.TrimSpace(c.Username) == "" && c.Password == ""
}

// ClientOptions configures the smart HTTP client.
type ClientOptions struct {
	Timeout     time.Duration // HTTP client timeout (default 60s)
	MaxAttempts int           // retry attempts for transient failures (default 3)
}

// Response body limits per endpoint.
const (
	responseLimitRefs = 8 << 20   // 8MB
	responseLimitPack = 512 << 20 // 512MB
)

// Client speaks the smart HTTP upload-pack protocol against one remote
// repository URL.
type Client struct {
	base        string
	httpClient  *http.Client
	creds       Credentials
	maxAttempts int
}

// NewClient creates a client for the given remote URL with default
// options.
func NewClient(remoteURL string, creds Credentials) (*Client, error) {
	return NewClientWithOptions(remoteURL, creds, ClientOptions{})
}

// NewClientWithOptions creates a client with configurable options.
// Zero-value or negative fields in opts receive defaults.
func NewClientWithOptions(remoteURL string, creds Credentials, opts ClientOptions) (*Client, error) {
	base, err := normalizeRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		creds:       creds,
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// normalizeRemoteURL validates the remote URL and strips any trailing
// slash. URL userinfo is rejected: credentials travel separately.
func normalizeRemoteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("remote URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL %q: missing host", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("remote URL %q: credentials in URL are not accepted", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// InfoRefs performs the capability discovery request:
// GET <url>/info/refs?service=git-upload-pack. The raw pkt-line body is
// returned for the protocol layer to frame.
func (c *Client) InfoRefs(ctx context.Context) ([]byte, error) {
	if c.creds.IsZero() {
		return nil, fmt.Errorf("remote %s: %w", c.base, ErrAuthMissing)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/info/refs?service=git-upload-pack", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, responseLimitRefs)
}

// UploadPack posts a pkt-line request body to <url>/git-upload-pack and
// returns the raw response body: a NAK frame followed by the packfile.
func (c *Client) UploadPack(ctx context.Context, body []byte) ([]byte, error) {
	if c.creds.IsZero() {
		return nil, fmt.Errorf("remote %s: %w", c.base, ErrAuthMissing)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/git-upload-pack", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-git-upload-pack-request")
	return c.do(req, responseLimitPack)
}

func (c *Client) do(req *http.Request, maxBytes int64) ([]byte, error) {
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("remote request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if readErr != nil {
		return nil, fmt.Errorf("remote request %s %s: %w", req.Method, req.URL.Path, readErr)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("remote request %s %s: HTTP %d: %w", req.Method, req.URL.Path, resp.StatusCode, ErrAuthMissing)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("remote request %s %s failed: %s", req.Method, req.URL.Path, msg)
	}
	return body, nil
}
