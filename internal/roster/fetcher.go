package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-roster/internal/config"
)

// ErrResponseTooLarge is returned while reading a body past HTTPFetcher.MaxBytes.
var ErrResponseTooLarge = errors.New(config.ErrResponseTooLarge)

// Fetcher retrieves a remote roster document.
type Fetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// HTTPFetcher downloads rosters over HTTP(S) with optional Basic auth.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with the default timeout and size cap.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: config.HTTPTimeout},
		MaxBytes: config.MaxHTTPResponseSize,
	}
}

// Fetch opens a vCard collection or YAML document at targetURL.
// Only the scheme, host and path are logged: query strings may carry tokens.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	log := slog.With(
		config.LogKeyComponent, config.CompFetcher,
		config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.AcceptRoster)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	log.Debug(config.MsgFetchStart)
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchBadStatus, config.LogKeyStatus, resp.StatusCode)
		return nil, fmt.Errorf("%s: %s", config.ErrHTTPStatus, resp.Status)
	}

	log.Info(config.MsgFetchOK, config.LogKeyContentLength, resp.ContentLength)

	limit := f.MaxBytes
	if limit <= 0 {
		limit = config.MaxHTTPResponseSize
	}
	return &cappedBody{body: resp.Body, left: limit}, nil
}

// cappedBody fails once more than left bytes have been read, so a truncated
// roster is never mistaken for a complete one.
type cappedBody struct {
	body io.ReadCloser
	left int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	n, err := c.body.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, ErrResponseTooLarge
	}
	return n, err
}

func (c *cappedBody) Close() error {
	return c.body.Close()
}
