// Package shortlink expands shortened map links by following redirects.
package shortlink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout   = 4 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; restaurant-classifier/1.0)"
	maxRedirects     = 10
)

type Expander struct {
	client    *http.Client
	userAgent string
}

// New builds an expander whose whole redirect chain is bounded by timeout.
// Consent pages set cookies before redirecting again, hence the jar.
func New(timeout time.Duration) (*Expander, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Expander{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Expand returns the final URL after redirects. The status of the final
// response is irrelevant: only where the chain ended matters.
func (e *Expander) Expand(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create expand request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.Request.URL.String(), nil
}
