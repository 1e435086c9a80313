package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/log"
)

// maxBodySize bounds the page size read from upstream.
const maxBodySize = 32 << 20

// HTTP fetches targets with a single GET. It never retries.
type HTTP struct {
	client *http.Client
}

// NewHTTP returns an HTTP fetcher using client.
func NewHTTP(client *http.Client) *HTTP {
	return &HTTP{client: client}
}

func (h *HTTP) Fetch(ctx context.Context, target Target) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return "", &TransportError{URL: target.URL, Err: err}
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for name, values := range target.Header {
		req.Header[http.CanonicalHeaderKey(name)] = values
	}

	log.WithFields(log.Fields{"url": target.URL, "transport": "http"}).Debug("fetching")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: target.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &TransportError{URL: target.URL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &TransportError{URL: target.URL, Err: fmt.Errorf("read body: %w", err)}
	}

	return string(body), nil
}
