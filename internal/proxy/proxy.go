package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Target is one relay endpoint. Some relays expect the forwarded URL
// query-encoded, others take it verbatim.
type Target struct {
	URL    string
	Encode bool
}

// DefaultTargets is the fixed fallback chain, tried in order.
func DefaultTargets() []Target {
	return []Target{
		{URL: "https://corsproxy.io/?", Encode: false},
		{URL: "https://api.allorigins.win/raw?url=", Encode: true},
		{URL: "https://thingproxy.freeboard.io/fetch/", Encode: false},
	}
}

// Relay forwards cross-origin requests through a fixed ordered list of
// relay endpoints. One attempt per relay per call, no health tracking.
type Relay struct {
	client  *http.Client
	targets []Target
	log     *slog.Logger
}

func New(client *http.Client, targets []Target, log *slog.Logger) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	return &Relay{
		client:  client,
		targets: targets,
		log:     log,
	}
}

// Fetch requests targetURL through each relay in order and returns the
// first HTTP-ok response. When every relay fails it returns a single
// aggregated error carrying the last underlying failure.
func (r *Relay) Fetch(ctx context.Context, targetURL string) (*http.Response, error) {
	const op = "proxy.relay.Fetch"

	var lastErr error

	for _, t := range r.targets {
		finalURL := t.URL + targetURL
		if t.Encode {
			finalURL = t.URL + url.QueryEscape(targetURL)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := r.client.Do(req)
		if err != nil {
			r.log.Warn("relay failed",
				slog.String("operation", op),
				slog.String("relay", t.URL),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("relay %s: unexpected status code: %d", t.URL, resp.StatusCode)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no relays configured")
	}

	return nil, fmt.Errorf("%s: all relays failed: %w", op, lastErr)
}
