package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "portfolio-autopost/1.0"
)

// httpJSON performs one request and decodes a JSON body into out. Non-2xx
// responses become *StatusError so callers can tell quota failures apart.
type httpJSON struct {
	provider string
	client   *http.Client
}

func newHTTPJSON(provider string) httpJSON {
	return httpJSON{provider: provider, client: &http.Client{Timeout: defaultTimeout}}
}

func (h httpJSON) get(ctx context.Context, endpoint string, query url.Values, headers map[string]string, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse %s url: %w", h.provider, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", h.provider, err)
	}
	return h.do(req, headers, out)
}

func (h httpJSON) post(ctx context.Context, endpoint string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", h.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", h.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, headers, out)
}

func (h httpJSON) do(req *http.Request, headers map[string]string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", h.provider, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(h.provider, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", h.provider, err)
	}
	return nil
}
