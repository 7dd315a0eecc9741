// Package httptransport fetches descriptors from a JSON HTTP API.
package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/n-r-w/apifetch"
)

// maxErrorBody is the number of body bytes kept in a StatusError.
const maxErrorBody = 512

var _ apifetch.Transport = (*Transport)(nil)

// Transport implements apifetch.Transport over HTTP.
type Transport struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// Option is a function for configuring Transport.
type Option func(*Transport)

// WithHTTPClient sets the client used for requests. A client timeout caps Config.Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithLogger sets the logger of the transport.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = logger
	}
}

// New creates a transport with the given config.
func New(cfg Config, opts ...Option) *Transport {
	t := &Transport{
		cfg: cfg,
		log: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		t.client = &http.Client{}
	}

	return t
}

// Fetch performs the request described by d and decodes the JSON body.
// config may be a Config or *Config overriding the transport config for this call.
func (t *Transport) Fetch(ctx context.Context, config any, d apifetch.Descriptor) (any, error) {
	cfg := t.cfg
	switch c := config.(type) {
	case Config:
		cfg = cfg.merge(c)
	case *Config:
		if c != nil {
			cfg = cfg.merge(*c)
		}
	}

	req, err := newRequest(ctx, cfg, d)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", d.Identity(), err)
	}
	defer resp.Body.Close()

	t.log.Debug().Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("api response")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.Identity(), err)
	}

	return out, nil
}

func newRequest(ctx context.Context, cfg Config, d apifetch.Descriptor) (*http.Request, error) {
	if d.URI == "" {
		return nil, ErrMissingURI
	}

	if cfg.APIRoot == "" {
		return nil, ErrMissingAPIRoot
	}

	u, err := url.Parse(strings.TrimRight(cfg.APIRoot, "/") + "/" + strings.TrimLeft(d.URI, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse uri %q: %w", d.URI, err)
	}

	method := strings.ToUpper(d.Method)
	if method == "" {
		method = http.MethodGet
	}

	params := make(url.Values, len(d.Params))
	for k, v := range d.Params {
		params.Set(k, v)
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodDelete {
		query := u.Query()
		for k := range params {
			query.Set(k, params.Get(k))
		}
		u.RawQuery = query.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request %s: %w", d.Identity(), err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}
