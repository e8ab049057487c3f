package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/torosent/sagaload/internal/payload"
	"github.com/torosent/sagaload/internal/runner"
	"github.com/torosent/sagaload/internal/tracing"
)

const (
	maxLoggedBodyBytes = 1024
	maxBodyReadSize    = 1024 * 1024
)

// Target is the saga collection endpoint of the service under test.
// It is immutable after construction and safe to share between workers.
type Target struct {
	client  *http.Client
	create  *RequestBuilder
	list    *RequestBuilder
	tracing *tracing.Provider
}

// Option customizes a Target.
type Option func(*Target)

// WithTracing enables a client span per request.
func WithTracing(p *tracing.Provider) Option {
	return func(t *Target) { t.tracing = p }
}

func NewTarget(url string, client *http.Client, headers map[string]string, opts ...Option) (*Target, error) {
	if client == nil {
		return nil, errors.New("http client cannot be nil")
	}
	create, err := NewRequestBuilder(http.MethodPost, url, headers)
	if err != nil {
		return nil, err
	}
	list, err := NewRequestBuilder(http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	t := &Target{client: client, create: create, list: list}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Create posts one payload.
func (t *Target) Create(ctx context.Context, p payload.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = t.do(ctx, t.create, body)
	return err
}

// List fetches every stored record and returns how many the response's results array holds.
func (t *Target) List(ctx context.Context) (int, error) {
	body, err := t.do(ctx, t.list, nil)
	if err != nil {
		return 0, err
	}
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return 0, nil
	}
	return len(results.Array()), nil
}

// CreateRequester posts a freshly generated payload on every call. It
// implements [runner.Preparer], so the runner generates and encodes the payload
// before starting the clock.
func (t *Target) CreateRequester() runner.Requester {
	return &createRequester{target: t}
}

type createRequester struct {
	target *Target
}

func (c *createRequester) Prepare(context.Context) (runner.Requester, error) {
	body, err := json.Marshal(payload.Generate())
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return runner.RequesterFunc(func(ctx context.Context) error {
		_, err := c.target.do(ctx, c.target.create, body)
		return err
	}), nil
}

func (c *createRequester) Do(ctx context.Context) error {
	return c.target.Create(ctx, payload.Generate())
}

// SeedRequester posts the same payload on every call.
func (t *Target) SeedRequester(p payload.Payload) runner.Requester {
	return runner.RequesterFunc(func(ctx context.Context) error {
		return t.Create(ctx, p)
	})
}

// ListRequester lists the collection on every call.
func (t *Target) ListRequester() runner.Requester {
	return runner.RequesterFunc(func(ctx context.Context) error {
		_, err := t.List(ctx)
		return err
	})
}

func (t *Target) do(ctx context.Context, builder *RequestBuilder, body []byte) (respBody []byte, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var status int
	if t.tracing != nil {
		spanCtx, span := tracing.StartRequestSpan(ctx, t.tracing.Tracer(), builder.Method(), builder.URL())
		ctx = spanCtx
		defer func() {
			tracing.EndSpan(span, status, err)
		}()
	}

	req, err := builder.Build(ctx, body)
	if err != nil {
		return nil, err
	}
	if t.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	// Body read errors are non-fatal; the status decides the outcome.
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if readErr != nil {
		data = nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := data
		if len(snippet) > maxLoggedBodyBytes {
			snippet = snippet[:maxLoggedBodyBytes]
		}
		return nil, &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return data, nil
}
