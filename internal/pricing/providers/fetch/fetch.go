// Package fetch performs JSON GET requests for HTTP price providers,
// retrying throttled and server-side failures.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/ndewijer/wealth-tracker/internal/retrier"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client wraps an http.Client with retries.
type Client struct {
	http    *http.Client
	backoff *retrier.Backoff
	headers map[string]string
}

// New creates a client with the given timeout and default headers.
func New(timeout time.Duration, headers map[string]string, opts ...retrier.Option) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		backoff: retrier.New(opts...),
		headers: headers,
	}
}

// GetJSON requests url and hands the body to decode. 429 and 5xx responses
// and transport errors are retried; other failures are returned at once.
func (c *Client) GetJSON(ctx context.Context, url string, decode func(io.Reader) error) error {
	return c.backoff.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retrier.Permanent(errors.Wrap(err, "build request"))
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return errors.Wrap(err, "send request")
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{Code: resp.StatusCode, Body: string(body)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return retrier.Permanent(serr)
		}

		if err := decode(resp.Body); err != nil {
			return retrier.Permanent(errors.Wrap(err, "decode response"))
		}
		return nil
	})
}

// DecodeGeneric decodes a JSON document into untyped values, keeping numbers
// as json.Number so prices keep their exact decimal text.
func DecodeGeneric(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
