package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
)

const retryAfterTooManyRequestDefault = 60 * time.Second

// ScreenCapturer provides screenshots.
//
// Implementations must block until a complete image is available,
// e.g. until the current frame has finished rendering.
type ScreenCapturer interface {
	CaptureScreenshot(ctx context.Context) (image.Image, error)
}

// The CaptureFunc type is an adapter to allow the use of ordinary functions as [ScreenCapturer].
type CaptureFunc func(ctx context.Context) (image.Image, error)

func (f CaptureFunc) CaptureScreenshot(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Client executes webhook requests.
//
// A client is safe to use concurrently. It keeps no state between requests.
type Client struct {
	capturer   ScreenCapturer
	httpClient *http.Client
	imageOpts  []attachment.ImageOption
}

type ClientOption func(*Client)

// WithScreenCapturer sets the provider for screenshots.
func WithScreenCapturer(sc ScreenCapturer) ClientOption {
	return func(c *Client) {
		c.capturer = sc
	}
}

// WithScreenshotOptions sets how screenshots are encoded.
func WithScreenshotOptions(opts ...attachment.ImageOption) ClientOption {
	return func(c *Client) {
		c.imageOpts = opts
	}
}

// NewClient returns a new client. All requests share the provided HTTP client.
// Timeouts and cancellation are governed by the HTTP client and the context of each request.
func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	c := &Client{httpClient: httpClient}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// post sends a prepared request and returns the response body.
//
// Responses with status codes outside the 2xx range are returned as [HTTPError],
// except for 429s, which are returned as [TooManyRequestsError].
func (c *Client) post(ctx context.Context, p Prepared) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", p.ContentType)
	url := redactURL(p.URL)
	slog.Debug("request", "url", url, "payload", p.Payload, "files", len(p.Files))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("response", "url", url, "status", resp.Status, "headers", resp.Header, "body", string(body))
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, newTooManyRequestsError(resp.Header, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(resp.Status, resp.StatusCode, body)
	}
	return body, nil
}

// apiError is the error object returned by the Discord API.
type apiError struct {
	Code       int     `json:"code"`
	Global     bool    `json:"global"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

func newHTTPError(status string, code int, body []byte) HTTPError {
	err := HTTPError{Status: code, Message: status}
	var x apiError
	if json.Unmarshal(body, &x) == nil && x.Message != "" {
		err.Message = fmt.Sprintf("%s: %s (%d)", status, x.Message, x.Code)
	}
	return err
}

func newTooManyRequestsError(h http.Header, body []byte) TooManyRequestsError {
	var err TooManyRequestsError
	var x apiError
	hasBody := json.Unmarshal(body, &x) == nil
	err.Global = x.Global
	if s, e := strconv.Atoi(h.Get("Retry-After")); e == nil {
		err.RetryAfter = time.Duration(s) * time.Second
	} else if hasBody && x.RetryAfter > 0 {
		err.RetryAfter = time.Duration(x.RetryAfter * float64(time.Second))
	} else {
		slog.Warn("Failed to parse retry after. Assuming default", "default", retryAfterTooManyRequestDefault)
		err.RetryAfter = retryAfterTooManyRequestDefault
	}
	return err
}
