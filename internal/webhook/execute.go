package webhook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
)

// Execute posts a request to its webhook and blocks until the result is available.
//
// All errors are reported as failed [Result]: invalid requests, network errors
// and HTTP errors. Requests are never retried.
// Execute panics when the request has an invalid kind.
func (c *Client) Execute(ctx context.Context, r Request) Result {
	return c.run(ctx, r)
}

// ExecuteAsync posts a request in the background and returns a channel,
// which receives the result once and is then closed.
func (c *Client) ExecuteAsync(ctx context.Context, r Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- c.run(ctx, r)
		close(ch)
	}()
	return ch
}

// ExecuteFunc posts a request in the background and calls fn with the result.
// A nil fn is not allowed and panics immediately.
func (c *Client) ExecuteFunc(ctx context.Context, r Request, fn func(Result)) {
	if fn == nil {
		panic("webhook: ExecuteFunc called with nil callback")
	}
	go func() {
		fn(c.run(ctx, r))
	}()
}

// Operation is a request executing in the background,
// which can be polled by a caller driving its own loop.
type Operation struct {
	done   chan struct{}
	result Result
}

// Start posts a request in the background and returns the running operation.
func (c *Client) Start(ctx context.Context, r Request) *Operation {
	op := &Operation{done: make(chan struct{})}
	go func() {
		op.result = c.run(ctx, r)
		close(op.done)
	}()
	return op
}

// Step reports whether the operation has completed. It never blocks.
func (op *Operation) Step() bool {
	select {
	case <-op.done:
		return true
	default:
		return false
	}
}

// Done returns a channel which is closed when the operation has completed.
func (op *Operation) Done() <-chan struct{} {
	return op.done
}

// Result waits for the operation to complete and returns its result.
func (op *Operation) Result() Result {
	<-op.done
	return op.result
}

// run validates, serializes and posts a request and resolves the response.
func (c *Client) run(ctx context.Context, r Request) Result {
	myLog := slog.With("url", redactURL(r.url), "kind", r.kind)
	fail := func(err error) Result {
		if !r.suppressErrorLogging {
			myLog.Error("Failed to execute webhook", "error", err)
		}
		return Failure(err)
	}
	if err := r.CheckFieldErrors(); err != nil {
		return fail(err)
	}
	if r.captureScreenshot {
		r = c.attachScreenshot(ctx, r)
	}
	p, err := r.Build()
	if err != nil {
		return fail(fmt.Errorf("build request: %w", err))
	}
	body, err := c.post(ctx, p)
	if err != nil {
		return fail(err)
	}
	res := Success(body)
	myLog.Info("Webhook executed", "files", len(p.Files), "size", humanize.Bytes(uint64(len(p.Body))), "message", res.HasMessage())
	return res
}

// attachScreenshot returns a copy of the request with a new screenshot as attached image.
// The request is returned unchanged when no screenshot could be taken.
func (c *Client) attachScreenshot(ctx context.Context, r Request) Request {
	if c.capturer == nil {
		slog.Warn("Screenshot requested, but no screen capturer configured")
		return r
	}
	img, err := c.capturer.CaptureScreenshot(ctx)
	if err != nil {
		if !r.suppressErrorLogging {
			slog.Warn("Failed to capture screenshot", "error", err)
		}
		return r
	}
	a, err := attachment.FromImage(img, c.imageOpts...)
	if err != nil {
		if !r.suppressErrorLogging {
			slog.Warn("Failed to encode screenshot", "error", err)
		}
		return r
	}
	return r.WithAttachedImage(a)
}
