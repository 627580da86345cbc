package webhook_test

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/snowflake"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

const messageJSON = `{
	"id": "1290012345678901234",
	"type": 0,
	"content": "hi",
	"channel_id": "1170001234567890123",
	"webhook_id": "123",
	"author": {"id": "123", "username": "Captain Hook", "bot": true},
	"attachments": [],
	"timestamp": "2024-09-28T12:00:00.000000+00:00",
	"flags": 0,
	"pinned": false,
	"mention_everyone": false,
	"tts": false
}`

// recordingResponder returns a responder, which captures the multipart form of each request.
func recordingResponder(t *testing.T, status int, body string, forms chan<- form) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		dat, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		forms <- parseForm(t, req.Header.Get("Content-Type"), dat)
		return httpmock.NewStringResponse(status, body), nil
	}
}

func TestExecute(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	c := webhook.NewClient(http.DefaultClient)
	t.Run("should post channel message and return result with message", func(t *testing.T) {
		httpmock.Reset()
		forms := make(chan form, 1)
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			recordingResponder(t, 200, messageJSON, forms),
		)
		r := webhook.NewChannelRequest(hookURL).WithContent("hi")
		res := c.Execute(ctx, r)
		require.True(t, res.IsSuccess())
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
		f := <-forms
		assert.JSONEq(t, `{"content":"hi"}`, f.fields["payload_json"])
		assert.Empty(t, f.files)
		require.True(t, res.HasMessage())
		assert.Equal(t, snowflake.ID(1290012345678901234), res.Message.ID)
		assert.Equal(t, "Captain Hook", res.Message.Author.Username)
		u, ok := res.MessageURL(42)
		assert.True(t, ok)
		assert.Equal(t, "https://discord.com/channels/42/1170001234567890123/1290012345678901234", u)
	})
	t.Run("should return success without message when not waiting", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=false",
			httpmock.NewStringResponder(204, ""),
		)
		r := webhook.NewChannelRequest(hookURL).WithContent("hi").WithSuppressResponseWait(true)
		res := c.Execute(ctx, r)
		assert.True(t, res.IsSuccess())
		assert.False(t, res.HasMessage())
		_, ok := res.MessageURL(42)
		assert.False(t, ok)
	})
	t.Run("should post forum reply to thread", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true&thread_id=99",
			httpmock.NewStringResponder(200, messageJSON),
		)
		r := webhook.NewForumRequest(hookURL).WithContent("hi").WithRepliedThreadID(99)
		res := c.Execute(ctx, r)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("should return failure for invalid request without network access", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterNoResponder(httpmock.NewStringResponder(200, messageJSON))
		r := webhook.NewForumRequest(hookURL).WithContent("hi").WithSuppressErrorLogging(true)
		res := c.Execute(ctx, r)
		assert.False(t, res.IsSuccess())
		assert.ErrorIs(t, res.Err(), webhook.ErrValidation)
		assert.Equal(t, "threadName or threadId required", res.ErrorMessage())
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})
	t.Run("should return HTTP error", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewStringResponder(400, `{"message": "Invalid Form Body", "code": 50035}`),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		assert.False(t, res.IsSuccess())
		var httpErr webhook.HTTPError
		if assert.ErrorAs(t, res.Err(), &httpErr) {
			assert.Equal(t, 400, httpErr.Status)
			assert.Contains(t, httpErr.Message, "Invalid Form Body")
		}
		_, ok := res.MessageURL(42)
		assert.False(t, ok)
	})
	t.Run("should return too many requests error with retry after from header", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewJsonResponderOrPanic(429, map[string]any{
				"message":     "You are being rate limited.",
				"retry_after": 64.57,
				"global":      false,
			}).HeaderSet(http.Header{"Retry-After": []string{"3"}}),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		assert.False(t, res.IsSuccess())
		var err429 webhook.TooManyRequestsError
		if assert.ErrorAs(t, res.Err(), &err429) {
			assert.Equal(t, 3*time.Second, err429.RetryAfter)
			assert.False(t, err429.Global)
		}
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("should return too many requests error with retry after from body", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewJsonResponderOrPanic(429, map[string]any{
				"message":     "You are being rate limited.",
				"retry_after": 1.5,
				"global":      true,
			}),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		var err429 webhook.TooManyRequestsError
		if assert.ErrorAs(t, res.Err(), &err429) {
			assert.Equal(t, 1500*time.Millisecond, err429.RetryAfter)
			assert.True(t, err429.Global)
		}
	})
	t.Run("should return too many requests error with default retry after", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewStringResponder(429, ""),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		var err429 webhook.TooManyRequestsError
		if assert.ErrorAs(t, res.Err(), &err429) {
			assert.Equal(t, 60*time.Second, err429.RetryAfter)
		}
	})
	t.Run("should return failure for network errors", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewErrorResponder(errors.New("connection refused")),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		assert.False(t, res.IsSuccess())
		assert.Contains(t, res.ErrorMessage(), "connection refused")
	})
	t.Run("should return success without message for invalid JSON", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewStringResponder(200, "not json"),
		)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi"))
		assert.True(t, res.IsSuccess())
		assert.False(t, res.HasMessage())
	})
	t.Run("should post attachments as files", func(t *testing.T) {
		httpmock.Reset()
		forms := make(chan form, 1)
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			recordingResponder(t, 200, messageJSON, forms),
		)
		r := webhook.NewChannelRequest(hookURL).
			WithContent("hi").
			WithAttachment(attachment.Attachment{Name: "log.txt", Data: []byte("line")})
		res := c.Execute(ctx, r)
		assert.True(t, res.IsSuccess())
		f := <-forms
		assert.Equal(t, []formFile{{field: "file1", filename: "log.txt", data: []byte("line")}}, f.files)
	})
}

func TestExecuteWithScreenshot(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	t.Run("should attach captured screenshot", func(t *testing.T) {
		httpmock.Reset()
		forms := make(chan form, 1)
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			recordingResponder(t, 200, messageJSON, forms),
		)
		capture := webhook.CaptureFunc(func(ctx context.Context) (image.Image, error) {
			return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
		})
		c := webhook.NewClient(http.DefaultClient, webhook.WithScreenCapturer(capture))
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi").WithScreenshot(true))
		assert.True(t, res.IsSuccess())
		f := <-forms
		require.Len(t, f.files, 1)
		assert.Equal(t, "file1", f.files[0].field)
		assert.Equal(t, "image.jpg", f.files[0].filename)
		assert.NotEmpty(t, f.files[0].data)
	})
	t.Run("should post without image when capture fails", func(t *testing.T) {
		httpmock.Reset()
		forms := make(chan form, 1)
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			recordingResponder(t, 200, messageJSON, forms),
		)
		capture := webhook.CaptureFunc(func(ctx context.Context) (image.Image, error) {
			return nil, errors.New("no display")
		})
		c := webhook.NewClient(http.DefaultClient, webhook.WithScreenCapturer(capture))
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi").WithScreenshot(true))
		assert.True(t, res.IsSuccess())
		f := <-forms
		assert.Empty(t, f.files)
	})
	t.Run("should post without image when no capturer is configured", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			hookURL+"?wait=true",
			httpmock.NewStringResponder(200, messageJSON),
		)
		c := webhook.NewClient(http.DefaultClient)
		res := c.Execute(ctx, webhook.NewChannelRequest(hookURL).WithContent("hi").WithScreenshot(true))
		assert.True(t, res.IsSuccess())
	})
}

func TestExecuteStyles(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	c := webhook.NewClient(http.DefaultClient)
	r := webhook.NewChannelRequest(hookURL).WithContent("hi")
	t.Run("should deliver result through channel", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", hookURL+"?wait=true", httpmock.NewStringResponder(200, messageJSON))
		ch := c.ExecuteAsync(ctx, r)
		res, ok := <-ch
		assert.True(t, ok)
		assert.True(t, res.HasMessage())
		_, ok = <-ch
		assert.False(t, ok)
	})
	t.Run("should deliver result to callback", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", hookURL+"?wait=true", httpmock.NewStringResponder(200, messageJSON))
		ch := make(chan webhook.Result, 1)
		c.ExecuteFunc(ctx, r, func(res webhook.Result) {
			ch <- res
		})
		select {
		case res := <-ch:
			assert.True(t, res.HasMessage())
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
	})
	t.Run("should deliver failure to callback", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", hookURL+"?wait=true", httpmock.NewStringResponder(500, ""))
		ch := make(chan webhook.Result, 1)
		c.ExecuteFunc(ctx, r.WithSuppressErrorLogging(true), func(res webhook.Result) {
			ch <- res
		})
		res := <-ch
		var httpErr webhook.HTTPError
		if assert.ErrorAs(t, res.Err(), &httpErr) {
			assert.Equal(t, 500, httpErr.Status)
		}
	})
	t.Run("should panic right away when callback is nil", func(t *testing.T) {
		assert.Panics(t, func() {
			c.ExecuteFunc(ctx, r, nil)
		})
	})
	t.Run("should complete operation driven by steps", func(t *testing.T) {
		httpmock.Reset()
		release := make(chan struct{})
		httpmock.RegisterResponder("POST", hookURL+"?wait=true", func(req *http.Request) (*http.Response, error) {
			<-release
			return httpmock.NewStringResponse(200, messageJSON), nil
		})
		op := c.Start(ctx, r)
		assert.False(t, op.Step())
		close(release)
		<-op.Done()
		assert.True(t, op.Step())
		res := op.Result()
		assert.True(t, res.HasMessage())
	})
}
