// Package webhook builds and executes Discord webhook requests
// for text channels and forum threads.
package webhook

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

// Kind is the type of channel a webhook posts to.
type Kind uint

const (
	KindChannel Kind = iota
	KindForumThread
)

func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindForumThread:
		return "forum"
	}
	panic(fmt.Sprintf("invalid kind: %d", k))
}

// Request describes a message to be posted to a webhook.
//
// A Request is an immutable value: all With methods return a modified copy
// and leave the original unchanged.
type Request struct {
	kind                  Kind
	url                   string
	content               string
	threadName            string
	repliedThreadID       snowflake.ID
	username              string
	attachedImage         attachment.Attachment
	attachments           []attachment.Attachment
	appliedTags           []snowflake.ID
	compressToZip         bool
	zipName               string
	captureScreenshot     bool
	suppressResponseWait  bool
	suppressErrorLogging  bool
	preventThreadOverflow bool
}

// NewChannelRequest returns a new request for a webhook of a text channel.
func NewChannelRequest(url string) Request {
	return Request{kind: KindChannel, url: url}
}

// NewForumRequest returns a new request for a webhook of a forum channel.
// Forum requests either start a new thread with a thread name
// or reply to an existing thread.
func NewForumRequest(url string) Request {
	return Request{kind: KindForumThread, url: url}
}

// NewRequest returns a new request for the given kind.
func NewRequest(kind Kind, url string) Request {
	return Request{kind: kind, url: url}
}

func (r Request) Kind() Kind {
	return r.kind
}

func (r Request) URL() string {
	return r.url
}

func (r Request) Content() string {
	return r.content
}

func (r Request) ThreadName() string {
	return r.threadName
}

func (r Request) RepliedThreadID() snowflake.ID {
	return r.repliedThreadID
}

// WithContent sets the message content. Required.
func (r Request) WithContent(s string) Request {
	r.content = s
	return r
}

// WithThreadName sets the name of a new forum thread.
func (r Request) WithThreadName(s string) Request {
	r.threadName = s
	return r
}

// WithRepliedThreadID sets the forum thread to reply to.
func (r Request) WithRepliedThreadID(id snowflake.ID) Request {
	r.repliedThreadID = id
	return r
}

// WithUsername overrides the default username of the webhook.
func (r Request) WithUsername(s string) Request {
	r.username = s
	return r
}

// WithAttachedImage sets the image, which is always sent as first file.
// It is replaced by a screenshot when screenshots are enabled.
func (r Request) WithAttachedImage(a attachment.Attachment) Request {
	r.attachedImage = a
	return r
}

// WithAttachment adds a file.
func (r Request) WithAttachment(a attachment.Attachment) Request {
	return r.WithAttachments(a)
}

// WithAttachments adds several files.
func (r Request) WithAttachments(aa ...attachment.Attachment) Request {
	r.attachments = append(slices.Clone(r.attachments), aa...)
	return r
}

// WithAppliedTags adds forum tags. Tags are ignored for channel requests.
func (r Request) WithAppliedTags(ids ...snowflake.ID) Request {
	r.appliedTags = append(slices.Clone(r.appliedTags), ids...)
	return r
}

// WithCompressToZip enables sending all additional files as one zip archive.
// A blank name results in the default name.
func (r Request) WithCompressToZip(enabled bool, name string) Request {
	r.compressToZip = enabled
	r.zipName = name
	return r
}

// WithScreenshot enables capturing a screenshot as attached image.
// This requires a client with a [ScreenCapturer].
func (r Request) WithScreenshot(enabled bool) Request {
	r.captureScreenshot = enabled
	return r
}

// WithSuppressResponseWait tells Discord not to wait for the message to be created.
// The response will then not contain a message.
func (r Request) WithSuppressResponseWait(suppress bool) Request {
	r.suppressResponseWait = suppress
	return r
}

// WithSuppressErrorLogging disables logging of errors for this request.
func (r Request) WithSuppressErrorLogging(suppress bool) Request {
	r.suppressErrorLogging = suppress
	return r
}

// WithPreventThreadNameOverflow disables moving the overflow of a too long thread name
// into the content.
func (r Request) WithPreventThreadNameOverflow(prevent bool) Request {
	r.preventThreadOverflow = prevent
	return r
}

// CheckFieldErrors reports whether all required fields are set.
// It returns a [*ValidationError] if not.
// It panics for requests with an invalid kind.
func (r Request) CheckFieldErrors() error {
	switch r.kind {
	case KindChannel:
		if r.content == "" {
			return &ValidationError{Field: "content", Message: "content required"}
		}
	case KindForumThread:
		if r.content == "" {
			return &ValidationError{Field: "content", Message: "content required"}
		}
		if isBlank(r.threadName) && r.repliedThreadID.IsZero() {
			return &ValidationError{Field: "threadName", Message: "threadName or threadId required"}
		}
	default:
		panic(fmt.Sprintf("invalid kind: %d", r.kind))
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
