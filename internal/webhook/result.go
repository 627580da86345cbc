package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

const messageURLBase = "https://discord.com/channels"

var errUnknown = errors.New("unknown error")

// Result is the outcome of executing a request. It is either a success or a failure.
//
// A success can have a message, which is only the case
// when Discord was asked to wait for the message and returned a valid response.
type Result struct {
	Message *ResponseMessage
	err     error
}

// Success returns a successful result. The message is parsed from the response body if possible.
// A body which can not be parsed or has no message and channel ID still results in a success.
func Success(body []byte) Result {
	var r Result
	if strings.TrimSpace(string(body)) == "" {
		return r
	}
	var m ResponseMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return r
	}
	if m.ID.IsZero() || m.ChannelID.IsZero() {
		return r
	}
	r.Message = &m
	return r
}

// Failure returns a failed result.
func Failure(err error) Result {
	if err == nil {
		err = errUnknown
	}
	return Result{err: err}
}

func (r Result) IsSuccess() bool {
	return r.err == nil
}

// Err returns the error of a failed result or nil.
func (r Result) Err() error {
	return r.err
}

// ErrorMessage returns the error message of a failed result or an empty string.
func (r Result) ErrorMessage() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// HasMessage reports whether the result is a success with a parsed message.
func (r Result) HasMessage() bool {
	return r.IsSuccess() && r.Message != nil
}

// MessageURL returns the permalink of the posted message.
// It reports false when the result has no message.
func (r Result) MessageURL(guildID snowflake.ID) (string, bool) {
	if !r.HasMessage() {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s/%s", messageURLBase, guildID, r.Message.ChannelID, r.Message.ID), true
}

func (r Result) String() string {
	if !r.IsSuccess() {
		return "Failure: " + r.ErrorMessage()
	}
	if r.Message == nil {
		return "Success"
	}
	return fmt.Sprintf("Success: message %s in channel %s", r.Message.ID, r.Message.ChannelID)
}

// ResponseMessage is the message object Discord returns for a created message.
type ResponseMessage struct {
	Attachments     []ResponseAttachment `json:"attachments"`
	Author          ResponseAuthor       `json:"author"`
	ChannelID       snowflake.ID         `json:"channel_id"`
	Content         string               `json:"content"`
	Flags           int                  `json:"flags"`
	ID              snowflake.ID         `json:"id"`
	MentionEveryone bool                 `json:"mention_everyone"`
	Pinned          bool                 `json:"pinned"`
	Timestamp       time.Time            `json:"timestamp"`
	TTS             bool                 `json:"tts"`
	Type            int                  `json:"type"`
	WebhookID       snowflake.ID         `json:"webhook_id"`
}

type ResponseAttachment struct {
	ContentType        string       `json:"content_type"`
	Filename           string       `json:"filename"`
	Height             int          `json:"height"`
	ID                 snowflake.ID `json:"id"`
	Placeholder        string       `json:"placeholder"`
	PlaceholderVersion int          `json:"placeholder_version"`
	ProxyURL           string       `json:"proxy_url"`
	Size               int64        `json:"size"`
	URL                string       `json:"url"`
	Width              int          `json:"width"`
}

type ResponseAuthor struct {
	Bot         bool         `json:"bot"`
	Flags       int          `json:"flags"`
	ID          snowflake.ID `json:"id"`
	PublicFlags int          `json:"public_flags"`
	Username    string       `json:"username"`
}
