package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/querystring"
	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

// Discord message limits
const (
	contentLength    = 2000
	threadNameLength = 100
	usernameLength   = 80
)

const (
	ellipsis         = "..."
	payloadFieldName = "payload_json"
)

// Payload is the JSON part of a webhook request.
type Payload struct {
	Username    string         `json:"username,omitempty"`
	ThreadName  string         `json:"thread_name,omitempty"`
	AppliedTags []snowflake.ID `json:"applied_tags,omitempty"`
	Content     string         `json:"content"`
}

// Prepared is a serialized request, which is ready to be posted.
type Prepared struct {
	URL         string
	ContentType string
	Body        []byte
	Payload     Payload
	Files       []attachment.Attachment
}

// Build serializes the request into a multipart form and returns it together with the target URL.
//
// Text fields are truncated to Discord's limits.
// The overflow of a too long thread name is moved to the start of the content,
// unless this was disabled.
func (r Request) Build() (Prepared, error) {
	var p Prepared
	if r.kind != KindChannel && r.kind != KindForumThread {
		panic(fmt.Sprintf("invalid kind: %d", r.kind))
	}
	p.Payload = r.payload()
	files, err := r.files()
	if err != nil {
		return p, err
	}
	p.Files = files
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	dat, err := json.Marshal(p.Payload)
	if err != nil {
		return p, err
	}
	if err := w.WriteField(payloadFieldName, string(dat)); err != nil {
		return p, err
	}
	for i, f := range files {
		field := "file" + strconv.Itoa(i+1)
		name := f.Name
		if isBlank(name) {
			name = field
		}
		fw, err := w.CreateFormFile(field, name)
		if err != nil {
			return p, err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return p, err
		}
	}
	if err := w.Close(); err != nil {
		return p, err
	}
	p.Body = buf.Bytes()
	p.ContentType = w.FormDataContentType()
	u, err := r.targetURL()
	if err != nil {
		return p, err
	}
	p.URL = u
	return p, nil
}

// payload returns the normalized JSON payload.
func (r Request) payload() Payload {
	var p Payload
	content := r.content
	username, _ := truncate(r.username, usernameLength, "")
	p.Username = username
	if r.kind == KindForumThread && !isBlank(r.threadName) {
		name := []rune(r.threadName)
		if len(name) > threadNameLength {
			cut := threadNameLength - len(ellipsis)
			if !r.preventThreadOverflow {
				content = string(name[cut:]) + "\n" + content
			}
			p.ThreadName = string(name[:cut]) + ellipsis
		} else {
			p.ThreadName = r.threadName
		}
	}
	if r.kind == KindForumThread && len(r.appliedTags) > 0 {
		p.AppliedTags = r.appliedTags
	}
	p.Content, _ = truncate(content, contentLength, ellipsis)
	return p
}

// files returns the attachments in the order they are sent.
func (r Request) files() ([]attachment.Attachment, error) {
	files := make([]attachment.Attachment, 0)
	if r.attachedImage.IsValid() {
		files = append(files, r.attachedImage)
	}
	valid := make([]attachment.Attachment, 0, len(r.attachments))
	for _, a := range r.attachments {
		if a.IsValid() {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return files, nil
	}
	if !r.compressToZip {
		return append(files, valid...), nil
	}
	z, err := attachment.CompressToZip(attachment.ZipFileName(r.zipName), valid...)
	if err != nil {
		return nil, err
	}
	return append(files, z), nil
}

func (r Request) targetURL() (string, error) {
	var q querystring.Values
	if r.suppressResponseWait {
		q.Set("wait", "false")
	} else {
		q.Set("wait", "true")
	}
	if r.kind == KindForumThread && !r.repliedThreadID.IsZero() {
		q.Set("thread_id", r.repliedThreadID.String())
	}
	return querystring.Merge(r.url, q)
}

// truncate truncates a string to a maximum number of characters.
// The suffix is part of the maximum length and only added to truncated strings.
// It reports whether the string was truncated.
func truncate(s string, maxLen int, suffix string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s, false
	}
	n := maxLen - len([]rune(suffix))
	return string(runes[:n]) + suffix, true
}

// redactURL removes the webhook token from an URL, so it can be logged safely.
func redactURL(u string) string {
	const marker = "/webhooks/"
	i := strings.Index(u, marker)
	if i == -1 {
		return u
	}
	rest := u[i+len(marker):]
	j := strings.Index(rest, "/")
	if j == -1 {
		return u
	}
	end := strings.IndexAny(rest[j+1:], "?#")
	if end == -1 {
		return u[:i+len(marker)+j+1] + "REDACTED"
	}
	return u[:i+len(marker)+j+1] + "REDACTED" + rest[j+1+end:]
}
