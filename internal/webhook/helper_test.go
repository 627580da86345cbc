package webhook_test

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type formFile struct {
	field    string
	filename string
	data     []byte
}

type form struct {
	fields map[string]string
	files  []formFile
}

func parseForm(t *testing.T, contentType string, body []byte) form {
	t.Helper()
	mt, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mt)
	r := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	f := form{fields: make(map[string]string)}
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		if p.FileName() != "" {
			f.files = append(f.files, formFile{field: p.FormName(), filename: p.FileName(), data: b})
		} else {
			f.fields[p.FormName()] = string(b)
		}
	}
	return f
}

func makeStr(n int) string {
	return strings.Repeat("x", n)
}
