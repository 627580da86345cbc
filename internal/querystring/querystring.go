// Package querystring encodes and decodes URL query strings as ordered key value pairs.
package querystring

import (
	"net/url"
	"strings"
)

// Pair is a single query parameter.
type Pair struct {
	Key   string
	Value string
}

// Values represents query parameters in the order they were added.
// The same key can occur multiple times.
type Values []Pair

// Add appends a parameter.
func (vs *Values) Add(key, value string) {
	*vs = append(*vs, Pair{Key: key, Value: value})
}

// Set replaces the value of an existing key at its first position
// and removes all other occurrences. New keys are appended.
func (vs *Values) Set(key, value string) {
	s := make(Values, 0, len(*vs)+1)
	var found bool
	for _, p := range *vs {
		if p.Key != key {
			s = append(s, p)
			continue
		}
		if !found {
			s = append(s, Pair{Key: key, Value: value})
			found = true
		}
	}
	if !found {
		s = append(s, Pair{Key: key, Value: value})
	}
	*vs = s
}

// Get returns the first value for a key and reports whether it was found.
func (vs Values) Get(key string) (string, bool) {
	for _, p := range vs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Encode returns the URL encoded form without a leading "?".
func (vs Values) Encode() string {
	segments := make([]string, 0, len(vs))
	for _, p := range vs {
		segments = append(segments, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(segments, "&")
}

// String returns the URL encoded form with a leading "?" or an empty string when there are no values.
func (vs Values) String() string {
	if len(vs) == 0 {
		return ""
	}
	return "?" + vs.Encode()
}

// Parse decodes a query string. A leading "?" is optional.
// Malformed pairs are skipped.
func Parse(query string) Values {
	vs := make(Values, 0)
	query = strings.TrimPrefix(strings.TrimSpace(query), "?")
	if query == "" {
		return vs
	}
	for _, pair := range strings.Split(query, "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}
		k, err := url.QueryUnescape(parts[0])
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		vs.Add(k, v)
	}
	return vs
}

// Merge sets the given values in the query string of a URL and returns the new URL.
// Existing parameters are kept unless they are overwritten.
func Merge(rawURL string, values Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := Parse(u.RawQuery)
	for _, p := range values {
		q.Set(p.Key, p.Value)
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false
	return u.String(), nil
}
