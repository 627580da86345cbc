package querystring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/hookpost/internal/querystring"
)

func TestValues(t *testing.T) {
	t.Run("should encode in order", func(t *testing.T) {
		var q querystring.Values
		q.Add("wait", "true")
		q.Add("thread_id", "123")
		assert.Equal(t, "wait=true&thread_id=123", q.Encode())
		assert.Equal(t, "?wait=true&thread_id=123", q.String())
	})
	t.Run("should escape keys and values", func(t *testing.T) {
		var q querystring.Values
		q.Add("a b", "c&d=e")
		assert.Equal(t, "a+b=c%26d%3De", q.Encode())
	})
	t.Run("should return empty string when empty", func(t *testing.T) {
		var q querystring.Values
		assert.Equal(t, "", q.String())
	})
	t.Run("should replace existing key", func(t *testing.T) {
		q := querystring.Values{{"a", "1"}, {"b", "2"}, {"a", "3"}}
		q.Set("a", "9")
		assert.Equal(t, querystring.Values{{"a", "9"}, {"b", "2"}}, q)
	})
	t.Run("should append new key", func(t *testing.T) {
		q := querystring.Values{{"a", "1"}}
		q.Set("b", "2")
		assert.Equal(t, "a=1&b=2", q.Encode())
	})
	t.Run("can get value", func(t *testing.T) {
		q := querystring.Values{{"a", "1"}, {"a", "2"}}
		v, ok := q.Get("a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
		_, ok = q.Get("b")
		assert.False(t, ok)
	})
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want querystring.Values
	}{
		{"", querystring.Values{}},
		{"?", querystring.Values{}},
		{"?a=1&b=2", querystring.Values{{"a", "1"}, {"b", "2"}}},
		{"a=1&a=2", querystring.Values{{"a", "1"}, {"a", "2"}}},
		{"a+b=c%26d", querystring.Values{{"a b", "c&d"}}},
		{"a=1&broken&c=1=2&d=", querystring.Values{{"a", "1"}, {"d", ""}}},
		{"a=%zz&b=2", querystring.Values{{"b", "2"}}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, querystring.Parse(tc.in))
		})
	}
}

func TestMerge(t *testing.T) {
	cases := []struct {
		url    string
		values querystring.Values
		want   string
	}{
		{
			"https://discord.com/api/webhooks/1/abc",
			querystring.Values{{"wait", "true"}},
			"https://discord.com/api/webhooks/1/abc?wait=true",
		},
		{
			"https://discord.com/api/webhooks/1/abc?thread_id=5",
			querystring.Values{{"wait", "false"}},
			"https://discord.com/api/webhooks/1/abc?thread_id=5&wait=false",
		},
		{
			"https://discord.com/api/webhooks/1/abc?wait=false&x=y",
			querystring.Values{{"wait", "true"}, {"thread_id", "7"}},
			"https://discord.com/api/webhooks/1/abc?wait=true&x=y&thread_id=7",
		},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			got, err := querystring.Merge(tc.url, tc.values)
			if assert.NoError(t, err) {
				assert.Equal(t, tc.want, got)
			}
		})
	}
	t.Run("should return error for invalid URL", func(t *testing.T) {
		_, err := querystring.Merge("://invalid", querystring.Values{{"wait", "true"}})
		assert.Error(t, err)
	})
}
