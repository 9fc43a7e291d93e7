package models

import (
	"net/url"
	"strings"
)

// QueryParams is an ordered name -> value mapping of query parameters.
// Keys keep the order they were first seen in; a repeated key keeps its
// original position but takes the last value.
type QueryParams struct {
	keys   []string
	values map[string]string
}

// NewQueryParams creates an empty QueryParams
func NewQueryParams() *QueryParams {
	return &QueryParams{values: make(map[string]string)}
}

// ParseQuery decodes a raw query string (without the leading '?').
// Malformed percent-escapes are kept as written instead of failing the request.
func ParseQuery(rawQuery string) *QueryParams {
	q := NewQueryParams()
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		q.Set(unescapeQueryPart(key), unescapeQueryPart(value))
	}
	return q
}

func unescapeQueryPart(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// Get returns the value stored for key
func (q *QueryParams) Get(key string) (string, bool) {
	v, ok := q.values[key]
	return v, ok
}

// Set stores value under key, appending key to the order if it is new
func (q *QueryParams) Set(key, value string) {
	if _, exists := q.values[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

// Keys returns the parameter names in order
func (q *QueryParams) Keys() []string {
	keys := make([]string, len(q.keys))
	copy(keys, q.keys)
	return keys
}

// Len returns the number of distinct parameters
func (q *QueryParams) Len() int {
	return len(q.keys)
}

// Encode serializes the parameters back into a query string, in order.
func (q *QueryParams) Encode() string {
	if len(q.keys) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range q.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.values[key]))
	}
	return b.String()
}
