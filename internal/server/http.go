package server

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Request is the request line of one inbound buffer. Headers and body are
// never interpreted.
type Request struct {
	Method     string
	Target     string
	RemoteAddr string
}

// Header is a single response header line.
type Header struct {
	Key   string
	Value string
}

// Headers keeps response headers in insertion order, which is the order
// they are written on the wire.
type Headers []Header

// With returns a copy of h with key set to value. An existing key keeps its
// position.
func (h Headers) With(key, value string) Headers {
	key = canonicalKey(key)
	out := make(Headers, len(h), len(h)+1)
	copy(out, h)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Header{Key: key, Value: value})
}

func (h Headers) Get(key string) (string, bool) {
	key = canonicalKey(key)
	for _, hdr := range h {
		if hdr.Key == key {
			return hdr.Value, true
		}
	}
	return "", false
}

func (h Headers) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// canonicalKey title-cases each dash separated word, so "content-length"
// becomes "Content-Length". A Caser is stateful and must not be shared
// across goroutines.
func canonicalKey(key string) string {
	return cases.Title(language.English).String(key)
}

type Response struct {
	StatusCode int
	StatusText string
	Protocol   string
	Headers    Headers
	Body       []byte
}
