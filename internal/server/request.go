package server

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const crlf = "\r\n"

// ErrMalformedRequest reports request bytes that are not valid UTF-8.
var ErrMalformedRequest = errors.New("malformed request")

// ParseRequest reads the request line out of one raw buffer. When the buffer
// is not valid UTF-8 the returned Request holds the salvaged text, with
// invalid sequences replaced by U+FFFD, and the error wraps
// ErrMalformedRequest. Callers decide whether to serve it anyway.
func ParseRequest(raw []byte) (Request, error) {
	text, decodeErr := decodeUTF8(raw)

	line := text
	if idx := strings.Index(text, crlf); idx != -1 {
		line = text[:idx]
	}

	var request Request
	tokens := strings.Split(line, " ")
	request.Method = tokens[0]
	if len(tokens) > 1 {
		request.Target = tokens[1]
	}

	if decodeErr != nil {
		return request, fmt.Errorf("%w: %v", ErrMalformedRequest, decodeErr)
	}
	return request, nil
}

func decodeUTF8(raw []byte) (string, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
		salvaged, _, serr := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
		if serr != nil {
			return "", err
		}
		return string(salvaged), err
	}
	return string(raw), nil
}
