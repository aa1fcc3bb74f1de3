package server

import "strconv"

const protocolHTTP11 = "HTTP/1.1"

const (
	StatusOK                  = 200
	StatusMovedPermanently    = 301
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusMovedPermanently:    "MOVED PERMANENTLY",
	StatusBadRequest:          "BAD REQUEST",
	StatusNotFound:            "NOT FOUND",
	StatusMethodNotAllowed:    "METHOD NOT ALLOWED",
	StatusInternalServerError: "INTERNAL SERVER ERROR",
}

// StatusText returns the reason phrase written on the status line, or the
// empty string for codes this server never emits.
func StatusText(code int) string {
	return statusText[code]
}

// NotFoundPage is the body of every 404 response.
const NotFoundPage = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
</head>
<body>
<h1>404</h1>
<h2>Page Not Found</h2>
</body>
</html>
`

func HTTPBaseResponse(statusCode int) *Response {
	return &Response{
		StatusCode: statusCode,
		StatusText: StatusText(statusCode),
		Protocol:   protocolHTTP11,
	}
}

func HTTP200OK(body []byte, contentType string, size int64) *Response {
	resp := HTTPBaseResponse(StatusOK)
	if contentType != "" {
		resp.Headers = resp.Headers.With("Content-Type", contentType)
	}
	resp.Headers = resp.Headers.With("Content-Length", strconv.FormatInt(size, 10))
	resp.Body = body
	return resp
}

// HTTP301MovedPermanently carries no body and no Content-Length.
func HTTP301MovedPermanently(location string) *Response {
	resp := HTTPBaseResponse(StatusMovedPermanently)
	resp.Headers = resp.Headers.With("Location", location)
	return resp
}

func HTTP400BadRequest() *Response {
	return textResponse(StatusBadRequest)
}

// HTTP404NotFound serves NotFoundPage. withLength controls whether a
// Content-Length header is sent; older clients of this server expect none.
func HTTP404NotFound(withLength bool) *Response {
	resp := HTTPBaseResponse(StatusNotFound)
	resp.Headers = resp.Headers.With("Content-Type", "text/html")
	if withLength {
		resp.Headers = resp.Headers.With("Content-Length", strconv.Itoa(len(NotFoundPage)))
	}
	resp.Body = []byte(NotFoundPage)
	return resp
}

// HTTP405MethodNotAllowed carries no body and no Content-Length.
func HTTP405MethodNotAllowed() *Response {
	return HTTPBaseResponse(StatusMethodNotAllowed)
}

func HTTP500InternalServerError() *Response {
	return textResponse(StatusInternalServerError)
}

func textResponse(code int) *Response {
	body := []byte(strconv.Itoa(code) + " " + StatusText(code))
	resp := HTTPBaseResponse(code)
	resp.Headers = resp.Headers.
		With("Content-Type", "text/plain").
		With("Content-Length", strconv.Itoa(len(body)))
	resp.Body = body
	return resp
}
