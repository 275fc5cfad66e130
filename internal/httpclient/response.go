package httpclient

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

const summaryLimit = 120

// Response is a buffered reply. The underlying body is already closed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	JSONErr    error
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RateLimited reports whether GitHub refused the request because the
// caller ran out of its rate limit budget.
func (r *Response) RateLimited() bool {
	switch r.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return r.Header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

func (r *Response) decode(out any) {
	if out == nil {
		return
	}
	r.JSONErr = json.Unmarshal(r.Body, out)
}

// SummarizeBody turns an error body into a one-line message. GitHub error
// payloads of the form {"message": "..."} yield the message; anything else
// is whitespace-collapsed and cut at 120 characters.
func SummarizeBody(body []byte) string {
	var ghErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
		body = []byte(ghErr.Message)
	}

	s := strings.Join(strings.Fields(string(body)), " ")
	if s == "" {
		return "empty body"
	}
	if utf8.RuneCountInString(s) > summaryLimit {
		return string([]rune(s)[:summaryLimit]) + "..."
	}
	return s
}
