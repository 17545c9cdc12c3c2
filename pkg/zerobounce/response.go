package zerobounce

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
)

// Response is the raw result of one API call.
type Response struct {
	StatusCode int    `json:"status"`
	Body       []byte `json:"body"`

	// FromCache is set when the response was served by the cache adapter.
	FromCache bool `json:"-"`

	payloadOnce sync.Once
	payload     any
}

// NewResponse builds a response from a status code and raw body.
func NewResponse(status int, body []byte) *Response {
	return &Response{StatusCode: status, Body: body}
}

// Payload returns the JSON-decoded body. It is decoded at most once; a body
// that is not valid JSON yields nil rather than an error.
func (r *Response) Payload() any {
	if r == nil {
		return nil
	}
	r.payloadOnce.Do(func() {
		if len(r.Body) == 0 {
			return
		}
		var v any
		if err := json.Unmarshal(r.Body, &v); err == nil {
			r.payload = v
		}
	})
	return r.payload
}

// PayloadObject returns the payload when it is a JSON object.
func (r *Response) PayloadObject() (map[string]any, bool) {
	obj, ok := r.Payload().(map[string]any)
	return obj, ok
}

// Decode unmarshals the body into dst and reports whether it succeeded.
func (r *Response) Decode(dst any) bool {
	if r == nil || len(r.Body) == 0 {
		return false
	}
	return json.Unmarshal(r.Body, dst) == nil
}

// Successful reports whether an HTTP status was obtained and is below 300.
func (r *Response) Successful() bool {
	return r != nil && r.StatusCode > 0 && r.StatusCode < 300
}

// messageFromPayload extracts a "message" field that may be a string or a list of strings.
func messageFromPayload(payload map[string]any) string {
	switch m := payload["message"].(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ". ")
	}
	return ""
}

// truthy mirrors the service's loose booleans: true, non-zero numbers and
// non-empty strings other than false-like words count as true.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		switch strings.ToLower(s) {
		case "", "no", "n", "off":
			return false
		}
		return true
	default:
		return false
	}
}
