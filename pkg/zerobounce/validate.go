package zerobounce

import (
	"context"
	"net/http"
	"strings"
)

// Validate checks a single address. ip is the optional signup IP used for
// geolocation; pass "" to omit it.
func (c *Client) Validate(ctx context.Context, email, ip string) (*Email, error) {
	params := validateParams(nonEmpty(email), nonEmpty(ip))
	if err := params.RequireFields("email"); err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, http.MethodGet, c.apiBaseURL(), "validate", params, "")
	if err != nil {
		return nil, err
	}

	obj, ok := resp.PayloadObject()
	if !ok {
		return nil, protocolError("validate", resp, "unexpected validate response")
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return nil, protocolError("validate", resp, msg)
	}

	var payload emailPayload
	if !resp.Decode(&payload) {
		return nil, protocolError("validate", resp, "unexpected validate response")
	}
	return payload.toEmail(), nil
}

// nonEmpty maps blank strings to nil so they are treated as absent parameters.
func nonEmpty(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
