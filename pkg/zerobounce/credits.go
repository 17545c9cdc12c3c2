package zerobounce

import (
	"context"
	"net/http"
)

type creditsPayload struct {
	Credits *FlexInt `json:"Credits"`
}

// GetCredits returns the remaining credit balance.
// The service answers -1 for an unknown key, which is reported as a ProtocolError.
func (c *Client) GetCredits(ctx context.Context) (int, error) {
	resp, err := c.call(ctx, http.MethodGet, c.apiBaseURL(), "getcredits", nil, "")
	if err != nil {
		return 0, err
	}

	var payload creditsPayload
	if !resp.Decode(&payload) || payload.Credits == nil {
		if obj, ok := resp.PayloadObject(); ok {
			if msg, ok := obj["error"].(string); ok && msg != "" {
				return 0, protocolError("getcredits", resp, msg)
			}
		}
		return 0, protocolError("getcredits", resp, "credits missing from response")
	}
	if *payload.Credits < 0 {
		return 0, protocolError("getcredits", resp, "invalid API key")
	}
	return int(*payload.Credits), nil
}
