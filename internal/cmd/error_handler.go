package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zerobounce/zerobounce-cli/internal/resolve"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

// HandleError renders err for a terminal, with suggestions where we have some.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder
	var paramErr *zerobounce.ParameterError
	var protoErr *zerobounce.ProtocolError
	var cacheErr *zerobounce.CacheError
	var transportErr *zerobounce.TransportError
	var ambiguous *resolve.AmbiguousError

	switch {
	case errorKind(err) == "auth":
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: zb auth login\n")
		msg.WriteString("  - Or export ZEROBOUNCE_API_KEY\n")
		msg.WriteString("  - Check the key in your ZeroBounce dashboard\n")

	case errors.As(err, &paramErr):
		fmt.Fprintf(&msg, "Invalid input: %s\n", paramErr)

	case errors.As(err, &protoErr):
		fmt.Fprintf(&msg, "ZeroBounce rejected the request: %s\n", protoErr.Message)
		if protoErr.StatusCode >= 500 {
			msg.WriteString("\nThe service returned a server error; retry later.\n")
		}

	case errors.As(err, &cacheErr):
		fmt.Fprintf(&msg, "Cache error: %s\n\n", cacheErr)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Retry with --cache none\n")
		msg.WriteString("  - Check --redis-url / ZEROBOUNCE_REDIS_URL\n")

	case errors.As(err, &transportErr):
		fmt.Fprintf(&msg, "Could not reach ZeroBounce: %s\n\n", transportErr)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your network connection\n")
		msg.WriteString("  - Increase --timeout\n")

	case errors.As(err, &ambiguous):
		fmt.Fprintf(&msg, "Error: %s\n", ambiguous)

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}
