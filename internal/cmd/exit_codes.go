package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zerobounce/zerobounce-cli/internal/config"
	"github.com/zerobounce/zerobounce-cli/internal/resolve"
	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

const (
	exitOK       = 0
	exitGeneric  = 1
	exitUsage    = 2
	exitAuth     = 3
	exitProtocol = 4
	exitCache    = 5
	exitNetwork  = 8
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	switch errorKind(err) {
	case "auth":
		return exitAuth
	case "parameter", "usage":
		return exitUsage
	case "protocol":
		return exitProtocol
	case "cache":
		return exitCache
	case "transport", "network":
		return exitNetwork
	}
	return exitGeneric
}

// errorKind classifies err for exit codes and JSON error output.
func errorKind(err error) string {
	if errors.Is(err, config.ErrNotConfigured) || errors.Is(err, zerobounce.ErrMissingAPIKey) {
		return "auth"
	}
	var protoErr *zerobounce.ProtocolError
	if errors.As(err, &protoErr) {
		if isAuthMessage(protoErr.Message) {
			return "auth"
		}
		return "protocol"
	}
	switch {
	case zerobounce.IsParameterError(err):
		return "parameter"
	case zerobounce.IsCacheError(err):
		return "cache"
	case zerobounce.IsTransportError(err):
		return "transport"
	}
	var ambiguous *resolve.AmbiguousError
	var noMatch *resolve.NoMatchError
	if errors.As(err, &ambiguous) || errors.As(err, &noMatch) || isUsageError(err) {
		return "usage"
	}
	if isNetworkError(err) {
		return "network"
	}
	return "error"
}

func isAuthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key")
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"invalid argument",
		"must be",
		"is required",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
