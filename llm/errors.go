package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/tensorlane/llmbridge/types"
)

// maxTraceBody bounds how much of a request or response body ends up in an
// error diagnostic.
const maxTraceBody = 2048

// IsTransientStatus reports whether an HTTP status is worth retrying:
// rate limiting and any server-side failure.
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// MapHTTPError maps an HTTP failure status to a typed error with the
// appropriate retry flag. The diagnostic should already carry the
// request/response trace for operator debugging.
func MapHTTPError(status int, diagnostic, provider string) *types.Error {
	code := types.ErrAPI
	switch {
	case status == http.StatusTooManyRequests:
		code = types.ErrRateLimited
	case status >= 500:
		code = types.ErrServer
	case status == http.StatusBadRequest:
		code = types.ErrBadRequest
	case status == http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case status == http.StatusForbidden:
		code = types.ErrForbidden
	case status == http.StatusNotFound:
		code = types.ErrNotFound
	case status == http.StatusConflict:
		code = types.ErrConflict
	case status == http.StatusUnprocessableEntity:
		code = types.ErrUnprocessable
	}
	return &types.Error{
		Code:       code,
		Message:    diagnostic,
		HTTPStatus: status,
		Retryable:  IsTransientStatus(status),
		Provider:   provider,
	}
}

// ClassifyTransportError maps a transport-level failure (one that produced
// no HTTP response at all) to a typed error with a dedicated diagnostic.
// Both timeouts and connection failures are transient.
func ClassifyTransportError(err error, provider string) *types.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewError(types.ErrTimeout,
			fmt.Sprintf("request timed out before a response was received: %v", err)).
			WithCause(err).WithRetryable(true).WithProvider(provider)
	}
	return types.NewError(types.ErrConnection,
		fmt.Sprintf("connection failed before a response was received: %v", err)).
		WithCause(err).WithRetryable(true).WithProvider(provider)
}

// redactedHeaders never appear verbatim in a trace.
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"X-Api-Key":     true,
}

// FormatTrace renders the full request/response exchange for an error
// diagnostic: method, URL, headers and truncated bodies on both sides.
// Credential headers are redacted.
func FormatTrace(wire *WireRequest, status string, respHeader http.Header, respBody []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", wire.Method, wire.URL)
	writeHeaders(&b, "request headers", wire.Header)
	if len(wire.Body) > 0 {
		fmt.Fprintf(&b, " | request body: %s", truncate(wire.Body))
	}
	if status != "" {
		fmt.Fprintf(&b, " | status: %s", status)
	}
	writeHeaders(&b, "response headers", respHeader)
	if len(respBody) > 0 {
		fmt.Fprintf(&b, " | response body: %s", truncate(respBody))
	}
	return b.String()
}

func writeHeaders(b *strings.Builder, label string, h http.Header) {
	if len(h) == 0 {
		return
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, " | %s:", label)
	for _, k := range keys {
		v := strings.Join(h[k], ",")
		if redactedHeaders[http.CanonicalHeaderKey(k)] {
			v = "<redacted>"
		}
		fmt.Fprintf(b, " %s=%s", k, v)
	}
}

func truncate(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > maxTraceBody {
		return string(body[:maxTraceBody]) + "...(truncated)"
	}
	return string(body)
}

// ExtractErrorMessage pulls the provider's own error message out of a
// failure response body, falling back to the raw text when the body is not
// the common {"error": {...}} envelope.
func ExtractErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		if envelope.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", envelope.Error.Message, envelope.Error.Type)
		}
		return envelope.Error.Message
	}
	return string(bytes.TrimSpace(body))
}

// InBandError detects a provider that signalled failure inside a 200
// response and returns the embedded message.
func InBandError(body []byte) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	trimmed := bytes.TrimSpace(envelope.Error)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	return ExtractErrorMessage(body), true
}
