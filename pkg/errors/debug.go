package errors

import (
	stdErrors "errors"
	"fmt"
)

const (
	maxChainDepth   = 8
	maxUpstreamBody = 512
)

// ErrorDump is a log-friendly breakdown of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`

	UpstreamMethod string `json:"upstream_method,omitempty"`
	UpstreamURL    string `json:"upstream_url,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// Dump walks err's chain up to maxChainDepth links and pulls out the first
// upstream HTTP failure, with its body cut to maxUpstreamBody bytes.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
		Code:       CodeInternal,
		Retryable:  Retryable(err),
	}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}

	for e, depth := err, 0; e != nil; e, depth = stdErrors.Unwrap(e), depth+1 {
		if depth == maxChainDepth {
			d.Chain = append(d.Chain, "...")
			break
		}
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var statusErr *HTTPStatusError
	if stdErrors.As(err, &statusErr) {
		d.UpstreamMethod = statusErr.Method
		d.UpstreamURL = statusErr.URL
		d.UpstreamStatus = statusErr.Status
		d.UpstreamBody = truncate(statusErr.Body, maxUpstreamBody)
	}
	return d
}

// Fields flattens the dump for structured logging. Upstream keys are only
// present when an upstream failure was found.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error_message": d.TopMessage,
		"error_code":    d.Code,
		"error_chain":   d.Chain,
		"retryable":     d.Retryable,
	}
	if d.UpstreamStatus != 0 {
		fields["upstream_method"] = d.UpstreamMethod
		fields["upstream_url"] = d.UpstreamURL
		fields["upstream_status"] = d.UpstreamStatus
		fields["upstream_body"] = d.UpstreamBody
	}
	return fields
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
