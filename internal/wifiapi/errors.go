package wifiapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ErrorKind classifies a failed request. Callers see a single "request failed"
// error; the kind exists for logging and the Is* helpers.
type ErrorKind int

const (
	// KindNetwork indicates a transport failure (refused, timeout, DNS)
	KindNetwork ErrorKind = iota
	// KindHTTP indicates a non-2xx response
	KindHTTP
	// KindParse indicates a response body that is not the expected JSON
	KindParse
)

// String returns a human-readable name for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// RequestError is returned for every failed device API request.
type RequestError struct {
	Kind       ErrorKind
	Method     string
	URL        string
	StatusCode int    // HTTP status code (KindHTTP only)
	Status     string // HTTP status text, e.g. "Internal Server Error"
	Err        error  // underlying error (KindNetwork, KindParse)
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, e.Status)
	case KindParse:
		return fmt.Sprintf("%s: invalid JSON response: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.URL, e.Err)
	}
}

// Unwrap returns the underlying error for error chain inspection
func (e *RequestError) Unwrap() error {
	return e.Err
}

func newHTTPError(method, url string, resp *http.Response) *RequestError {
	return &RequestError{
		Kind:       KindHTTP,
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
	}
}

func newNetworkError(method, url string, err error) *RequestError {
	return &RequestError{Kind: KindNetwork, Method: method, URL: url, Err: err}
}

func newParseError(method, url string, err error) *RequestError {
	return &RequestError{Kind: KindParse, Method: method, URL: url, Err: err}
}

// statusText extracts the reason phrase from resp.Status ("500 Internal
// Server Error" -> "Internal Server Error"), falling back to the canonical
// text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func kindOf(err error) (ErrorKind, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a transport failure
func IsNetworkError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNetwork
}

// IsHTTPError checks if an error is a non-2xx response
func IsHTTPError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindHTTP
}

// IsParseError checks if an error is a malformed response body
func IsParseError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindParse
}

// StatusCode returns the HTTP status code carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Hint returns short troubleshooting advice for an error, for CLI output.
func Hint(err error) string {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return ""
	}

	switch reqErr.Kind {
	case KindNetwork:
		if os.IsTimeout(reqErr.Err) {
			return "The device did not respond in time. Check that you are connected to its access point."
		}
		return "The device is unreachable. Check the --device address and your WiFi connection."
	case KindHTTP:
		switch {
		case reqErr.StatusCode == http.StatusNotFound:
			return "The device does not know this network or endpoint."
		case reqErr.StatusCode == http.StatusConflict:
			return "The network is already saved on the device."
		case reqErr.StatusCode >= 500:
			return "The device reported an internal error. Try again or reboot the device."
		}
		return "The device rejected the request."
	case KindParse:
		return "The device answered with something that is not JSON. Is --device pointing at the right host?"
	}
	return ""
}
