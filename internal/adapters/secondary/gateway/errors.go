package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// GatewayError is a non-2xx answer from the backend.
type GatewayError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether the failure was on the server side.
func (e *GatewayError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// newGatewayError reads the error detail from resp and closes its body.
func newGatewayError(endpoint string, resp *http.Response) *GatewayError {
	defer drain(resp.Body)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	return &GatewayError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Message:    errorDetail(data),
	}
}

// errorDetail extracts the message from {"detail": ...} or {"error": ...}
// bodies, falling back to the raw text.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		var detail string
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if len(body.Detail) > 0 {
			return string(body.Detail)
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// StatusLabel classifies an error for metrics.
func StatusLabel(err error) string {
	if err == nil {
		return "success"
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Temporary() {
			return "server_error"
		}
		return "client_error"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network_error"
}
