package pinning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	defaultTimeout     = 120
	maxErrorBodyLength = 4096
	octetStream        = "application/octet-stream"
)

// Client uploads content to a pinning or content-addressing service.
// Every method performs exactly one remote call and keeps no local state between calls.
type Client interface {
	// Upload sends the file at path and returns its content identifier.
	Upload(ctx context.Context, path string) (*Pin, error)
	// UploadJSON sends an in-memory JSON document stored under name.
	UploadJSON(ctx context.Context, name string, body []byte) (*Pin, error)
	// Pin asks the service to retain cid indefinitely.
	Pin(ctx context.Context, cid string, name string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Pin is the service's answer to a successful upload.
type Pin struct {
	Name      string
	CID       string
	Size      int64
	Timestamp string
}

type Kind string

const (
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindTransient    Kind = "transient"
	KindMalformed    Kind = "malformed"
)

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Error is a classified upload failure.
type Error struct {
	error
	Kind       Kind
	StatusCode int
}

func (e *Error) Unwrap() error {
	return e.error
}

func NewErrRateLimited(statusCode int, err error) *Error {
	return &Error{error: fmt.Errorf("rate limited: %w", err), Kind: KindRateLimited, StatusCode: statusCode}
}

func NewErrUnauthorized(statusCode int, err error) *Error {
	return &Error{error: fmt.Errorf("unauthorized: %w", err), Kind: KindUnauthorized, StatusCode: statusCode}
}

func NewErrTransient(statusCode int, err error) *Error {
	return &Error{error: fmt.Errorf("transient failure: %w", err), Kind: KindTransient, StatusCode: statusCode}
}

func NewErrMalformed(statusCode int, err error) *Error {
	return &Error{error: fmt.Errorf("malformed request: %w", err), Kind: KindMalformed, StatusCode: statusCode}
}

// KindOf classifies err. Errors that were not produced by a Client are transient.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// errorFromStatus maps an HTTP status of a failed call to a classified error.
func errorFromStatus(statusCode int, body string) *Error {
	err := fmt.Errorf("service returned status %d: %s", statusCode, strings.TrimSpace(body))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewErrRateLimited(statusCode, err)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewErrUnauthorized(statusCode, err)
	case statusCode == http.StatusRequestTimeout || statusCode >= 500:
		return NewErrTransient(statusCode, err)
	default:
		return NewErrMalformed(statusCode, err)
	}
}

// doRequest executes req and returns the body of a 2xx response.
func doRequest(httpClient *http.Client, req *http.Request) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, NewErrTransient(0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return nil, errorFromStatus(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewErrTransient(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, nil
}

func mediaType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return octetStream
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
