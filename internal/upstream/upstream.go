// Package upstream bounds every outbound call made by the backend: each attempt
// gets its own timeout, network-level failures are retried a fixed number of
// times, and every failure surfaces as an *Error.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/youi/backend/internal/logging"
)

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 8 << 20

// Policy controls timeouts and retries for one outbound call.
type Policy struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// DefaultPolicy allows one retry on network failure with a 15s per-attempt timeout.
var DefaultPolicy = Policy{
	Timeout:    15 * time.Second,
	MaxRetries: 1,
	Backoff:    250 * time.Millisecond,
}

// Error is the typed failure of an outbound call.
type Error struct {
	Service    string
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether the failure happened below HTTP (no status received).
func (e *Error) Temporary() bool {
	return e.StatusCode == 0 && IsNetworkError(e.Err)
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller performs outbound HTTP requests under a Policy.
type Caller struct {
	Service string
	Client  Doer
	Policy  Policy
}

// Do builds and sends a request, retrying on network failures only. Non-2xx
// responses are returned as *Error carrying the provider's error message.
func (c Caller) Do(ctx context.Context, op string, build func(ctx context.Context) (*http.Request, error)) (Response, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, span := logging.StartSpan(ctx, c.Service+"."+op)

	resp, err := Retry(ctx, c.Policy, func(ctx context.Context) (Response, error) {
		req, err := build(ctx)
		if err != nil {
			return Response{}, err
		}
		res, err := client.Do(req)
		if err != nil {
			return Response{}, err
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return Response{}, err
		}
		return Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil
	})
	if err != nil {
		err = &Error{Service: c.Service, Op: op, Err: err}
		span.EndErr(err)
		return Response{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &Error{
			Service:    c.Service,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    ProviderMessage(resp.Body),
		}
		if err.Message == "" {
			err.Message = http.StatusText(resp.StatusCode)
		}
		span.EndErr(err)
		return resp, err
	}

	span.End()
	return resp, nil
}

// Retry runs fn with a per-attempt timeout, retrying up to p.MaxRetries times
// when fn fails with a network-level error.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsNetworkError(err) || ctx.Err() != nil {
			return zero, err
		}

		if attempt < p.MaxRetries {
			logging.FromContext(ctx).Debug("retrying outbound call", slog.Int("attempt", attempt+1), slog.Any("error", err))
			if p.Backoff > 0 {
				timer := time.NewTimer(p.Backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					return zero, ctx.Err()
				case <-timer.C:
				}
			}
		}
	}
	return zero, lastErr
}

// IsNetworkError reports whether err happened below the HTTP layer: dial and
// DNS failures, timeouts, and reset or aborted connections.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// ProviderMessage extracts a human readable message from a Google-style
// `{"error":{"message":...}}` or OpenAI-style error body. It returns "" when
// the body carries none.
func ProviderMessage(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		if flat.Message != "" {
			return flat.Message
		}
		return flat.Error
	}
	return ""
}
