package upstream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func getBuilder(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestCallerRetriesNetworkFailureOnce(t *testing.T) {
	calls := 0
	c := Caller{
		Service: "test",
		Policy:  Policy{Timeout: time.Second, MaxRetries: 1},
		Client: doerFunc(func(*http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
			}
			return okResponse(`{"ok":true}`), nil
		}),
	}

	resp, err := c.Do(context.Background(), "get", getBuilder("http://example.invalid"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestCallerGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	c := Caller{
		Service: "test",
		Policy:  Policy{Timeout: time.Second, MaxRetries: 1},
		Client: doerFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}),
	}

	_, err := c.Do(context.Background(), "get", getBuilder("http://example.invalid"))
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.True(t, upErr.Temporary())
	assert.Zero(t, upErr.StatusCode)
}

func TestCallerDoesNotRetryHTTPStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	}))
	defer srv.Close()

	c := Caller{Service: "youtube", Client: srv.Client(), Policy: Policy{Timeout: time.Second, MaxRetries: 3}}
	_, err := c.Do(context.Background(), "search", getBuilder(srv.URL))
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "quotaExceeded", upErr.Message)
	assert.False(t, upErr.Temporary())
	assert.Equal(t, "youtube search (403): quotaExceeded", upErr.Error())
}

func TestCallerAppliesPerAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := Caller{Service: "slow", Client: srv.Client(), Policy: Policy{Timeout: 20 * time.Millisecond}}
	start := time.Now()
	_, err := c.Do(context.Background(), "get", getBuilder(srv.URL))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRetryStopsOnNonNetworkError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), Policy{MaxRetries: 3}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("bad input")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProviderMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"google", `{"error":{"message":"Channel not found"}}`, "Channel not found"},
		{"flat error", `{"error":"nope"}`, "nope"},
		{"flat message", `{"message":"hi"}`, "hi"},
		{"empty", ``, ""},
		{"garbage", `<html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderMessage([]byte(tt.body)))
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(&net.DNSError{Err: "no such host", IsNotFound: true}))
	assert.True(t, IsNetworkError(context.DeadlineExceeded))
	assert.False(t, IsNetworkError(errors.New("plain")))
	assert.False(t, IsNetworkError(nil))
}
