package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type stubSession struct {
	loggedIn  bool
	completed []string
	err       error
}

func (s *stubSession) LoginURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (s *stubSession) Complete(_ context.Context, code string) error {
	if s.err != nil {
		return s.err
	}
	s.completed = append(s.completed, code)
	s.loggedIn = true
	return nil
}

func (s *stubSession) LoggedIn() bool { return s.loggedIn }

func loginState(t *testing.T, handler AuthHandler) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			if c.Value != location.Query().Get("state") {
				t.Fatalf("cookie state %q does not match redirect state %q", c.Value, location.Query().Get("state"))
			}
			if !c.HttpOnly {
				t.Fatal("expected state cookie to be http only")
			}
			return c
		}
	}
	t.Fatal("expected state cookie")
	return nil
}

func TestAuthLoginRedirectsWithState(t *testing.T) {
	handler := AuthHandler{Session: &stubSession{}}
	cookie := loginState(t, handler)
	if cookie.Value == "" {
		t.Fatal("expected non-empty state")
	}
}

func TestAuthCallbackCompletesLogin(t *testing.T) {
	session := &stubSession{}
	handler := AuthHandler{Session: session}
	cookie := loginState(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+url.QueryEscape(cookie.Value), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	handler.Callback(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != MsgLoginComplete {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if len(session.completed) != 1 || session.completed[0] != "abc" {
		t.Fatalf("expected code to be exchanged, got %v", session.completed)
	}
}

func TestAuthCallbackRejectsBadState(t *testing.T) {
	session := &stubSession{}
	handler := AuthHandler{Session: session}

	cases := map[string]*http.Request{
		"no cookie": httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", nil),
	}
	mismatch := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", nil)
	mismatch.AddCookie(&http.Cookie{Name: stateCookieName, Value: "other"})
	cases["mismatch"] = mismatch

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Callback(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
			if rec.Body.String() != MsgLoginInvalidState {
				t.Fatalf("unexpected body %q", rec.Body.String())
			}
		})
	}
	if len(session.completed) != 0 {
		t.Fatal("expected no exchange")
	}
}

func TestAuthCallbackErrors(t *testing.T) {
	withState := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
		return req
	}

	t.Run("provider error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthHandler{Session: &stubSession{}}.Callback(rec, withState("/auth/callback?error=access_denied&state=s"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthHandler{Session: &stubSession{}}.Callback(rec, withState("/auth/callback?state=s"))
		if rec.Code != http.StatusBadRequest || rec.Body.String() != MsgLoginMissingCode {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthHandler{Session: &stubSession{err: errors.New("invalid_grant")}}.Callback(rec, withState("/auth/callback?code=abc&state=s"))
		if rec.Code != http.StatusInternalServerError || rec.Body.String() != MsgLoginFailed {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestAuthStatus(t *testing.T) {
	for _, loggedIn := range []bool{false, true} {
		rec := httptest.NewRecorder()
		AuthHandler{Session: &stubSession{loggedIn: loggedIn}}.Status(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

		var body statusResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.LoggedIn != loggedIn {
			t.Fatalf("expected loggedIn=%v got %v", loggedIn, body.LoggedIn)
		}
	}
}
