package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/logging"
)

const (
	stateCookieName = "youi_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// Plain-text answers of the OAuth callback.
const (
	MsgLoginComplete     = "✅ Logged in with YouTube. You can close this tab and return to YOUI."
	MsgLoginInvalidState = "Login link expired or was tampered with. Start again at /auth/login."
	MsgLoginMissingCode  = "Missing authorization code."
	MsgLoginFailed       = "Login failed. Check the server logs and try again."
)

// AuthHandler implements the OAuth login endpoints.
type AuthHandler struct {
	Session       OAuthSession
	SecureCookies bool
}

// Login handles GET /auth/login by redirecting to the consent screen.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Session == nil {
		logger.Error("oauth session unavailable")
		respondText(ctx, w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		logger.Error("generate oauth state", "error", err)
		respondText(ctx, w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Session.LoginURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback: it checks the state, exchanges the
// code and persists the credential.
func (h AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Session == nil {
		logger.Error("oauth session unavailable")
		respondText(ctx, w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		logger.Warn("provider rejected login", "error", providerErr)
		respondText(ctx, w, http.StatusBadRequest, "Login was not completed: "+providerErr)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	state := query.Get("state")
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		logger.Warn("oauth state mismatch", "hasCookie", err == nil)
		respondText(ctx, w, http.StatusBadRequest, MsgLoginInvalidState)
		return
	}
	h.clearState(w)

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		respondText(ctx, w, http.StatusBadRequest, MsgLoginMissingCode)
		return
	}

	if err := h.Session.Complete(ctx, code); err != nil {
		logger.Error("complete oauth login", "error", err)
		respondText(ctx, w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}

	logger.Info("platform account connected")
	respondText(ctx, w, http.StatusOK, MsgLoginComplete)
}

// Status handles GET /auth/status.
func (h AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	loggedIn := h.Session != nil && h.Session.LoggedIn()
	respondJSON(r.Context(), w, http.StatusOK, statusResponse{LoggedIn: loggedIn})
}

type statusResponse struct {
	LoggedIn bool `json:"loggedIn"`
}

func (h AuthHandler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
