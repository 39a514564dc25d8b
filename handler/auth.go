package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"usage-dashboard/auth"
	"usage-dashboard/model"
	"usage-dashboard/session"
)

// Response messages of the auth contract. The session cookie is the only
// authentication state there is; no server-side registry backs it.
const (
	msgAuthenticated    = "Authenticated"
	msgUnauthenticated  = "Unauthenticated"
	msgLoggedIn         = "Logged in successfully"
	msgInvalidCreds     = "Invalid email or password"
	msgAuthFirst        = "Authenticate yourself first"
	msgInvalidToken     = "Invalid session token"
	msgSignupOK         = "Login successful"
	msgAlreadyLoggedIn  = "You are already logged in"
	msgLoggedOut        = "Logged out successfully"
	msgAlreadyLoggedOut = "You already logged out"
)

// AuthHandler handles signup, login, logout and the session check
type AuthHandler struct {
	tokens  *auth.TokenManager
	cookies *session.CookieStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *auth.TokenManager, cookies *session.CookieStore) *AuthHandler {
	return &AuthHandler{
		tokens:  tokens,
		cookies: cookies,
	}
}

// Me handles GET /api/auth/me
// @Summary Check session
// @Description Reports whether a session cookie is present. Presence alone counts; the token signature is not verified here.
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.MessageResponse "Authenticated"
// @Failure 404 {object} model.MessageResponse "Unauthenticated"
// @Router /api/auth/me [get]
func (ah *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if _, present := ah.cookies.Read(r); present {
		SendMessage(w, http.StatusOK, msgAuthenticated)
		return
	}

	SendMessage(w, http.StatusNotFound, msgUnauthenticated)
}

// Signup handles POST /api/signup
// @Summary Sign up
// @Description Mints a session token from the submitted credentials and sets the session cookie. Rejected when a session cookie already exists, without comparing its credentials.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.SignupRequest true "Credentials"
// @Success 200 {object} model.MessageResponse "Login successful"
// @Failure 400 {object} model.MessageResponse "Already logged in or bad body"
// @Router /api/signup [post]
func (ah *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// An existing cookie wins, whoever it belongs to; it is never replaced
	if _, present := ah.cookies.Read(r); present {
		SendMessage(w, http.StatusBadRequest, msgAlreadyLoggedIn)
		return
	}

	token, err := ah.tokens.Generate(model.Credential{Email: req.Email, Password: req.Password})
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign session token")
		SendMessage(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	ah.cookies.Write(w, token)

	log.Info().Str("email", req.Email).Msg("Session created")
	SendMessage(w, http.StatusOK, msgSignupOK)
}

// Login handles POST /api/login
// @Summary Log in
// @Description Validates the submitted credentials against the pair embedded in the existing session token. Without a session cookie there is nothing to validate against and the request is rejected.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.MessageResponse "Logged in successfully"
// @Failure 404 {object} model.MessageResponse "Invalid credentials or no session to check against"
// @Failure 401 {object} model.MessageResponse "Session token failed verification"
// @Router /api/login [post]
func (ah *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, present := ah.cookies.Read(r)
	if !present {
		SendMessage(w, http.StatusNotFound, msgAuthFirst)
		return
	}

	cred, err := ah.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			log.Warn().Msg("Login attempted with an invalid session token")
			SendMessage(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		log.Error().Err(err).Msg("Failed to verify session token")
		SendMessage(w, http.StatusInternalServerError, "Failed to verify session")
		return
	}

	if cred.Email != req.Email || cred.Password != req.Password {
		SendMessage(w, http.StatusNotFound, msgInvalidCreds)
		return
	}

	log.Info().Str("email", req.Email).Msg("Login succeeded")
	SendMessage(w, http.StatusOK, msgLoggedIn)
}

// Logout handles GET /api/logout
// @Summary Log out
// @Description Deletes the session cookie when present
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.MessageResponse "Logged out successfully"
// @Failure 400 {object} model.MessageResponse "You already logged out"
// @Router /api/logout [get]
func (ah *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, present := ah.cookies.Read(r); !present {
		SendMessage(w, http.StatusBadRequest, msgAlreadyLoggedOut)
		return
	}

	ah.cookies.Clear(w)
	SendMessage(w, http.StatusOK, msgLoggedOut)
}
