package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/domain"
	"backoffice-api/internal/service"
)

// AuthHandler handles the authentication endpoints. Login, logout and
// check live outside the request gate: login has no credentials yet,
// logout must work even with a half-dead session, and check reports the
// current state without rotating it.
type AuthHandler struct {
	authService *service.AuthService
	validator   *auth.Validator
	cookieTTL   time.Duration
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *service.AuthService, validator *auth.Validator, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
		cookieTTL:   cookieTTL,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CheckResponse reports the authentication state of the caller.
type CheckResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	OwnerID  string `json:"ownerId,omitempty"`
}

// Login handles user login. On success both credential cookies are set
// and the caller is expected to copy the CSRF cookie value into the
// CSRF header on subsequent requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"Username and password are required"}`, http.StatusBadRequest)
		return
	}

	issued, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"error":"Login failed"}`, http.StatusInternalServerError)
		return
	}

	auth.SetCredentialCookies(w, issued.Token, issued.CSRFValue, h.cookieTTL)

	resp := LoginResponse{
		Success:  true,
		ID:       user.ID,
		Username: user.Username,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Logout revokes the presented sessions and clears the credential
// cookies. It always succeeds: there is nothing useful to tell a client
// whose session was already gone.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), auth.CredentialsFromRequest(r))

	auth.ClearCredentialCookies(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Check runs the full credential validation without rotating the
// session pair, so clients can poll it freely.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, failure := h.validator.Validate(r.Context(), w, auth.CredentialsFromRequest(r), auth.Policy{
		SendResponseOnFail: true,
		ClearCookiesOnFail: true,
	})
	if failure != nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CheckResponse{
		LoggedIn: true,
		OwnerID:  identity.OwnerID,
	})
}
