// Package handler exposes email/password authentication over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/MatheusAFD/mono-repo-auth/internal/identity/service"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/middleware"
	"github.com/MatheusAFD/mono-repo-auth/internal/server/response"
	"github.com/MatheusAFD/mono-repo-auth/internal/session/dto"
	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

// AuthService is the service the handler delegates to.
type AuthService interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*service.AuthResult, error)
	SignIn(ctx context.Context, in service.SignInInput) (*service.AuthResult, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*service.AuthResult, error)
}

// CookieSigner signs the session token into the cookie value.
type CookieSigner interface {
	Sign(token, userID string, expiresAt time.Time) (string, error)
}

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Handler serves /sign-up/email, /sign-in/email, /sign-out and /get-session.
type Handler struct {
	svc    AuthService
	signer CookieSigner
	cookie CookieOptions
	logger *slog.Logger
}

// NewHandler returns an auth handler.
func NewHandler(svc AuthService, signer CookieSigner, cookie CookieOptions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, signer: signer, cookie: cookie, logger: logger}
}

// Routes returns the auth routes. Sign-in is limited to signInPerMinute requests per client IP.
func (h *Handler) Routes(signInPerMinute int) http.Handler {
	r := chi.NewRouter()
	r.Post("/sign-up/email", h.SignUp)
	r.With(httprate.Limit(
		signInPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, "Too many sign-in attempts, try again later")
		}),
	)).Post("/sign-in/email", h.SignIn)
	r.Post("/sign-out", h.SignOut)
	r.Get("/get-session", h.GetSession)
	return r
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	Role          string    `json:"role"`
	Banned        bool      `json:"banned"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// sessionResponse is the body of sign-in, sign-up and get-session.
type sessionResponse struct {
	Session *dto.Session  `json:"session"`
	User    *userResponse `json:"user"`
}

// SignUp creates an account and sets the session cookie.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.svc.SignUp(r.Context(), service.SignUpInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: middleware.ClientIPFromContext(r.Context()),
		UserAgent: middleware.UserAgentFromContext(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, r, res)
}

// SignIn verifies credentials and sets the session cookie.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.svc.SignIn(r.Context(), service.SignInInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: middleware.ClientIPFromContext(r.Context()),
		UserAgent: middleware.UserAgentFromContext(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, r, res)
}

// SignOut deletes the caller's session, if any, and clears the cookie.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		if err := h.svc.SignOut(context.WithoutCancel(r.Context()), id.SessionToken); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.clearCookie(w)
	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSession writes the caller's session and user, or null when signed out.
// The cookie is re-issued so its expiry follows the sliding session expiry.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.JSON(w, http.StatusOK, nil)
		return
	}
	res, err := h.svc.GetSession(r.Context(), id.SessionToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res == nil {
		h.clearCookie(w)
		response.JSON(w, http.StatusOK, nil)
		return
	}
	h.writeSession(w, r, res)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, res *service.AuthResult) {
	value, err := h.signer.Sign(res.Session.Token, res.User.ID, res.Session.ExpiresAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, sessionResponse{
		Session: dto.FromDomain(res.Session),
		User:    toUserResponse(res.User),
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		response.Error(w, http.StatusUnprocessableEntity, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUserBanned):
		response.Error(w, http.StatusForbidden, "User is banned")
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "")
	}
}

func toUserResponse(u *userdomain.User) *userResponse {
	if u == nil {
		return nil
	}
	var image *string
	if u.Image != "" {
		image = &u.Image
	}
	return &userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         image,
		Role:          string(u.Role),
		Banned:        u.Banned,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
