package account

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	accountsvc "github.com/streamvault/streamvault/pkg/account"
	"github.com/streamvault/streamvault/pkg/binder"
	"github.com/streamvault/streamvault/pkg/jwt"
	"github.com/streamvault/streamvault/pkg/logger"
	"github.com/streamvault/streamvault/pkg/response"
)

const defaultTokenTTL = 24 * time.Hour

// Handler serves signup, login, and profile routes.
type Handler struct {
	svc      *accountsvc.Service
	tokens   *jwt.Service
	tokenTTL time.Duration
	issuer   string
	log      *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

// WithIssuer sets the iss claim on issued tokens.
func WithIssuer(issuer string) HandlerOption {
	return func(h *Handler) {
		h.issuer = issuer
	}
}

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler panics when svc or tokens is nil.
func NewHandler(svc *accountsvc.Service, tokens *jwt.Service, opts ...HandlerOption) *Handler {
	if svc == nil {
		panic("account module: service is required")
	}
	if tokens == nil {
		panic("account module: jwt service is required")
	}

	h := &Handler{
		svc:      svc,
		tokens:   tokens,
		tokenTTL: defaultTokenTTL,
		issuer:   "streamvault",
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the account routes. Signup and login are public but sit
// behind the limit middleware when one is given; profile routes require a
// bearer token.
func (h *Handler) Router(auth func(http.Handler) http.Handler, limit ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		for _, mw := range limit {
			if mw != nil {
				r.Use(mw)
			}
		}
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/me", h.handleMe)
		r.Put("/me/profile", h.handleUpdateProfile)
	})

	return r
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  *accountsvc.User `json:"user"`
}

func (h *Handler) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	return h.tokens.Generate(jwt.StandardClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		Issuer:    h.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(h.tokenTTL).Unix(),
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := binder.BindJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	switch {
	case err == nil:
	case errors.Is(err, accountsvc.ErrEmailAlreadyExists):
		response.Error(w, http.StatusConflict, "email_taken", "an account with this email already exists")
		return
	case errors.Is(err, accountsvc.ErrInvalidEmail):
		response.Error(w, http.StatusBadRequest, "invalid_email", "email address is not valid")
		return
	case errors.Is(err, accountsvc.ErrWeakPassword):
		response.Error(w, http.StatusBadRequest, "weak_password", "password does not meet requirements")
		return
	default:
		h.log.ErrorContext(r.Context(), "signup failed", logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "signup_failed", "failed to create account")
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to issue token after signup",
			logger.UserID(user.ID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "signup_failed", "failed to create account")
		return
	}

	response.JSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := binder.BindJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, accountsvc.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	default:
		h.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "login_failed", "failed to sign in")
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to issue token after login",
			logger.UserID(user.ID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "login_failed", "failed to sign in")
		return
	}

	response.JSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

type meResponse struct {
	User    *accountsvc.User    `json:"user"`
	Profile *accountsvc.Profile `json:"profile"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		return
	}

	user, err := h.svc.GetUser(r.Context(), userID)
	switch {
	case err == nil:
	case errors.Is(err, accountsvc.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "user_not_found", "account no longer exists")
		return
	default:
		h.log.ErrorContext(r.Context(), "failed to load user",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "profile_failed", "failed to load account")
		return
	}

	profile, err := h.svc.EnsureProfile(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to load profile",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "profile_failed", "failed to load profile")
		return
	}

	response.JSON(w, http.StatusOK, meResponse{User: user, Profile: profile})
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		return
	}

	var req updateProfileRequest
	if err := binder.BindJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to update profile",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "profile_update_failed", "failed to update profile")
		return
	}

	response.JSON(w, http.StatusOK, profile)
}
