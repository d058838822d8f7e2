package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamvault/streamvault/pkg/binder"
	billingsvc "github.com/streamvault/streamvault/pkg/billing"
	"github.com/streamvault/streamvault/pkg/jwt"
	"github.com/streamvault/streamvault/pkg/logger"
	"github.com/streamvault/streamvault/pkg/qrcode"
	"github.com/streamvault/streamvault/pkg/response"
)

// maxWebhookBody caps webhook payload reads. Stripe events are small; a
// megabyte is generous headroom.
const maxWebhookBody = 1 << 20

const qrImageSize = 320

// EmailLookup resolves a user's billing email. Wired to the account
// service so the billing module stays decoupled from account storage.
type EmailLookup func(ctx context.Context, userID uuid.UUID) (string, error)

// Handler serves the billing HTTP surface: checkout initiation, webhook
// intake, manual session verification, and activation polling.
type Handler struct {
	svc         *billingsvc.Service
	poller      *billingsvc.ActivationPoller
	emailLookup EmailLookup
	log         *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler panics when any required dependency is nil.
func NewHandler(svc *billingsvc.Service, poller *billingsvc.ActivationPoller, emailLookup EmailLookup, opts ...HandlerOption) *Handler {
	if svc == nil {
		panic("billing module: service is required")
	}
	if poller == nil {
		panic("billing module: activation poller is required")
	}
	if emailLookup == nil {
		panic("billing module: email lookup is required")
	}

	h := &Handler{
		svc:         svc,
		poller:      poller,
		emailLookup: emailLookup,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the billing routes. The webhook endpoint is unauthenticated
// since providers sign their own deliveries; everything else requires a
// bearer token.
func (h *Handler) Router(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/webhooks/stripe", h.handleWebhook)
	r.Post("/webhooks/paddle", h.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/checkout", h.handleCheckout)
		r.Get("/checkout/qr", h.handleCheckoutQR)
		r.Post("/verify-session", h.handleVerifySession)
		r.Get("/activation", h.handleActivation)
		r.Get("/subscription", h.handleGetSubscription)
	})

	return r
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) *billingsvc.CheckoutSession {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		return nil
	}

	email, err := h.emailLookup(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to resolve billing email",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "checkout_failed", "failed to start checkout")
		return nil
	}

	session, err := h.svc.CreateCheckoutSession(r.Context(), userID, email)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to create checkout session",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "checkout_failed", "failed to start checkout")
		return nil
	}
	return session
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	session := h.createSession(w, r)
	if session == nil {
		return
	}
	response.JSON(w, http.StatusOK, checkoutResponse{URL: session.URL})
}

// handleCheckoutQR renders the checkout URL as a QR code so TV and console
// clients can hand checkout off to a phone.
func (h *Handler) handleCheckoutQR(w http.ResponseWriter, r *http.Request) {
	session := h.createSession(w, r)
	if session == nil {
		return
	}

	png, err := qrcode.Generate(session.URL, qrImageSize)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to render checkout qr code", logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "checkout_failed", "failed to render qr code")
		return
	}
	response.PNG(w, png)
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_payload", "failed to read payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		signature = r.Header.Get("Paddle-Signature")
	}

	err = h.svc.HandleWebhook(r.Context(), payload, signature)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, webhookResponse{Received: true})
	case errors.Is(err, billingsvc.ErrWebhookVerificationFailed):
		response.Error(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
	default:
		// 5xx makes the provider redeliver the event.
		h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "webhook_failed", "failed to process event")
	}
}

type verifySessionRequest struct {
	SessionID string `json:"sessionId"`
}

type verifySessionResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	var req verifySessionRequest
	if err := binder.BindJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	err := h.svc.VerifyCheckoutSession(r.Context(), req.SessionID)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, verifySessionResponse{Success: true})
	case errors.Is(err, billingsvc.ErrMissingSessionID):
		response.Error(w, http.StatusBadRequest, "missing_session_id", "sessionId is required")
	case errors.Is(err, billingsvc.ErrSessionNotPaid):
		response.Error(w, http.StatusBadRequest, "session_not_paid", "checkout session is not paid")
	case errors.Is(err, billingsvc.ErrMissingUserID):
		response.Error(w, http.StatusBadRequest, "missing_user", "session carries no user reference")
	default:
		h.log.ErrorContext(r.Context(), "session verification failed",
			slog.String("session_id", req.SessionID), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "verification_failed", "failed to verify session")
	}
}

type activationResponse struct {
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	FallbackUsed bool   `json:"fallbackUsed"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

// handleActivation blocks while the poller waits for the webhook to land,
// so the route can take roughly pollInterval*maxAttempts to respond.
func (h *Handler) handleActivation(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		return
	}

	sessionID := r.URL.Query().Get("session_id")

	result, err := h.poller.Run(r.Context(), userID, sessionID)
	if err != nil {
		// Only context cancellation reaches here; the client is gone.
		h.log.WarnContext(r.Context(), "activation wait aborted",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "activation_aborted", "activation wait was interrupted")
		return
	}

	response.JSON(w, http.StatusOK, activationResponse{
		Status:       string(result.Outcome),
		Attempts:     result.Attempts,
		FallbackUsed: result.FallbackUsed,
		RedirectURL:  result.RedirectURL,
	})
}

func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		return
	}

	sub, err := h.svc.GetSubscription(r.Context(), userID)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, sub)
	case errors.Is(err, billingsvc.ErrSubscriptionNotFound):
		response.Error(w, http.StatusNotFound, "subscription_not_found", "no subscription on file")
	default:
		h.log.ErrorContext(r.Context(), "failed to load subscription",
			logger.UserID(userID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "subscription_lookup_failed", "failed to load subscription")
	}
}
