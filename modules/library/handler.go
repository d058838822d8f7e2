package library

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamvault/streamvault/pkg/catalog"
	"github.com/streamvault/streamvault/pkg/jwt"
	"github.com/streamvault/streamvault/pkg/logger"
	"github.com/streamvault/streamvault/pkg/response"
)

// Handler serves the video library: browsing and gated playback.
type Handler struct {
	svc *catalog.Service
	log *slog.Logger
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

// NewHandler panics when svc is nil.
func NewHandler(svc *catalog.Service, opts ...HandlerOption) *Handler {
	if svc == nil {
		panic("library module: catalog service is required")
	}

	h := &Handler{
		svc: svc,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the library routes. Everything requires authentication and
// an active subscription; gate runs after auth so it can read the token
// subject.
func (h *Handler) Router(auth, gate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth, gate)
		r.Get("/videos", h.handleListVideos)
		r.Get("/videos/categories", h.handleCategories)
		r.Get("/videos/{videoID}", h.handleGetVideo)
		r.Get("/videos/{videoID}/playback", h.handlePlayback)
	})

	return r
}

type videoListResponse struct {
	Videos []catalog.Video `json:"videos"`
}

func (h *Handler) handleListVideos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	videos, err := h.svc.ListVideos(r.Context(), category)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list videos",
			slog.String("category", category), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "library_failed", "failed to load the library")
		return
	}

	response.JSON(w, http.StatusOK, videoListResponse{Videos: videos})
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list categories", logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "library_failed", "failed to load categories")
		return
	}

	response.JSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

func videoIDFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "videoID"))
}

func (h *Handler) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := videoIDFromRequest(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_video_id", "video id must be a uuid")
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, video)
	case errors.Is(err, catalog.ErrVideoNotFound):
		response.Error(w, http.StatusNotFound, "video_not_found", "video does not exist")
	default:
		h.log.ErrorContext(r.Context(), "failed to load video",
			slog.String("video_id", videoID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "library_failed", "failed to load video")
	}
}

func (h *Handler) handlePlayback(w http.ResponseWriter, r *http.Request) {
	videoID, err := videoIDFromRequest(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_video_id", "video id must be a uuid")
		return
	}

	grant, err := h.svc.Playback(r.Context(), videoID)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, grant)
	case errors.Is(err, catalog.ErrVideoNotFound):
		response.Error(w, http.StatusNotFound, "video_not_found", "video does not exist")
	default:
		h.log.ErrorContext(r.Context(), "failed to issue playback url",
			slog.String("video_id", videoID.String()), logger.Error(err))
		response.Error(w, http.StatusInternalServerError, "playback_failed", "failed to start playback")
	}
}

// subscriptionChecker is the read side the gate needs; satisfied by the
// billing service.
type subscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireActiveSubscription rejects requests from users without an active
// subscription. The check fails closed: a store error blocks access rather
// than granting it.
func RequireActiveSubscription(checker subscriptionChecker, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := jwt.UserID(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
				return
			}

			active, err := checker.HasActiveSubscription(r.Context(), userID)
			if err != nil {
				log.ErrorContext(r.Context(), "subscription check failed",
					logger.UserID(userID.String()), logger.Error(err))
				response.Error(w, http.StatusInternalServerError, "subscription_check_failed", "failed to verify subscription")
				return
			}
			if !active {
				response.Error(w, http.StatusPaymentRequired, "subscription_required", "an active subscription is required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
