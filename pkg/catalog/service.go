package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// urlSigner issues presigned playback URLs. Satisfied by PlaybackSigner.
type urlSigner interface {
	PlaybackURL(ctx context.Context, storageKey string) (string, time.Time, error)
}

// PlaybackGrant is a time-limited playback authorization for one video.
type PlaybackGrant struct {
	Video     Video     `json:"video"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service exposes catalog browsing and playback URL issuance. Subscription
// gating happens at the transport layer; the service itself only knows how
// to list titles and sign storage keys.
type Service struct {
	store  VideoStore
	signer urlSigner
	log    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService panics when store or signer is nil since the service cannot
// operate without them.
func NewService(store VideoStore, signer urlSigner, opts ...ServiceOption) *Service {
	if store == nil {
		panic("catalog: video store is required")
	}
	if signer == nil {
		panic("catalog: url signer is required")
	}

	svc := &Service{
		store:  store,
		signer: signer,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ListVideos returns catalog entries, optionally narrowed to one category.
func (s *Service) ListVideos(ctx context.Context, category string) ([]Video, error) {
	return s.store.List(ctx, ListFilter{Category: category})
}

// Categories returns the distinct categories available in the catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// GetVideo returns a single catalog entry by ID.
func (s *Service) GetVideo(ctx context.Context, id uuid.UUID) (Video, error) {
	if id == uuid.Nil {
		return Video{}, ErrMissingVideoID
	}
	return s.store.GetByID(ctx, id)
}

// Playback looks up the video and issues a presigned playback URL for it.
func (s *Service) Playback(ctx context.Context, id uuid.UUID) (PlaybackGrant, error) {
	video, err := s.GetVideo(ctx, id)
	if err != nil {
		return PlaybackGrant{}, err
	}

	url, expiresAt, err := s.signer.PlaybackURL(ctx, video.StorageKey)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to presign playback url",
			slog.String("video_id", id.String()),
			slog.Any("error", err))
		return PlaybackGrant{}, err
	}

	return PlaybackGrant{
		Video:     video,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}
