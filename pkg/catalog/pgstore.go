package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamvault/streamvault/pkg/pg"
)

const defaultListLimit = 100

const videoColumns = `id, title, description, category, storage_key, thumbnail_url, duration_seconds, created_at, updated_at`

// PGVideoStore is the Postgres-backed VideoStore.
type PGVideoStore struct {
	pool *pgxpool.Pool
}

// NewPGVideoStore panics if pool is nil since the store is unusable without it.
func NewPGVideoStore(pool *pgxpool.Pool) *PGVideoStore {
	if pool == nil {
		panic("catalog: pgxpool is required")
	}
	return &PGVideoStore{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (Video, error) {
	var v Video
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.Description,
		&v.Category,
		&v.StorageKey,
		&v.ThumbnailURL,
		&v.Duration,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Video{}, ErrVideoNotFound
		}
		return Video{}, fmt.Errorf("failed to scan video: %w", err)
	}
	return v, nil
}

func (s *PGVideoStore) GetByID(ctx context.Context, id uuid.UUID) (Video, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

func (s *PGVideoStore) List(ctx context.Context, filter ListFilter) ([]Video, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	args := []any{}
	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]Video, 0, limit)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate videos: %w", err)
	}
	return videos, nil
}

func (s *PGVideoStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT category FROM videos ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}
