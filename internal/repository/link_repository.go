package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/model"
)

var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrShortCodeTaken = errors.New("short code already exists")
	ErrDatabaseError  = errors.New("database error")
)

const (
	cacheTimeout        = 24 * time.Hour
	dbTimeout           = 5 * time.Second
	uniqueViolationCode = "23505"

	cacheKeyPrefix = "link:"
)

// Sort columns accepted by FindAllByUser. Anything else falls back to id
// to keep the ORDER BY clause safe from injection.
var sortableColumns = map[string]string{
	"id":              "id",
	"created_at":      "created_at",
	"short_code":      "short_code",
	"redirects_count": "redirects_count",
}

// increment is a single atomic statement so that concurrent redirects
// never lose a count. Expired links resolve as not found.
const resolveQuery = `
	UPDATE links
	SET redirects_count = COALESCE(redirects_count, 0) + 1
	WHERE short_code = $1
	  AND (expired_at IS NULL OR expired_at > now())`

// LinkRepository defines the interface for link data operations
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	ResolveAndIncrement(ctx context.Context, code string) (string, error)
	FindByID(ctx context.Context, id int64) (*model.Link, error)
	FindAllByUser(ctx context.Context, userID int64, limit, offset int, sortBy string, descending bool) ([]model.Link, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, id int64) error
}

// PostgresLinkRepository implements LinkRepository using PostgreSQL with
// a Redis cache in front of short-code resolution.
type PostgresLinkRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPostgresLinkRepository creates a new PostgresLinkRepository
func NewPostgresLinkRepository(db *pgxpool.Pool, redisClient *redis.Client) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db:          db,
		redisClient: redisClient,
		logger:      zap.L().With(zap.String("component", "PostgresLinkRepository")),
	}
}

// Create inserts a new link. A unique-index violation on short_code is
// reported as ErrShortCodeTaken so the caller can retry with a fresh
// code.
func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		INSERT INTO links (user_id, original_url, short_code, expired_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, redirects_count, created_at`

	err := r.db.QueryRow(ctx, query, link.UserID, link.OriginalURL, link.ShortCode, link.ExpiredAt).
		Scan(&link.ID, &link.RedirectsCount, &link.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.Warn("Short code collided on insert", zap.String("short_code", link.ShortCode))
			return ErrShortCodeTaken
		}
		r.logger.Error("Failed to insert link", zap.Error(err), zap.String("short_code", link.ShortCode))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return nil
}

// ShortCodeExists checks whether a code is already assigned. This is an
// optimization for the generation retry loop; the unique index remains
// the correctness mechanism.
func (r *PostgresLinkRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`, code).
		Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check short code existence", zap.Error(err), zap.String("short_code", code))
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return exists, nil
}

// ResolveAndIncrement looks up the original URL for a code and bumps the
// redirect counter in the same statement. On a cache hit the URL is
// served from Redis but the counter update still runs against Postgres;
// zero affected rows means the cache entry is stale and is dropped.
func (r *PostgresLinkRepository) ResolveAndIncrement(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if r.redisClient != nil {
		val, err := r.redisClient.Get(ctx, cacheKeyPrefix+code).Result()
		if err == nil {
			tag, err := r.db.Exec(ctx, resolveQuery, code)
			if err != nil {
				r.logger.Error("Failed to increment redirect count", zap.Error(err), zap.String("short_code", code))
				return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
			}
			if tag.RowsAffected() == 0 {
				r.invalidate(ctx, code)
				return "", ErrLinkNotFound
			}
			r.logger.Debug("Link resolved from cache", zap.String("short_code", code))
			return val, nil
		}
		if err != redis.Nil {
			r.logger.Warn("Cache error", zap.Error(err), zap.String("short_code", code))
		}
	}

	var originalURL string
	err := r.db.QueryRow(ctx, resolveQuery+" RETURNING original_url", code).Scan(&originalURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Link not found", zap.String("short_code", code))
			return "", ErrLinkNotFound
		}
		r.logger.Error("Failed to resolve link", zap.Error(err), zap.String("short_code", code))
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Set(ctx, cacheKeyPrefix+code, originalURL, cacheTimeout).Err(); err != nil {
			r.logger.Warn("Failed to cache link", zap.Error(err), zap.String("short_code", code))
		}
	}

	return originalURL, nil
}

// FindByID retrieves a link by its numeric id
func (r *PostgresLinkRepository) FindByID(ctx context.Context, id int64) (*model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, original_url, short_code, COALESCE(redirects_count, 0), expired_at, created_at
		FROM links WHERE id = $1`

	link := &model.Link{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode,
		&link.RedirectsCount, &link.ExpiredAt, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		r.logger.Error("Failed to find link", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return link, nil
}

// FindAllByUser returns one page of a user's links.
func (r *PostgresLinkRepository) FindAllByUser(ctx context.Context, userID int64, limit, offset int, sortBy string, descending bool) ([]model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	column, ok := sortableColumns[sortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, original_url, short_code, COALESCE(redirects_count, 0), expired_at, created_at
		FROM links
		WHERE user_id = $1
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, column, direction)

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list links", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	links := make([]model.Link, 0, limit)
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(
			&link.ID, &link.UserID, &link.OriginalURL, &link.ShortCode,
			&link.RedirectsCount, &link.ExpiredAt, &link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return links, nil
}

// CountByUser returns the total number of links owned by a user.
func (r *PostgresLinkRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count links", zap.Error(err), zap.Int64("user_id", userID))
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return count, nil
}

// Update replaces the mutable fields of a link. The short code and the
// redirect counter are never touched here.
func (r *PostgresLinkRepository) Update(ctx context.Context, link *model.Link) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		UPDATE links
		SET original_url = $1, expired_at = $2
		WHERE id = $3
		RETURNING short_code`

	var shortCode string
	err := r.db.QueryRow(ctx, query, link.OriginalURL, link.ExpiredAt, link.ID).Scan(&shortCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		r.logger.Error("Failed to update link", zap.Error(err), zap.Int64("id", link.ID))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	r.invalidate(ctx, shortCode)
	return nil
}

// Delete removes a link by id and drops its cache entry.
func (r *PostgresLinkRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var shortCode string
	err := r.db.QueryRow(ctx, `DELETE FROM links WHERE id = $1 RETURNING short_code`, id).Scan(&shortCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLinkNotFound
		}
		r.logger.Error("Failed to delete link", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	r.invalidate(ctx, shortCode)
	return nil
}

func (r *PostgresLinkRepository) invalidate(ctx context.Context, code string) {
	if r.redisClient == nil {
		return
	}
	if err := r.redisClient.Del(ctx, cacheKeyPrefix+code).Err(); err != nil {
		r.logger.Warn("Failed to invalidate cache", zap.Error(err), zap.String("short_code", code))
	}
}
