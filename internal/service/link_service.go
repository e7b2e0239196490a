package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/metrics"
	"github.com/snaplink/snaplink/internal/model"
	"github.com/snaplink/snaplink/internal/repository"
)

var (
	ErrInvalidURL         = errors.New("invalid URL format")
	ErrCodeSpaceExhausted = errors.New("failed to generate unique short code after max attempts")
)

const (
	maxCodeGenerationAttempts = 10
	maxOriginalURLLength      = 2048
)

// LinkService owns short-code assignment and the link lifecycle.
type LinkService struct {
	links  repository.LinkRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewLinkService(links repository.LinkRepository, users repository.UserRepository) *LinkService {
	return &LinkService{
		links:  links,
		users:  users,
		logger: zap.L().With(zap.String("component", "LinkService")),
	}
}

// Create assigns a fresh unique short code to the URL and persists the
// link. Generation is retried on collision: the existence pre-check is
// an optimization, and an insert rejected by the unique index also
// consumes an attempt. After maxCodeGenerationAttempts collisions the
// call fails with ErrCodeSpaceExhausted, which is retryable.
func (s *LinkService) Create(ctx context.Context, userID int64, originalURL string, expiredAt *time.Time) (*model.Link, error) {
	if !isValidURL(originalURL) {
		return nil, ErrInvalidURL
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeGenerationAttempts; attempt++ {
		code := generateShortCode()

		exists, err := s.links.ShortCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			metrics.ShortCodeCollisionsTotal.Inc()
			continue
		}

		link := &model.Link{
			UserID:      userID,
			OriginalURL: originalURL,
			ShortCode:   code,
			ExpiredAt:   expiredAt,
		}

		err = s.links.Create(ctx, link)
		if errors.Is(err, repository.ErrShortCodeTaken) {
			// Lost the race against a concurrent creator; try again
			// with a new code.
			metrics.ShortCodeCollisionsTotal.Inc()
			continue
		}
		if err != nil {
			metrics.LinkCreationTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.LinkCreationTotal.WithLabelValues("created").Inc()
		s.logger.Info("Link created",
			zap.Int64("id", link.ID),
			zap.String("short_code", link.ShortCode),
			zap.Int64("user_id", userID),
		)
		return link, nil
	}

	s.logger.Error("Short code generation exhausted", zap.Int("attempts", maxCodeGenerationAttempts))
	return nil, ErrCodeSpaceExhausted
}

// Resolve maps a short code to its original URL, incrementing the
// redirect counter atomically.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	if !isValidShortCode(code) {
		return "", repository.ErrLinkNotFound
	}
	return s.links.ResolveAndIncrement(ctx, code)
}

// List returns one page of the user's links together with the total
// element count.
func (s *LinkService) List(ctx context.Context, userID int64, limit, offset int, sortBy string, descending bool) ([]model.Link, int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}

	links, err := s.links.FindAllByUser(ctx, userID, limit, offset, sortBy, descending)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.links.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

// Replace overwrites the target URL and expiry of an existing link. The
// short code stays fixed for the lifetime of the link.
func (s *LinkService) Replace(ctx context.Context, id int64, originalURL string, expiredAt *time.Time) error {
	if !isValidURL(originalURL) {
		return ErrInvalidURL
	}

	link := &model.Link{
		ID:          id,
		OriginalURL: originalURL,
		ExpiredAt:   expiredAt,
	}
	return s.links.Update(ctx, link)
}

// Delete removes a link by id.
func (s *LinkService) Delete(ctx context.Context, id int64) error {
	return s.links.Delete(ctx, id)
}

func isValidURL(rawURL string) bool {
	if rawURL == "" || len(rawURL) > maxOriginalURLLength {
		return false
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return parsed.Scheme != "" && parsed.Host != ""
}

func isValidShortCode(code string) bool {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}
	for _, char := range code {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}
