// Package joke implements the business operations over the joke pool.
package joke

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"github.com/Proton-105/joke-bot/internal/domain"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

// Separator delimits several jokes sent in one message.
const Separator = "\n\n"

// Store is the persistence the service relies on.
type Store interface {
	Insert(ctx context.Context, author domain.Author, texts ...string) error
	Search(ctx context.Context, pattern string) ([]domain.Joke, error)
}

// Service provides joke submission and lookup.
type Service struct {
	store Store
	log   *slog.Logger
	intN  func(n int) int
}

// NewService constructs a new Service instance.
func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, intN: rand.IntN}
}

// Split cuts a submission on blank lines and drops whitespace-only segments.
// Kept segments are returned verbatim.
func Split(text string) []string {
	return lo.Filter(strings.Split(text, Separator), func(segment string, _ int) bool {
		return strings.TrimSpace(segment) != ""
	})
}

// Add stores every joke found in text and returns how many were stored. Storage is
// all-or-nothing: on error no joke from text has been saved.
func (s *Service) Add(ctx context.Context, author domain.Author, text string) (int, error) {
	segments := Split(text)
	if len(segments) == 0 {
		return 0, nil
	}

	err := apperrors.WithRetry(ctx, func() error {
		if err := s.store.Insert(ctx, author, segments...); err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		s.logError("add", author.ID, err)
		return 0, fmt.Errorf("add jokes: %w", err)
	}

	metrics.AddJokes(len(segments))
	return len(segments), nil
}

// Search returns every joke containing pattern in store order.
func (s *Service) Search(ctx context.Context, pattern string) ([]domain.Joke, error) {
	var jokes []domain.Joke
	err := apperrors.WithRetry(ctx, func() error {
		found, err := s.store.Search(ctx, pattern)
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		jokes = found
		return nil
	})
	if err != nil {
		s.logError("search", 0, err)
		return nil, fmt.Errorf("search jokes: %w", err)
	}

	return jokes, nil
}

// Count returns the size of the pool.
func (s *Service) Count(ctx context.Context) (int, error) {
	jokes, err := s.Search(ctx, "")
	if err != nil {
		return 0, err
	}
	return len(jokes), nil
}

// Random picks a uniformly random joke. It returns an empty-pool error when nothing is stored.
func (s *Service) Random(ctx context.Context) (domain.Joke, error) {
	jokes, err := s.Search(ctx, "")
	if err != nil {
		return domain.Joke{}, err
	}
	if len(jokes) == 0 {
		return domain.Joke{}, apperrors.NewEmptyPoolError()
	}

	return jokes[s.intN(len(jokes))], nil
}

func (s *Service) logError(operation string, authorID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("joke service operation failed",
		slog.String("operation", operation),
		slog.Int64("author_id", authorID),
		slog.Any("error", err),
	)
}
