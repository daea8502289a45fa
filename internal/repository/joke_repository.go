// Package repository implements Postgres-backed storage for jokes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/joke-bot/internal/domain"
)

// JokeRepository defines persistence operations for jokes.
type JokeRepository interface {
	// Insert stores every text as a joke by author inside a single transaction.
	Insert(ctx context.Context, author domain.Author, texts ...string) error
	// Search returns the jokes containing pattern in insertion order. An empty pattern matches all.
	Search(ctx context.Context, pattern string) ([]domain.Joke, error)
	Ping(ctx context.Context) error
}

type jokeRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewJokeRepository creates a new SQL-backed joke repository.
func NewJokeRepository(db *sql.DB, log *slog.Logger) JokeRepository {
	return &jokeRepository{
		db:  db,
		log: log,
	}
}

// Insert persists the given texts. Either all of them are stored or none.
func (r *jokeRepository) Insert(ctx context.Context, author domain.Author, texts ...string) (err error) {
	if len(texts) == 0 {
		return nil
	}

	const query = `
		INSERT INTO jokes (author_id, author_name, text)
		VALUES ($1, $2, $3)
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert jokes: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && r.log != nil {
			r.log.Error("failed to rollback joke insert", slog.Any("error", rbErr))
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert jokes: %w", err)
	}
	defer stmt.Close()

	for _, text := range texts {
		if _, err = stmt.ExecContext(ctx, author.ID, author.Name, text); err != nil {
			if r.log != nil {
				r.log.Error("failed to insert joke", slog.Int64("author_id", author.ID), slog.Any("error", err))
			}
			return fmt.Errorf("insert joke: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert jokes: %w", err)
	}

	return nil
}

// Search retrieves jokes whose text contains pattern, ordered by insertion.
func (r *jokeRepository) Search(ctx context.Context, pattern string) ([]domain.Joke, error) {
	const query = `
		SELECT id, author_id, author_name, text, created_at
		FROM jokes
		WHERE strpos(text, $1) > 0 OR $1 = ''
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, pattern)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to search jokes", slog.String("pattern", pattern), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select jokes: %w", err)
	}
	defer rows.Close()

	var jokes []domain.Joke
	for rows.Next() {
		var joke domain.Joke
		if err := rows.Scan(
			&joke.ID,
			&joke.Author.ID,
			&joke.Author.Name,
			&joke.Text,
			&joke.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan joke: %w", err)
		}
		jokes = append(jokes, joke)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jokes: %w", err)
	}

	return jokes, nil
}

// Ping verifies that the database is reachable.
func (r *jokeRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
