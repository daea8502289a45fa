package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/Proton-105/joke-bot/internal/domain"
	apperrors "github.com/Proton-105/joke-bot/internal/errors"
	"github.com/Proton-105/joke-bot/pkg/metrics"
)

const (
	// RandomResultID identifies the single candidate of an empty query.
	RandomResultID = "random"
	// MaxInlineResults is the Telegram limit of results per answer.
	MaxInlineResults = 50
	titleRunes       = 64
)

// NewInlineHandler answers inline queries: an empty query gets one random joke, any other
// text gets every joke containing it. Answers are never cached by the client.
func NewInlineHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		answer := InlineAnswer{QueryID: u.QueryID, CacheSeconds: 0}

		if u.Text == "" {
			joke, err := s.Jokes.Random(ctx)
			var appErr *apperrors.AppError
			switch {
			case errors.As(err, &appErr) && appErr.UserMessageKey == apperrors.KeyEmptyPool:
				metrics.RecordInlineQuery("empty")
				answer.SwitchPMText = s.Tr.T("inline.empty_pool")
				answer.SwitchPMParam = StartPayloadAdd
				return s.Replier.Answer(ctx, answer)
			case err != nil:
				return err
			}

			metrics.RecordInlineQuery("random")
			answer.Results = []InlineResult{newInlineResult(RandomResultID, joke)}
			return s.Replier.Answer(ctx, answer)
		}

		jokes, err := s.Jokes.Search(ctx, u.Text)
		if err != nil {
			return err
		}

		if len(jokes) > MaxInlineResults {
			jokes = jokes[:MaxInlineResults]
		}

		answer.Results = make([]InlineResult, 0, len(jokes))
		for i, joke := range jokes {
			answer.Results = append(answer.Results, newInlineResult(strconv.Itoa(i), joke))
		}

		metrics.RecordInlineQuery("search")
		return s.Replier.Answer(ctx, answer)
	}
}

func newInlineResult(id string, joke domain.Joke) InlineResult {
	return InlineResult{
		ID:    id,
		Title: shorten(joke.Text, titleRunes),
		Text:  joke.Text,
	}
}

// shorten keeps the first limit runes of s.
func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
