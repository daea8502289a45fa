package bot

import (
	"context"
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/joke-bot/internal/bot/handlers"
)

// telegramSender performs outbound calls through telebot.
type telegramSender struct {
	tb *telebot.Bot
}

var _ Sender = (*telegramSender)(nil)

func (s *telegramSender) SendMessage(_ context.Context, r handlers.Reply) error {
	opts := []interface{}{telebot.NoPreview}
	if r.Markup != nil {
		opts = append(opts, r.Markup)
	}

	if _, err := s.tb.Send(telebot.ChatID(r.ChatID), r.Text, opts...); err != nil {
		return fmt.Errorf("send message to %d: %w", r.ChatID, err)
	}
	return nil
}

// AnswerInline uses a raw call because telebot omits a zero cache_time, which makes
// Telegram fall back to its 300 second default.
func (s *telegramSender) AnswerInline(_ context.Context, a handlers.InlineAnswer) error {
	results := make(telebot.Results, 0, len(a.Results))
	for _, r := range a.Results {
		article := inlineArticle(r)
		article.Process(s.tb)
		results = append(results, article)
	}

	params := map[string]interface{}{
		"inline_query_id": a.QueryID,
		"results":         results,
		"cache_time":      a.CacheSeconds,
		"is_personal":     true,
	}
	if len(a.Results) == 0 && a.SwitchPMText != "" {
		params["button"] = map[string]string{
			"text":            a.SwitchPMText,
			"start_parameter": a.SwitchPMParam,
		}
	}

	if _, err := s.tb.Raw("answerInlineQuery", params); err != nil {
		return fmt.Errorf("answer inline query %s: %w", a.QueryID, err)
	}
	return nil
}

// inlineArticle sends the joke text as is, without a link preview.
func inlineArticle(r handlers.InlineResult) *telebot.ArticleResult {
	article := &telebot.ArticleResult{Title: r.Title}
	article.SetResultID(r.ID)
	article.SetContent(&telebot.InputTextMessageContent{
		Text:           r.Text,
		PreviewOptions: &telebot.PreviewOptions{Disabled: true},
	})
	return article
}

func (s *telegramSender) AnswerCallback(_ context.Context, callbackID, text string) error {
	if err := s.tb.Respond(&telebot.Callback{ID: callbackID}, &telebot.CallbackResponse{Text: text}); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}
