package handlers

import (
	"context"
	"strings"
)

// StartPayloadAdd is the /start deep-link payload that opens the /add flow.
const StartPayloadAdd = "add"

// NewStartHandler greets the user. "/start add" behaves like /add.
func NewStartHandler(s *Session, add Handler) Handler {
	return func(ctx context.Context, u *Update) error {
		if startPayload(u.Text) == StartPayloadAdd && add != nil {
			return add(ctx, u)
		}

		return s.reply(ctx, u.ChatID, s.Tr.T("start.welcome"))
	}
}

// NewHelpHandler replies with the command overview.
func NewHelpHandler(s *Session) Handler {
	return func(ctx context.Context, u *Update) error {
		return s.reply(ctx, u.ChatID, s.Tr.T("help.text"))
	}
}

func startPayload(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
