package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/joke-bot/internal/bot/keyboard"
)

type labels map[string]string

func (l labels) T(key string) string { return l[key] }

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		markup, err := keyboard.NewInlineKeyboard().
			AddRow(
				keyboard.InlineButton{Text: "Yes", Unique: "vote", Data: "1"},
				keyboard.InlineButton{Text: "No", Unique: "vote", Data: "0"},
			).
			AddRow().
			AddRow(keyboard.InlineButton{Text: "Help", Unique: "help"}).
			Build()
		require.NoError(t, err)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Len(t, markup.InlineKeyboard[1], 1)
		assert.Equal(t, "vote:0", markup.InlineKeyboard[0][1].Data)
		assert.Equal(t, "help", markup.InlineKeyboard[1][0].Data)
		assert.Empty(t, markup.InlineKeyboard[0][0].Unique)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		_, err := keyboard.NewInlineKeyboard().
			AddRow(keyboard.InlineButton{
				Text:   "Too big",
				Unique: "overflow",
				Data:   strings.Repeat("x", keyboard.CallbackDataLimitBytes),
			}).
			Build()
		assert.Error(t, err)
	})
}

func TestBuilder_CancelAdd(t *testing.T) {
	markup := keyboard.NewBuilder(labels{"add.cancel_button": "Отмена"}, nil).CancelAdd()
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)

	btn := markup.InlineKeyboard[0][0]
	assert.Equal(t, "Отмена", btn.Text)
	assert.Equal(t, "add:cancel", btn.Data)

	route, action, err := keyboard.DecodeCallback(btn.Data)
	require.NoError(t, err)
	assert.Equal(t, keyboard.RouteAdd, route)
	assert.Equal(t, keyboard.ActionCancel, action)
}
