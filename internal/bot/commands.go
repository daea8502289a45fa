package bot

import "github.com/Proton-105/joke-bot/internal/bot/keyboard"

// Command prefixes, matched literally at the start of a private message in this order.
const (
	CommandAdd     = "/add"
	CommandRestart = "/restart"
	CommandStatus  = "/status"
	CommandStart   = "/start"
	CommandHelp    = "/help"
)

// Callback routes; the action follows the route in the callback data.
const (
	CallbackAdd = keyboard.RouteAdd
)
