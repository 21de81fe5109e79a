package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command as exposed in the Telegram menu.
// AdminOnly commands are wrapped with the admin check and never listed;
// Hidden ones are routable but left out of the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
