package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage is shown by help listings, e.g. "/product <sku>".
	Usage     string
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Title returns Usage if set, otherwise the command name.
func (c Command) Title(name string) string {
	if c.Usage != "" {
		return c.Usage
	}
	return name
}
