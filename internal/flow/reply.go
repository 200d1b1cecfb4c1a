// Package flow holds the bot conversations as plain state machines: the
// guided product creation wizard and the list/detail browser. Handlers in
// internal/bot translate telebot updates into Inputs and Actions and render
// the returned Replies.
package flow

import "github.com/m3rciful/stockbot/core/telegram/keyboard"

// Kind selects how a Reply is delivered.
type Kind int

const (
	// Send posts a new message.
	Send Kind = iota
	// Edit replaces the message the triggering button belongs to.
	Edit
	// Delete removes the message the triggering button belongs to.
	Delete
)

// Reply is one outbound chat operation.
type Reply struct {
	Kind       Kind
	Text       string
	Markdown   bool
	Buttons    [][]keyboard.Button
	ForceReply bool
}

func send(text string) Reply {
	return Reply{Kind: Send, Text: text}
}

func kindFor(edit bool) Kind {
	if edit {
		return Edit
	}
	return Send
}

func button(text string, a Action) keyboard.Button {
	return keyboard.Button{Text: text, Data: a.Payload()}
}
