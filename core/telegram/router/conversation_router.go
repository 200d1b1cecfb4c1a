package router

import (
	"time"

	tg "github.com/m3rciful/stockbot/core/telegram"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Conversation is an in-progress dialog that consumes free-form messages.
type Conversation interface {
	Active(userID int64) bool
	Handle(c tele.Context) error
}

// MessageOptions controls fallback behaviour for messages outside a conversation.
type MessageOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// MessageRoutes sends text, photos and other media to the first active
// conversation of the sender. Text outside a conversation may still match a
// command written without its slash.
func MessageRoutes(convs []Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	active := func(c tele.Context) Conversation {
		userID := tghelpers.SenderID(c)
		for _, conv := range convs {
			if conv != nil && conv.Active(userID) {
				return conv
			}
		}
		return nil
	}

	text := func(c tele.Context) error {
		start := time.Now()
		if conv := active(c); conv != nil {
			return handleWithSummary(c, "conversation", start, func() error { return conv.Handle(c) })
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return opts.UnknownText(c) })
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if conv := active(c); conv != nil {
			return handleWithSummary(c, "conversation.media", start, func() error { return conv.Handle(c) })
		}
		if opts.UnknownMedia != nil {
			return handleWithSummary(c, "unexpected_media", start, func() error { return opts.UnknownMedia(c) })
		}
		logHandlerSummary(c, "unexpected_media", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnPhoto, Handler: wrap(media)},
		{Endpoint: tele.OnMedia, Handler: wrap(media)},
	}
}
