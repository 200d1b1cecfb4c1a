package bot

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/stockbot/core/logger"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/core/telegram/keyboard"
	"github.com/m3rciful/stockbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// render delivers replies in order and stops at the first failure.
func (h *Handlers) render(c tele.Context, replies ...flow.Reply) error {
	for _, r := range replies {
		if err := renderOne(c, r); err != nil {
			return err
		}
	}
	return nil
}

func renderOne(c tele.Context, r flow.Reply) error {
	markup := keyboard.Inline(r.Buttons...)
	if r.ForceReply {
		markup = keyboard.ForceReply()
	}

	switch r.Kind {
	case flow.Delete:
		if c.Callback() == nil {
			return nil
		}
		return tghelpers.DeleteMessage(c)

	case flow.Edit:
		if !r.Markdown && c.Callback() == nil {
			break
		}
		err := edit(c, r, markup)
		if err == nil || notModified(err) {
			return nil
		}
		if c.Callback() == nil {
			return err
		}
		logger.Warn(tghelpers.BuildContext(c), component, "edit.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		// the message may be too old to edit; post a fresh one instead
	}

	if r.Markdown {
		return tghelpers.SendMD(c, r.Text, markup)
	}
	return tghelpers.SendText(c, r.Text, &tele.SendOptions{ReplyMarkup: markup})
}

// edit replaces the callback message. Markdown replies sent outside a
// callback are posted as new messages.
func edit(c tele.Context, r flow.Reply, markup *tele.ReplyMarkup) error {
	if r.Markdown {
		return tghelpers.EditOrSendMD(c, r.Text, markup)
	}
	return c.Edit(r.Text, &tele.SendOptions{ReplyMarkup: markup})
}

// notModified matches Telegram's rejection of an edit with identical content,
// which a refresh of unchanged data produces.
func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
