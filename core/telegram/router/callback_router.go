package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes raw "<domain>:<action>[:<arg>]" callbacks through the
// registry. Callbacks the handler did not answer get an empty answer so the
// client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		var (
			h     tele.HandlerFunc
			found bool
			key   = "malformed"
		)
		if p, err := callbacks.FromContext(c); err == nil {
			key = p.Key()
			if reg != nil {
				h, found = reg.GetCallback(key)
			}
		}
		extras := []slog.Attr{slog.String("cb_key", key)}
		if !found || h == nil {
			extras = append(extras, slog.String("reason", "not_found"))
			if reg != nil {
				h = reg.CallbackNotFound()
			}
			if h == nil {
				h = opts.NotFound
			}
		}

		return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
			var err error
			if h != nil {
				err = h(c)
			}
			if !callbacks.Answered(c) {
				_ = callbacks.Answer(c, "")
			}
			return err
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
