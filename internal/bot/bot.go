// Package bot adapts the flow state machines to telebot: commands,
// callback actions, the creation conversation and inline search.
package bot

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/stockbot/core/buildinfo"
	"github.com/m3rciful/stockbot/core/logger"
	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/callbacks"
	"github.com/m3rciful/stockbot/core/telegram/commands"
	"github.com/m3rciful/stockbot/core/telegram/format"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/core/telegram/keyboard"
	"github.com/m3rciful/stockbot/core/telegram/router"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/core/telegram/ui"
	"github.com/m3rciful/stockbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.bot"

// User facing texts owned by the adapter.
const (
	MsgNothingToCancel = "Nothing to cancel."
	MsgAdminOnly       = "⛔ This command is available to the shop admin only."
	MsgUnknown         = "I didn't get that. Use /help to see available commands."
	MsgNotAvailable    = "This feature is not available yet."
	MsgUnsupported     = "Unsupported action"
	MsgPong            = "🏓 Pong!"
)

// inlineCacheSeconds bounds how long clients cache inline answers.
const inlineCacheSeconds = 10

// Deps are the collaborators of the handlers.
type Deps struct {
	Wizard    *flow.Wizard
	Browser   *flow.Browser
	Formatter flow.Formatter
	Sessions  *state.Store[*flow.Session]
}

// Handlers owns the bot commands and the creation conversation.
type Handlers struct {
	wizard   *flow.Wizard
	browser  *flow.Browser
	fmt      flow.Formatter
	sessions *state.Store[*flow.Session]
	reg      *tg.Registry
}

// New builds the handlers. A nil session store gets the default TTL.
func New(d Deps) *Handlers {
	sessions := d.Sessions
	if sessions == nil {
		sessions = state.NewStore[*flow.Session](state.DefaultTTL)
	}
	return &Handlers{
		wizard:   d.Wizard,
		browser:  d.Browser,
		fmt:      d.Formatter,
		sessions: sessions,
	}
}

// Register adds every command and callback action to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	h.reg = reg

	reg.RegisterCommand("/start", commands.Command{Handler: h.start, Description: "Start the bot"})
	reg.RegisterCommand("/help", commands.Command{Handler: h.help, Description: "Show available commands"})
	reg.RegisterCommand("/ping", commands.Command{Handler: h.ping, Description: "Check the bot is alive", Hidden: true})
	reg.RegisterCommand("/addproduct", commands.Command{
		Handler:     h.addProduct,
		Description: "Add a new product",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/cancel", commands.Command{Handler: h.cancel, Description: "Cancel the current operation"})
	reg.RegisterCommand("/listproducts", commands.Command{
		Handler:     h.listProducts,
		Description: "View all products",
		Aliases:     []string{"/products"},
	})
	reg.RegisterCommand("/product", commands.Command{
		Handler:     h.productDetail,
		Description: "View product details",
		Usage:       "/product <sku>",
	})
	reg.RegisterCommand("/search", commands.Command{
		Handler:     h.search,
		Description: "Search products by name or SKU",
		Usage:       "/search <query>",
	})

	for _, key := range flow.ActionKeys {
		if err := reg.RegisterCallback(key, h.onAction); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	reg.SetTextFallback(h.unknown)
	return nil
}

// Sessions exposes the conversation store, e.g. for periodic sweeps.
func (h *Handlers) Sessions() *state.Store[*flow.Session] { return h.sessions }

// Active reports whether userID is inside the creation flow.
func (h *Handlers) Active(userID int64) bool {
	return h.sessions.Active(userID)
}

// Handle feeds one message into the user's creation flow. Replies are
// rendered while the session is held so a user's updates stay in order.
func (h *Handlers) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	in := inputFrom(c.Message())

	var err error
	h.sessions.Update(tghelpers.SenderID(c), func(s *flow.Session, found bool) (*flow.Session, bool) {
		if !found || s == nil {
			return nil, false
		}
		err = h.render(c, h.wizard.Handle(ctx, s, in)...)
		if s.Done {
			logger.Debug(ctx, component, "conversation.end", slog.String("step", s.Step.String()))
		}
		return s, !s.Done
	})
	return err
}

func inputFrom(m *tele.Message) flow.Input {
	if m == nil {
		return flow.Input{}
	}
	in := flow.Input{Text: m.Text, HasText: m.Text != ""}
	if m.Photo != nil && m.Photo.FileID != "" {
		in.Photos = []flow.PhotoSize{{FileID: m.Photo.FileID, Width: m.Photo.Width, Height: m.Photo.Height}}
	}
	return in
}

func (h *Handlers) start(c tele.Context) error {
	name := "there"
	if u := c.Sender(); u != nil && strings.TrimSpace(u.FirstName) != "" {
		name = u.FirstName
	}
	return tghelpers.SendText(c, fmt.Sprintf(
		"👋 Hello %s!\n\nWelcome to Stock Management Bot.\n\nUse /help to see available commands.", name))
}

func (h *Handlers) help(c tele.Context) error {
	return tghelpers.SendMD(c, h.helpText())
}

func (h *Handlers) helpText() string {
	var b strings.Builder
	b.WriteString("📦 *Stock Management Bot \\- Commands*\n\n")
	if h.reg == nil {
		return b.String()
	}
	cmds := h.reg.Commands()
	names := make([]string, 0, len(cmds))
	for name, cmd := range cmds {
		if !cmd.Hidden {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := cmds[name]
		fmt.Fprintf(&b, "%s \\- %s\n", format.Escape(cmd.Title(name)), format.Escape(cmd.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handlers) ping(c tele.Context) error {
	return tghelpers.SendText(c, MsgPong+" "+buildinfo.Summary())
}

func (h *Handlers) addProduct(c tele.Context) error {
	s, reply := h.wizard.Start()
	userID := tghelpers.SenderID(c)
	var err error
	h.sessions.Update(userID, func(cur *flow.Session, found bool) (*flow.Session, bool) {
		if found && cur != nil && !cur.Done {
			logger.Info(tghelpers.BuildContext(c), component, "conversation.restart",
				slog.String("step", cur.Step.String()),
			)
		}
		err = h.render(c, reply)
		return s, true
	})
	return err
}

func (h *Handlers) cancel(c tele.Context) error {
	if h.sessions.Delete(tghelpers.SenderID(c)) {
		return tghelpers.SendText(c, flow.MsgCancelled, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
	}
	return tghelpers.SendText(c, MsgNothingToCancel)
}

func (h *Handlers) listProducts(c tele.Context) error {
	return h.render(c, h.browser.List(tghelpers.BuildContext(c), 1, false))
}

func (h *Handlers) productDetail(c tele.Context) error {
	sku := strings.TrimSpace(c.Message().Payload)
	if sku == "" {
		return tghelpers.SendText(c, flow.MsgDetailUsage)
	}
	return h.render(c, h.browser.Detail(tghelpers.BuildContext(c), sku, false))
}

func (h *Handlers) search(c tele.Context) error {
	return h.render(c, h.browser.Search(tghelpers.BuildContext(c), c.Message().Payload))
}

func (h *Handlers) unknown(c tele.Context) error {
	return tghelpers.SendText(c, MsgUnknown)
}

// AdminRejected answers non-admin users of admin-only commands.
func AdminRejected(c tele.Context) error {
	return tghelpers.SendText(c, MsgAdminOnly)
}

// onAction handles every inline button of the catalogue.
func (h *Handlers) onAction(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	action, err := flow.ParseAction(callbacks.Data(c))
	if err != nil {
		logger.Warn(ctx, component, "action.invalid",
			slog.String("data", logger.SanitizeLimit(callbacks.Data(c), 64)),
			slog.String("err", err.Error()),
		)
		return callbacks.Answer(c, MsgUnsupported)
	}

	switch a := action.(type) {
	case flow.ProductsPage:
		return h.render(c, h.browser.List(ctx, a.Page, true))
	case flow.ProductView:
		return h.render(c, h.browser.Detail(ctx, a.SKU, true))
	case flow.ProductsClose, flow.ProductClose:
		return h.render(c, flow.Close())
	case flow.ProductEdit, flow.StockAdd, flow.StockUpdate:
		logger.Info(ctx, component, "action.unavailable", slog.String("action", action.Payload()))
		return callbacks.Answer(c, MsgNotAvailable)
	}
	return callbacks.Answer(c, MsgUnsupported)
}

// Inline answers inline queries with matching products.
func (h *Handlers) Inline(c tele.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	query := strings.TrimSpace(q.Text)
	results := tele.Results{}
	if query != "" {
		items, err := h.browser.SearchItems(ctx, query)
		if err != nil {
			return c.Answer(ui.InlineAnswer(results, 0))
		}
		for _, p := range items {
			results = append(results, ui.NewArticleResult(p.SKU, p.Name, h.browser.Summary(p), h.fmt.Details(p)))
		}
	}
	logger.Debug(ctx, component, "inline.answer",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Int("results", len(results)),
	)
	return c.Answer(ui.InlineAnswer(results, inlineCacheSeconds))
}

// Routes returns the endpoints that are not commands, callbacks or messages.
func (h *Handlers) Routes() []tg.Route {
	return []tg.Route{{Endpoint: tele.OnQuery, Handler: h.Inline}}
}

var _ router.Conversation = (*Handlers)(nil)
