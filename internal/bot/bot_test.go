package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/router"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/core/telegram/teletest"
	"github.com/m3rciful/stockbot/internal/flow"
	"github.com/m3rciful/stockbot/internal/product"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID = int64(100)
	userID  = int64(200)
)

type memDir struct {
	items   []product.ProductWithInventory
	created []product.CreateInput
}

func (m *memDir) GetBySKU(_ context.Context, sku string) (*product.ProductWithInventory, error) {
	for i := range m.items {
		if m.items[i].SKU == sku {
			p := m.items[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memDir) Create(_ context.Context, in product.CreateInput) (*product.Product, error) {
	m.created = append(m.created, in)
	p := product.Product{Name: in.Name, SKU: in.SKU, UnitPrice: in.UnitPrice, SellingPrice: in.SellingPrice, Unit: in.Unit, ImageURL: in.ImageURL}
	m.items = append(m.items, product.ProductWithInventory{Product: p})
	return &p, nil
}

func (m *memDir) List(_ context.Context, page, size int) ([]product.ProductWithInventory, int, error) {
	start := (page - 1) * size
	if start >= len(m.items) {
		return nil, len(m.items), nil
	}
	end := start + size
	if end > len(m.items) {
		end = len(m.items)
	}
	return m.items[start:end], len(m.items), nil
}

func (m *memDir) Search(_ context.Context, q string) ([]product.ProductWithInventory, error) {
	var out []product.ProductWithInventory
	for _, p := range m.items {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func item(name, sku string) product.ProductWithInventory {
	return product.ProductWithInventory{Product: product.Product{
		Name:         name,
		SKU:          sku,
		UnitPrice:    decimal.NewFromInt(10),
		SellingPrice: decimal.NewFromInt(15),
		Unit:         "pcs",
	}}
}

type fixture struct {
	dir      *memDir
	handlers *Handlers
	reg      *tg.Registry
	commands map[string]tele.HandlerFunc
	callback tele.HandlerFunc
	messages map[string]tele.HandlerFunc
}

func newFixture(t *testing.T, items ...product.ProductWithInventory) *fixture {
	t.Helper()
	dir := &memDir{items: items}
	f := flow.Formatter{}
	h := New(Deps{
		Wizard:    flow.NewWizard(dir, &stubImages{url: "tg-file:img"}, f),
		Browser:   flow.NewBrowser(dir, f, flow.PageSize),
		Formatter: f,
		Sessions:  state.NewStore[*flow.Session](time.Minute),
	})
	reg := tg.NewRegistry()
	if err := h.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	fx := &fixture{dir: dir, handlers: h, reg: reg, commands: map[string]tele.HandlerFunc{}, messages: map[string]tele.HandlerFunc{}}
	for _, r := range router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: adminID, OnAdminReject: AdminRejected}) {
		fx.commands[r.Endpoint.(string)] = r.Handler
	}
	fx.callback = router.CallbackRoute(reg, router.CallbackOptions{}).Handler
	for _, r := range router.MessageRoutes([]router.Conversation{h}, reg, router.MessageOptions{UnknownMedia: h.unknown}) {
		fx.messages[r.Endpoint.(string)] = r.Handler
	}
	return fx
}

func (fx *fixture) command(t *testing.T, from int64, cmd, payload string) *teletest.Context {
	t.Helper()
	c := teletest.NewCommand(from, cmd, payload)
	h, ok := fx.commands[cmd]
	if !ok {
		t.Fatalf("command %s not routed", cmd)
	}
	if err := h(c); err != nil {
		t.Fatalf("%s: %v", cmd, err)
	}
	return c
}

func (fx *fixture) text(t *testing.T, from int64, text string) *teletest.Context {
	t.Helper()
	c := teletest.NewText(from, text)
	if err := fx.messages[tele.OnText](c); err != nil {
		t.Fatalf("text %q: %v", text, err)
	}
	return c
}

func (fx *fixture) press(t *testing.T, from int64, data string) *teletest.Context {
	t.Helper()
	c := teletest.NewCallback(from, data)
	if err := fx.callback(c); err != nil {
		t.Fatalf("callback %q: %v", data, err)
	}
	return c
}

type stubImages struct {
	url string
}

func (s *stubImages) ResolveImage(context.Context, string) (string, error) { return s.url, nil }

func TestAddProductIsAdminOnly(t *testing.T) {
	fx := newFixture(t)
	c := fx.command(t, userID, "/addproduct", "")
	if got := c.LastSent().Text(); got != MsgAdminOnly {
		t.Fatalf("reply = %q", got)
	}
	if fx.handlers.Active(userID) {
		t.Fatal("rejected user must not get a session")
	}
}

func TestCreationConversation(t *testing.T) {
	fx := newFixture(t)
	c := fx.command(t, adminID, "/addproduct", "")
	if !strings.Contains(c.LastSent().Text(), "Add New Product") {
		t.Fatalf("start reply = %q", c.LastSent().Text())
	}
	if m := c.LastSent().Markup(); m == nil || !m.ForceReply {
		t.Fatal("prompt should force a reply")
	}

	for _, in := range []string{"Green Tea", "-", "TEA-1", "80", "120", "box", "-"} {
		fx.text(t, adminID, in)
	}

	photo := &tele.Photo{File: tele.File{FileID: "ph1"}, Width: 800, Height: 600}
	c = teletest.NewPhoto(adminID, photo, "")
	if err := fx.messages[tele.OnPhoto](c); err != nil {
		t.Fatalf("photo: %v", err)
	}

	if len(fx.dir.created) != 1 {
		t.Fatalf("created %d products", len(fx.dir.created))
	}
	if got := fx.dir.created[0].ImageURL; got == nil || *got != "tg-file:img" {
		t.Fatalf("image url = %v", got)
	}
	sent := c.LastSent()
	if !strings.HasPrefix(sent.Text(), flow.MsgCreated) {
		t.Fatalf("confirmation = %q", sent.Text())
	}
	m := sent.Markup()
	if m == nil || len(m.InlineKeyboard) != 1 || m.InlineKeyboard[0][0].Data != "stock:add:TEA-1" {
		t.Fatalf("unexpected markup %+v", m)
	}
	if fx.handlers.Active(adminID) {
		t.Fatal("session should end after commit")
	}
}

func TestCancel(t *testing.T) {
	fx := newFixture(t)
	fx.command(t, adminID, "/addproduct", "")
	fx.text(t, adminID, "Soap")

	c := fx.command(t, adminID, "/cancel", "")
	if got := c.LastSent().Text(); got != flow.MsgCancelled {
		t.Fatalf("cancel reply = %q", got)
	}
	if fx.handlers.Active(adminID) {
		t.Fatal("session still active after cancel")
	}
	c = fx.command(t, adminID, "/cancel", "")
	if got := c.LastSent().Text(); got != MsgNothingToCancel {
		t.Fatalf("second cancel = %q", got)
	}
}

func TestTextOutsideConversation(t *testing.T) {
	fx := newFixture(t)
	c := fx.text(t, userID, "hello")
	if got := c.LastSent().Text(); got != MsgUnknown {
		t.Fatalf("reply = %q", got)
	}
}

func TestListAndNavigate(t *testing.T) {
	var items []product.ProductWithInventory
	for _, n := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		items = append(items, item("Item "+n, "SKU-"+n))
	}
	fx := newFixture(t, items...)

	c := fx.command(t, userID, "/listproducts", "")
	if !strings.Contains(c.LastSent().Text(), "Page 1/2") {
		t.Fatalf("list = %q", c.LastSent().Text())
	}

	c = fx.press(t, userID, "products:page:2")
	if len(c.Sent) != 0 || !strings.Contains(c.LastEdited().Text(), "Page 2/2") {
		t.Fatalf("navigation should edit: sent=%d edited=%+v", len(c.Sent), c.Edited)
	}
	if len(c.Responses) != 1 {
		t.Fatalf("callback answered %d times", len(c.Responses))
	}

	c = fx.press(t, userID, "products:close")
	if c.Deleted != 1 {
		t.Fatalf("close should delete the message")
	}
}

func TestDetailCommandAndRefresh(t *testing.T) {
	fx := newFixture(t, item("Rice", "RICE-5"))

	c := fx.command(t, userID, "/product", "RICE-5")
	if !strings.HasPrefix(c.LastSent().Text(), "📦 *Rice*") {
		t.Fatalf("detail = %q", c.LastSent().Text())
	}

	c = fx.press(t, userID, "product:view:RICE-5")
	if len(c.Edited) != 1 || len(c.Sent) != 0 {
		t.Fatalf("refresh should edit in place: %+v", c)
	}

	c = fx.command(t, userID, "/product", "MISSING")
	if got := c.LastSent().Text(); got != `❌ Product with SKU "MISSING" not found.` {
		t.Fatalf("not found = %q", got)
	}
	if c.LastSent().Markup() != nil {
		t.Fatal("not found must not render buttons")
	}

	c = fx.command(t, userID, "/product", "")
	if got := c.LastSent().Text(); got != flow.MsgDetailUsage {
		t.Fatalf("usage = %q", got)
	}
}

func TestRefreshNotModifiedIsSilent(t *testing.T) {
	fx := newFixture(t, item("Rice", "RICE-5"))
	c := teletest.NewCallback(userID, "product:view:RICE-5")
	c.EditErr = errors.New("telegram: Bad Request: message is not modified (400)")
	if err := fx.callback(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(c.Sent) != 0 {
		t.Fatalf("identical refresh must not post a new message")
	}
}

func TestUnavailableActionsAnswer(t *testing.T) {
	fx := newFixture(t, item("Rice", "RICE-5"))
	for _, data := range []string{"stock:add:RICE-5", "stock:update:RICE-5", "product:edit:RICE-5"} {
		c := fx.press(t, userID, data)
		if len(c.Responses) != 1 || c.Responses[0].Text != MsgNotAvailable {
			t.Fatalf("%s: responses %+v", data, c.Responses)
		}
	}
}

func TestMalformedCallback(t *testing.T) {
	fx := newFixture(t)
	c := fx.press(t, userID, "products:page:abc")
	if len(c.Responses) != 1 || c.Responses[0].Text != MsgUnsupported {
		t.Fatalf("responses %+v", c.Responses)
	}
	c = fx.press(t, userID, "orders:list")
	if len(c.Responses) != 1 {
		t.Fatalf("unknown key answered %d times", len(c.Responses))
	}
}

func TestSearchCommand(t *testing.T) {
	fx := newFixture(t, item("Green Tea", "TEA-1"), item("Black Tea", "TEA-2"), item("Rice", "RICE"))
	c := fx.command(t, userID, "/search", "tea")
	text := c.LastSent().Text()
	if !strings.Contains(text, "Green Tea") || !strings.Contains(text, "Black Tea") || strings.Contains(text, "Rice") {
		t.Fatalf("search = %q", text)
	}
}

func TestInlineQuery(t *testing.T) {
	fx := newFixture(t, item("Green Tea", "TEA-1"), item("Rice", "RICE"))
	c := teletest.NewQuery(userID, "tea")
	if err := fx.handlers.Inline(c); err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if len(c.Answers) != 1 {
		t.Fatalf("answers = %d", len(c.Answers))
	}
	res := c.Answers[0].Results
	if len(res) != 1 {
		t.Fatalf("results = %d", len(res))
	}
	article, ok := res[0].(*tele.ArticleResult)
	if !ok || article.Title != "Green Tea" || article.ResultID() != "TEA-1" {
		t.Fatalf("unexpected result %+v", res[0])
	}

	c = teletest.NewQuery(userID, "  ")
	if err := fx.handlers.Inline(c); err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if len(c.Answers[0].Results) != 0 {
		t.Fatal("blank query should answer empty")
	}
}

func TestHelpListsVisibleCommands(t *testing.T) {
	fx := newFixture(t)
	c := fx.command(t, userID, "/help", "")
	text := c.LastSent().Text()
	for _, want := range []string{"/addproduct", "/listproducts", `/product <sku\>`, "\\- "} {
		if !strings.Contains(text, want) {
			t.Fatalf("help missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "/ping") {
		t.Fatal("hidden command listed")
	}
}

func TestPing(t *testing.T) {
	fx := newFixture(t)
	c := fx.command(t, userID, "/ping", "")
	if !strings.HasPrefix(c.LastSent().Text(), MsgPong) {
		t.Fatalf("ping = %q", c.LastSent().Text())
	}
}
