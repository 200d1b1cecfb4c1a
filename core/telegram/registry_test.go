package telegram

import (
	"errors"
	"testing"

	"github.com/m3rciful/stockbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommandStripsArgsAndMention(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/product", commands.Command{Handler: noop, Description: "Show product", Aliases: []string{"p"}})

	for _, in := range []string{"/product SKU-1", "product", "/product@stock_bot X", "/p"} {
		key, _, ok := reg.LookupCommand(in)
		if !ok || key != "/product" {
			t.Fatalf("LookupCommand(%q) = %q, %v", in, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("unexpected match for /unknown")
	}
}

func TestListCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/addproduct", commands.Command{Handler: noop, Description: "Add", AdminOnly: true})
	reg.RegisterCommand("/ping", commands.Command{Handler: noop, Description: "Ping", Hidden: true})
	reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "invalid"})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}

func TestRegisterCallbackRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("products:page", noop); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.RegisterCallback("products:page", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, ok := reg.GetCallback("products:page"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "products:page" {
		t.Fatalf("ListCallbacks = %v", got)
	}
}

type setterStub struct {
	got []tele.Command
	err error
}

func (s *setterStub) SetCommands(opts ...interface{}) error {
	if len(opts) > 0 {
		s.got, _ = opts[0].([]tele.Command)
	}
	return s.err
}

func TestSetupCommandsPublishesVisible(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help"})
	reg.RegisterCommand("/listproducts", commands.Command{Handler: noop, Description: "List"})

	stub := &setterStub{}
	SetupCommands(stub, reg)
	if len(stub.got) != 2 || stub.got[0].Text != "help" || stub.got[1].Text != "listproducts" {
		t.Fatalf("published = %+v", stub.got)
	}

	SetupCommands(&setterStub{err: errors.New("boom")}, reg)
}
