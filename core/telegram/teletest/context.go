// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Call records one outbound Send or Edit.
type Call struct {
	What interface{}
	Opts []interface{}
}

// Text returns the call payload when it is a string.
func (c Call) Text() string {
	s, _ := c.What.(string)
	return s
}

// Markup returns the reply markup passed with the call, if any.
func (c Call) Markup() *tele.ReplyMarkup {
	for _, o := range c.Opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

// Context implements tele.Context over a fixed update. Methods that are not
// overridden panic through the nil embedded interface.
type Context struct {
	tele.Context

	Upd tele.Update

	SendErr error
	EditErr error

	mu        sync.Mutex
	store     map[string]interface{}
	Sent      []Call
	Edited    []Call
	Deleted   int
	Responses []*tele.CallbackResponse
	Answers   []*tele.QueryResponse
}

func newMessage(userID int64, text string) *tele.Message {
	return &tele.Message{
		ID:     int(userID%1000) + 1,
		Text:   text,
		Sender: &tele.User{ID: userID, Username: "tester"},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}
}

// NewText builds a private text message update.
func NewText(userID int64, text string) *Context {
	return &Context{Upd: tele.Update{ID: 1, Message: newMessage(userID, text)}}
}

// NewCommand builds a command message; the payload is the text after the command.
func NewCommand(userID int64, command, payload string) *Context {
	text := command
	if payload != "" {
		text += " " + payload
	}
	c := NewText(userID, text)
	c.Upd.Message.Payload = payload
	return c
}

// NewPhoto builds a photo message update with an optional caption.
func NewPhoto(userID int64, photo *tele.Photo, caption string) *Context {
	m := newMessage(userID, "")
	m.Photo = photo
	m.Caption = caption
	return &Context{Upd: tele.Update{ID: 1, Message: m}}
}

// NewMessage wraps an arbitrary message, e.g. a document or sticker.
func NewMessage(userID int64, m *tele.Message) *Context {
	base := newMessage(userID, m.Text)
	if m.Sender == nil {
		m.Sender = base.Sender
	}
	if m.Chat == nil {
		m.Chat = base.Chat
	}
	return &Context{Upd: tele.Update{ID: 1, Message: m}}
}

// NewCallback builds a callback query attached to a bot message.
func NewCallback(userID int64, data string) *Context {
	return &Context{Upd: tele.Update{ID: 1, Callback: &tele.Callback{
		ID:      "cb1",
		Sender:  &tele.User{ID: userID},
		Message: newMessage(userID, "previous"),
		Data:    data,
	}}}
}

// NewQuery builds an inline query update.
func NewQuery(userID int64, text string) *Context {
	return &Context{Upd: tele.Update{ID: 1, Query: &tele.Query{
		ID:     "q1",
		Sender: &tele.User{ID: userID},
		Text:   text,
	}}}
}

func (c *Context) Update() tele.Update { return c.Upd }
func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }
func (c *Context) Query() *tele.Query { return c.Upd.Query }

func (c *Context) Message() *tele.Message {
	switch {
	case c.Upd.Message != nil:
		return c.Upd.Message
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Message
	}
	return nil
}

func (c *Context) Sender() *tele.User {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Sender
	case c.Upd.Query != nil:
		return c.Upd.Query.Sender
	case c.Upd.Message != nil:
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Recipient() tele.Recipient {
	if chat := c.Chat(); chat != nil {
		return chat
	}
	return c.Sender()
}

func (c *Context) Text() string {
	if m := c.Message(); m != nil && c.Upd.Callback == nil {
		if m.Text != "" {
			return m.Text
		}
		return m.Caption
	}
	return ""
}

func (c *Context) Data() string {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Data
	case c.Upd.Query != nil:
		return c.Upd.Query.Text
	case c.Upd.Message != nil:
		return c.Upd.Message.Payload
	}
	return ""
}

func (c *Context) Args() []string {
	switch {
	case c.Upd.Callback != nil:
		return strings.Split(c.Upd.Callback.Data, "|")
	case c.Upd.Query != nil:
		return strings.Fields(c.Upd.Query.Text)
	case c.Upd.Message != nil:
		return strings.Fields(c.Upd.Message.Payload)
	}
	return nil
}

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.mu.Lock()
	c.Sent = append(c.Sent, Call{What: what, Opts: opts})
	c.mu.Unlock()
	return nil
}

func (c *Context) Reply(what interface{}, opts ...interface{}) error {
	return c.Send(what, opts...)
}

func (c *Context) Edit(what interface{}, opts ...interface{}) error {
	if c.EditErr != nil {
		return c.EditErr
	}
	c.mu.Lock()
	c.Edited = append(c.Edited, Call{What: what, Opts: opts})
	c.mu.Unlock()
	return nil
}

func (c *Context) EditOrSend(what interface{}, opts ...interface{}) error {
	if c.Upd.Callback != nil {
		return c.Edit(what, opts...)
	}
	return c.Send(what, opts...)
}

func (c *Context) Delete() error {
	c.mu.Lock()
	c.Deleted++
	c.mu.Unlock()
	return nil
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		c.Responses = append(c.Responses, &tele.CallbackResponse{})
		return nil
	}
	c.Responses = append(c.Responses, resp[0])
	return nil
}

func (c *Context) Answer(resp *tele.QueryResponse) error {
	c.mu.Lock()
	c.Answers = append(c.Answers, resp)
	c.mu.Unlock()
	return nil
}

// LastSent returns the most recent Send call or a zero Call.
func (c *Context) LastSent() Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) == 0 {
		return Call{}
	}
	return c.Sent[len(c.Sent)-1]
}

// LastEdited returns the most recent Edit call or a zero Call.
func (c *Context) LastEdited() Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Edited) == 0 {
		return Call{}
	}
	return c.Edited[len(c.Edited)-1]
}
