// Package callbacks decodes inline button payloads of the form
// <domain>:<action>[:<argument>].
package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Sep separates payload segments.
const Sep = ":"

// MaxDataLen is the Telegram limit for callback_data in bytes.
const MaxDataLen = 64

// ErrMalformed is returned for payloads lacking a domain or action.
var ErrMalformed = errors.New("callbacks: malformed payload")

const answeredKey = "cb_answered"

// Payload is a decoded callback payload.
type Payload struct {
	Domain string
	Action string
	Arg    string
}

// Key returns the routing key "<domain>:<action>".
func (p Payload) Key() string {
	return p.Domain + Sep + p.Action
}

// String re-encodes the payload.
func (p Payload) String() string {
	if p.Arg == "" {
		return p.Key()
	}
	return p.Key() + Sep + p.Arg
}

// Encode joins domain, action and an optional argument.
func Encode(domain, action string, arg ...string) string {
	p := Payload{Domain: domain, Action: action}
	if len(arg) > 0 {
		p.Arg = arg[0]
	}
	return p.String()
}

// Parse splits raw callback data. Everything after the second separator is
// the argument, so arguments may contain further separators.
func Parse(data string) (Payload, error) {
	data = strings.TrimSpace(strings.TrimPrefix(data, "\f"))
	parts := strings.SplitN(data, Sep, 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Payload{}, ErrMalformed
	}
	p := Payload{Domain: parts[0], Action: parts[1]}
	if len(parts) == 3 {
		p.Arg = parts[2]
	}
	return p, nil
}

// Data returns the raw callback data of the update, or "".
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		// telebot strips "\f<unique>|" when a unique is present
		return cb.Unique + Sep + cb.Data
	}
	return cb.Data
}

// FromContext parses the callback carried by c.
func FromContext(c tele.Context) (Payload, error) {
	return Parse(Data(c))
}

// Answer responds to the callback query with an optional toast text and
// marks it answered so routers skip the default empty response.
func Answer(c tele.Context, text string) error {
	c.Set(answeredKey, true)
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Answered reports whether Answer was already called for this update.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}
