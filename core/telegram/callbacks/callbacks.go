// Package callbacks decodes inline button data produced by telebot.
//
// telebot encodes a data button as "\f<unique>|<payload>". When the bot only
// registers the generic OnCallback endpoint the data reaches handlers in that
// raw form, so both parts are recovered here.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

const prefix = "\f"

// Encode renders unique and payload the way telebot does for data buttons.
func Encode(unique, payload string) string {
	if payload == "" {
		return prefix + unique
	}
	return prefix + unique + "|" + payload
}

// Parse splits callback data into its unique key and payload.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, prefix)
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the unique key of the current callback.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}

// Payload returns the payload of the current callback.
func Payload(c tele.Context) string {
	_, payload := Parse(c.Callback())
	return payload
}
