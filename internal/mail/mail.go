// Package mail delivers outbound email either directly over SMTP or through
// the message queue, where the mail worker picks it up.
package mail

import (
	"context"
	"errors"
	"strings"
)

// ErrDisabled is returned by a Sender when outbound mail is switched off.
var ErrDisabled = errors.New("mail delivery is disabled")

// Message is a plain-text email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mail recipient is required")
	}
	if strings.TrimSpace(m.From) == "" {
		return errors.New("mail sender is required")
	}
	if strings.ContainsAny(m.To+m.From+m.Subject, "\r\n") {
		return errors.New("mail headers must not contain line breaks")
	}
	return nil
}

// Sender delivers a message. A nil error means the transport accepted it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DisabledSender rejects every message.
type DisabledSender struct{}

func (DisabledSender) Send(context.Context, Message) error {
	return ErrDisabled
}
