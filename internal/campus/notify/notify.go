// Package notify sends the service's emails: OTP codes synchronously and
// registration confirmations through a background Dispatcher.
package notify

import (
	"context"
	"errors"
)

var ErrNoRecipient = errors.New("notify: message has no recipient")

// Inline is an attachment the HTML body references as cid:Name.
type Inline struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Inline  []Inline

	// Summary is a short plain text line for logs. It never reaches the
	// recipient.
	Summary string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
