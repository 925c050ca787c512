package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taproom-services/internal/store"

	"go.uber.org/zap"
)

// Channels a notification can be delivered on. Each is delivered, and
// retried, on its own.
const (
	ChannelMail  = "mail"
	ChannelSheet = "sheet"
)

var ErrUnknownChannel = errors.New("unknown notification channel")

type mailSender interface {
	Send(ctx context.Context, subject, body, replyTo string) error
}

type rowAppender interface {
	AppendRow(ctx context.Context, sheetRange string, row []any) error
}

// Notifier tells staff about contact messages and job applications by
// email and by logging them to a spreadsheet. Either channel may be nil.
type Notifier struct {
	Mail             mailSender
	Sheets           rowAppender
	ContactSheet     string
	ApplicationSheet string
	Location         *time.Location
	Logger           *zap.Logger
}

func (n *Notifier) ContactReceived(ctx context.Context, channel string, msg store.Message) error {
	subject := "New message from " + msg.Name
	if msg.Subject != "" {
		subject += ": " + msg.Subject
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\nEmail: %s\n", msg.Name, msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&body, "Phone: %s\n", msg.Phone)
	}
	if msg.Subject != "" {
		fmt.Fprintf(&body, "Subject: %s\n", msg.Subject)
	}
	fmt.Fprintf(&body, "\n%s\n", msg.Body)

	row := []any{n.stamp(msg.CreatedAt), msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Body}
	return n.deliver(ctx, channel, subject, body.String(), msg.Email, n.ContactSheet, row)
}

func (n *Notifier) ApplicationReceived(ctx context.Context, channel string, app store.JobApplication) error {
	subject := fmt.Sprintf("Job application: %s (%s)", app.Name, app.Position)
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\nEmail: %s\nPhone: %s\nPosition: %s\n", app.Name, app.Email, app.Phone, app.Position)
	fmt.Fprintf(&body, "Availability: %s\n\nExperience:\n%s\n", app.Availability, app.Experience)
	if app.ResumeURL != "" {
		fmt.Fprintf(&body, "\nResume: %s\n", app.ResumeURL)
	}

	row := []any{n.stamp(app.CreatedAt), app.Name, app.Email, app.Phone, app.Position, app.Availability, app.Experience, app.ResumeURL}
	return n.deliver(ctx, channel, subject, body.String(), app.Email, n.ApplicationSheet, row)
}

// deliver sends on one channel. An unconfigured channel is skipped.
func (n *Notifier) deliver(ctx context.Context, channel, subject, body, replyTo, sheet string, row []any) error {
	switch channel {
	case ChannelMail:
		if n.Mail == nil {
			n.skipped(channel, subject)
			return nil
		}
		return n.Mail.Send(ctx, subject, body, replyTo)
	case ChannelSheet:
		if n.Sheets == nil || sheet == "" {
			n.skipped(channel, subject)
			return nil
		}
		return n.Sheets.AppendRow(ctx, sheet, row)
	}
	return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
}

func (n *Notifier) skipped(channel, subject string) {
	if n.Logger != nil {
		n.Logger.Debug("notification channel not configured", zap.String("channel", channel), zap.String("subject", subject))
	}
}

func (n *Notifier) stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	if n.Location != nil {
		t = t.In(n.Location)
	}
	return t.Format("2006-01-02 15:04:05")
}
