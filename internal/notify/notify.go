// Package notify delivers the end-of-veto report. A session produces its
// summary once; the lobby hands it to a Deliverer for every recipient.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
)

type RecipientKind string

const (
	KindChannel RecipientKind = "channel"
	KindParty   RecipientKind = "party"
)

type Recipient struct {
	Kind RecipientKind
	ID   string
	Name string
}

// Report is the content delivered once a veto stops.
type Report struct {
	Veto    string
	PartyA  engine.Party
	PartyB  engine.Party
	Summary engine.Summary
}

func (r Report) Title() string {
	return fmt.Sprintf("Veto summary: %s vs %s", r.PartyA.Name, r.PartyB.Name)
}

func (r Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Title())
	if r.Veto != "" {
		fmt.Fprintf(&b, " (%s)", r.Veto)
	}
	b.WriteString("\n")
	b.WriteString(r.Summary.String())
	return b.String()
}

//go:generate mockgen -destination=notifymock/deliverer.go -package=notifymock . Deliverer

type Deliverer interface {
	Deliver(ctx context.Context, to Recipient, r Report) error
}

type DelivererFunc func(ctx context.Context, to Recipient, r Report) error

func (f DelivererFunc) Deliver(ctx context.Context, to Recipient, r Report) error {
	return f(ctx, to, r)
}

// Recipients lists the origin channel (when known) and both parties.
func Recipients(channel string, a, b engine.Party) []Recipient {
	out := make([]Recipient, 0, 3)
	if channel != "" {
		out = append(out, Recipient{Kind: KindChannel, ID: channel})
	}
	out = append(out,
		Recipient{Kind: KindParty, ID: a.ID, Name: a.Name},
		Recipient{Kind: KindParty, ID: b.ID, Name: b.Name},
	)
	return out
}

// DeliverAll tries every recipient even if some fail and returns the
// combined error.
func DeliverAll(ctx context.Context, d Deliverer, to []Recipient, r Report) error {
	var err error
	for _, rcpt := range to {
		if derr := d.Deliver(ctx, rcpt, r); derr != nil {
			err = multierr.Append(err, fmt.Errorf("deliver to %s %s: %w", rcpt.Kind, rcpt.ID, derr))
		}
	}
	return err
}

// Multi fans each delivery out to several deliverers.
type Multi []Deliverer

func (m Multi) Deliver(ctx context.Context, to Recipient, r Report) error {
	var err error
	for _, d := range m {
		err = multierr.Append(err, d.Deliver(ctx, to, r))
	}
	return err
}

// LogDeliverer writes reports to the log. It is the fallback when no chat
// integration is configured.
type LogDeliverer struct {
	Logger *zap.Logger
}

func (l LogDeliverer) Deliver(_ context.Context, to Recipient, r Report) error {
	l.Logger.Info("veto summary",
		zap.String("veto", r.Veto),
		zap.String("recipient_kind", string(to.Kind)),
		zap.String("recipient", to.ID),
		zap.Strings("picked", r.Summary.PickedLines()),
		zap.String("banned", r.Summary.BannedLine()),
	)
	return nil
}
