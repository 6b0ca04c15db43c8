package slackbot

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/DoyleJ11/map-veto-backend/internal/notify"
)

// Deliverer posts the veto summary to the origin channel and to each party's
// app DM. Party IDs are Slack user IDs.
type Deliverer struct {
	client SlackClient
}

func NewDeliverer(client SlackClient) *Deliverer {
	return &Deliverer{client: client}
}

func (d *Deliverer) Deliver(ctx context.Context, to notify.Recipient, r notify.Report) error {
	_, _, err := d.client.PostMessageContext(ctx, to.ID,
		slack.MsgOptionText(r.Text(), false),
		SummaryMsg(r),
	)
	return err
}

var _ notify.Deliverer = (*Deliverer)(nil)
