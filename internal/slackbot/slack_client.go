// Package slackbot drives vetoes from Slack: slash commands, decision
// buttons, turn prompts and summary delivery.
package slackbot

import (
	"context"

	"github.com/slack-go/slack"
)

//go:generate mockgen -destination=mock_slack_client_test.go -package=slackbot . SlackClient

// SlackClient is the subset of slack.Client the bot uses.
type SlackClient interface {
	// PostMessageContext sends a message to a channel, or to a user's app
	// DM when channelID is a user ID.
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)

	// PostEphemeralContext sends a message only userID can see.
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
}

// compile-time assertion to ensure that `slack.Client` implements `SlackClient`
var _ SlackClient = (*slack.Client)(nil)
