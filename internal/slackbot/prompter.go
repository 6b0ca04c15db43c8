package slackbot

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
)

// Prompter follows a veto and asks whoever is due to act, once per step.
// Accepted decisions are announced in the origin channel.
type Prompter struct {
	client SlackClient
	log    *zap.Logger
}

func NewPrompter(client SlackClient, log *zap.Logger) *Prompter {
	return &Prompter{client: client, log: log}
}

type promptKey struct {
	cursor int
	party  string
}

func (p *Prompter) Watch(ctx context.Context, lb *lobby.Lobby) {
	id := "slack-" + uuid.NewString()
	out := make(chan lobby.Snapshot, 32)
	if err := lb.Subscribe(ctx, id, out); err != nil {
		return
	}
	defer func() { _ = lb.Unsubscribe(context.Background(), id) }()

	last := promptKey{cursor: -1}
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-out:
			if !ok {
				return
			}
			p.handle(ctx, snap, &last)
		}
	}
}

func (p *Prompter) handle(ctx context.Context, snap lobby.Snapshot, last *promptKey) {
	v := snap.State
	log := p.log.With(zap.String("veto", snap.Code))

	if v.Channel != "" {
		if msg, ok := AnnouncementMsg(snap.Code, snap.Events); ok {
			if _, _, err := p.client.PostMessageContext(ctx, v.Channel, msg); err != nil {
				log.Warn("announcement failed", zap.Error(err))
			}
		}
	}

	if v.Status != engine.StatusRunning {
		return
	}
	step, err := engine.ParseStep(v.Step)
	if err != nil {
		return
	}
	key := promptKey{cursor: v.Cursor, party: v.Turn.ID}
	if key == *last {
		return
	}
	*last = key

	if _, _, err := p.client.PostMessageContext(ctx, v.Turn.ID, PromptMsg(snap.Code, step, v)); err != nil {
		log.Warn("prompt failed", zap.String("party", v.Turn.ID), zap.Error(err))
	}
}

var _ veto.Watcher = (*Prompter)(nil)
