package slackbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/hub"
	"github.com/DoyleJ11/map-veto-backend/internal/template"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
)

const CmdVeto = "/veto"

const usage = "Usage: `/veto start <template> @teamA @teamB` or `/veto pause|resume|stop <code>`"

// HandleCommand serves the /veto slash command. Replies go to the caller as
// ephemeral messages; a started veto is announced in the channel.
func HandleCommand(svc *veto.Service, client SlackClient, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			log.Error("failed to parse slash command", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if cmd.Command != CmdVeto {
			log.Warn("received an invalid command", zap.String("command", cmd.Command), zap.String("sender", r.RemoteAddr))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		reply := func(text string) {
			if _, err := client.PostEphemeralContext(ctx, cmd.ChannelID, cmd.UserID, ephemeralText(text)); err != nil {
				log.Warn("ephemeral reply failed", zap.Error(err))
			}
		}

		args := strings.Fields(cmd.Text)
		if len(args) == 0 {
			reply(usage)
			w.WriteHeader(http.StatusOK)
			return
		}

		switch args[0] {
		case "start":
			if len(args) != 4 {
				reply(usage)
				break
			}
			a, okA := parseMention(args[2])
			b, okB := parseMention(args[3])
			if !okA || !okB {
				reply("Mention both teams, e.g. `/veto start bo3 @alice @bob`.")
				break
			}
			lb, err := svc.Start(ctx, veto.StartRequest{Template: args[1], PartyA: a, PartyB: b, Channel: cmd.ChannelID})
			if err != nil {
				reply(userMessage(err))
				break
			}
			if _, _, err := client.PostMessageContext(ctx, cmd.ChannelID, StartedMsg(lb.Code(), args[1], a, b)); err != nil {
				log.Warn("start announcement failed", zap.Error(err))
			}

		case "pause", "resume", "stop":
			if len(args) != 2 {
				reply(usage)
				break
			}
			code := args[1]
			var err error
			switch args[0] {
			case "pause":
				err = svc.Pause(ctx, code)
			case "resume":
				err = svc.Resume(ctx, code)
			case "stop":
				err = svc.Stop(ctx, code)
			}
			if err != nil {
				reply(userMessage(err))
				break
			}
			reply(fmt.Sprintf("Veto %s: %s done.", strings.ToUpper(code), args[0]))

		default:
			reply(usage)
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleInteraction serves decision button clicks. The clicking user is the
// submitting party.
func HandleInteraction(svc *veto.Service, client SlackClient, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var interactionCallback slack.InteractionCallback

		if err := json.Unmarshal([]byte(r.FormValue("payload")), &interactionCallback); err != nil {
			log.Error("failed to decode interaction body", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		actions := interactionCallback.ActionCallback.BlockActions
		if len(actions) < 1 {
			log.Error("invalid or empty block action callback")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		action := actions[0]
		if action.ActionID != ActionDecision {
			log.Warn("invalid action id", zap.String("action_id", action.ActionID), zap.String("sender", r.RemoteAddr))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		code, kind, value, ok := parseDecisionValue(action.Value)
		if !ok {
			log.Warn("malformed decision value", zap.String("value", action.Value))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		user := interactionCallback.User.ID
		if err := svc.Submit(ctx, code, user, kind, value); err != nil {
			channel := interactionCallback.Channel.ID
			if _, err := client.PostEphemeralContext(ctx, channel, user, ephemeralText(userMessage(err))); err != nil {
				log.Warn("ephemeral reply failed", zap.Error(err))
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

// parseMention reads a Slack user mention, "<@U123|name>" or "<@U123>".
func parseMention(s string) (engine.Party, bool) {
	if !strings.HasPrefix(s, "<@") || !strings.HasSuffix(s, ">") {
		return engine.Party{}, false
	}
	id, name, _ := strings.Cut(s[2:len(s)-1], "|")
	if id == "" {
		return engine.Party{}, false
	}
	if name == "" {
		name = id
	}
	return engine.Party{ID: id, Name: name}, true
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrWrongTurn):
		return "It's not your turn."
	case errors.Is(err, engine.ErrUnknownMap):
		return "That map is no longer available."
	case errors.Is(err, engine.ErrWrongAction):
		return "That choice doesn't match the current step."
	case errors.Is(err, engine.ErrSessionPaused):
		return "The veto is paused."
	case errors.Is(err, engine.ErrSessionStopped):
		return "The veto is already completed."
	case errors.Is(err, hub.ErrLobbyNotFound):
		return "No running veto with that code."
	case errors.Is(err, template.ErrTemplateNotFound):
		return "Unknown template."
	default:
		return err.Error()
	}
}
