package slackbot

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/notify"
)

const (
	ActionDecision = "veto_decision"
	blockDecisions = "VETO_DECISIONS"
)

// decisionValue packs what a button submits; parseDecisionValue reverses it.
func decisionValue(code string, step engine.StepType, value string) string {
	return strings.Join([]string{code, step.String(), value}, "|")
}

func parseDecisionValue(v string) (code, kind, value string, ok bool) {
	parts := strings.SplitN(v, "|", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func mention(p engine.Party) string {
	return fmt.Sprintf("<@%s>", p.ID)
}

func textSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil)
}

// promptOptions lists what the acting party may choose on step.
func promptOptions(step engine.StepType, v engine.View) []string {
	if step == engine.StepSide {
		return v.Sides
	}
	return v.Available
}

// PromptMsg asks the acting party for its decision. Only maps still
// available (or the configured sides) get a button.
func PromptMsg(code string, step engine.StepType, v engine.View) slack.MsgOption {
	var verb string
	switch step {
	case engine.StepBan:
		verb = "ban a map"
	case engine.StepPick:
		verb = "pick a map"
	case engine.StepSide:
		verb = "choose your side"
	}
	text := fmt.Sprintf("Veto *%s* (%s vs %s): your turn to %s.", code, v.PartyA.Name, v.PartyB.Name, verb)

	options := promptOptions(step, v)
	buttons := make([]slack.BlockElement, 0, len(options))
	for _, opt := range options {
		btn := slack.NewButtonBlockElement(ActionDecision, decisionValue(code, step, opt),
			slack.NewTextBlockObject("plain_text", opt, false, false))
		if step == engine.StepBan {
			btn.Style = slack.StyleDanger
		} else {
			btn.Style = slack.StylePrimary
		}
		buttons = append(buttons, btn)
	}
	return slack.MsgOptionBlocks(textSection(text), slack.NewActionBlock(blockDecisions, buttons...))
}

// AnnouncementMsg reports accepted decisions to the origin channel.
func AnnouncementMsg(code string, events []engine.Event) (slack.MsgOption, bool) {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		switch e.Type {
		case engine.EvtMapBanned, engine.EvtMapPicked, engine.EvtSideChosen, engine.EvtTimerExpired:
			lines = append(lines, e.String())
		}
	}
	if len(lines) == 0 {
		return nil, false
	}
	return slack.MsgOptionText(fmt.Sprintf("[%s] %s", code, strings.Join(lines, "\n")), false), true
}

func SummaryMsg(r notify.Report) slack.MsgOption {
	picked := strings.Join(r.Summary.PickedLines(), "\n")
	if picked == "" {
		picked = "None"
	}
	return slack.MsgOptionBlocks(
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", r.Title(), false, false)),
		textSection("*Picked maps:*\n"+picked),
		textSection("*Banned maps:* "+r.Summary.BannedLine()),
		slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", "Veto "+r.Veto, false, false)),
	)
}

func StartedMsg(code, template string, a, b engine.Party) slack.MsgOption {
	text := fmt.Sprintf("Veto *%s* started (%s): %s vs %s. %s goes first.", code, template, mention(a), mention(b), mention(a))
	return slack.MsgOptionBlocks(textSection(text))
}

func ephemeralText(text string) slack.MsgOption {
	return slack.MsgOptionText(text, false)
}
