package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidRule = errors.New("invalid rule")
var ErrInvalidPool = errors.New("invalid map pool")
var ErrPoolMismatch = errors.New("map pool does not match rule program")
var ErrInvalidParty = errors.New("invalid party")
var ErrWrongTurn = errors.New("invalid turn")
var ErrWrongAction = errors.New("action does not match current step")
var ErrUnknownMap = errors.New("map unavailable")
var ErrUnknownSide = errors.New("unknown side")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrSessionPaused = errors.New("veto paused")
var ErrSessionStopped = errors.New("veto already completed")

type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

func (r Role) Other() Role {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

type Party struct {
	ID   string
	Name string
	Role Role
}

func (p Party) Chooser() Chooser {
	return Chooser{ID: p.ID, Name: p.Name}
}

// Chooser is whoever a decision is attributed to: one of the parties or Decider.
type Chooser struct {
	ID   string
	Name string
}

// Decider takes the last map when nobody has a real choice left.
var Decider = Chooser{ID: "DECIDER", Name: "DECIDER"}

type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

type DecisionKind string

const (
	KindMap  DecisionKind = "map"
	KindSide DecisionKind = "side"
)

// Decision is one append-only entry of the veto log. Value holds the map
// name for KindMap and the side label for KindSide.
type Decision struct {
	Kind  DecisionKind
	Value string
	By    Chooser
}

type CommandType string

const (
	CmdBanMap   CommandType = "BanMap"
	CmdPickMap  CommandType = "PickMap"
	CmdPickSide CommandType = "PickSide"
)

/*
	CmdBanMap   -> EvtMapBanned  -> EvtTurnAdvanced [-> EvtMapPicked (DECIDER) -> EvtTurnAdvanced] [-> EvtVetoCompleted]
	CmdPickMap  -> EvtMapPicked  -> EvtTurnAdvanced [-> EvtVetoCompleted]
	CmdPickSide -> EvtSideChosen -> EvtTurnAdvanced [-> EvtVetoCompleted]
	Auto commands (turn timer) are prefixed with EvtTimerExpired.
*/

type Command struct {
	Type    CommandType
	PartyID string
	Value   string
	Auto    bool // chosen by the turn timer on behalf of the party
}

type EventType string

const (
	EvtMapBanned     EventType = "MapBanned"
	EvtMapPicked     EventType = "MapPicked"
	EvtSideChosen    EventType = "SideChosen"
	EvtTurnAdvanced  EventType = "TurnAdvanced"
	EvtTimerExpired  EventType = "TimerExpired"
	EvtVetoCompleted EventType = "VetoCompleted"
)

type Event struct {
	Type  EventType
	By    Chooser
	Value string
}

// String renders the event as a one-line announcement.
func (e Event) String() string {
	switch e.Type {
	case EvtMapBanned:
		return fmt.Sprintf("Map %s banned by %s", e.Value, e.By.Name)
	case EvtMapPicked:
		return fmt.Sprintf("Map %s picked by %s", e.Value, e.By.Name)
	case EvtSideChosen:
		return fmt.Sprintf("Side %s chosen by %s", e.Value, e.By.Name)
	case EvtTimerExpired:
		return fmt.Sprintf("Time ran out for %s", e.By.Name)
	case EvtTurnAdvanced:
		return "Turn advanced"
	case EvtVetoCompleted:
		return "Veto completed"
	}
	return string(e.Type)
}

// CommandFor maps a step to the command that satisfies it. Continue has none.
func CommandFor(step StepType) (CommandType, bool) {
	switch step {
	case StepBan:
		return CmdBanMap, true
	case StepPick:
		return CmdPickMap, true
	case StepSide:
		return CmdPickSide, true
	case StepContinue:
		return "", false
	}
	return "", false
}

func ParseCommandType(s string) (CommandType, bool) {
	switch s {
	case "Ban", string(CmdBanMap):
		return CmdBanMap, true
	case "Pick", string(CmdPickMap):
		return CmdPickMap, true
	case "Side", string(CmdPickSide):
		return CmdPickSide, true
	default:
		return "", false
	}
}
