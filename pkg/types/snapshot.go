package types

import (
	"time"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
)

type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type LogEntry struct {
	Kind  string `json:"kind"` // "map" | "side"
	Value string `json:"value"`
	By    string `json:"by"`
}

type Event struct {
	Type  string `json:"type"`
	By    string `json:"by,omitempty"`
	Value string `json:"value,omitempty"`
	Text  string `json:"text"`
}

type Summary struct {
	Picked []string `json:"picked"`
	Banned []string `json:"banned"`
	Text   string   `json:"text"`
}

// StateSnapshot:
//   remaining_ms is omitted when no turn timer is running
//   turn is omitted once the veto is stopped
type Snapshot struct {
	Code        string     `json:"code"`
	Version     int        `json:"version"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Cursor      int        `json:"cursor"`
	Step        string     `json:"step,omitempty"`
	Turn        *Party     `json:"turn,omitempty"`
	PartyA      Party      `json:"party_a"`
	PartyB      Party      `json:"party_b"`
	Rules       []string   `json:"rules"`
	Sides       []string   `json:"sides"`
	Available   []string   `json:"available"`
	Banned      []string   `json:"banned"`
	Picked      []string   `json:"picked"`
	Log         []LogEntry `json:"log"`
	Events      []Event    `json:"events,omitempty"`
	RemainingMs int64      `json:"remaining_ms,omitempty"`
	Summary     *Summary   `json:"summary,omitempty"`
}

func FromSnapshot(s lobby.Snapshot, now time.Time) Snapshot {
	out := fromView(s.Code, s.Version, s.State, s.Deadline, s.Summary, now)
	for _, e := range s.Events {
		out.Events = append(out.Events, Event{Type: string(e.Type), By: e.By.Name, Value: e.Value, Text: e.String()})
	}
	return out
}

func FromView(code string, v lobby.View, now time.Time) Snapshot {
	return fromView(code, v.Version, v.State, v.Deadline, v.Summary, now)
}

func fromView(code string, version int, v engine.View, deadline time.Time, sum *engine.Summary, now time.Time) Snapshot {
	out := Snapshot{
		Code:      code,
		Version:   version,
		Name:      v.Name,
		Status:    string(v.Status),
		Cursor:    v.Cursor,
		Step:      v.Step,
		PartyA:    fromParty(v.PartyA),
		PartyB:    fromParty(v.PartyB),
		Rules:     v.Rules,
		Sides:     v.Sides,
		Available: v.Available,
		Banned:    v.Banned,
		Picked:    v.Picked,
		Log:       make([]LogEntry, len(v.Log)),
	}
	if v.Step != "" {
		turn := fromParty(v.Turn)
		out.Turn = &turn
	}
	for i, d := range v.Log {
		out.Log[i] = LogEntry{Kind: string(d.Kind), Value: d.Value, By: d.By.Name}
	}
	if !deadline.IsZero() {
		out.RemainingMs = max(deadline.Sub(now).Milliseconds(), 0)
	}
	if sum != nil {
		out.Summary = &Summary{Picked: sum.PickedLines(), Banned: sum.Banned, Text: sum.String()}
	}
	return out
}

func fromParty(p engine.Party) Party {
	return Party{ID: p.ID, Name: p.Name, Role: string(p.Role)}
}
