package engine

import (
	"errors"
	"slices"
	"testing"
)

var (
	alpha = Party{ID: "u-alpha", Name: "Alpha"}
	bravo = Party{ID: "u-bravo", Name: "Bravo"}
)

func newTestSession(t *testing.T, maps []string, rules ...string) *Session {
	t.Helper()
	prog, err := ParseRules(rules)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	s, err := NewSession(Config{Name: "test", Maps: maps, Program: prog, PartyA: alpha, PartyB: bravo})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func mustApply(t *testing.T, s *Session, cmd Command) []Event {
	t.Helper()
	events, err := s.Apply(cmd)
	if err != nil {
		t.Fatalf("apply %+v: %v", cmd, err)
	}
	return events
}

func checkPoolExclusive(t *testing.T, s *Session, all []string) {
	t.Helper()
	seen := map[string]int{}
	for _, list := range [][]string{s.Available(), s.Banned(), s.Picked()} {
		for _, m := range list {
			seen[m]++
		}
	}
	for _, m := range all {
		if seen[m] != 1 {
			t.Fatalf("map %q appears %d times across available/banned/picked", m, seen[m])
		}
	}
	if len(seen) != len(all) {
		t.Fatalf("pool has %d maps, want %d", len(seen), len(all))
	}
}

func TestTurnAlternatesWithoutContinue(t *testing.T) {
	maps := []string{"M1", "M2", "M3", "M4", "M5"}
	s := newTestSession(t, maps, "Ban", "Ban", "Pick", "Side", "Pick", "Side", "Ban")

	script := []Command{
		{Type: CmdBanMap, Value: "M1"},
		{Type: CmdBanMap, Value: "M2"},
		{Type: CmdPickMap, Value: "M3"},
		{Type: CmdPickSide, Value: "Attack"},
		{Type: CmdPickMap, Value: "M4"},
		{Type: CmdPickSide, Value: "Defense"},
		{Type: CmdBanMap, Value: "M5"},
	}

	want := alpha.ID
	for i, cmd := range script {
		if got := s.CurrentTurn().ID; got != want {
			t.Fatalf("step %d: want %s to act, got %s", i, want, got)
		}
		cmd.PartyID = want
		mustApply(t, s, cmd)
		checkPoolExclusive(t, s, maps)
		if want == alpha.ID {
			want = bravo.ID
		} else {
			want = alpha.ID
		}
	}

	if !s.IsStopped() {
		t.Fatalf("want stopped after last step, status=%s", s.Status())
	}
	if s.Cursor() != 7 {
		t.Fatalf("want cursor 7, got %d", s.Cursor())
	}
}

func TestContinueBlockFlipsOnce(t *testing.T) {
	s := newTestSession(t, []string{"M1", "M2", "M3"}, "Ban", "Continue", "Continue", "Pick", "Ban")

	mustApply(t, s, Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "M1"})

	if s.Cursor() != 3 {
		t.Fatalf("want cursor on Pick (3), got %d", s.Cursor())
	}
	if step, _ := s.CurrentStep(); step != StepPick {
		t.Fatalf("want Pick, got %s", step)
	}
	if got := s.CurrentTurn().ID; got != bravo.ID {
		t.Fatalf("want Bravo to pick, got %s", got)
	}
}

func TestContinueHoldsTurnFlag(t *testing.T) {
	prog, _ := ParseRules([]string{"Pick", "Continue", "Side", "Pick"})
	s, err := NewSession(Config{
		Maps: []string{"M1", "M2"}, Program: prog,
		PartyA: alpha, PartyB: bravo, ContinueHoldsTurn: true,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	mustApply(t, s, Command{Type: CmdPickMap, PartyID: alpha.ID, Value: "M1"})
	if got := s.CurrentTurn().ID; got != alpha.ID {
		t.Fatalf("want Alpha to keep the turn for its side, got %s", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	calls := 0
	prog, _ := ParseRules([]string{"Ban", "Ban", "Pick"})
	s, err := NewSession(Config{
		Maps: []string{"Haven", "Bind", "Split"}, Program: prog,
		PartyA: alpha, PartyB: bravo,
		OnStop: func(Summary) { calls++ },
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Stop()
	first := s.View()
	s.Stop()
	second := s.View()

	if calls != 1 {
		t.Fatalf("want summary emitted once, got %d", calls)
	}
	if first.Status != StatusStopped || second.Status != StatusStopped || first.Cursor != second.Cursor {
		t.Fatalf("stop not idempotent: %+v vs %+v", first, second)
	}

	_, err = s.Apply(Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Haven"})
	if !errors.Is(err, ErrSessionStopped) {
		t.Fatalf("want ErrSessionStopped, got %v", err)
	}
}

func TestWrongTurnLeavesStateUntouched(t *testing.T) {
	maps := []string{"Haven", "Bind", "Split"}
	s := newTestSession(t, maps, "Ban", "Ban", "Pick")
	before := s.View()

	_, err := s.Apply(Command{Type: CmdBanMap, PartyID: bravo.ID, Value: "Haven"})
	if !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("want ErrWrongTurn, got %v", err)
	}

	after := s.View()
	if after.Cursor != before.Cursor || after.Turn != before.Turn ||
		!slices.Equal(after.Banned, before.Banned) || !slices.Equal(after.Picked, before.Picked) {
		t.Fatalf("state changed after rejected command: before=%+v after=%+v", before, after)
	}
}

func TestApplyRejections(t *testing.T) {
	cases := []struct {
		name    string
		rules   []string
		cmd     Command
		wantErr error
	}{
		{
			name:    "wrong action for step",
			rules:   []string{"Ban", "Ban", "Pick"},
			cmd:     Command{Type: CmdPickMap, PartyID: alpha.ID, Value: "Haven"},
			wantErr: ErrWrongAction,
		},
		{
			name:    "unknown map",
			rules:   []string{"Ban", "Ban", "Pick"},
			cmd:     Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Dust2"},
			wantErr: ErrUnknownMap,
		},
		{
			name:    "side on a pick step",
			rules:   []string{"Pick", "Side", "Ban", "Ban"},
			cmd:     Command{Type: CmdPickSide, PartyID: alpha.ID, Value: "Left"},
			wantErr: ErrWrongAction,
		},
		{
			name:    "unsupported command",
			rules:   []string{"Ban", "Ban", "Pick"},
			cmd:     Command{Type: "Hover", PartyID: alpha.ID, Value: "Haven"},
			wantErr: ErrUnsupportedCommand,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			maps := []string{"Haven", "Bind", "Split"}
			s := newTestSession(t, maps, tc.rules...)
			_, err := s.Apply(tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			checkPoolExclusive(t, s, maps)
		})
	}
}

func TestUnknownSideRejected(t *testing.T) {
	s := newTestSession(t, []string{"Haven", "Bind", "Split"}, "Pick", "Side", "Ban", "Ban")
	mustApply(t, s, Command{Type: CmdPickMap, PartyID: alpha.ID, Value: "Haven"})

	_, err := s.Apply(Command{Type: CmdPickSide, PartyID: bravo.ID, Value: "Left"})
	if !errors.Is(err, ErrUnknownSide) {
		t.Fatalf("want ErrUnknownSide, got %v", err)
	}
	if len(s.Log()) != 1 {
		t.Fatalf("rejected side must not be logged, log=%+v", s.Log())
	}
}

func TestAutoDeciderTakesLastMap(t *testing.T) {
	s := newTestSession(t, []string{"Haven", "Bind", "Split"}, "Ban", "Ban", "Pick")

	mustApply(t, s, Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Haven"})
	events := mustApply(t, s, Command{Type: CmdBanMap, PartyID: bravo.ID, Value: "Bind"})

	if !s.IsStopped() {
		t.Fatalf("want stopped, got %s", s.Status())
	}
	log := s.Log()
	if len(log) != 1 || log[0] != (Decision{Kind: KindMap, Value: "Split", By: Decider}) {
		t.Fatalf("want single DECIDER pick of Split, got %+v", log)
	}
	if !ContainsEvent(events, EvtMapPicked) || !ContainsEvent(events, EvtVetoCompleted) {
		t.Fatalf("want MapPicked and VetoCompleted events, got %+v", events)
	}
}

func TestAutoDeciderSideFollowsTurnOrder(t *testing.T) {
	s := newTestSession(t, []string{"Haven", "Bind"}, "Ban", "Pick", "Side")

	mustApply(t, s, Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Haven"})

	if step, _ := s.CurrentStep(); step != StepSide {
		t.Fatalf("want Side step after decider pick, got %s", step)
	}
	// Bravo was due to pick; the decider took that Pick, so the Side goes back to Alpha.
	if got := s.CurrentTurn().ID; got != alpha.ID {
		t.Fatalf("want Alpha to choose side, got %s", got)
	}
	mustApply(t, s, Command{Type: CmdPickSide, PartyID: alpha.ID, Value: "Defense"})

	want := "Bind chosen by DECIDER / Side Defense chosen by Alpha"
	if got := s.Summary().PickedLines(); len(got) != 1 || got[0] != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEndToEndTwoMaps(t *testing.T) {
	var delivered []Summary
	prog, _ := ParseRules([]string{"Ban", "Pick"})
	s, err := NewSession(Config{
		Maps: []string{"A", "B"}, Program: prog, PartyA: alpha, PartyB: bravo,
		OnStop: func(sum Summary) { delivered = append(delivered, sum) },
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	mustApply(t, s, Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "A"})

	if !s.IsStopped() {
		t.Fatalf("want stopped")
	}
	if len(delivered) != 1 {
		t.Fatalf("want one summary, got %d", len(delivered))
	}
	sum := delivered[0]
	if !slices.Equal(sum.Banned, []string{"A"}) {
		t.Fatalf("want banned [A], got %v", sum.Banned)
	}
	if len(sum.Entries) != 1 || sum.Entries[0].Map != "B" || sum.Entries[0].MapBy != Decider {
		t.Fatalf("want B chosen by DECIDER, got %+v", sum.Entries)
	}
}

func TestEmptyProgramStopsImmediately(t *testing.T) {
	calls := 0
	s, err := NewSession(Config{PartyA: alpha, PartyB: bravo, OnStop: func(Summary) { calls++ }})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if !s.IsStopped() || calls != 1 {
		t.Fatalf("want stopped with one summary, status=%s calls=%d", s.Status(), calls)
	}
}

func TestPauseBlocksDecisions(t *testing.T) {
	s := newTestSession(t, []string{"Haven", "Bind", "Split"}, "Ban", "Ban", "Pick")

	s.Pause()
	if !s.IsPaused() {
		t.Fatalf("want paused")
	}
	_, err := s.Apply(Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Haven"})
	if !errors.Is(err, ErrSessionPaused) {
		t.Fatalf("want ErrSessionPaused, got %v", err)
	}

	s.Advance()
	if s.Cursor() != 0 {
		t.Fatalf("advance while paused must be a no-op, cursor=%d", s.Cursor())
	}

	s.Resume()
	mustApply(t, s, Command{Type: CmdBanMap, PartyID: alpha.ID, Value: "Haven"})
	if s.CurrentTurn().ID != bravo.ID {
		t.Fatalf("want Bravo after resume")
	}

	s.Stop()
	s.Resume()
	if !s.IsStopped() {
		t.Fatalf("resume must not leave Stopped")
	}
}

func TestBanAndPickIgnoreUnavailableMaps(t *testing.T) {
	maps := []string{"Haven", "Bind", "Split"}
	s := newTestSession(t, maps, "Ban", "Ban", "Pick")

	if s.Ban("Dust2") {
		t.Fatalf("ban of unknown map should be a no-op")
	}
	if !s.Ban("Haven") || s.Ban("Haven") {
		t.Fatalf("second ban of the same map should be a no-op")
	}
	if s.Pick("Haven", alpha.Chooser()) {
		t.Fatalf("pick of a banned map should be a no-op")
	}
	checkPoolExclusive(t, s, maps)
	if len(s.Log()) != 0 {
		t.Fatalf("no map decision expected, got %+v", s.Log())
	}
}

func TestAutoCommand(t *testing.T) {
	orig := chooseRandom
	defer func() { chooseRandom = orig }()
	chooseRandom = func(options []string) string { return options[len(options)-1] }

	s := newTestSession(t, []string{"Haven", "Bind", "Split"}, "Ban", "Pick", "Side", "Ban")

	cmd, ok := s.AutoCommand()
	if !ok || cmd.Type != CmdBanMap || cmd.PartyID != alpha.ID || cmd.Value != "Split" || !cmd.Auto {
		t.Fatalf("unexpected auto command %+v ok=%v", cmd, ok)
	}
	events := mustApply(t, s, cmd)
	if !ContainsEvent(events, EvtTimerExpired) {
		t.Fatalf("want TimerExpired event, got %+v", events)
	}

	cmd, _ = s.AutoCommand()
	mustApply(t, s, cmd)

	cmd, ok = s.AutoCommand()
	if !ok || cmd.Type != CmdPickSide || cmd.Value != "Defense" {
		t.Fatalf("want side auto command, got %+v", cmd)
	}

	s.Pause()
	if _, ok := s.AutoCommand(); ok {
		t.Fatalf("paused session has no auto command")
	}
}

func TestNewSessionValidation(t *testing.T) {
	cases := []struct {
		name    string
		maps    []string
		rules   []string
		a, b    Party
		wantErr error
	}{
		{"pool mismatch", []string{"A", "B", "C"}, []string{"Ban", "Pick"}, alpha, bravo, ErrPoolMismatch},
		{"duplicate map", []string{"A", "A"}, []string{"Ban", "Pick"}, alpha, bravo, ErrInvalidPool},
		{"empty map", []string{"A", " "}, []string{"Ban", "Pick"}, alpha, bravo, ErrInvalidPool},
		{"same party", []string{"A", "B"}, []string{"Ban", "Pick"}, alpha, alpha, ErrInvalidParty},
		{"missing party", []string{"A", "B"}, []string{"Ban", "Pick"}, alpha, Party{}, ErrInvalidParty},
		{"side without pick", []string{"A", "B"}, []string{"Ban", "Side", "Pick"}, alpha, bravo, ErrInvalidRule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := ParseRules(tc.rules)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = NewSession(Config{Maps: tc.maps, Program: prog, PartyA: tc.a, PartyB: tc.b})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestPresetsAreConsistent(t *testing.T) {
	for _, p := range Presets {
		t.Run(p.Name, func(t *testing.T) {
			if _, err := NewSession(Config{Maps: p.Maps, Program: p.Program, PartyA: alpha, PartyB: bravo}); err != nil {
				t.Fatalf("preset %s: %v", p.Name, err)
			}
		})
	}
	if _, ok := LookupPreset("bo3"); !ok {
		t.Fatalf("bo3 preset missing")
	}
}

func TestEventString(t *testing.T) {
	cases := []struct {
		evt  Event
		want string
	}{
		{Event{Type: EvtMapBanned, By: alpha.Chooser(), Value: "Bind"}, "Map Bind banned by Alpha"},
		{Event{Type: EvtMapPicked, By: Decider, Value: "Haven"}, "Map Haven picked by DECIDER"},
		{Event{Type: EvtSideChosen, By: bravo.Chooser(), Value: "Attack"}, "Side Attack chosen by Bravo"},
		{Event{Type: EvtTimerExpired, By: bravo.Chooser()}, "Time ran out for Bravo"},
		{Event{Type: EvtVetoCompleted}, "Veto completed"},
	}
	for _, tc := range cases {
		t.Run(string(tc.evt.Type), func(t *testing.T) {
			if got := tc.evt.String(); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCheckSetup(t *testing.T) {
	program := NewRuleProgram(StepBan, StepPick)
	if err := CheckSetup([]string{"Ascent", "Bind"}, program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckSetup([]string{"Ascent"}, program); !errors.Is(err, ErrPoolMismatch) {
		t.Fatalf("want ErrPoolMismatch, got %v", err)
	}
	if err := CheckSetup([]string{"Ascent", "Ascent"}, program); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("want ErrInvalidPool, got %v", err)
	}
}
