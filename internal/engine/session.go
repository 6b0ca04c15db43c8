package engine

import (
	"fmt"
	"slices"
	"strings"
)

var DefaultSides = []string{"Attack", "Defense"}

type Config struct {
	Name    string
	Maps    []string
	Program RuleProgram
	PartyA  Party
	PartyB  Party
	// Sides offered on Side steps. Defaults to DefaultSides.
	Sides []string
	// Channel the veto was started from; receives the summary.
	Channel string
	// ContinueHoldsTurn flips the turn once more after a block of Continue
	// steps, giving the next step back to the party that just acted.
	ContinueHoldsTurn bool
	// OnStop is called exactly once, when the session becomes Stopped.
	OnStop func(Summary)
}

// Session is one veto between two parties. It is not safe for concurrent
// use; the lobby goroutine owns it.
type Session struct {
	name              string
	program           RuleProgram
	pool              MapPool
	parties           [2]Party
	cursor            int
	turn              Role
	log               []Decision
	status            Status
	sides             []string
	channel           string
	continueHoldsTurn bool
	onStop            func(Summary)
	pending           []Event
}

func NewSession(cfg Config) (*Session, error) {
	a, b := cfg.PartyA, cfg.PartyB
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(b.ID) == "" {
		return nil, fmt.Errorf("%w: party id required", ErrInvalidParty)
	}
	if a.ID == b.ID {
		return nil, fmt.Errorf("%w: parties must be distinct", ErrInvalidParty)
	}
	if a.Name == "" {
		a.Name = a.ID
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	a.Role, b.Role = RoleA, RoleB

	if err := CheckSetup(cfg.Maps, cfg.Program); err != nil {
		return nil, err
	}
	pool, err := NewMapPool(cfg.Maps)
	if err != nil {
		return nil, err
	}

	sides := make([]string, 0, len(cfg.Sides))
	for _, side := range cfg.Sides {
		if side = strings.TrimSpace(side); side != "" && !slices.Contains(sides, side) {
			sides = append(sides, side)
		}
	}
	if len(sides) == 0 {
		sides = slices.Clone(DefaultSides)
	}

	s := &Session{
		name:              cfg.Name,
		program:           cfg.Program,
		pool:              pool,
		parties:           [2]Party{a, b},
		turn:              RoleA,
		log:               []Decision{},
		status:            StatusRunning,
		sides:             sides,
		channel:           cfg.Channel,
		continueHoldsTurn: cfg.ContinueHoldsTurn,
		onStop:            cfg.OnStop,
	}
	s.settle()
	return s, nil
}

// CheckSetup reports whether maps and program can run as a veto: the program
// must be valid and, unless empty, consume every map with a ban or a pick.
func CheckSetup(maps []string, program RuleProgram) error {
	if err := program.Validate(); err != nil {
		return err
	}
	pool, err := NewMapPool(maps)
	if err != nil {
		return err
	}
	if program.Len() == 0 {
		return nil
	}
	bans, picks, _ := program.Counts()
	if bans+picks != pool.Size() {
		return fmt.Errorf("%w: %d bans + %d picks for %d maps", ErrPoolMismatch, bans, picks, pool.Size())
	}
	return nil
}

// Apply validates cmd against the current turn and step, applies it and
// advances. A rejected command leaves the session untouched.
func (s *Session) Apply(cmd Command) ([]Event, error) {
	s.pending = nil

	switch cmd.Type {
	case CmdBanMap, CmdPickMap, CmdPickSide:
	default:
		return nil, ErrUnsupportedCommand
	}

	switch s.status {
	case StatusStopped:
		return nil, ErrSessionStopped
	case StatusPaused:
		return nil, ErrSessionPaused
	}

	step, ok := s.program.StepAt(s.cursor)
	if !ok {
		return nil, ErrSessionStopped
	}

	actor := s.CurrentTurn()
	if cmd.PartyID != actor.ID {
		return nil, fmt.Errorf("%w: waiting on %s", ErrWrongTurn, actor.Name)
	}
	want, ok := CommandFor(step)
	if !ok || cmd.Type != want {
		return nil, fmt.Errorf("%w: current step is %s", ErrWrongAction, step)
	}

	switch cmd.Type {
	case CmdBanMap, CmdPickMap:
		if !s.pool.IsAvailable(cmd.Value) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMap, cmd.Value)
		}
	case CmdPickSide:
		if !slices.Contains(s.sides, cmd.Value) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSide, cmd.Value)
		}
	}

	if cmd.Auto {
		s.record(Event{Type: EvtTimerExpired, By: actor.Chooser()})
	}

	switch cmd.Type {
	case CmdBanMap:
		s.Ban(cmd.Value)
		s.record(Event{Type: EvtMapBanned, By: actor.Chooser(), Value: cmd.Value})
	case CmdPickMap:
		s.Pick(cmd.Value, actor.Chooser())
		s.record(Event{Type: EvtMapPicked, By: actor.Chooser(), Value: cmd.Value})
	case CmdPickSide:
		s.PickSide(cmd.Value, actor.Chooser())
		s.record(Event{Type: EvtSideChosen, By: actor.Chooser(), Value: cmd.Value})
	}

	s.Advance()
	return s.pending, nil
}

// Ban is a no-op when name is not available.
func (s *Session) Ban(name string) bool {
	return s.pool.Ban(name)
}

// Pick is a no-op when name is not available.
func (s *Session) Pick(name string, by Chooser) bool {
	if !s.pool.Pick(name) {
		return false
	}
	s.log = append(s.log, Decision{Kind: KindMap, Value: name, By: by})
	return true
}

func (s *Session) PickSide(side string, by Chooser) {
	s.log = append(s.log, Decision{Kind: KindSide, Value: side, By: by})
}

// Advance consumes the current step and hands the turn to whoever acts next.
// A block of Continue steps is skipped as a whole.
func (s *Session) Advance() {
	if s.status != StatusRunning {
		return
	}
	step, ok := s.program.StepAt(s.cursor)
	if !ok {
		s.stop()
		return
	}
	if step == StepContinue {
		return
	}

	s.turn = s.turn.Other()
	s.cursor++
	for {
		next, ok := s.program.StepAt(s.cursor)
		if !ok || next != StepContinue {
			break
		}
		s.cursor++
		if after, ok := s.program.StepAt(s.cursor); ok && after != StepContinue && s.continueHoldsTurn {
			s.turn = s.turn.Other()
		}
	}
	s.record(Event{Type: EvtTurnAdvanced})
	s.settle()
}

// settle stops an exhausted program and otherwise lets Decider take the last
// map if a Pick is due with no real choice left.
func (s *Session) settle() {
	if s.status != StatusRunning {
		return
	}
	step, ok := s.program.StepAt(s.cursor)
	if !ok {
		s.stop()
		return
	}
	if step != StepPick || len(s.pool.available) != 1 {
		return
	}
	last := s.pool.available[0]
	s.Pick(last, Decider)
	s.record(Event{Type: EvtMapPicked, By: Decider, Value: last})
	s.Advance()
}

func (s *Session) Pause() {
	if s.status == StatusRunning {
		s.status = StatusPaused
	}
}

func (s *Session) Resume() {
	if s.status == StatusPaused {
		s.status = StatusRunning
	}
}

// Stop ends the veto early and returns the resulting events. Calling it on
// a stopped session does nothing.
func (s *Session) Stop() []Event {
	s.pending = nil
	s.stop()
	return s.pending
}

func (s *Session) stop() {
	if s.status == StatusStopped {
		return
	}
	s.status = StatusStopped
	s.record(Event{Type: EvtVetoCompleted})
	if s.onStop != nil {
		s.onStop(s.Summary())
	}
}

func (s *Session) record(evt Event) {
	s.pending = append(s.pending, evt)
}

func (s *Session) Name() string    { return s.name }
func (s *Session) Channel() string { return s.channel }
func (s *Session) Status() Status  { return s.status }
func (s *Session) Cursor() int     { return s.cursor }
func (s *Session) IsStopped() bool { return s.status == StatusStopped }
func (s *Session) IsPaused() bool  { return s.status == StatusPaused }

func (s *Session) Program() RuleProgram { return s.program }
func (s *Session) Sides() []string      { return slices.Clone(s.sides) }
func (s *Session) Available() []string  { return s.pool.Available() }
func (s *Session) Banned() []string     { return s.pool.Banned() }
func (s *Session) Picked() []string     { return s.pool.Picked() }
func (s *Session) Log() []Decision      { return slices.Clone(s.log) }

func (s *Session) Parties() (Party, Party) {
	return s.parties[0], s.parties[1]
}

// CurrentStep returns false once the program is exhausted.
func (s *Session) CurrentStep() (StepType, bool) {
	if s.status == StatusStopped {
		return 0, false
	}
	return s.program.StepAt(s.cursor)
}

// CurrentTurn is meaningless once the session is stopped.
func (s *Session) CurrentTurn() Party {
	if s.turn == RoleB {
		return s.parties[1]
	}
	return s.parties[0]
}

func (s *Session) Summary() Summary {
	return BuildSummary(s.log, s.pool.Banned())
}

// AutoCommand is what the acting party "chooses" when its turn times out.
func (s *Session) AutoCommand() (Command, bool) {
	if s.status != StatusRunning {
		return Command{}, false
	}
	step, ok := s.program.StepAt(s.cursor)
	if !ok {
		return Command{}, false
	}
	cmdType, ok := CommandFor(step)
	if !ok {
		return Command{}, false
	}

	var options []string
	if step == StepSide {
		options = s.sides
	} else {
		options = s.pool.available
	}
	if len(options) == 0 {
		return Command{}, false
	}
	return Command{
		Type:    cmdType,
		PartyID: s.CurrentTurn().ID,
		Value:   chooseRandom(options),
		Auto:    true,
	}, true
}

type View struct {
	Name      string
	Channel   string
	Status    Status
	Cursor    int
	Step      string
	Turn      Party
	PartyA    Party
	PartyB    Party
	Rules     []string
	Sides     []string
	Available []string
	Banned    []string
	Picked    []string
	Log       []Decision
}

func (s *Session) View() View {
	v := View{
		Name:      s.name,
		Channel:   s.channel,
		Status:    s.status,
		Cursor:    s.cursor,
		PartyA:    s.parties[0],
		PartyB:    s.parties[1],
		Rules:     s.program.Tokens(),
		Sides:     s.Sides(),
		Available: s.Available(),
		Banned:    s.Banned(),
		Picked:    s.Picked(),
		Log:       s.Log(),
	}
	if step, ok := s.CurrentStep(); ok {
		v.Step = step.String()
		v.Turn = s.CurrentTurn()
	}
	return v
}
