package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/notify"
)

var ErrLobbyClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

// FromClient carries a veto command. Reply, if set, receives the result of
// applying it.
type FromClient struct {
	Cmd   engine.Command
	Reply chan error
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Pause struct{ Reply chan error }

func (Pause) isLobbyMsg() {}

type Resume struct{ Reply chan error }

func (Resume) isLobbyMsg() {}

type Stop struct{ Reply chan error }

func (Stop) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type timerFired struct{ gen int }

func (timerFired) isLobbyMsg() {}

type Snapshot struct {
	Version int
	Code    string
	State   engine.View
	Events  []engine.Event
	// Deadline is zero when no turn timer is armed.
	Deadline time.Time
	Summary  *engine.Summary
}

type View struct {
	Version    int
	NumClients int
	State      engine.View
	Deadline   time.Time
	Summary    *engine.Summary
}

type Options struct {
	// TurnTimeout <= 0 disables the turn timer.
	TurnTimeout     time.Duration
	Deliverer       notify.Deliverer
	DeliveryTimeout time.Duration
	Logger          *zap.Logger
	// OnDone runs once the summary has been handed off after the veto stops.
	OnDone func(*Lobby)
}

const defaultDeliveryTimeout = 10 * time.Second

type Lobby struct {
	code     string
	inbox    chan Msg
	session  *engine.Session
	version  int
	clients  map[string]chan Snapshot
	opts     Options
	log      *zap.Logger
	timer    *time.Timer
	timerGen int
	deadline time.Time
	summary  *engine.Summary
	finished bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewLobby(parent context.Context, code string, cfg engine.Config, opts Options) (*Lobby, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}

	ctx, cancel := context.WithCancel(parent)
	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan Snapshot),
		opts:    opts,
		log:     opts.Logger.With(zap.String("veto", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	cfg.OnStop = func(sum engine.Summary) { l.summary = &sum }
	session, err := engine.NewSession(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	l.session = session

	// A session can be complete straight away, e.g. an empty program.
	l.afterChange()
	go l.loop()
	return l, nil
}

func (l *Lobby) Code() string { return l.code }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- l.snapshot(nil):
				default:
					close(msg.Outbox)
					delete(l.clients, msg.ClientID)
				}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				events, err := l.session.Apply(msg.Cmd)
				reply(msg.Reply, err)
				if err != nil {
					l.log.Debug("command rejected",
						zap.String("party", msg.Cmd.PartyID),
						zap.String("type", string(msg.Cmd.Type)),
						zap.String("value", msg.Cmd.Value),
						zap.Error(err),
					)
					break
				}
				l.commit(events)

			case Pause:
				if l.session.IsStopped() {
					reply(msg.Reply, engine.ErrSessionStopped)
					break
				}
				reply(msg.Reply, nil)
				if !l.session.IsPaused() {
					l.session.Pause()
					l.commit(nil)
				}

			case Resume:
				if l.session.IsStopped() {
					reply(msg.Reply, engine.ErrSessionStopped)
					break
				}
				reply(msg.Reply, nil)
				if l.session.IsPaused() {
					l.session.Resume()
					l.commit(nil)
				}

			case Stop:
				reply(msg.Reply, nil)
				if !l.session.IsStopped() {
					l.commit(l.session.Stop())
				}

			case timerFired:
				if msg.gen != l.timerGen {
					break // stale
				}
				l.timer, l.deadline = nil, time.Time{}
				cmd, ok := l.session.AutoCommand()
				if !ok {
					break
				}
				events, err := l.session.Apply(cmd)
				if err != nil {
					l.log.Error("auto command rejected", zap.Error(err))
					break
				}
				l.log.Info("turn timed out",
					zap.String("party", cmd.PartyID),
					zap.String("type", string(cmd.Type)),
					zap.String("value", cmd.Value),
				)
				l.commit(events)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.session.View(),
					Deadline:   l.deadline,
					Summary:    l.summary,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// commit publishes a state change and re-arms or hands off the veto.
func (l *Lobby) commit(events []engine.Event) {
	l.version++
	l.afterChange()
	l.broadcast(l.snapshot(events))
}

func (l *Lobby) afterChange() {
	switch {
	case l.session.IsStopped():
		l.finish()
	case l.session.IsPaused():
		l.disarm()
	default:
		l.arm()
	}
}

func (l *Lobby) arm() {
	l.disarm()
	if l.opts.TurnTimeout <= 0 {
		return
	}
	gen := l.timerGen
	l.deadline = time.Now().Add(l.opts.TurnTimeout)
	l.timer = time.AfterFunc(l.opts.TurnTimeout, func() {
		select {
		case l.inbox <- timerFired{gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

// disarm invalidates any armed timer, including one that already fired but
// whose message is still queued.
func (l *Lobby) disarm() {
	l.timerGen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.deadline = time.Time{}
}

func (l *Lobby) finish() {
	if l.finished {
		return
	}
	l.finished = true
	l.disarm()

	var sum engine.Summary
	if l.summary != nil {
		sum = *l.summary
	}
	a, b := l.session.Parties()
	report := notify.Report{Veto: l.code, PartyA: a, PartyB: b, Summary: sum}
	to := notify.Recipients(l.session.Channel(), a, b)
	l.log.Info("veto completed",
		zap.Strings("picked", sum.PickedLines()),
		zap.String("banned", sum.BannedLine()),
	)

	go func() {
		if l.opts.Deliverer != nil {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(l.ctx), l.opts.DeliveryTimeout)
			if err := notify.DeliverAll(ctx, l.opts.Deliverer, to, report); err != nil {
				l.log.Warn("summary delivery failed", zap.Error(err))
			}
			cancel()
		}
		if l.opts.OnDone != nil {
			l.opts.OnDone(l)
		}
	}()
}

func (l *Lobby) snapshot(events []engine.Event) Snapshot {
	return Snapshot{
		Version:  l.version,
		Code:     l.code,
		State:    l.session.View(),
		Events:   events,
		Deadline: l.deadline,
		Summary:  l.summary,
	}
}

func (l *Lobby) shutdown() {
	l.disarm()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
		}
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

// send delivers m unless the lobby has already gone away.
func (l *Lobby) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrLobbyClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lobby) request(ctx context.Context, m Msg, ch chan error) error {
	if err := l.send(ctx, m); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-l.ctx.Done():
		return ErrLobbyClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lobby) Submit(ctx context.Context, cmd engine.Command) error {
	ch := make(chan error, 1)
	return l.request(ctx, FromClient{Cmd: cmd, Reply: ch}, ch)
}

func (l *Lobby) Pause(ctx context.Context) error {
	ch := make(chan error, 1)
	return l.request(ctx, Pause{Reply: ch}, ch)
}

func (l *Lobby) Resume(ctx context.Context) error {
	ch := make(chan error, 1)
	return l.request(ctx, Resume{Reply: ch}, ch)
}

func (l *Lobby) Stop(ctx context.Context) error {
	ch := make(chan error, 1)
	return l.request(ctx, Stop{Reply: ch}, ch)
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	ch := make(chan View, 1)
	if err := l.send(ctx, GetState{Reply: ch}); err != nil {
		return View{}, err
	}
	select {
	case v := <-ch:
		return v, nil
	case <-l.ctx.Done():
		return View{}, ErrLobbyClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Subscribe registers outbox for snapshots; the current one is sent first.
func (l *Lobby) Subscribe(ctx context.Context, clientID string, outbox chan Snapshot) error {
	return l.send(ctx, Join{ClientID: clientID, Outbox: outbox})
}

func (l *Lobby) Unsubscribe(ctx context.Context, clientID string) error {
	return l.send(ctx, Leave{ClientID: clientID})
}
