package hub

import (
	"context"
	"errors"
	"slices"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
)

var ErrSessionExists = errors.New("veto code already in use")
var ErrLobbyNotFound = errors.New("veto not found")
var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code   string
	Config engine.Config
	Reply  chan CreateResult
}

type CreateResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type ListLobbies struct {
	Reply chan []string
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

// lobbyDone evicts a finished lobby, unless the code has been reused since.
type lobbyDone struct {
	Code  string
	Lobby *lobby.Lobby
}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (ListLobbies) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}
func (lobbyDone) isHubMsg()   {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub starts the registry. opts is applied to every lobby it creates;
// OnDone is chained after eviction.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			clear(h.lobbies)
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.lobbies[msg.Code] != nil {
					msg.Reply <- CreateResult{Err: ErrSessionExists}
					break
				}
				lb, err := h.newLobby(msg.Code, msg.Config)
				if err != nil {
					msg.Reply <- CreateResult{Err: err}
					break
				}
				h.lobbies[msg.Code] = lb
				msg.Reply <- CreateResult{Lobby: lb}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				msg.Reply <- codes

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					shutdownLobby(lb)
					delete(h.lobbies, msg.Code)
				}

			case lobbyDone:
				if h.lobbies[msg.Code] == msg.Lobby {
					shutdownLobby(msg.Lobby)
					delete(h.lobbies, msg.Code)
				}

			case ShutdownHub:
				for _, lb := range h.lobbies {
					shutdownLobby(lb)
				}
				clear(h.lobbies)
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) newLobby(code string, cfg engine.Config) (*lobby.Lobby, error) {
	opts := h.opts
	onDone := h.opts.OnDone
	opts.OnDone = func(lb *lobby.Lobby) {
		select {
		case h.inbox <- lobbyDone{Code: code, Lobby: lb}:
		case <-h.ctx.Done():
		}
		if onDone != nil {
			onDone(lb)
		}
	}
	return lobby.NewLobby(h.ctx, code, cfg, opts)
}

func shutdownLobby(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Create(ctx context.Context, code string, cfg engine.Config) (*lobby.Lobby, error) {
	reply := make(chan CreateResult, 1)
	if err := h.send(ctx, CreateLobby{Code: code, Config: cfg, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Err
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetLobby{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case lb := <-reply:
		if lb == nil {
			return nil, ErrLobbyNotFound
		}
		return lb, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Codes(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	if err := h.send(ctx, ListLobbies{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case codes := <-reply:
		return codes, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Remove(ctx context.Context, code string) error {
	return h.send(ctx, RemoveLobby{Code: code})
}

// Shutdown stops every lobby and the hub itself.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}
