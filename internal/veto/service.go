// Package veto is the entry point for starting and driving vetoes. Every
// transport (HTTP, websocket, Slack) goes through a Service.
package veto

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/hub"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
	"github.com/DoyleJ11/map-veto-backend/internal/template"
)

var ErrCodeExhausted = errors.New("could not allocate a veto code")

const codeAttempts = 8

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// generateCode is swapped in tests to force collisions.
var generateCode = GenerateCode

// Watcher follows a lobby from creation until its snapshots stop, e.g. to
// prompt the acting party in chat.
type Watcher interface {
	Watch(ctx context.Context, lb *lobby.Lobby)
}

type StartRequest struct {
	Template string
	PartyA   engine.Party
	PartyB   engine.Party
	Channel  string
}

type Options struct {
	Sides             []string
	ContinueHoldsTurn bool
	Logger            *zap.Logger
	Watchers          []Watcher
}

type Service struct {
	ctx       context.Context
	hub       *hub.Hub
	templates template.Store
	opts      Options
	log       *zap.Logger
}

// NewService drives vetoes on h. Watchers run on ctx, not on the context of
// the request that started the veto.
func NewService(ctx context.Context, h *hub.Hub, templates template.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{ctx: ctx, hub: h, templates: templates, opts: opts, log: opts.Logger}
}

func (s *Service) Templates() template.Store { return s.templates }

// Start resolves the template and opens a new veto under a fresh code.
func (s *Service) Start(ctx context.Context, req StartRequest) (*lobby.Lobby, error) {
	tpl, err := s.templates.Get(ctx, req.Template)
	if err != nil {
		return nil, err
	}
	program, err := tpl.Program()
	if err != nil {
		return nil, err
	}
	cfg := engine.Config{
		Name:              tpl.Name,
		Maps:              tpl.Maps,
		Program:           program,
		PartyA:            req.PartyA,
		PartyB:            req.PartyB,
		Sides:             s.opts.Sides,
		Channel:           req.Channel,
		ContinueHoldsTurn: s.opts.ContinueHoldsTurn,
	}

	for range codeAttempts {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		lb, err := s.hub.Create(ctx, code, cfg)
		if errors.Is(err, hub.ErrSessionExists) {
			s.log.Debug("collision on code, regenerating", zap.String("code", code))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("veto started",
			zap.String("code", code),
			zap.String("template", tpl.Name),
			zap.String("party_a", cfg.PartyA.ID),
			zap.String("party_b", cfg.PartyB.ID),
			zap.String("channel", cfg.Channel),
		)
		for _, w := range s.opts.Watchers {
			go w.Watch(s.ctx, lb)
		}
		return lb, nil
	}
	return nil, ErrCodeExhausted
}

func (s *Service) Lobby(ctx context.Context, code string) (*lobby.Lobby, error) {
	return s.hub.Get(ctx, normalizeCode(code))
}

// Submit is the single entry point for party decisions. kind is a step
// name ("Ban", "Pick", "Side") or a command name ("BanMap", ...).
func (s *Service) Submit(ctx context.Context, code, partyID, kind, value string) error {
	cmdType, ok := engine.ParseCommandType(kind)
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrUnsupportedCommand, kind)
	}
	lb, err := s.Lobby(ctx, code)
	if err != nil {
		return err
	}
	return lb.Submit(ctx, engine.Command{Type: cmdType, PartyID: partyID, Value: value})
}

func (s *Service) Pause(ctx context.Context, code string) error {
	lb, err := s.Lobby(ctx, code)
	if err != nil {
		return err
	}
	return lb.Pause(ctx)
}

func (s *Service) Resume(ctx context.Context, code string) error {
	lb, err := s.Lobby(ctx, code)
	if err != nil {
		return err
	}
	return lb.Resume(ctx)
}

func (s *Service) Stop(ctx context.Context, code string) error {
	lb, err := s.Lobby(ctx, code)
	if err != nil {
		return err
	}
	return lb.Stop(ctx)
}

func (s *Service) State(ctx context.Context, code string) (lobby.View, error) {
	lb, err := s.Lobby(ctx, code)
	if err != nil {
		return lobby.View{}, err
	}
	return lb.State(ctx)
}

func (s *Service) Codes(ctx context.Context) ([]string, error) {
	return s.hub.Codes(ctx)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
