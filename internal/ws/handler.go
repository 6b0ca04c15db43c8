package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
	"github.com/DoyleJ11/map-veto-backend/pkg/types"
)

var ErrSpectator = errors.New("connection has no party; reconnect with ?party=<id>")

const (
	writeTimeout = 3 * time.Second
	idleTimeout  = 10 * time.Minute
)

// Handler streams snapshots of one veto. A connection opened with ?party=
// may also submit decisions for that party; rejections come back on the
// same connection only.
func Handler(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		party := r.URL.Query().Get("party")

		lb, err := svc.Lobby(r.Context(), code)
		if err != nil {
			http.Error(w, "veto not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("veto", lb.Code()), zap.String("client", clientID), zap.String("party", party))

		out := make(chan lobby.Snapshot, 8)
		if err := lb.Subscribe(r.Context(), clientID, out); err != nil {
			conn.Close(websocket.StatusGoingAway, "veto closed")
			return
		}
		defer func() { _ = lb.Unsubscribe(context.Background(), clientID) }()

		// Writer goroutine: the only one writing to conn.
		errs := make(chan error, 8)
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				var msg types.ServerMessage
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						conn.Close(websocket.StatusNormalClosure, "veto closed")
						return
					}
					state := types.FromSnapshot(snap, time.Now())
					msg = types.ServerMessage{Type: types.MsgStateSnapshot, Version: snap.Version, State: &state}
				case err := <-errs:
					msg = types.ErrorMessage(err)
				}
				if err := write(writeCtx, conn, msg); err != nil {
					log.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idleTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				sendErr(writeCtx, errs, errors.New("bad json"))
				continue
			}
			if party == "" {
				sendErr(writeCtx, errs, ErrSpectator)
				continue
			}
			if err := svc.Submit(r.Context(), lb.Code(), party, cm.Type, cm.Value); err != nil {
				sendErr(writeCtx, errs, err)
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func sendErr(ctx context.Context, errs chan<- error, err error) {
	select {
	case errs <- err:
	case <-ctx.Done():
	}
}
