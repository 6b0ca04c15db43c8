package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/hub"
	"github.com/DoyleJ11/map-veto-backend/internal/template"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
	"github.com/DoyleJ11/map-veto-backend/pkg/types"
)

// statusFor maps domain errors onto HTTP: setup problems are 422, runtime
// rejections 409 (state) or 400 (input).
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidRule),
		errors.Is(err, engine.ErrInvalidPool),
		errors.Is(err, engine.ErrPoolMismatch),
		errors.Is(err, engine.ErrInvalidParty),
		errors.Is(err, template.ErrInvalidTemplate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, hub.ErrLobbyNotFound):
		return http.StatusNotFound
	case errors.Is(err, template.ErrTemplateExists),
		errors.Is(err, engine.ErrWrongTurn),
		errors.Is(err, engine.ErrSessionPaused),
		errors.Is(err, engine.ErrSessionStopped):
		return http.StatusConflict
	case errors.Is(err, engine.ErrWrongAction),
		errors.Is(err, engine.ErrUnknownMap),
		errors.Is(err, engine.ErrUnknownSide),
		errors.Is(err, engine.ErrUnsupportedCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, types.ErrorMessage(err))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ServerMessage{Type: types.MsgError, Error: "bad json"})
		return false
	}
	return true
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func toTemplate(t types.Template) template.Template {
	return template.Template{Name: t.Name, Maps: t.Maps, Rules: t.Rules}
}

func fromTemplate(t template.Template) types.Template {
	return types.Template{Name: t.Name, Maps: t.Maps, Rules: t.Rules}
}

func ListTemplates(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Templates().List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		out := make([]types.Template, len(list))
		for i, t := range list {
			out[i] = fromTemplate(t)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CreateTemplate(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.Template
		if !decode(w, r, &body) {
			return
		}
		if err := svc.Templates().Create(r.Context(), toTemplate(body)); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, body)
	}
}

func GetTemplate(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Templates().Get(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, fromTemplate(t))
	}
}

// UpdateTemplate replaces maps and rules; the name comes from the path.
func UpdateTemplate(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.Template
		if !decode(w, r, &body) {
			return
		}
		body.Name = chi.URLParam(r, "name")
		if err := svc.Templates().Update(r.Context(), toTemplate(body)); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func DeleteTemplate(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Templates().Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toParty(p types.Party) engine.Party {
	return engine.Party{ID: p.ID, Name: p.Name}
}

func StartVeto(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.StartVeto
		if !decode(w, r, &body) {
			return
		}
		lb, err := svc.Start(r.Context(), veto.StartRequest{
			Template: body.Template,
			PartyA:   toParty(body.PartyA),
			PartyB:   toParty(body.PartyB),
			Channel:  body.Channel,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		v, err := lb.State(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, types.FromView(lb.Code(), v, time.Now()))
	}
}

func ListVetos(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := svc.Codes(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Codes []string `json:"codes"`
		}{Codes: codes})
	}
}

func GetVeto(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		v, err := svc.State(r.Context(), code)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.FromView(code, v, time.Now()))
	}
}

// SubmitDecision answers 204 on success; the new state reaches subscribers
// over the websocket.
func SubmitDecision(svc *veto.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.Decision
		if !decode(w, r, &body) {
			return
		}
		if err := svc.Submit(r.Context(), chi.URLParam(r, "code"), body.PartyID, body.Type, body.Value); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// adminAction wraps pause/resume/stop, which are idempotent.
func adminAction(log *zap.Logger, fn func(ctx context.Context, code string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context(), chi.URLParam(r, "code")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
