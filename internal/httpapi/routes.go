package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-veto-backend/internal/slackbot"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
	"github.com/DoyleJ11/map-veto-backend/internal/ws"
)

// Slack enables the /slack endpoints when Client is set.
type Slack struct {
	Client        slackbot.SlackClient
	SigningSecret string
}

func SetupRoutes(svc *veto.Service, log *zap.Logger, sl Slack) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(svc, log))

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", ListTemplates(svc, log))
		r.Post("/", CreateTemplate(svc, log))
		r.Get("/{name}", GetTemplate(svc, log))
		r.Put("/{name}", UpdateTemplate(svc, log))
		r.Delete("/{name}", DeleteTemplate(svc, log))
	})

	r.Route("/vetos", func(r chi.Router) {
		r.Get("/", ListVetos(svc, log))
		r.Post("/", StartVeto(svc, log))
		r.Get("/{code}", GetVeto(svc, log))
		r.Post("/{code}/decisions", SubmitDecision(svc, log))
		r.Post("/{code}/pause", adminAction(log, svc.Pause))
		r.Post("/{code}/resume", adminAction(log, svc.Resume))
		r.Post("/{code}/stop", adminAction(log, svc.Stop))
	})

	if sl.Client != nil {
		r.Route("/slack", func(r chi.Router) {
			r.Use(slackbot.VerifyMiddleware(sl.SigningSecret, log))
			r.Post("/commands", slackbot.HandleCommand(svc, sl.Client, log))
			r.Post("/interactions", slackbot.HandleInteraction(svc, sl.Client, log))
		})
	}
	return r
}
