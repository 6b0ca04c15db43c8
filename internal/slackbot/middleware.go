package slackbot

import (
	"bytes"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// VerifyMiddleware rejects requests that are not signed with signingSecret.
func VerifyMiddleware(signingSecret string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				log.Warn("failed to create verifier", zap.Error(err))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				log.Warn("failed to read request body", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			if _, err := verifier.Write(bodyBytes); err != nil {
				log.Warn("failed to write body to verifier", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			if err := verifier.Ensure(); err != nil {
				log.Warn("request verification failed", zap.String("sender_ip", r.RemoteAddr))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			// Reassign the body for further processing in the next handlers
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

			next.ServeHTTP(w, r)
		})
	}
}
