package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/pkg/logger"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const actorKey ctxKey = iota

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := httptest.NewRecorder()

			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			defer func() {
				latency := time.Since(start).String()

				logg.Infof("REQUEST %s METHOD %s URI %s %s STATUS %d Latency %s Client IP %s User Agent %s",
					reqID,
					r.Method,
					r.URL.RequestURI(),
					r.Proto,
					rr.Code,
					latency,
					r.RemoteAddr,
					r.UserAgent(),
				)
			}()

			next.ServeHTTP(rr, r)

			for k, v := range rr.Header() {
				w.Header()[k] = v
			}

			w.Header().Set(requestIDHeader, reqID)
			w.WriteHeader(rr.Code)

			if rr.Code >= 400 && rr.Body.Len() != 0 {
				logg.Errorf("request %s error: %s", reqID, rr.Body.String())
			}

			_, err := rr.Body.WriteTo(w)
			if err != nil {
				logg.Errorf("middleware write error: %s", err.Error())
			}
		})
	}
}

// authMiddleware пропускает только запросы с действительным токеном в заголовке token.
func authMiddleware(as AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("token")
			if token == "" {
				handleError(w, ErrTokenRequired)

				return
			}

			actor, err := as.Auth(token)
			if err != nil {
				handleError(w, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func actorFrom(ctx context.Context) models.Actor {
	a, _ := ctx.Value(actorKey).(models.Actor)

	return a
}
