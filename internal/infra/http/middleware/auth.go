package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/auth"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type contextKey string

const actorKey contextKey = "actor"

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

type Authenticator struct {
	Secret string
	Users  UserLookup
	Log    *logrus.Logger
}

func NewAuthenticator(secret string, users UserLookup, log *logrus.Logger) *Authenticator {
	return &Authenticator{Secret: secret, Users: users, Log: log}
}

// Require rejects requests without a valid bearer token and stores the
// resolved actor in the request context. Accounts with a broken role are
// let through so they can repair it; the use cases deny everything else.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			return
		}

		claims, err := auth.ValidateJWT(strings.TrimSpace(token), a.Secret)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
			return
		}

		user, err := a.Users.GetUser(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, entity.ErrUserNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "unknown user")
				return
			}
			a.Log.WithError(err).WithField("user_id", claims.UserID).Error("failed to resolve actor")
			writeJSONError(w, http.StatusInternalServerError, usecase.CodeInternalError, "failed to resolve user")
			return
		}

		actor := usecase.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor usecase.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (usecase.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(usecase.Actor)
	return actor, ok
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
