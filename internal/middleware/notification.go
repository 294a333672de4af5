package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type ContextKey string

const NotificationKey ContextKey = "notification"

const notificationSessionKey = "notification"

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a one-shot message shown on the next page render, like a toast
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
}

func Notify(ctx context.Context, sessionManager *scs.SessionManager, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("failed to encode notification", "error", err)
		return
	}
	sessionManager.Put(ctx, notificationSessionKey, string(data))
}

// LoadNotification pops the pending notification out of the session and into the request context
func LoadNotification(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionManager.PopString(r.Context(), notificationSessionKey)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			var n Notification
			if err := json.Unmarshal([]byte(raw), &n); err != nil {
				slog.Warn("dropping malformed notification", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), NotificationKey, &n)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetNotification(ctx context.Context) *Notification {
	val := ctx.Value(NotificationKey)
	if val == nil {
		return nil
	}
	n, ok := val.(*Notification)
	if !ok {
		return nil
	}
	return n
}
