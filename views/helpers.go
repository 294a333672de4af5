package views

import (
	"context"

	"github.com/AdamBeresnev/padel-elo/internal/middleware"
)

func GetNotification(ctx context.Context) *middleware.Notification {
	return middleware.GetNotification(ctx)
}
