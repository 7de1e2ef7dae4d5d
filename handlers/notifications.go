package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

type notificationView struct {
	models.Notification
	Title string `json:"title"`
	Body  string `json:"body"`
}

func localizeNotification(locale string, n models.Notification) notificationView {
	return notificationView{
		Notification: n,
		Title:        utils.Localize(locale, n.TitleEn, n.TitleAr),
		Body:         utils.Localize(locale, n.BodyEn, n.BodyAr),
	}
}

func SetupNotificationRoutes(router fiber.Router, notifications *services.NotificationService) {
	authed := middleware.RequireUser()

	router.Get("/me/notifications", authed, func(c *fiber.Ctx) error {
		list, err := notifications.List(c.UserContext(), middleware.UserID(c), c.QueryBool("unread"), c.QueryInt("limit", 50))
		if err != nil {
			return fail(c, "failed to load notifications", err)
		}
		locale := middleware.Locale(c)
		out := make([]notificationView, 0, len(list))
		for _, n := range list {
			out = append(out, localizeNotification(locale, n))
		}
		return c.JSON(out)
	})

	router.Post("/me/notifications/:id/read", authed, func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if err := notifications.MarkRead(c.UserContext(), middleware.UserID(c), id); err != nil {
			return fail(c, "failed to mark notification read", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// SetupNotificationStream mounts the EventSource endpoint. It sits outside the gateway,
// so the caller is identified only by the query token the auth service validates.
func SetupNotificationStream(router fiber.Router, notifications *services.NotificationService, authClient *services.AuthServiceClient, interval time.Duration) {
	router.Get("/me/notifications/stream",
		middleware.SSEAuthMiddleware(authClient),
		StreamNotifications(notifications, interval))
}

// StreamNotifications pushes new notifications of the authenticated user as server-sent
// events, polling every interval.
func StreamNotifications(notifications *services.NotificationService, interval time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		locale := middleware.Locale(c)
		done := c.Context().Done()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx := context.Background()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			lastID, err := notifications.LatestID(ctx, userID)
			if err != nil {
				utils.Logger.Warn("[SSE] cursor init failed", zap.Uint("user_id", userID), zap.Error(err))
			}

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.C:
					fresh, err := notifications.Since(ctx, userID, lastID)
					if err != nil {
						utils.Logger.Warn("[SSE] query failed", zap.Uint("user_id", userID), zap.Error(err))
						continue
					}
					for _, n := range fresh {
						payload, _ := json.Marshal(localizeNotification(locale, n))
						fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", n.ID, n.Type, payload)
						lastID = n.ID
					}
					if len(fresh) == 0 {
						w.WriteString(":\n\n")
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		})
		return nil
	}
}
