package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutor-marketplace/events"
	"tutor-marketplace/middleware"
	"tutor-marketplace/models"
	"tutor-marketplace/services"
)

// newStreamApp mounts the stream the way main does: before the gateway, behind the
// auth service. Token "good" resolves to user.
func newStreamApp(t *testing.T, notifications *services.NotificationService, user *models.User) *fiber.App {
	t.Helper()
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["access_token"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":   strconv.FormatUint(uint64(user.ID), 10),
			"device_id": in["device_id"],
			"roles":     []string{string(user.Role)},
		})
	}))
	t.Cleanup(auth.Close)

	app := fiber.New()
	SetupNotificationStream(app, notifications, services.NewAuthServiceClient(auth.URL, "svc"), 20*time.Millisecond)
	app.Use(middleware.GatewayAuthMiddleware(gatewayToken))
	app.Use(middleware.UserContextMiddleware())
	SetupNotificationRoutes(app, notifications)
	return app
}

func TestNotificationStreamRejectsHeaderIdentity(t *testing.T) {
	a := newTestApp(t)
	student := a.user(t, "sara", models.RoleStudent)
	victim := a.user(t, "omar", models.RoleStudent)
	app := newStreamApp(t, services.NewNotificationService(a.db, zap.NewNop()), student)

	cases := []struct {
		name    string
		path    string
		gateway bool
		want    int
	}{
		{"spoofed user without token", "/me/notifications/stream", false, http.StatusBadRequest},
		{"spoofed user with bad token", "/me/notifications/stream?token=bad&device_id=d1", false, http.StatusUnauthorized},
		{"gateway headers without token", "/me/notifications/stream", true, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("X-User-ID", fmt.Sprint(victim.ID))
			req.Header.Set("X-User-Roles", "student")
			if tc.gateway {
				req.Header.Set("Authorization", "Bearer "+gatewayToken)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.NotEqual(t, "text/event-stream", resp.Header.Get("Content-Type"))
		})
	}
}

func TestNotificationStreamSendsNewEvents(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	student := a.user(t, "sara", models.RoleStudent)
	other := a.user(t, "omar", models.RoleStudent)
	notifications := services.NewNotificationService(a.db, zap.NewNop())
	require.NoError(t, notifications.Handle(ctx, events.BadgeGranted{UserID: student.ID, BadgeName: "Starter"}))
	seeded, err := notifications.LatestID(ctx, student.ID)
	require.NoError(t, err)

	app := newStreamApp(t, notifications, student)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("http://%s/me/notifications/stream?token=good&device_id=d1", ln.Addr()), nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", fmt.Sprint(other.ID))
	req.Header.Set("Accept-Language", "ar")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ":\n", first, "stream opens with a comment once the cursor is set")

	require.NoError(t, notifications.Handle(ctx, events.PointsAwarded{UserID: other.ID, Amount: 9, Total: 9}))
	require.NoError(t, notifications.Handle(ctx, events.PointsAwarded{UserID: student.ID, Amount: 5, Total: 5}))

	var id uint64
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "id: "):
			id, err = strconv.ParseUint(strings.TrimPrefix(line, "id: "), 10, 64)
			require.NoError(t, err)
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	assert.Greater(t, uint(id), seeded, "rows older than the connection are not replayed")
	assert.Equal(t, events.NamePointsAwarded, event)

	var got notificationView
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, uint(id), got.ID)
	assert.Equal(t, student.ID, got.UserID, "the query token decides whose stream this is")
	assert.Equal(t, got.TitleAr, got.Title)
	assert.Contains(t, got.Title, "5")
}
