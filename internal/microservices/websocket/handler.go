package websocket

import (
	"context"
	"net/http"
	"time"

	"inboxhub/internal/microservices/http-api/middleware"
	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// HTTP upgrade handler to WebSocket connections

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	_, allowAll := origins["*"]

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true // non-browser clients send no Origin
			}
			_, ok := origins[origin]
			return ok
		},
	}
}

// WSHandler upgrades an authenticated request and streams the user's
// delivery events. Browsers cannot set headers on a websocket handshake, so
// the access token is also accepted as ?token=.
func WSHandler(hub *Hub, authService service.AuthService, logger logrus.FieldLogger, allowedOrigins []string) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(c *gin.Context) {
		token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		middleware.SetClaims(c, claims)

		// upgrade HTTP connection to WebSocket, the upgrader writes the error response
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).WithField("user_id", claims.UserID).Warn("ws_upgrade_failed")
			return
		}

		client := NewClient(claims.UserID, conn)
		// queued before the hub can see, or close, the channel
		if hello, err := NewConnectedMessage(claims.UserID).ToJSON(); err == nil {
			client.Send <- hello
		}
		if hub.Register(client) {
			SyncPresence(hub, authService, logger, claims.UserID)
		}

		go client.WritePump()
		client.ReadPump()

		if hub.Unregister(client) {
			SyncPresence(hub, authService, logger, claims.UserID)
		}
	}
}

// SyncPresence stores online or offline for the user, whichever the hub
// reports at the time of the write.
func SyncPresence(hub *Hub, authService service.AuthService, logger logrus.FieldLogger, userID string) {
	hub.SyncPresence(userID, func(online bool) {
		status := models.StatusOffline
		if online {
			status = models.StatusOnline
		}
		setStatus(authService, logger, userID, status)
	})
}

// setStatus runs outside the request context, which is done once the
// connection is hijacked and closed.
func setStatus(authService service.AuthService, logger logrus.FieldLogger, userID string, status models.UserStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := authService.UpdateStatus(ctx, userID, status); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"status":  status,
		}).Warn("presence_update_failed")
	}
}
