package api

import (
	"log/slog"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// wsHandler handles WS /api/ws?user_id=…, upgrading the connection and
// handing it to the activity hub for the life of the socket.
func (s *Server) wsHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}

	opts := &websocket.AcceptOptions{}
	if s.cfg != nil && len(s.cfg.Server.AllowedWSOrigins) > 0 {
		opts.OriginPatterns = s.cfg.Server.AllowedWSOrigins
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	s.hub.HandleConnection(c.Request.Context(), userID, conn)
}
