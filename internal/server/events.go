package server

import (
	"log/slog"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
)

// handleNameEvents streams pipeline snapshots over a websocket: the current
// snapshot first, then one per change. Messages from the client are ignored.
func (a *API) handleNameEvents(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: a.origins,
	})
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	pipeline := a.svc.Pipeline()
	updates, cancel := pipeline.Subscribe()
	defer cancel()

	ctx := conn.CloseRead(c.Request.Context())
	if err := wsjson.Write(ctx, conn, pipeline.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "")
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				slog.Debug("Event stream closed", "error", err)
				return
			}
		}
	}
}

func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			origin = u.Host
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
