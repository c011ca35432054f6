package realtime

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"briddhi-be/middlewares"
	"briddhi-be/models"
)

// Handler upgrades the request to a websocket and pumps hub events to the
// client. Scope membership comes from the verified token, not from anything
// the client sends: admins land in the shared admin scope, citizens in their
// own private scope. Inbound frames are read only to notice disconnects.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountVal, _ := c.Get(middlewares.CtxAccountID)
		roleVal, _ := c.Get(middlewares.CtxRole)
		accountID, _ := accountVal.(string)
		role, _ := roleVal.(models.Role)

		opts := &websocket.AcceptOptions{}
		if origins := wsOriginPatterns(os.Getenv("WS_ALLOWED_ORIGINS")); len(origins) > 0 {
			opts.OriginPatterns = origins
		}
		conn, err := websocket.Accept(c.Writer, c.Request, opts)
		if err != nil {
			return
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		sess := NewSession(16)
		if role == models.RoleAdmin {
			hub.Join(AdminScope, sess)
		} else {
			hub.Join(accountID, sess)
		}
		defer hub.Leave(sess)

		// Joined and ready; anything broadcast from here on is delivered.
		if err := wsjson.Write(ctx, conn, Event{Name: EventReady}); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
			return
		}

		readErr := make(chan error, 1)
		go func() {
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					readErr <- err
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			case <-readErr:
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			case evt, ok := <-sess.Events():
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "closed")
					return
				}
				writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
				err := wsjson.Write(writeCtx, conn, evt)
				cancelWrite()
				if err != nil {
					_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
					return
				}
			}
		}
	}
}

func wsOriginPatterns(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
