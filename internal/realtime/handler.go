package realtime

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"teamtasks-backend/internal/identity"
)

// Frame is the JSON text frame sent to clients.
type Frame struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Handler upgrades requests to WebSocket connections and registers them.
type Handler struct {
	resolver identity.Resolver
	policy   TargetPolicy
	registry *Registry
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(resolver identity.Resolver, policy TargetPolicy, registry *Registry, opts Options) *Handler {
	return &Handler{
		resolver: resolver,
		policy:   policy,
		registry: registry,
		opts:     opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws/notifications?token=<credential>. A missing or
// bad credential connects as Guest.
//
// The connection joins its group before the handshake completes, so a
// client never observes an accepted socket that cannot yet receive pushes.
// Anything delivered in between is queued behind the welcome frame.
func (h *Handler) ServeWS(c *gin.Context) {
	id := h.resolver.Resolve(c.Request.Context(), c.Query("token"))

	conn := newConn(h.opts)
	welcome, _ := json.Marshal(Frame{
		Type:    "welcome",
		Message: "Hello " + id.DisplayName() + ", WebSocket connected!",
	})
	if err := conn.Send(welcome); err != nil {
		log.Printf("failed to queue welcome for %s: %v", conn.Handle(), err)
	}

	group := h.policy.GroupFor(id)
	h.registry.Join(group, conn)
	defer h.registry.Leave(group, conn.Handle())

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		conn.close()
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	conn.attach(ws)

	go conn.writePump()
	conn.readPump()
}
