package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/session"
	"github.com/OFFIS-RIT/logicflow/pkg/controller"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsEventBuffer  = 16
)

// WSMessage is the envelope of every message on the session socket.
//
// Client to server: {"type": "activate_node", "id": "..."} and
// {"type": "activate_edge", "id": "..."}.
// Server to client: "snapshot", "node_activated", "edge_activated", "error".
type WSMessage struct {
	Type       string                     `json:"type"`
	ID         string                     `json:"id,omitempty"`
	Snapshot   *session.Snapshot          `json:"snapshot,omitempty"`
	Activation *controller.NodeActivation `json:"activation,omitempty"`
	Edge       *graph.Edge                `json:"edge,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

func writeWS(ctx context.Context, c *websocket.Conn, msg WSMessage) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, c, msg)
}

// SessionSocketHandler streams session snapshots and accepts clicks.
func SessionSocketHandler(c echo.Context) error {
	s, err := lookupSession(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn("[WS] Accept failed", "err", err)
		return nil
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Activations from any client of this session are pushed to every socket.
	events := make(chan WSMessage, wsEventBuffer)
	push := func(msg WSMessage) {
		select {
		case events <- msg:
		default:
			logger.Debug("[WS] Dropping activation for slow client", "session", s.ID, "type", msg.Type)
		}
	}
	removeNode := s.OnNodeActivate(func(act controller.NodeActivation) {
		push(WSMessage{Type: "node_activated", ID: act.Node.ID, Activation: &act})
	})
	defer removeNode()
	removeEdge := s.OnEdgeActivate(func(e graph.Edge) {
		push(WSMessage{Type: "edge_activated", ID: e.ID, Edge: &e})
	})
	defer removeEdge()

	go func() {
		defer cancel()
		for {
			var msg WSMessage
			select {
			case <-ctx.Done():
				return
			case snap := <-updates:
				msg = WSMessage{Type: "snapshot", Snapshot: &snap}
			case msg = <-events:
			}
			if err := writeWS(ctx, conn, msg); err != nil {
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return nil
		}

		var err error
		switch msg.Type {
		case "activate_node":
			_, err = s.ActivateNode(msg.ID)
		case "activate_edge":
			_, err = s.ActivateEdge(msg.ID)
		default:
			err = fmt.Errorf("unknown message type: %s", msg.Type)
		}
		if err == nil {
			continue
		}
		if err := writeWS(ctx, conn, WSMessage{Type: "error", ID: msg.ID, Error: err.Error()}); err != nil {
			return nil
		}
	}
}
