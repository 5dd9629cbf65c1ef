// Package ws is the session gateway: it accepts WebSocket connections,
// assigns each a connection ID, feeds inbound client messages to the game
// engine, and delivers engine events back out. Each connection gets a
// buffered send queue with its own writer goroutine so a slow client never
// blocks an engine handler.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hirscherd0-sudo/Demondontworry/internal/game"
)

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 64
)

// ClientMessage is the inbound event envelope.
type ClientMessage struct {
	Type        string `json:"type"`
	RoomKey     string `json:"roomKey"`
	Name        string `json:"name,omitempty"`
	PieceID     int    `json:"pieceId"`
	NewPosition int    `json:"newPosition"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan game.Event
	done chan struct{}
}

// Server bridges WebSocket connections and the game engine.
type Server struct {
	engine *game.Engine
	log    *logrus.Logger

	mu    sync.Mutex
	conns map[string]*client
}

// NewServer creates the gateway and wires itself as the engine's event sink.
func NewServer(engine *game.Engine, log *logrus.Logger) *Server {
	s := &Server{
		engine: engine,
		log:    log,
		conns:  make(map[string]*client),
	}
	engine.SendFn = s.Send
	return s
}

// Handler returns the HTTP handler accepting WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The browser client is served from arbitrary hosts in development.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan game.Event, sendQueueSize),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.conns[cl.id] = cl
	s.mu.Unlock()
	s.log.WithField("conn", cl.id).Info("connection established")

	go cl.writePump(s.log)
	s.readLoop(r.Context(), cl)
}

// readLoop pumps inbound messages into the engine until the connection dies,
// then runs the transport-level disconnect path.
func (s *Server) readLoop(ctx context.Context, cl *client) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, cl.id)
		s.mu.Unlock()
		close(cl.done)
		s.engine.HandleDisconnect(cl.id)
		cl.conn.Close(websocket.StatusNormalClosure, "")
		s.log.WithField("conn", cl.id).Info("connection closed")
	}()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, cl.conn, &msg); err != nil {
			return
		}
		s.dispatch(cl.id, msg)
	}
}

// dispatch routes one client message to the matching engine operation.
// Unknown types are reported back to the sender only.
func (s *Server) dispatch(connID string, msg ClientMessage) {
	switch msg.Type {
	case "join_room":
		s.engine.JoinRoom(msg.RoomKey, connID, msg.Name)
	case "request_start":
		s.engine.RequestStart(msg.RoomKey, connID)
	case "roll_dice":
		s.engine.RollDice(msg.RoomKey, connID)
	case "move_piece":
		s.engine.MovePiece(msg.RoomKey, connID, msg.PieceID, msg.NewPosition)
	case "end_turn":
		s.engine.EndTurn(msg.RoomKey, connID)
	default:
		s.log.WithFields(logrus.Fields{"conn": connID, "type": msg.Type}).Warn("unknown event type")
		s.Send(connID, game.Event{Type: game.EventErrorMessage, Payload: map[string]interface{}{
			"text": "Unknown event type.",
		}})
	}
}

// Send queues an event for a single connection. Events for connections that
// are gone, or whose queue is full, are dropped.
func (s *Server) Send(connID string, ev game.Event) {
	s.mu.Lock()
	cl := s.conns[connID]
	s.mu.Unlock()
	if cl == nil {
		return
	}
	select {
	case cl.send <- ev:
	default:
		s.log.WithField("conn", connID).Warn("send queue full, dropping event")
	}
}

// writePump drains the client's send queue to the socket until the
// connection is done.
func (c *client) writePump(log *logrus.Logger) {
	for {
		select {
		case ev := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wsjson.Write(ctx, c.conn, ev)
			cancel()
			if err != nil {
				log.WithError(err).WithField("conn", c.id).Debug("write failed")
				return
			}
		case <-c.done:
			return
		}
	}
}
