// Package hub fans a session's dirty Screen snapshots out to its
// connected websocket viewers.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smash-term/smash/internal/vt"
	"github.com/smash-term/smash/pkg/termsession"
)

// Hub upgrades incoming requests to websockets and streams a session's
// dirty snapshots to each connection until it closes.
type Hub struct {
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// New returns a Hub that pings idle connections every pingInterval to
// detect dead peers.
func New(pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// wireSnapshot is the JSON frame sent for each dirty repaint.
type wireSnapshot struct {
	Rows       [][]wireCell `json:"rows"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Row        int          `json:"row"`
	Col        int          `json:"col"`
	HideCursor bool         `json:"hideCursor"`
}

type wireCell struct {
	Ch   string `json:"ch"`
	Attr uint16 `json:"attr"`
}

func encode(snap vt.Snapshot) wireSnapshot {
	out := wireSnapshot{
		Width:      snap.Width,
		Height:     snap.Height,
		Row:        snap.Row - snap.Top,
		Col:        snap.Col,
		HideCursor: snap.HideCursor,
	}
	for row := 0; row < snap.Height; row++ {
		abs := snap.Top + row
		var line []vt.Cell
		if abs < len(snap.Rows) {
			line = snap.Rows[abs]
		}
		wireLine := make([]wireCell, len(line))
		for i, c := range line {
			wireLine[i] = wireCell{Ch: string(c.Ch), Attr: uint16(c.Attr)}
		}
		out.Rows = append(out.Rows, wireLine)
	}
	return out
}

// Serve upgrades the connection, subscribes it to sess's dirty
// snapshots, and reads and discards inbound messages (key input goes
// through the HTTP input endpoint instead). It blocks until the
// connection closes. The subscription is not removed on disconnect: it
// stays registered until the session exits, and its frames are dropped
// once the connection's writer has stopped.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, registry *termsession.Registry, sess *termsession.Session) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	send := make(chan wireSnapshot, 4)
	registry.Subscribe(sess.Info.ID, func(snap vt.Snapshot) {
		select {
		case send <- encode(snap):
		default:
			// Drop a frame rather than block the session's dirty
			// callback on a slow reader; the next repaint carries the
			// full current state anyway.
		}
	})

	go h.writeLoop(conn, send)

	// Initial full frame so a fresh connection doesn't wait for the
	// next write before it has anything to paint.
	send <- encode(sess.Snapshot())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan wireSnapshot) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-send:
			if !ok {
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
