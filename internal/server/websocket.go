package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer. The page script
	// pings every 30 seconds, so a healthy viewer always beats this.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// serverMessage is the JSON frame pushed to viewers.
type serverMessage struct {
	Type string `json:"type"`
}

// clientMessage is the JSON frame accepted from viewers. Only "ping" gets a
// reply; "requestRefresh" is accepted for protocol tolerance and ignored.
type clientMessage struct {
	Type string `json:"type"`
}

// Client represents a connected viewer session
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: false, // same-origin only
	})
	if err != nil {
		s.log.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	// Start goroutines for this client first
	go client.writePump()
	go client.readPump()

	// Register client after goroutines are started
	s.register <- client
}

// runWebSocketHub owns the client set. It bridges the reload broadcaster to
// every connected viewer and never blocks on a slow one: a client whose send
// queue is full gets dropped instead.
func (s *PreviewServer) runWebSocketHub(ctx context.Context) {
	reloads := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(reloads)

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			if client == nil || client.conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			clientCount := len(s.clients)
			s.clientsMutex.Unlock()
			s.log.Debug(ctx, "Viewer connected", "total", clientCount)

		case conn := <-s.unregister:
			if conn == nil {
				continue
			}
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
				conn.Close(websocket.StatusNormalClosure, "")
				s.log.Debug(ctx, "Viewer disconnected", "total", len(s.clients))
			}
			s.clientsMutex.Unlock()

		case msg, ok := <-reloads:
			if !ok {
				return
			}
			payload, err := json.Marshal(serverMessage{Type: msg.Type.String()})
			if err != nil {
				s.log.Error(ctx, err, "Failed to marshal reload message")
				continue
			}

			s.clientsMutex.RLock()
			var failedClients []*websocket.Conn
			for conn, client := range s.clients {
				select {
				case client.send <- payload:
				default:
					// Client's send channel is full, mark for removal
					failedClients = append(failedClients, conn)
				}
			}
			s.clientsMutex.RUnlock()

			// Clean up failed clients outside the read lock
			if len(failedClients) > 0 {
				s.clientsMutex.Lock()
				for _, conn := range failedClients {
					if client, ok := s.clients[conn]; ok {
						delete(s.clients, conn)
						close(client.send)
						conn.Close(websocket.StatusNormalClosure, "")
					}
				}
				s.clientsMutex.Unlock()
			}
		}
	}
}

// readPump pumps messages from the websocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c.conn
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		readCtx, readCancel := context.WithTimeout(ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			// Check if it's a normal closure
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				c.server.log.Debug(ctx, "WebSocket read ended", "error", err.Error())
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type == "ping" {
			pong, err := json.Marshal(serverMessage{Type: "pong"})
			if err != nil {
				continue
			}
			select {
			case c.send <- pong:
			default:
				// Queue full; the viewer is about to be dropped anyway.
			}
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				cancel()
				return
			}

			if err := c.conn.Write(writeCtx, websocket.MessageText, message); err != nil {
				cancel()
				return
			}
			cancel()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			if err := c.conn.Ping(pingCtx); err != nil {
				cancel()
				return
			}
			cancel()
		}
	}
}
