package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starforgelabs/balance-server-2/packet"
)

// writeWait bounds every client write. A wedged peer gets a send error
// on its own connection instead of stalling the broadcast path.
const writeWait = 10 * time.Second

// WSClient is one WebSocket connection.
type WSClient struct {
	id      string
	timeout time.Duration

	// gorilla/websocket allows at most one concurrent writer.
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSClient(conn *websocket.Conn) *WSClient {
	return &WSClient{id: generateClientID("ws"), timeout: writeWait, conn: conn}
}

func (c *WSClient) ID() string { return c.id }

func (c *WSClient) Send(pkt packet.Packet) error {
	data, err := json.Marshal(pkt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
