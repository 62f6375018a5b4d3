package server

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/starforgelabs/balance-server-2/packet"
)

// TCPClient is one TCP connection. Packets are written as single JSON
// lines.
type TCPClient struct {
	id      string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func NewTCPClient(conn net.Conn) *TCPClient {
	return &TCPClient{id: generateClientID("tcp"), timeout: writeWait, conn: conn}
}

func (c *TCPClient) ID() string { return c.id }

func (c *TCPClient) Send(pkt packet.Packet) error {
	data, err := json.Marshal(pkt)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, err = c.conn.Write(data)
	return err
}
