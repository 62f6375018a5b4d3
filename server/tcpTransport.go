package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// TCPTransport serves clients over plain TCP with newline-framed JSON,
// one packet per line.
type TCPTransport struct {
	Addr     string
	listener net.Listener

	onMessage    func(Client, []byte)
	onConnect    func(Client)
	onDisconnect func(Client)

	cmu     sync.RWMutex
	clients map[string]Client

	maxClients int
	connected  bool
}

func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{Addr: addr, maxClients: 16, clients: make(map[string]Client)}
}

func (t *TCPTransport) Start() error {
	slog.Info("starting tcp server", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil {
		return fmt.Errorf("transport callbacks are not configured; register this transport with a coordinator first")
	}

	l, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.listener = l
	t.connected = true
	defer func() {
		l.Close()
		t.connected = false
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			return err // exits when the listener is closed
		}

		t.cmu.RLock()
		clientCount := len(t.clients)
		t.cmu.RUnlock()

		if clientCount >= t.maxClients {
			slog.Warn("max clients reached, rejecting connection", "remote_addr", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go t.handleConnection(conn)
	}
}

func (t *TCPTransport) handleConnection(c net.Conn) {
	addr := c.RemoteAddr().String()
	client := NewTCPClient(c)
	slog.Info("client connected", "protocol", "tcp", "addr", addr, "id", client.ID())

	t.cmu.Lock()
	t.clients[client.ID()] = client
	t.cmu.Unlock()

	t.onConnect(client)

	defer func() {
		t.cmu.Lock()
		delete(t.clients, client.ID())
		t.cmu.Unlock()

		t.onDisconnect(client)

		c.Close()
		slog.Info("client disconnected", "protocol", "tcp", "addr", addr, "id", client.ID())
	}()

	reader := bufio.NewScanner(c)
	for reader.Scan() {
		// The scanner reuses its buffer between lines.
		raw := append([]byte(nil), reader.Bytes()...)
		t.onMessage(client, raw)
	}

	if err := reader.Err(); err != nil {
		slog.Warn("connection error", "addr", addr, "error", err)
	}
}

func (t *TCPTransport) Shutdown() error {
	slog.Info("shutting down tcp server", "addr", t.Addr)
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

func (t *TCPTransport) OnMessage(fn func(Client, []byte)) {
	t.onMessage = fn
}

func (t *TCPTransport) OnConnect(fn func(Client)) {
	t.onConnect = fn
}

func (t *TCPTransport) OnDisconnect(fn func(Client)) {
	t.onDisconnect = fn
}

func (t *TCPTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	clientCount := len(t.clients)
	t.cmu.RUnlock()
	return TransportMetadata{
		Protocol:  "tcp",
		Address:   t.Addr,
		Clients:   clientCount,
		Connected: t.connected,
	}
}
