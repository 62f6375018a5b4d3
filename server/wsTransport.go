package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // clients connect from arbitrary origins
	},
}

// WSTransport serves clients over WebSocket. The same listener also
// answers /healthz and /status for operational checks.
type WSTransport struct {
	Addr string

	// StatusSource supplies the /status payload, typically a snapshot of
	// the device connection. Optional.
	StatusSource func() any

	listener net.Listener
	server   *http.Server

	onMessage    func(Client, []byte)
	onConnect    func(Client)
	onDisconnect func(Client)

	cmu     sync.RWMutex
	clients map[string]Client

	maxClients int
	connected  bool
}

func NewWSTransport(addr string) *WSTransport {
	return &WSTransport{
		Addr:       addr,
		maxClients: 16,
		clients:    make(map[string]Client),
	}
}

func (t *WSTransport) Start() error {
	slog.Info("starting WebSocket server", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil {
		return fmt.Errorf("transport callbacks are not configured; register this transport with a coordinator first")
	}

	r := chi.NewRouter()
	r.Get("/", t.handleWebSocket)
	r.Get("/ws", t.handleWebSocket)
	r.Get("/healthz", t.handleHealth)
	r.Get("/status", t.handleStatus)

	l, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.listener = l
	t.server = &http.Server{Handler: r}
	t.connected = true

	err = t.server.Serve(l)
	t.connected = false
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (t *WSTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "error", err)
		return
	}

	t.cmu.RLock()
	clientCount := len(t.clients)
	t.cmu.RUnlock()

	if clientCount >= t.maxClients {
		slog.Warn("max clients reached, rejecting connection", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}

	go t.handleConnection(conn, r.RemoteAddr)
}

func (t *WSTransport) handleConnection(conn *websocket.Conn, remoteAddr string) {
	client := NewWSClient(conn)
	slog.Info("client connected", "protocol", "websocket", "addr", remoteAddr, "id", client.ID())

	t.cmu.Lock()
	t.clients[client.ID()] = client
	t.cmu.Unlock()

	t.onConnect(client)

	defer func() {
		t.cmu.Lock()
		delete(t.clients, client.ID())
		t.cmu.Unlock()

		t.onDisconnect(client)

		conn.Close()
		slog.Info("client disconnected", "protocol", "websocket", "addr", remoteAddr, "id", client.ID())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket connection error", "addr", remoteAddr, "error", err)
			}
			return
		}
		t.onMessage(client, raw)
	}
}

func (t *WSTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	t.cmu.RLock()
	clientCount := len(t.clients)
	t.cmu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": clientCount,
	})
}

func (t *WSTransport) handleStatus(w http.ResponseWriter, r *http.Request) {
	var v any = map[string]any{}
	if t.StatusSource != nil {
		v = t.StatusSource()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (t *WSTransport) Shutdown() error {
	slog.Info("shutting down WebSocket server", "addr", t.Addr)
	t.connected = false
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *WSTransport) OnMessage(fn func(Client, []byte)) {
	t.onMessage = fn
}

func (t *WSTransport) OnConnect(fn func(Client)) {
	t.onConnect = fn
}

func (t *WSTransport) OnDisconnect(fn func(Client)) {
	t.onDisconnect = fn
}

func (t *WSTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	clientCount := len(t.clients)
	t.cmu.RUnlock()
	return TransportMetadata{
		Protocol:  "websocket",
		Address:   t.Addr,
		Clients:   clientCount,
		Connected: t.connected,
	}
}
