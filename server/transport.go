// Package server exposes the balance broker to remote clients. A
// Transport accepts connections and relays raw frames; a Proxy glues one
// connection to the shared broker; the Coordinator wires them together
// and runs the process lifecycle.
package server

import (
	"github.com/google/uuid"

	"github.com/starforgelabs/balance-server-2/packet"
)

// Transport accepts client connections and relays raw frames between
// each client and the coordinator. Inbound frames are delivered together
// with the client that sent them, so protocol errors stay local to that
// connection.
type Transport interface {
	Start() error
	Shutdown() error
	OnConnect(func(Client))
	OnDisconnect(func(Client))
	OnMessage(func(Client, []byte))
	Meta() TransportMetadata
}

// TransportMetadata describes a transport for logging and health checks.
type TransportMetadata struct {
	Protocol  string // e.g. "websocket", "tcp"
	Address   string // bind address
	Clients   int    // current live connections
	Connected bool   // whether the listener is bound
}

// Client is one remote connection able to receive packets.
type Client interface {
	// ID is the opaque identifier stamped into packets delivered to this
	// connection.
	ID() string
	Send(pkt packet.Packet) error
}

func generateClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
