package server

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/starforgelabs/balance-server-2/broker"
	"github.com/starforgelabs/balance-server-2/packet"
	"github.com/starforgelabs/balance-server-2/packetlog"
)

// Proxy glues one client connection to the shared device broker. It
// decodes command packets arriving from the client and dispatches them to
// the broker, and it relays every packet on the broker's broadcast stream
// back to the client, stamped with this connection's own sequence
// numbering. All connected clients see all device events, not just the
// one that issued the triggering command.
type Proxy struct {
	broker *broker.Broker
	client Client
	plog   packetlog.Logger

	mu         sync.Mutex
	sequence   uint64
	subscribed bool
}

func NewProxy(b *broker.Broker, client Client, plog packetlog.Logger) *Proxy {
	if plog == nil {
		plog = packetlog.Nop{}
	}
	p := &Proxy{broker: b, client: client, plog: plog}
	p.Subscribe()
	return p
}

// Subscribe registers the proxy on the broker's broadcast stream. A
// second call while already subscribed is a no-op.
func (p *Proxy) Subscribe() {
	p.mu.Lock()
	if p.subscribed {
		p.mu.Unlock()
		return
	}
	p.subscribed = true
	p.mu.Unlock()

	p.broker.Subscribe(p)
}

// Close tears down the broker subscription. Safe to call when never
// subscribed or already closed; only this connection is affected.
func (p *Proxy) Close() {
	p.mu.Lock()
	if !p.subscribed {
		p.mu.Unlock()
		return
	}
	p.subscribed = false
	p.mu.Unlock()

	p.broker.Unsubscribe(p)
}

// Deliver implements broker.Subscriber. Packets are stamped just before
// delivery: sequence numbers are per-connection, start at 1, and are
// strictly increasing in broadcast order.
func (p *Proxy) Deliver(pkt packet.Packet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendLocked(pkt)
}

func (p *Proxy) sendLocked(pkt packet.Packet) {
	p.sequence++
	stamped := pkt.WithEnvelope(p.sequence, p.client.ID())
	p.plog.Log(stamped)
	if err := p.client.Send(stamped); err != nil {
		// A failed send never affects other connections or the broker.
		slog.Warn("failed to send packet to client", "id", p.client.ID(), "error", err)
	}
}

// HandleMessage processes one raw frame from the client. Malformed input
// and unrecognized commands produce an Error packet on this connection
// only; nothing is broadcast.
func (p *Proxy) HandleMessage(raw []byte) {
	cmd, err := packet.DecodeCommand(raw)
	if err != nil {
		slog.Debug("rejected client message", "id", p.client.ID(), "error", err)
		p.sendError(fmt.Sprintf("Failed to parse command: %v", err))
		return
	}

	p.plog.Log(cmd.WithEnvelope(cmd.Sequence, p.client.ID()))

	switch cmd.Command {
	case packet.CommandList:
		p.broker.List()
	case packet.CommandConnect, packet.CommandOpen:
		p.broker.Open(cmd.Device)
	case packet.CommandDisconnect, packet.CommandClose:
		p.broker.Close()
	case packet.CommandStatus:
		p.broker.Status()
	case packet.CommandSimulate:
		p.broker.Simulate(cmd.Data)
	default:
		p.sendError(fmt.Sprintf("Unrecognized command %q.", cmd.Command))
	}
}

func (p *Proxy) sendError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendLocked(packet.NewError("", message))
}
