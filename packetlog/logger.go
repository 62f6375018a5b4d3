// Package packetlog forwards protocol packets to a remote structured
// log. Delivery is fire-and-forget: a logger never blocks its caller and
// never propagates a failure back into the core.
package packetlog

import (
	"github.com/starforgelabs/balance-server-2/packet"
)

// Logger records packets as they cross the wire.
type Logger interface {
	Log(pkt packet.Packet)
}

// Nop discards every packet. Used when no webhook is configured.
type Nop struct{}

func (Nop) Log(packet.Packet) {}
