package packet

import (
	"encoding/json"
	"fmt"
)

// Command verbs accepted from clients.
const (
	CommandList       = "list"
	CommandConnect    = "connect"
	CommandOpen       = "open"
	CommandDisconnect = "disconnect"
	CommandClose      = "close"
	CommandStatus     = "status"
	CommandSimulate   = "simulate"
)

// Command is sent to the server from a client. It is consumed by the
// connection proxy and never placed on the broadcast stream.
type Command struct {
	Envelope
	Command string `json:"command"`
	Device  string `json:"device,omitempty"`
	Data    string `json:"data,omitempty"`
}

func NewCommand(command string) Command {
	return Command{Envelope: Envelope{Type: TypeCommand}, Command: command}
}

func (p Command) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// DecodeCommand parses raw client input into a Command. It fails on
// malformed JSON and on packets whose packetType is not Command; it never
// panics.
func DecodeCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, fmt.Errorf("parsing command packet: %w", err)
	}
	if cmd.Type != TypeCommand {
		return Command{}, fmt.Errorf("packet type %d is not a command packet", cmd.Type)
	}
	return cmd, nil
}
