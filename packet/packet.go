// Package packet defines the protocol units exchanged between the balance
// server and its clients. Every packet carries a numeric packetType
// discriminant; the values are shared with the web client and must not
// change.
package packet

// Type discriminates packets on the wire.
type Type int

const (
	// Client side
	TypeConnection    Type = 1
	TypeMiscellaneous Type = 2
	TypeCommand       Type = 3

	// Serial port
	TypeData   Type = 11
	TypeError  Type = 12
	TypeList   Type = 13
	TypeStatus Type = 14
)

func (t Type) String() string {
	switch t {
	case TypeConnection:
		return "connection"
	case TypeMiscellaneous:
		return "miscellaneous"
	case TypeCommand:
		return "command"
	case TypeData:
		return "data"
	case TypeError:
		return "error"
	case TypeList:
		return "list"
	case TypeStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Envelope carries the fields common to every packet. Sequence and
// ConnectionID are assigned by the proxy delivering the packet, not by the
// component that produced it: the same broadcast packet is stamped
// independently for every live connection.
type Envelope struct {
	Type         Type   `json:"packetType"`
	Sequence     uint64 `json:"sequence"`
	ConnectionID string `json:"connectionId"`
}

// Packet is implemented by every wire packet variant.
type Packet interface {
	// WithEnvelope returns a copy of the packet stamped with a delivery
	// sequence number and the id of the connection it is delivered to.
	// The receiver is never mutated.
	WithEnvelope(sequence uint64, connectionID string) Packet
}

// Data carries one instrument reading line.
type Data struct {
	Envelope
	Data string `json:"data"`
}

func NewData(data string) Data {
	return Data{Envelope: Envelope{Type: TypeData}, Data: data}
}

func (p Data) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// Status is a snapshot of the server's hardware connection.
type Status struct {
	Envelope
	Connected bool   `json:"connected"`
	Device    string `json:"device"`
}

func NewStatus(connected bool, device string) Status {
	return Status{Envelope: Envelope{Type: TypeStatus}, Connected: connected, Device: device}
}

func (p Status) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// List is the result of a device enumeration.
type List struct {
	Envelope
	List []DeviceDescriptor `json:"list"`
}

func NewList(devices []DeviceDescriptor) List {
	return List{Envelope: Envelope{Type: TypeList}, List: devices}
}

func (p List) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// Error reports a failure to the client. Error holds the raw underlying
// error text, Message a human context label; either may be empty.
type Error struct {
	Envelope
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewError(errText, message string) Error {
	return Error{Envelope: Envelope{Type: TypeError}, Error: errText, Message: message}
}

func (p Error) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// Miscellaneous packets are advisory notes, mostly useful for debugging.
type Miscellaneous struct {
	Envelope
	Message string `json:"message"`
}

func NewMiscellaneous(message string) Miscellaneous {
	return Miscellaneous{Envelope: Envelope{Type: TypeMiscellaneous}, Message: message}
}

func (p Miscellaneous) WithEnvelope(sequence uint64, connectionID string) Packet {
	p.Sequence = sequence
	p.ConnectionID = connectionID
	return p
}

// DeviceDescriptor is the client-facing view of one discovered serial
// device, carried inside a List packet.
type DeviceDescriptor struct {
	// Device is the path identifying the port, which can be passed to the
	// connect command.
	Device string `json:"device"`
	// Vendor is the manufacturer name, when known.
	Vendor string `json:"vendor,omitempty"`
	// VendorID is the normalized USB vendor id, when known.
	VendorID string `json:"vendorId,omitempty"`
	// ProductID is the USB product id, when known.
	ProductID string `json:"productId,omitempty"`
	// Connected is true if the server is currently connected to this device.
	Connected bool `json:"connected"`
	// Prefer is true if this looks like an FTDI serial port, which suggests
	// it may be the balance.
	Prefer bool `json:"prefer"`
}
