package serial

// Mode is the line configuration used when opening a port.
type Mode struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // "none", "odd", "even", "mark", "space"
}

// DefaultMode returns the common defaults for an Ohaus balance.
func DefaultMode() Mode {
	return Mode{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "none"}
}

// EventType identifies a hardware event delivered by a driver handle.
type EventType int

const (
	// EventOpen confirms that the port finished opening.
	EventOpen EventType = iota
	// EventClose confirms that the port is closed and the handle is dead.
	EventClose
	// EventData carries one line read from the port.
	EventData
	// EventError reports a failure; its meaning depends on the connection
	// state at the time it arrives.
	EventError
	// EventDisconnect reports that the device vanished while open. An
	// EventClose follows.
	EventDisconnect
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one hardware occurrence on a dialed port.
type Event struct {
	Type EventType
	Data string // set for EventData
	Err  error  // set for EventError and EventDisconnect
}

// Handle is one live hardware attachment. Close is idempotent and returns
// immediately; the handle confirms with an EventClose.
type Handle interface {
	Close()
}

// Driver abstracts the serial layer so the connection state machine can
// run against fake hardware in tests.
type Driver interface {
	// Dial starts an asynchronous open of the device and returns
	// immediately. Lifecycle events are delivered to sink one at a time,
	// in order of occurrence; sink must not be invoked before Dial
	// returns.
	Dial(device string, mode Mode, sink func(Event)) Handle
}
