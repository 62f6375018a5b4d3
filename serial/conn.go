package serial

import (
	"log/slog"
	"strings"
	"sync"
)

// State is the lifecycle state of the balance connection.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Callbacks receive the results of connection transitions. They are
// invoked one at a time, in event order, with the connection lock held;
// they must not call back into the Conn.
type Callbacks struct {
	// StateChange is invoked after every lifecycle transition with a
	// snapshot of the new state and device path.
	StateChange func(state State, path string)
	// Data receives one non-blank instrument line.
	Data func(line string)
	// Error receives a human title and the underlying error text.
	Error func(title, detail string)
	// Notice receives advisory notes, e.g. a suppressed blank line.
	// Optional.
	Notice func(message string)
}

// Conn is the state machine owning the single hardware connection. It is
// created once at process start; the underlying handle is created on each
// open and discarded on each return to StateClosed. A generation counter
// detaches discarded handles: their late events are dropped before they
// can touch a superseded state.
type Conn struct {
	driver Driver
	mode   Mode
	cb     Callbacks

	mu     sync.Mutex
	state  State
	path   string
	handle Handle
	gen    uint64
}

func NewConn(driver Driver, mode Mode, cb Callbacks) *Conn {
	return &Conn{driver: driver, mode: mode, cb: cb}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Path returns the device path, or "" when not associated with a device.
func (c *Conn) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Open starts an asynchronous open of the device. It is a pure no-op
// unless the connection is currently closed: a new open while opening,
// open, or closing is rejected outright rather than queued.
func (c *Conn) Open(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		slog.Debug("ignoring open request", "state", c.state, "device", device)
		return
	}

	c.state = StateOpening
	c.path = device
	gen := c.gen
	slog.Info("opening serial port", "device", device, "baud", c.mode.BaudRate)
	c.handle = c.driver.Dial(device, c.mode, func(ev Event) { c.deliver(gen, ev) })
}

// Close starts an asynchronous close. It is a pure no-op unless the
// connection is currently open.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		slog.Debug("ignoring close request", "state", c.state)
		return
	}

	c.state = StateClosing
	slog.Info("closing serial port", "device", c.path)
	c.handle.Close()
}

// deliver applies one hardware event to the state machine. Events carry
// the generation of the handle that produced them; events from a
// superseded handle are dropped.
func (c *Conn) deliver(gen uint64, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		slog.Debug("dropping event from stale handle", "event", ev.Type)
		return
	}

	switch ev.Type {
	case EventOpen:
		if c.state != StateOpening {
			return
		}
		c.state = StateOpen
		slog.Info("serial port open", "device", c.path)
		c.stateChange()

	case EventClose:
		if c.state == StateClosed {
			return
		}
		c.state = StateClosed
		c.path = ""
		c.discard()
		slog.Info("serial port closed")
		c.stateChange()

	case EventData:
		if c.state != StateOpen {
			return
		}
		if strings.TrimSpace(ev.Data) == "" {
			slog.Debug("ignoring blank line from serial port")
			if c.cb.Notice != nil {
				c.cb.Notice("Ignoring blank line from the balance.")
			}
			return
		}
		if c.cb.Data != nil {
			c.cb.Data(ev.Data)
		}

	case EventError:
		c.handleError(ev)

	case EventDisconnect:
		if c.state != StateOpen {
			return
		}
		slog.Warn("serial port disconnected", "device", c.path, "error", errText(ev.Err))
		c.reportError("Disconnect", "The serial port was unexpectedly disconnected.")
		// The driver's own close event follows and drives the transition.
	}
}

func (c *Conn) handleError(ev Event) {
	detail := errText(ev.Err)

	switch c.state {
	case StateOpening:
		c.state = StateClosed
		c.path = ""
		c.discard()
		slog.Warn("serial port open failed", "error", detail)
		c.reportError("Failed to open serial port.", detail)
		c.stateChange()

	case StateClosing:
		c.state = StateClosed
		c.path = ""
		c.discard()
		slog.Warn("serial port close failed", "error", detail)
		c.reportError("Failed to close serial port.", detail)
		c.stateChange()

	case StateOpen:
		// Transient I/O errors don't end the connection.
		slog.Warn("serial port error", "device", c.path, "error", detail)
		c.reportError("Serial port error.", detail)
	}
}

// discard drops the current handle and bumps the generation so that any
// events the handle still emits are ignored.
func (c *Conn) discard() {
	c.handle = nil
	c.gen++
}

func (c *Conn) stateChange() {
	if c.cb.StateChange != nil {
		c.cb.StateChange(c.state, c.path)
	}
}

func (c *Conn) reportError(title, detail string) {
	if c.cb.Error != nil {
		c.cb.Error(title, detail)
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
