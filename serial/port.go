package serial

import (
	"bufio"
	"sync"

	"go.bug.st/serial"
)

// PortDriver is the Driver backed by real hardware.
type PortDriver struct{}

func (PortDriver) Dial(device string, mode Mode, sink func(Event)) Handle {
	h := &portHandle{device: device, sink: sink}
	go h.run(mode)
	return h
}

// portHandle owns one open attempt and, if it succeeds, the read loop for
// the resulting port. Events are emitted from a single goroutine, so they
// arrive at the sink in order.
type portHandle struct {
	device string
	sink   func(Event)

	mu      sync.Mutex
	port    serial.Port
	closing bool
}

func (h *portHandle) run(mode Mode) {
	port, err := serial.Open(h.device, &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		StopBits: convertStopBits(mode.StopBits),
		Parity:   convertParity(mode.Parity),
	})
	if err != nil {
		h.sink(Event{Type: EventError, Err: err})
		return
	}

	h.mu.Lock()
	if h.closing {
		// Close raced the open attempt.
		h.mu.Unlock()
		port.Close()
		h.sink(Event{Type: EventClose})
		return
	}
	h.port = port
	h.mu.Unlock()

	h.sink(Event{Type: EventOpen})

	// The balance terminates every reading with a newline.
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		h.sink(Event{Type: EventData, Data: scanner.Text()})
	}

	h.mu.Lock()
	closing := h.closing
	h.mu.Unlock()

	if closing {
		h.sink(Event{Type: EventClose})
		return
	}

	// The read loop ended without a local close request, so the device is
	// gone. Report the disconnect, then confirm the close.
	h.sink(Event{Type: EventDisconnect, Err: scanner.Err()})
	h.mu.Lock()
	if h.port != nil {
		h.port.Close()
	}
	h.mu.Unlock()
	h.sink(Event{Type: EventClose})
}

func (h *portHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return
	}
	h.closing = true
	if h.port != nil {
		// Unblocks the read loop.
		h.port.Close()
	}
}

func convertStopBits(bits int) serial.StopBits {
	switch bits {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

func convertParity(parity string) serial.Parity {
	switch parity {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}
