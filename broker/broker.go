// Package broker coordinates access to the single balance connection on
// behalf of every client. It owns the connection state machine, wraps its
// events into packets, and fans those packets out to all subscribers.
package broker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starforgelabs/balance-server-2/packet"
	"github.com/starforgelabs/balance-server-2/serial"
)

// Subscriber receives every packet the broker publishes. Deliver is
// called one packet at a time per publish; implementations must not block
// for long and must not call back into the broker from Deliver.
type Subscriber interface {
	Deliver(pkt packet.Packet)
}

// Enumerate returns raw metadata for the serial devices on the system.
type Enumerate func() ([]serial.PortMetadata, error)

// Options configures a Broker. Zero values select the production
// defaults: the real serial driver, Ohaus balance line settings, platform
// enumeration, and the standard debounce interval.
type Options struct {
	Driver           serial.Driver
	Mode             serial.Mode
	Enumerate        Enumerate
	DebounceInterval time.Duration
}

// Broker is the process-wide owner of the hardware connection. There is
// exactly one per process; proxies never touch the hardware directly.
type Broker struct {
	conn      *serial.Conn
	enumerate Enumerate
	debounce  *debouncer

	mu   sync.RWMutex
	subs map[Subscriber]struct{}
}

func New(opts Options) *Broker {
	if opts.Driver == nil {
		opts.Driver = serial.PortDriver{}
	}
	if opts.Mode == (serial.Mode{}) {
		opts.Mode = serial.DefaultMode()
	}
	if opts.Enumerate == nil {
		opts.Enumerate = serial.ListPorts
	}
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = DefaultDebounceInterval
	}

	b := &Broker{
		enumerate: opts.Enumerate,
		subs:      make(map[Subscriber]struct{}),
	}

	// A balance retransmits a stabilizing reading in bursts; only the
	// last value of a burst is forwarded.
	b.debounce = newDebouncer(opts.DebounceInterval, func(line string) {
		b.publish(packet.NewData(line))
	})

	b.conn = serial.NewConn(opts.Driver, opts.Mode, serial.Callbacks{
		StateChange: func(state serial.State, path string) {
			b.publish(packet.NewStatus(state == serial.StateOpen, path))
		},
		Data: b.debounce.Write,
		Error: func(title, detail string) {
			b.publish(packet.NewError(detail, title))
		},
		Notice: func(message string) {
			b.publish(packet.NewMiscellaneous(message))
		},
	})

	return b
}

// Device returns the path of the device the broker is associated with, or
// "" when closed.
func (b *Broker) Device() string { return b.conn.Path() }

// IsOpen reports whether the hardware connection is fully open.
// Transitional states don't count.
func (b *Broker) IsOpen() bool { return b.conn.State() == serial.StateOpen }

// Subscribe registers a subscriber on the broadcast stream. Subscribing
// an already-registered subscriber is a no-op.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
}

// Unsubscribe removes a subscriber. Safe to call for a subscriber that
// was never registered.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

// Open connects to the named device. An empty device is an error; a
// repeat open of the already-open device just re-broadcasts the status.
func (b *Broker) Open(device string) {
	if device == "" {
		b.publish(packet.NewError("", "open() didn't receive a device."))
		return
	}
	if b.IsOpen() && b.Device() == device {
		b.Status()
		return
	}
	b.conn.Open(device)
}

// Close disconnects from the device. Safe no-op when already closed.
func (b *Broker) Close() {
	b.conn.Close()
}

// List enumerates attached devices asynchronously and broadcasts the
// classified result.
func (b *Broker) List() {
	go func() {
		metas, err := b.enumerate()
		if err != nil {
			slog.Warn("device enumeration failed", "error", err)
			b.publish(packet.NewError(err.Error(), "Failed to list serial devices."))
			return
		}

		device, open := b.Device(), b.IsOpen()
		devices := make([]packet.DeviceDescriptor, 0, len(metas))
		for _, meta := range metas {
			devices = append(devices, serial.Classify(meta, device, open))
		}
		b.publish(packet.NewList(devices))
	}()
}

// Status broadcasts a snapshot of the current connection.
func (b *Broker) Status() {
	b.publish(packet.NewStatus(b.IsOpen(), b.Device()))
}

// Simulate pushes a fabricated reading through the broadcast pipeline,
// exercising the full delivery path without hardware.
func (b *Broker) Simulate(data string) {
	if data == "" {
		b.publish(packet.NewError("", "simulate didn't receive any data."))
		return
	}
	b.publish(packet.NewMiscellaneous("Simulating data..."))
	b.publish(packet.NewData(data))
}

func (b *Broker) publish(pkt packet.Packet) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		sub.Deliver(pkt)
	}
	slog.Debug("packet published", "subscribers", len(b.subs))
}
