package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starforgelabs/balance-server-2/broker"
	"github.com/starforgelabs/balance-server-2/packet"
	"github.com/starforgelabs/balance-server-2/packetlog"
)

// Coordinator owns the transports and maintains one proxy per live
// connection. It runs the process lifecycle: transports start in the
// background and shut down when the context is cancelled.
type Coordinator struct {
	Broker     *broker.Broker
	Logger     packetlog.Logger
	Transports []Transport

	pmu     sync.Mutex
	proxies map[string]*Proxy
}

func NewCoordinator(b *broker.Broker, plog packetlog.Logger) *Coordinator {
	if plog == nil {
		plog = packetlog.Nop{}
	}
	return &Coordinator{
		Broker:  b,
		Logger:  plog,
		proxies: make(map[string]*Proxy),
	}
}

func (c *Coordinator) RegisterTransport(t Transport) {
	t.OnConnect(c.handleConnect)
	t.OnDisconnect(c.handleDisconnect)
	t.OnMessage(c.handleMessage)
	c.Transports = append(c.Transports, t)
}

func (c *Coordinator) handleConnect(client Client) {
	proxy := NewProxy(c.Broker, client, c.Logger)

	c.pmu.Lock()
	c.proxies[client.ID()] = proxy
	c.pmu.Unlock()

	c.Logger.Log(packet.NewMiscellaneous("A new connection has been opened with the server."))
}

func (c *Coordinator) handleDisconnect(client Client) {
	c.pmu.Lock()
	proxy, ok := c.proxies[client.ID()]
	delete(c.proxies, client.ID())
	c.pmu.Unlock()

	if !ok {
		return
	}
	proxy.Close()
	c.Logger.Log(packet.NewMiscellaneous("Connection " + client.ID() + " closed."))
}

func (c *Coordinator) handleMessage(client Client, raw []byte) {
	c.pmu.Lock()
	proxy, ok := c.proxies[client.ID()]
	c.pmu.Unlock()

	if !ok {
		slog.Warn("message from unregistered connection", "id", client.ID())
		return
	}
	proxy.HandleMessage(raw)
}

// Start runs the transports until ctx is done, then shuts them down.
func (c *Coordinator) Start(ctx context.Context) error {
	for _, t := range c.Transports {
		go func(t Transport) {
			if err := t.Start(); err != nil {
				slog.Error("transport exited", "protocol", t.Meta().Protocol, "error", err)
			}
		}(t)
	}

	<-ctx.Done()
	slog.Info("shutting down transports")

	for _, t := range c.Transports {
		if err := t.Shutdown(); err != nil {
			slog.Error("error shutting down transport", "protocol", t.Meta().Protocol, "error", err)
		}
	}
	return nil
}
