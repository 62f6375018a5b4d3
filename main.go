package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starforgelabs/balance-server-2/broker"
	"github.com/starforgelabs/balance-server-2/config"
	"github.com/starforgelabs/balance-server-2/packet"
	"github.com/starforgelabs/balance-server-2/packetlog"
	"github.com/starforgelabs/balance-server-2/serial"
	"github.com/starforgelabs/balance-server-2/server"
)

var version = "2.0.0"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	listPorts := flag.Bool("list-ports", false, "List attached serial devices and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Display version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("balance-server %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging, *debug)

	if *listPorts {
		if err := printPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var plog packetlog.Logger = packetlog.Nop{}
	if cfg.Webhook.URL != "" {
		plog = packetlog.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Name)
	}

	b := broker.New(broker.Options{
		Mode: serial.Mode{
			BaudRate: cfg.Serial.BaudRate,
			DataBits: cfg.Serial.DataBits,
			StopBits: cfg.Serial.StopBits,
			Parity:   cfg.Serial.Parity,
		},
		DebounceInterval: cfg.Serial.Debounce(),
	})

	coordinator := server.NewCoordinator(b, plog)
	if cfg.Server.WSAddr != "" {
		ws := server.NewWSTransport(cfg.Server.WSAddr)
		ws.StatusSource = func() any {
			return map[string]any{
				"connected": b.IsOpen(),
				"device":    b.Device(),
			}
		}
		coordinator.RegisterTransport(ws)
	}
	if cfg.Server.TCPAddr != "" {
		coordinator.RegisterTransport(server.NewTCPTransport(cfg.Server.TCPAddr))
	}

	if cfg.MCP.Enabled {
		mcpServer := server.NewMCPServer(b, serial.ListPorts)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("mcp server exited", "error", err)
			}
		}()
	}

	plog.Log(packet.NewMiscellaneous(listenAdvisory(cfg.Server)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator.Start(ctx)
}

// listenAdvisory names every address the server is actually binding.
func listenAdvisory(cfg config.ServerConfig) string {
	addrs := make([]string, 0, 2)
	if cfg.WSAddr != "" {
		addrs = append(addrs, "ws "+cfg.WSAddr)
	}
	if cfg.TCPAddr != "" {
		addrs = append(addrs, "tcp "+cfg.TCPAddr)
	}
	return fmt.Sprintf("Server listening on %s", strings.Join(addrs, ", "))
}

func setupLogger(cfg config.LoggingConfig, debug bool) {
	level := cfg.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}

func printPorts() error {
	metas, err := serial.ListPorts()
	if err != nil {
		return err
	}
	for _, meta := range metas {
		desc := serial.Classify(meta, "", false)
		marker := " "
		if desc.Prefer {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s %s %s\n", marker, desc.Device, desc.Vendor, desc.VendorID, desc.ProductID)
	}
	return nil
}
