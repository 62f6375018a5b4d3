package packetlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starforgelabs/balance-server-2/packet"
)

// Webhook posts Slack-style attachment messages to a webhook URL, one per
// packet, color-coded by packet type.
type Webhook struct {
	url    string
	name   string
	client *http.Client
}

type message struct {
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Color     string  `json:"color,omitempty"`
	Fields    []field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}

// NewWebhook creates a webhook logger. name becomes the posting username.
func NewWebhook(url, name string) *Webhook {
	return &Webhook{
		url:  url,
		name: name,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *Webhook) Log(pkt packet.Packet) {
	msg, ok := w.render(pkt)
	if !ok {
		return
	}
	go w.send(msg)
}

func (w *Webhook) render(pkt packet.Packet) (message, bool) {
	switch p := pkt.(type) {
	case packet.Command:
		value := strings.TrimSpace(fmt.Sprintf("%s %s%s", p.Command, p.Device, p.Data))
		return w.single("#f80", "Command", value, p.Envelope), true

	case packet.Data:
		return w.single("#0f0", "Data", p.Data, p.Envelope), true

	case packet.Error:
		return w.single("#f00", "Error", fmt.Sprintf("%s - %s", p.Message, p.Error), p.Envelope), true

	case packet.Miscellaneous:
		return w.single("#ff0", "Miscellaneous", p.Message, p.Envelope), true

	case packet.Status:
		color, state := "#044", "Disconnected"
		if p.Connected {
			color, state = "#0ff", "Connected: "+p.Device
		}
		return w.single(color, "Status", state, p.Envelope), true

	case packet.List:
		attachments := make([]attachment, 0, len(p.List))
		for _, d := range p.List {
			color := "#404"
			if d.Prefer {
				color = "#f0f"
			}
			state := ""
			if d.Connected {
				state = " (Connected) "
			}
			vendor := strings.TrimSpace(fmt.Sprintf("%s %s %s", d.Vendor, d.VendorID, d.ProductID))
			attachments = append(attachments, attachment{
				Color:  color,
				Fields: []field{{Title: d.Device, Value: "`" + state + vendor + "`"}},
				Footer: footer(p.Envelope),
			})
		}
		return message{Username: w.name, Text: "List", Attachments: attachments}, true
	}

	return message{}, false
}

func (w *Webhook) single(color, title, value string, env packet.Envelope) message {
	return message{
		Username: w.name,
		Attachments: []attachment{{
			Color:     color,
			Fields:    []field{{Title: title, Value: "`" + value + "`"}},
			Footer:    footer(env),
			Timestamp: time.Now().Unix(),
		}},
	}
}

// footer attributes a packet to its connection and sequence number.
func footer(env packet.Envelope) string {
	if env.ConnectionID == "" {
		return ""
	}
	return fmt.Sprintf("%s #%d", env.ConnectionID, env.Sequence)
}

func (w *Webhook) send(msg message) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal webhook message", "error", err)
		return
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Warn("webhook delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("webhook returned non-OK status", "status", resp.StatusCode)
	}
}
