package packet

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWithEnvelope_StampsCopy(t *testing.T) {
	original := NewData("12.345 g")

	stamped := original.WithEnvelope(7, "ws-abc")

	data, ok := stamped.(Data)
	if !ok {
		t.Fatalf("Expected Data packet, got %T", stamped)
	}
	if data.Sequence != 7 {
		t.Errorf("Expected sequence 7, got %d", data.Sequence)
	}
	if data.ConnectionID != "ws-abc" {
		t.Errorf("Expected connectionId ws-abc, got %s", data.ConnectionID)
	}
	if data.Data != "12.345 g" {
		t.Errorf("Expected payload to be preserved, got %s", data.Data)
	}

	// The original must not be mutated: the same broadcast packet is
	// stamped independently for every connection.
	if original.Sequence != 0 || original.ConnectionID != "" {
		t.Errorf("Expected original to be unmodified, got sequence=%d connectionId=%q",
			original.Sequence, original.ConnectionID)
	}
}

func TestStatus_MarshalsDisconnected(t *testing.T) {
	pkt := NewStatus(false, "")

	raw, err := json.Marshal(pkt.WithEnvelope(1, "tcp-1"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded["packetType"] != float64(TypeStatus) {
		t.Errorf("Expected packetType %d, got %v", TypeStatus, decoded["packetType"])
	}
	if connected, ok := decoded["connected"]; !ok || connected != false {
		t.Errorf("Expected connected:false to be present, got %v (present=%v)", connected, ok)
	}
	if decoded["sequence"] != float64(1) {
		t.Errorf("Expected sequence 1, got %v", decoded["sequence"])
	}
	if decoded["connectionId"] != "tcp-1" {
		t.Errorf("Expected connectionId tcp-1, got %v", decoded["connectionId"])
	}
}

func TestNewError_Fields(t *testing.T) {
	pkt := NewError("device or resource busy", "Failed to open serial port.")

	if pkt.Type != TypeError {
		t.Errorf("Expected type %d, got %d", TypeError, pkt.Type)
	}
	if pkt.Error != "device or resource busy" {
		t.Errorf("Unexpected error field: %s", pkt.Error)
	}
	if pkt.Message != "Failed to open serial port." {
		t.Errorf("Unexpected message field: %s", pkt.Message)
	}
}

func TestDecodeCommand_Valid(t *testing.T) {
	raw := []byte(`{"packetType":3,"command":"connect","device":"/dev/ttyUSB0"}`)

	cmd, err := DecodeCommand(raw)
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if cmd.Command != CommandConnect {
		t.Errorf("Expected command connect, got %s", cmd.Command)
	}
	if cmd.Device != "/dev/ttyUSB0" {
		t.Errorf("Expected device /dev/ttyUSB0, got %s", cmd.Device)
	}
}

func TestDecodeCommand_MalformedJSON(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"packetType":3,`))
	if err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestDecodeCommand_NotACommand(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"packetType":11,"data":"1.0 g"}`))
	if err == nil {
		t.Fatal("Expected error for non-command packet")
	}
	if !strings.Contains(err.Error(), "not a command") {
		t.Errorf("Expected 'not a command' in error, got %v", err)
	}
}

func TestCommand_OmitsEmptyOptionalFields(t *testing.T) {
	raw, err := json.Marshal(NewCommand(CommandStatus))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(raw), `"device"`) {
		t.Errorf("Expected empty device to be omitted, got %s", raw)
	}
	if strings.Contains(string(raw), `"data"`) {
		t.Errorf("Expected empty data to be omitted, got %s", raw)
	}
}
