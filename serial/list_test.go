package serial

import (
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestMetadataFromPort(t *testing.T) {
	tests := []struct {
		name string
		port *enumerator.PortDetails
		want PortMetadata
	}{
		{
			name: "usb device carries vendor name and ids",
			port: &enumerator.PortDetails{
				Name:         "/dev/ttyUSB0",
				IsUSB:        true,
				VID:          "0403",
				PID:          "6001",
				SerialNumber: "FT1234",
				Product:      "FT232R USB UART",
			},
			want: PortMetadata{
				Device:       "/dev/ttyUSB0",
				Manufacturer: "FT232R USB UART",
				SerialNumber: "FT1234",
				VendorID:     "0x0403",
				ProductID:    "0x6001",
			},
		},
		{
			name: "non-usb device has no usb fields",
			port: &enumerator.PortDetails{
				Name:    "/dev/ttyS0",
				Product: "ignored for non-usb ports",
			},
			want: PortMetadata{Device: "/dev/ttyS0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metadataFromPort(tt.port)
			if got != tt.want {
				t.Errorf("metadataFromPort() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMetadataFromPort_VendorFlowsToClassifier(t *testing.T) {
	meta := metadataFromPort(&enumerator.PortDetails{
		Name:    "/dev/ttyUSB0",
		IsUSB:   true,
		VID:     "0403",
		PID:     "6001",
		Product: "FT232R USB UART",
	})

	desc := Classify(meta, "", false)
	if desc.Vendor != "FT232R USB UART" {
		t.Errorf("Expected vendor to reach the descriptor, got %q", desc.Vendor)
	}
	if !desc.Prefer {
		t.Error("Expected FTDI device to be preferred")
	}
}
