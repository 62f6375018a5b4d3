package serial

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ListPorts enumerates the serial devices attached to the machine,
// preserving the order the platform reports them in.
func ListPorts() ([]PortMetadata, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerating serial ports: %w", err)
	}

	metas := make([]PortMetadata, 0, len(ports))
	for _, port := range ports {
		metas = append(metas, metadataFromPort(port))
	}
	return metas, nil
}

func metadataFromPort(port *enumerator.PortDetails) PortMetadata {
	meta := PortMetadata{
		Device:       port.Name,
		SerialNumber: port.SerialNumber,
	}
	if port.IsUSB {
		// The enumerator reports the USB product string, which is the
		// closest thing to a manufacturer name it exposes.
		meta.Manufacturer = port.Product
		meta.VendorID = normalizeUSBID(port.VID)
		meta.ProductID = normalizeUSBID(port.PID)
	}
	return meta
}

// normalizeUSBID renders a USB id as a lowercased 0x-prefixed hex string.
func normalizeUSBID(id string) string {
	if id == "" {
		return ""
	}
	return "0x" + strings.TrimPrefix(strings.ToLower(id), "0x")
}
