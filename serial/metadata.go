// Package serial owns the hardware side of the balance server: the
// connection state machine, the serial driver, and device enumeration.
package serial

import (
	"regexp"

	"github.com/starforgelabs/balance-server-2/packet"
)

// PortMetadata is the raw enumeration record for one attached serial
// device. All fields are optional except Device.
type PortMetadata struct {
	Device       string
	Manufacturer string
	SerialNumber string
	PnpID        string
	LocationID   string
	VendorID     string
	ProductID    string
}

// FTDI adapters are the usual interface chip for an Ohaus balance, so a
// matching vendor id marks a device as the preferred connection target.
var (
	ftdiVendorPattern = regexp.MustCompile(`(?i)0403`)
	ftdiPnpPattern    = regexp.MustCompile(`(?i)VID_0403`)
)

const ftdiVendorID = "0x0403"

// Classify maps raw enumerated metadata to the client-facing descriptor.
// Connected is computed against the broker's live state at call time;
// Prefer is the FTDI heuristic, with a fallback derived from the PNP id
// when the vendor id is absent. Pure and total.
func Classify(meta PortMetadata, openDevice string, isOpen bool) packet.DeviceDescriptor {
	vendorID := meta.VendorID
	if vendorID == "" && meta.PnpID != "" && ftdiPnpPattern.MatchString(meta.PnpID) {
		vendorID = ftdiVendorID
	}

	return packet.DeviceDescriptor{
		Device:    meta.Device,
		Vendor:    meta.Manufacturer,
		VendorID:  vendorID,
		ProductID: meta.ProductID,
		Connected: meta.Device == openDevice && isOpen,
		Prefer:    vendorID != "" && ftdiVendorPattern.MatchString(vendorID),
	}
}
