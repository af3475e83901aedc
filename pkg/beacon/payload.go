package beacon

import (
	"errors"
	"fmt"

	"github.com/muxable/packbeacon/pkg/hci"
	"github.com/muxable/packbeacon/pkg/mfgdata"
)

// ErrPayloadTooLarge is returned when the composed advertising data does not
// fit the advertising data length available.
var ErrPayloadTooLarge = errors.New("beacon: payload too large")

// Payload is everything placed in the advertising data of the set.
type Payload struct {
	Record       mfgdata.Record
	LocalName    string
	ServiceUUIDs []uint16
	Flags        hci.FlagsDataType
}

// DataTypes returns the AD structures in broadcast order: flags, manufacturer
// data, local name, service UUIDs. Empty optional fields are left out.
func (p Payload) DataTypes() []hci.DataType {
	var data []hci.DataType
	if p.Flags != 0 {
		data = append(data, p.Flags)
	}
	data = append(data, hci.ManufacturerSpecificData{
		CompanyID: p.Record.CompanyID(),
		Data:      p.Record.Payload(),
	})
	if p.LocalName != "" {
		data = append(data, hci.CompleteLocalName(p.LocalName))
	}
	if len(p.ServiceUUIDs) > 0 {
		data = append(data, hci.IncompleteServiceUUID16List(p.ServiceUUIDs))
	}
	return data
}

// AdvertisingData encodes the payload and checks it against max bytes.
func (p Payload) AdvertisingData(max int) ([]byte, error) {
	buf, err := hci.MarshalAdvertisingData(p.DataTypes()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadTooLarge, err)
	}
	if len(buf) > max {
		return nil, fmt.Errorf("%w: %d bytes of advertising data, limit %d", ErrPayloadTooLarge, len(buf), max)
	}
	return buf, nil
}

// MaxLocalNameLength returns the longest local name that still fits next to
// the manufacturer data within max bytes, or -1 if nothing fits.
func (p Payload) MaxLocalNameLength(max int) int {
	q := p
	q.LocalName = ""
	buf, err := hci.MarshalAdvertisingData(q.DataTypes()...)
	if err != nil {
		return -1
	}
	n := max - len(buf) - 2
	if n > hci.MaxADStructureDataLength {
		n = hci.MaxADStructureDataLength
	}
	if n < 0 {
		return -1
	}
	return n
}
