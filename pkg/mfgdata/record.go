// Package mfgdata encodes battery pack telemetry into the 22-byte
// manufacturer specific data record broadcast by the pack.
//
// Layout, multi-byte fields least significant byte first:
//
//	0-1   company identifier
//	2     protocol identifier
//	3     product identifier
//	4-8   serial number (40 bits)
//	9     BMS operation mode
//	10    state of health
//	11-14 runtime discharge counter
//	15    battery history
//	16    connector status
//	17-18 latest tool id
//	19    state of charge
//	20-21 firmware version
package mfgdata

import (
	"encoding/binary"
	"fmt"
)

const (
	CompanyID  uint16 = 0x03DD
	ProtocolID uint8  = 0x06
	ProductID  uint8  = 0x05

	// RecordLength is the encoded size including the company identifier.
	RecordLength = 22
)

// Field offsets within a Record. The layout is fixed by the receiving apps.
const (
	offsetCompanyID        = 0
	offsetProtocolID       = 2
	offsetProductID        = 3
	offsetSerialNumber     = 4
	offsetBMSMode          = 9
	offsetStateOfHealth    = 10
	offsetDischargeCounter = 11
	offsetBatteryHistory   = 15
	offsetConnectorStatus  = 16
	offsetLatestToolID     = 17
	offsetStateOfCharge    = 19
	offsetFirmwareVersion  = 20

	serialNumberWidth = 5
)

// MaxSerialNumber is the largest serial number that survives encoding.
const MaxSerialNumber uint64 = 1<<(8*serialNumberWidth) - 1

// BMSMode is the battery management system operating mode.
type BMSMode uint8

// Fields holds the variable part of a record. Values wider than their field
// are truncated when encoded.
type Fields struct {
	SerialNumber     uint64
	BMSMode          BMSMode
	StateOfHealth    uint8
	DischargeCounter uint32
	BatteryHistory   uint8
	ConnectorStatus  uint8
	LatestToolID     uint16
	StateOfCharge    uint8
	FirmwareVersion  uint16
}

// Record is an encoded manufacturer data record. It is a value: encoding
// always produces a fresh copy.
type Record [RecordLength]byte

// Encode writes f at the fixed offsets. It cannot fail.
func Encode(f Fields) Record {
	var r Record
	binary.LittleEndian.PutUint16(r[offsetCompanyID:], CompanyID)
	r[offsetProtocolID] = ProtocolID
	r[offsetProductID] = ProductID

	var serial [8]byte
	binary.LittleEndian.PutUint64(serial[:], f.SerialNumber)
	copy(r[offsetSerialNumber:offsetSerialNumber+serialNumberWidth], serial[:serialNumberWidth])

	r[offsetBMSMode] = byte(f.BMSMode)
	r[offsetStateOfHealth] = f.StateOfHealth
	binary.LittleEndian.PutUint32(r[offsetDischargeCounter:], f.DischargeCounter)
	r[offsetBatteryHistory] = f.BatteryHistory
	r[offsetConnectorStatus] = f.ConnectorStatus
	binary.LittleEndian.PutUint16(r[offsetLatestToolID:], f.LatestToolID)
	r[offsetStateOfCharge] = f.StateOfCharge
	binary.LittleEndian.PutUint16(r[offsetFirmwareVersion:], f.FirmwareVersion)
	return r
}

// CompanyID returns the identifier stored in the first two bytes.
func (r Record) CompanyID() uint16 {
	return binary.LittleEndian.Uint16(r[offsetCompanyID:])
}

// Payload returns the bytes following the company identifier, the part a
// host stack expects when it writes the identifier itself.
func (r Record) Payload() []byte {
	return append([]byte(nil), r[offsetProtocolID:]...)
}

// Fields decodes the variable part of the record.
func (r Record) Fields() Fields {
	var serial [8]byte
	copy(serial[:], r[offsetSerialNumber:offsetSerialNumber+serialNumberWidth])
	return Fields{
		SerialNumber:     binary.LittleEndian.Uint64(serial[:]),
		BMSMode:          BMSMode(r[offsetBMSMode]),
		StateOfHealth:    r[offsetStateOfHealth],
		DischargeCounter: binary.LittleEndian.Uint32(r[offsetDischargeCounter:]),
		BatteryHistory:   r[offsetBatteryHistory],
		ConnectorStatus:  r[offsetConnectorStatus],
		LatestToolID:     binary.LittleEndian.Uint16(r[offsetLatestToolID:]),
		StateOfCharge:    r[offsetStateOfCharge],
		FirmwareVersion:  binary.LittleEndian.Uint16(r[offsetFirmwareVersion:]),
	}
}

// MarshalBinary returns a copy of the record bytes.
func (r Record) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), r[:]...), nil
}

// UnmarshalBinary accepts a record received from a scanner. It checks the
// fixed header so foreign manufacturer data is rejected.
func (r *Record) UnmarshalBinary(buf []byte) error {
	if len(buf) != RecordLength {
		return fmt.Errorf("mfgdata: record is %d bytes, want %d", len(buf), RecordLength)
	}
	if id := binary.LittleEndian.Uint16(buf[offsetCompanyID:]); id != CompanyID {
		return fmt.Errorf("mfgdata: company id 0x%04x, want 0x%04x", id, CompanyID)
	}
	if buf[offsetProtocolID] != ProtocolID {
		return fmt.Errorf("mfgdata: protocol id 0x%02x, want 0x%02x", buf[offsetProtocolID], ProtocolID)
	}
	copy(r[:], buf)
	return nil
}

// Decode parses buf into Fields.
func Decode(buf []byte) (Fields, error) {
	var r Record
	if err := r.UnmarshalBinary(buf); err != nil {
		return Fields{}, err
	}
	return r.Fields(), nil
}

// String is the record in uppercase hex.
func (r Record) String() string {
	return fmt.Sprintf("%X", r[:])
}
