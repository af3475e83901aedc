package hci

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrAdvertisingDataTooLong is returned when an AD structure or a complete
// advertising data field does not fit its length field.
var ErrAdvertisingDataTooLong = errors.New("hci: advertising data too long")

// ADType is the type octet of an AD structure, Assigned Numbers 2.3.
type ADType uint8

const (
	ADTypeFlags                    ADType = 0x01
	ADTypeIncompleteServiceUUID16  ADType = 0x02
	ADTypeCompleteServiceUUID16    ADType = 0x03
	ADTypeShortLocalName           ADType = 0x08
	ADTypeCompleteLocalName        ADType = 0x09
	ADTypeManufacturerSpecificData ADType = 0xFF
)

// MaxADStructureDataLength is the largest payload one AD structure can carry:
// the 8-bit length field also counts the type octet.
const MaxADStructureDataLength = math.MaxUint8 - 1

// Blueooth Core Specification
type DataType interface {
	Marshal() ([]byte, error)
}

// MarshalAdvertisingData concatenates the AD structures in order.
func MarshalAdvertisingData(data ...DataType) ([]byte, error) {
	var ads []byte
	for _, d := range data {
		ad, err := d.Marshal()
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad...)
	}
	return ads, nil
}

func marshalAD(t ADType, payload []byte) ([]byte, error) {
	if len(payload) > MaxADStructureDataLength {
		return nil, fmt.Errorf("%w: ad type 0x%02x carries %d bytes, max %d", ErrAdvertisingDataTooLong, uint8(t), len(payload), MaxADStructureDataLength)
	}
	buf := make([]byte, 2+len(payload))
	buf[0] = byte(len(payload) + 1)
	buf[1] = byte(t)
	copy(buf[2:], payload)
	return buf, nil
}

type FlagsDataType uint8

const (
	FlagsDataTypeLELimitedDiscoverableMode                           FlagsDataType = (1 << 0)
	FlagsDataTypeLEGeneralDiscoverableMode                           FlagsDataType = (1 << 1)
	FlagsDataTypeBREDRNotSupported                                   FlagsDataType = (1 << 2)
	FlagsDataTypeSimultaneousLEAndBREDRTosameDeviceCapableController FlagsDataType = (1 << 3)
)

func (f FlagsDataType) Marshal() ([]byte, error) {
	return []byte{0x02, byte(ADTypeFlags), byte(f)}, nil
}

type CompleteLocalName string

func (l CompleteLocalName) Marshal() ([]byte, error) {
	return marshalAD(ADTypeCompleteLocalName, []byte(l))
}

type ShortLocalName string

func (l ShortLocalName) Marshal() ([]byte, error) {
	return marshalAD(ADTypeShortLocalName, []byte(l))
}

// IncompleteServiceUUID16List advertises some of the 16-bit service UUIDs the
// device exposes.
type IncompleteServiceUUID16List []uint16

func (l IncompleteServiceUUID16List) Marshal() ([]byte, error) {
	buf := make([]byte, 2*len(l))
	for i, u := range l {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return marshalAD(ADTypeIncompleteServiceUUID16, buf)
}

// ManufacturerSpecificData is written as the company identifier, low octet
// first, followed by Data.
type ManufacturerSpecificData struct {
	CompanyID uint16
	Data      []byte
}

func (m ManufacturerSpecificData) Marshal() ([]byte, error) {
	buf := make([]byte, 2+len(m.Data))
	binary.LittleEndian.PutUint16(buf, m.CompanyID)
	copy(buf[2:], m.Data)
	return marshalAD(ADTypeManufacturerSpecificData, buf)
}

// RawAD is an AD structure payload that is already encoded, including any
// company identifier.
type RawAD struct {
	Type ADType
	Data []byte
}

func (r RawAD) Marshal() ([]byte, error) {
	return marshalAD(r.Type, r.Data)
}
