package hci

import (
	"fmt"
	"io"
)

// Section 7.8.54
type AdvertisingDataOperation uint8

const (
	AdvertisingDataOperationIntermediateFragment AdvertisingDataOperation = 0x00
	AdvertisingDataOperationFirstFragment        AdvertisingDataOperation = 0x01
	AdvertisingDataOperationLastFragment         AdvertisingDataOperation = 0x02
	AdvertisingDataOperationComplete             AdvertisingDataOperation = 0x03
	AdvertisingDataOperationUnchanged            AdvertisingDataOperation = 0x04
)

type FragmentPreference uint8

const (
	FragmentPreferenceMayFragment       FragmentPreference = 0x00
	FragmentPreferenceShouldNotFragment FragmentPreference = 0x01
)

const (
	// MaxExtendedAdvertisingDataFragment is the most data one command carries.
	MaxExtendedAdvertisingDataFragment = 251
	// MaxExtendedAdvertisingDataLength is the largest advertising data any
	// controller may accept, Vol 6, Part B, Section 2.3.4.9.
	MaxExtendedAdvertisingDataLength = 1650
)

type HCILESetExtendedAdvertisingDataCommandPacket struct {
	AdvertisingHandle  AdvertisingHandle
	Operation          AdvertisingDataOperation
	FragmentPreference FragmentPreference
	AdvertisingData    []byte
}

func (p *HCILESetExtendedAdvertisingDataCommandPacket) Marshal() ([]byte, error) {
	if len(p.AdvertisingData) > MaxExtendedAdvertisingDataFragment {
		return nil, io.ErrShortWrite
	}
	buf := newCommand(OpcodeLESetExtendedAdvertisingData, 4+len(p.AdvertisingData))
	buf[4] = byte(p.AdvertisingHandle)
	buf[5] = byte(p.Operation)
	buf[6] = byte(p.FragmentPreference)
	buf[7] = byte(len(p.AdvertisingData))
	copy(buf[8:], p.AdvertisingData)
	return buf, nil
}

func (p *HCILESetExtendedAdvertisingDataCommandPacket) Unmarshal(buf []byte) error {
	if len(buf) < 8 || len(buf) != int(buf[7])+8 {
		return io.ErrShortBuffer
	}
	if _, err := commandParameters(buf, OpcodeLESetExtendedAdvertisingData, len(buf)-4); err != nil {
		return err
	}
	p.AdvertisingHandle = AdvertisingHandle(buf[4])
	p.Operation = AdvertisingDataOperation(buf[5])
	p.FragmentPreference = FragmentPreference(buf[6])
	p.AdvertisingData = buf[8:]
	return nil
}

func (p *HCILESetExtendedAdvertisingDataCommandPacket) Opcode() Opcode {
	return OpcodeLESetExtendedAdvertisingData
}

// LESetExtendedAdvertisingData replaces the advertising data of the set.
// Data longer than one command is sent as first, intermediate and last
// fragments; controllers reject fragmented writes to an enabled set.
func (a *Adapter) LESetExtendedAdvertisingData(handle AdvertisingHandle, data ...DataType) error {
	ads, err := MarshalAdvertisingData(data...)
	if err != nil {
		return err
	}
	if len(ads) > MaxExtendedAdvertisingDataLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrAdvertisingDataTooLong, len(ads), MaxExtendedAdvertisingDataLength)
	}
	if len(ads) <= MaxExtendedAdvertisingDataFragment {
		_, err := a.op(&HCILESetExtendedAdvertisingDataCommandPacket{
			AdvertisingHandle:  handle,
			Operation:          AdvertisingDataOperationComplete,
			FragmentPreference: FragmentPreferenceShouldNotFragment,
			AdvertisingData:    ads,
		})
		return err
	}
	for i := 0; i < len(ads); i += MaxExtendedAdvertisingDataFragment {
		j := i + MaxExtendedAdvertisingDataFragment
		if j > len(ads) {
			j = len(ads)
		}

		op := AdvertisingDataOperationIntermediateFragment
		switch {
		case i == 0:
			op = AdvertisingDataOperationFirstFragment
		case j == len(ads):
			op = AdvertisingDataOperationLastFragment
		}

		if _, err := a.op(&HCILESetExtendedAdvertisingDataCommandPacket{
			AdvertisingHandle:  handle,
			Operation:          op,
			FragmentPreference: FragmentPreferenceMayFragment,
			AdvertisingData:    ads[i:j],
		}); err != nil {
			return err
		}
	}
	return nil
}
