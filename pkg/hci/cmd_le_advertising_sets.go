package hci

import (
	"encoding/binary"
	"io"
)

// LEReadMaximumAdvertisingDataLength returns the largest advertising data
// the controller accepts for one set.
func (a *Adapter) LEReadMaximumAdvertisingDataLength() (uint16, error) {
	buf, err := a.op(NewGenericCommandPacket(OpcodeLEReadMaximumAdvertisingDataLength))
	if err != nil {
		return 0, err
	}
	if len(buf) < 2 {
		return 0, io.ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// LEReadNumberOfSupportedAdvertisingSets fails with StatusUnknownCommand on
// controllers that only support legacy advertising.
func (a *Adapter) LEReadNumberOfSupportedAdvertisingSets() (uint8, error) {
	buf, err := a.op(NewGenericCommandPacket(OpcodeLEReadNumberOfSupportedAdvertisingSet))
	if err != nil {
		return 0, err
	}
	if len(buf) < 1 {
		return 0, io.ErrShortBuffer
	}
	return buf[0], nil
}

type HCILERemoveAdvertisingSetCommandPacket struct {
	AdvertisingHandle AdvertisingHandle
}

func (p *HCILERemoveAdvertisingSetCommandPacket) Marshal() ([]byte, error) {
	buf := newCommand(OpcodeLERemoveAdvertisingSet, 1)
	buf[4] = byte(p.AdvertisingHandle)
	return buf, nil
}

func (p *HCILERemoveAdvertisingSetCommandPacket) Unmarshal(buf []byte) error {
	params, err := commandParameters(buf, OpcodeLERemoveAdvertisingSet, 1)
	if err != nil {
		return err
	}
	p.AdvertisingHandle = AdvertisingHandle(params[0])
	return nil
}

func (p *HCILERemoveAdvertisingSetCommandPacket) Opcode() Opcode {
	return OpcodeLERemoveAdvertisingSet
}

func (a *Adapter) LERemoveAdvertisingSet(handle AdvertisingHandle) error {
	_, err := a.op(&HCILERemoveAdvertisingSetCommandPacket{AdvertisingHandle: handle})
	return err
}

func (a *Adapter) LEClearAdvertisingSets() error {
	_, err := a.op(NewGenericCommandPacket(OpcodeLEClearAdvertisingSets))
	return err
}
