package hci

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Legacy advertising, Sections 7.8.5 to 7.8.9. Controllers without extended
// advertising only understand these.

const (
	// MaxLegacyAdvertisingDataLength is the size of the legacy advertising
	// data field.
	MaxLegacyAdvertisingDataLength = 31

	minLegacyAdvertisingInterval = 0x0020
	MaxLegacyAdvertisingInterval = 0x4000
)

type AdvertisingType uint8

const (
	AdvertisingTypeConnectableAndScannableUndirectedAdvertising AdvertisingType = 0x00
	AdvertisingTypeScannableUndirectedAdvertising               AdvertisingType = 0x02
	AdvertisingTypeNonConnectableUndirectedAdvertising          AdvertisingType = 0x03
)

type AdvertisingChannelMap uint8

const AdvertisingChannelMapDefault AdvertisingChannelMap = 0x07

type AdvertisingFilterPolicy uint8

type HCILESetAdvertisingParametersCommandPacket struct {
	AdvertisingIntervalMin  uint16
	AdvertisingIntervalMax  uint16
	AdvertisingType         AdvertisingType
	OwnAddressType          OwnAddressType
	PeerAddressType         PeerAddressType
	PeerAddress             BDAddr
	AdvertisingChannelMap   AdvertisingChannelMap
	AdvertisingFilterPolicy AdvertisingFilterPolicy
}

func (p *HCILESetAdvertisingParametersCommandPacket) Marshal() ([]byte, error) {
	buf := newCommand(OpcodeLESetAdvertisingParameters, 15)
	params := buf[4:]
	binary.LittleEndian.PutUint16(params[0:], p.AdvertisingIntervalMin)
	binary.LittleEndian.PutUint16(params[2:], p.AdvertisingIntervalMax)
	params[4] = byte(p.AdvertisingType)
	params[5] = byte(p.OwnAddressType)
	params[6] = byte(p.PeerAddressType)
	copy(params[7:13], p.PeerAddress[:])
	params[13] = byte(p.AdvertisingChannelMap)
	params[14] = byte(p.AdvertisingFilterPolicy)
	return buf, nil
}

func (p *HCILESetAdvertisingParametersCommandPacket) Unmarshal(buf []byte) error {
	params, err := commandParameters(buf, OpcodeLESetAdvertisingParameters, 15)
	if err != nil {
		return err
	}
	p.AdvertisingIntervalMin = binary.LittleEndian.Uint16(params[0:])
	p.AdvertisingIntervalMax = binary.LittleEndian.Uint16(params[2:])
	p.AdvertisingType = AdvertisingType(params[4])
	p.OwnAddressType = OwnAddressType(params[5])
	p.PeerAddressType = PeerAddressType(params[6])
	copy(p.PeerAddress[:], params[7:13])
	p.AdvertisingChannelMap = AdvertisingChannelMap(params[13])
	p.AdvertisingFilterPolicy = AdvertisingFilterPolicy(params[14])
	return nil
}

func (p *HCILESetAdvertisingParametersCommandPacket) Opcode() Opcode {
	return OpcodeLESetAdvertisingParameters
}

// LESetAdvertisingParameters configures legacy advertising. A zero interval
// max follows the min, a zero channel map selects all three channels.
func (a *Adapter) LESetAdvertisingParameters(p HCILESetAdvertisingParametersCommandPacket) error {
	if p.AdvertisingIntervalMin == 0 {
		p.AdvertisingIntervalMin = 0x0800
	}
	if p.AdvertisingIntervalMax == 0 {
		p.AdvertisingIntervalMax = p.AdvertisingIntervalMin
	}
	if p.AdvertisingIntervalMin < minLegacyAdvertisingInterval || p.AdvertisingIntervalMin > MaxLegacyAdvertisingInterval {
		return errors.New("invalid advertising interval min")
	}
	if p.AdvertisingIntervalMax < p.AdvertisingIntervalMin || p.AdvertisingIntervalMax > MaxLegacyAdvertisingInterval {
		return errors.New("invalid advertising interval max")
	}
	if p.AdvertisingChannelMap == 0 {
		p.AdvertisingChannelMap = AdvertisingChannelMapDefault
	}
	_, err := a.op(&p)
	return err
}

type HCISetAdvertisingDataCommandPacket struct {
	AdvertisingData []byte
}

func (p *HCISetAdvertisingDataCommandPacket) Marshal() ([]byte, error) {
	if len(p.AdvertisingData) > MaxLegacyAdvertisingDataLength {
		return nil, fmt.Errorf("%w: %d bytes exceeds legacy limit of %d", ErrAdvertisingDataTooLong, len(p.AdvertisingData), MaxLegacyAdvertisingDataLength)
	}
	// the parameter is always 32 bytes, unused octets are zero.
	buf := newCommand(OpcodeSetAdvertisingData, 1+MaxLegacyAdvertisingDataLength)
	buf[4] = byte(len(p.AdvertisingData))
	copy(buf[5:], p.AdvertisingData)
	return buf, nil
}

func (p *HCISetAdvertisingDataCommandPacket) Unmarshal(buf []byte) error {
	params, err := commandParameters(buf, OpcodeSetAdvertisingData, 1+MaxLegacyAdvertisingDataLength)
	if err != nil {
		return err
	}
	n := int(params[0])
	if n > MaxLegacyAdvertisingDataLength {
		return ErrAdvertisingDataTooLong
	}
	p.AdvertisingData = append([]byte(nil), params[1:1+n]...)
	return nil
}

func (p *HCISetAdvertisingDataCommandPacket) Opcode() Opcode {
	return OpcodeSetAdvertisingData
}

func (a *Adapter) SetAdvertisingData(data ...DataType) error {
	ads, err := MarshalAdvertisingData(data...)
	if err != nil {
		return err
	}
	_, err = a.op(&HCISetAdvertisingDataCommandPacket{AdvertisingData: ads})
	return err
}

type LESetAdvertisingEnableCommandPacket struct {
	AdvertisingEnable bool
}

func (p *LESetAdvertisingEnableCommandPacket) Marshal() ([]byte, error) {
	buf := newCommand(OpcodeLESetAdvertisingEnable, 1)
	if p.AdvertisingEnable {
		buf[4] = 1
	}
	return buf, nil
}

func (p *LESetAdvertisingEnableCommandPacket) Unmarshal(buf []byte) error {
	params, err := commandParameters(buf, OpcodeLESetAdvertisingEnable, 1)
	if err != nil {
		return err
	}
	p.AdvertisingEnable = params[0] == 1
	return nil
}

func (p *LESetAdvertisingEnableCommandPacket) Opcode() Opcode {
	return OpcodeLESetAdvertisingEnable
}

func (a *Adapter) LESetAdvertisingEnable(enable bool) error {
	_, err := a.op(&LESetAdvertisingEnableCommandPacket{AdvertisingEnable: enable})
	return err
}
