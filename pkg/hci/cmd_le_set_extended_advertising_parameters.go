package hci

import (
	"encoding/binary"
	"errors"
	"io"
)

// Section 7.8.53
type AdvertisingEventProperties uint16

const (
	AdvertisingEventPropertyConnectable           AdvertisingEventProperties = (1 << 0)
	AdvertisingEventPropertyScannable             AdvertisingEventProperties = (1 << 1)
	AdvertisingEventPropertyDirected              AdvertisingEventProperties = (1 << 2)
	AdvertisingEventPropertyHighDutyCycleDirected AdvertisingEventProperties = (1 << 3)
	AdvertisingEventPropertyUseLegacyPDUs         AdvertisingEventProperties = (1 << 4)
	AdvertisingEventPropertyAnonymous             AdvertisingEventProperties = (1 << 5)
	AdvertisingEventPropertyIncludeTxPower        AdvertisingEventProperties = (1 << 6)
)

type PHY uint8

const (
	PHYLE1M    PHY = 0x01
	PHYLE2M    PHY = 0x02
	PHYLECoded PHY = 0x03
)

// TxPowerNoPreference lets the controller choose the transmit power.
const TxPowerNoPreference int8 = 0x7F

const (
	minExtendedAdvertisingInterval = 0x000020
	maxExtendedAdvertisingInterval = 0xFFFFFF
	maxAdvertisingSID              = 0x0F
)

type HCILESetExtendedAdvertisingParametersCommandPacket struct {
	AdvertisingHandle             AdvertisingHandle
	AdvertisingEventProperties    AdvertisingEventProperties
	PrimaryAdvertisingIntervalMin uint32
	PrimaryAdvertisingIntervalMax uint32
	PrimaryAdvertisingChannelMap  AdvertisingChannelMap
	OwnAddressType                OwnAddressType
	PeerAddressType               PeerAddressType
	PeerAddress                   BDAddr
	AdvertisingFilterPolicy       AdvertisingFilterPolicy
	AdvertisingTxPower            int8
	PrimaryAdvertisingPHY         PHY
	SecondaryAdvertisingMaxSkip   uint8
	SecondaryAdvertisingPHY       PHY
	AdvertisingSID                uint8
	ScanRequestNotificationEnable bool
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func (p *HCILESetExtendedAdvertisingParametersCommandPacket) Marshal() ([]byte, error) {
	buf := newCommand(OpcodeLESetExtendedAdvertisingParameters, 25)
	buf[4] = byte(p.AdvertisingHandle)
	binary.LittleEndian.PutUint16(buf[5:], uint16(p.AdvertisingEventProperties))
	putUint24(buf[7:], p.PrimaryAdvertisingIntervalMin)
	putUint24(buf[10:], p.PrimaryAdvertisingIntervalMax)
	buf[13] = byte(p.PrimaryAdvertisingChannelMap)
	buf[14] = byte(p.OwnAddressType)
	buf[15] = byte(p.PeerAddressType)
	copy(buf[16:22], p.PeerAddress[:])
	buf[22] = byte(p.AdvertisingFilterPolicy)
	buf[23] = byte(p.AdvertisingTxPower)
	buf[24] = byte(p.PrimaryAdvertisingPHY)
	buf[25] = p.SecondaryAdvertisingMaxSkip
	buf[26] = byte(p.SecondaryAdvertisingPHY)
	buf[27] = p.AdvertisingSID
	if p.ScanRequestNotificationEnable {
		buf[28] = 1
	}
	return buf, nil
}

func (p *HCILESetExtendedAdvertisingParametersCommandPacket) Unmarshal(buf []byte) error {
	if _, err := commandParameters(buf, OpcodeLESetExtendedAdvertisingParameters, 25); err != nil {
		return err
	}
	p.AdvertisingHandle = AdvertisingHandle(buf[4])
	p.AdvertisingEventProperties = AdvertisingEventProperties(binary.LittleEndian.Uint16(buf[5:]))
	p.PrimaryAdvertisingIntervalMin = uint24(buf[7:])
	p.PrimaryAdvertisingIntervalMax = uint24(buf[10:])
	p.PrimaryAdvertisingChannelMap = AdvertisingChannelMap(buf[13])
	p.OwnAddressType = OwnAddressType(buf[14])
	p.PeerAddressType = PeerAddressType(buf[15])
	copy(p.PeerAddress[:], buf[16:22])
	p.AdvertisingFilterPolicy = AdvertisingFilterPolicy(buf[22])
	p.AdvertisingTxPower = int8(buf[23])
	p.PrimaryAdvertisingPHY = PHY(buf[24])
	p.SecondaryAdvertisingMaxSkip = buf[25]
	p.SecondaryAdvertisingPHY = PHY(buf[26])
	p.AdvertisingSID = buf[27]
	p.ScanRequestNotificationEnable = buf[28] == 1
	return nil
}

func (p *HCILESetExtendedAdvertisingParametersCommandPacket) Opcode() Opcode {
	return OpcodeLESetExtendedAdvertisingParameters
}

// SetExtendedAdvertisingParametersRequest mirrors the command packet. Zero
// values for intervals, channel map, PHYs and TX power are replaced with
// defaults before sending.
type SetExtendedAdvertisingParametersRequest struct {
	AdvertisingHandle             AdvertisingHandle
	AdvertisingEventProperties    AdvertisingEventProperties
	PrimaryAdvertisingIntervalMin uint32
	PrimaryAdvertisingIntervalMax uint32
	PrimaryAdvertisingChannelMap  AdvertisingChannelMap
	OwnAddressType                OwnAddressType
	PeerAddressType               PeerAddressType
	PeerAddress                   BDAddr
	AdvertisingFilterPolicy       AdvertisingFilterPolicy
	AdvertisingTxPower            *int8
	PrimaryAdvertisingPHY         PHY
	SecondaryAdvertisingMaxSkip   uint8
	SecondaryAdvertisingPHY       PHY
	AdvertisingSID                uint8
}

// LESetExtendedAdvertisingParameters creates or reconfigures the advertising
// set and returns the TX power the controller selected, in dBm.
func (a *Adapter) LESetExtendedAdvertisingParameters(request *SetExtendedAdvertisingParametersRequest) (int8, error) {
	if request.AdvertisingHandle > MaxAdvertisingHandle {
		return 0, errors.New("invalid advertising handle")
	}
	if request.PrimaryAdvertisingIntervalMin == 0 {
		request.PrimaryAdvertisingIntervalMin = 0x0800
	}
	if request.PrimaryAdvertisingIntervalMin < minExtendedAdvertisingInterval || request.PrimaryAdvertisingIntervalMin > maxExtendedAdvertisingInterval {
		return 0, errors.New("invalid advertising interval min")
	}
	if request.PrimaryAdvertisingIntervalMax == 0 {
		request.PrimaryAdvertisingIntervalMax = request.PrimaryAdvertisingIntervalMin
	}
	if request.PrimaryAdvertisingIntervalMax < request.PrimaryAdvertisingIntervalMin || request.PrimaryAdvertisingIntervalMax > maxExtendedAdvertisingInterval {
		return 0, errors.New("invalid advertising interval max")
	}
	if request.AdvertisingSID > maxAdvertisingSID {
		return 0, errors.New("invalid advertising sid")
	}
	if request.PrimaryAdvertisingChannelMap == 0 {
		request.PrimaryAdvertisingChannelMap = AdvertisingChannelMapDefault
	}
	if request.PrimaryAdvertisingPHY == 0 {
		request.PrimaryAdvertisingPHY = PHYLE1M
	}
	if request.SecondaryAdvertisingPHY == 0 {
		request.SecondaryAdvertisingPHY = PHYLE1M
	}
	txPower := TxPowerNoPreference
	if request.AdvertisingTxPower != nil {
		txPower = *request.AdvertisingTxPower
	}

	buf, err := a.op(&HCILESetExtendedAdvertisingParametersCommandPacket{
		AdvertisingHandle:             request.AdvertisingHandle,
		AdvertisingEventProperties:    request.AdvertisingEventProperties,
		PrimaryAdvertisingIntervalMin: request.PrimaryAdvertisingIntervalMin,
		PrimaryAdvertisingIntervalMax: request.PrimaryAdvertisingIntervalMax,
		PrimaryAdvertisingChannelMap:  request.PrimaryAdvertisingChannelMap,
		OwnAddressType:                request.OwnAddressType,
		PeerAddressType:               request.PeerAddressType,
		PeerAddress:                   request.PeerAddress,
		AdvertisingFilterPolicy:       request.AdvertisingFilterPolicy,
		AdvertisingTxPower:            txPower,
		PrimaryAdvertisingPHY:         request.PrimaryAdvertisingPHY,
		SecondaryAdvertisingMaxSkip:   request.SecondaryAdvertisingMaxSkip,
		SecondaryAdvertisingPHY:       request.SecondaryAdvertisingPHY,
		AdvertisingSID:                request.AdvertisingSID,
	})
	if err != nil {
		return 0, err
	}
	if len(buf) < 1 {
		return 0, io.ErrShortBuffer
	}
	return int8(buf[0]), nil
}
