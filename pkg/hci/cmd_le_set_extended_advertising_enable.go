package hci

import (
	"encoding/binary"
	"errors"
	"io"
)

// AdvertisingSet selects one set in LE Set Extended Advertising Enable.
// Duration is in 10 ms units; zero advertises until disabled.
type AdvertisingSet struct {
	AdvertisingHandle            AdvertisingHandle
	Duration                     uint16
	MaxExtendedAdvertisingEvents uint8
}

// Section 7.8.56
type HCILESetExtendedAdvertisingEnableCommandPacket struct {
	Enable bool
	Sets   []AdvertisingSet
}

func (p *HCILESetExtendedAdvertisingEnableCommandPacket) Marshal() ([]byte, error) {
	if 2+4*len(p.Sets) > 0xFF {
		return nil, io.ErrShortWrite
	}
	buf := newCommand(OpcodeLESetExtendedAdvertisingEnable, 2+4*len(p.Sets))
	if p.Enable {
		buf[4] = 1
	}
	buf[5] = byte(len(p.Sets))
	for i, s := range p.Sets {
		o := 6 + 4*i
		buf[o] = byte(s.AdvertisingHandle)
		binary.LittleEndian.PutUint16(buf[o+1:], s.Duration)
		buf[o+3] = s.MaxExtendedAdvertisingEvents
	}
	return buf, nil
}

func (p *HCILESetExtendedAdvertisingEnableCommandPacket) Unmarshal(buf []byte) error {
	if len(buf) < 6 || len(buf) != 6+4*int(buf[5]) {
		return io.ErrShortBuffer
	}
	if _, err := commandParameters(buf, OpcodeLESetExtendedAdvertisingEnable, len(buf)-4); err != nil {
		return err
	}
	p.Enable = buf[4] == 1
	p.Sets = make([]AdvertisingSet, buf[5])
	for i := range p.Sets {
		o := 6 + 4*i
		p.Sets[i] = AdvertisingSet{
			AdvertisingHandle:            AdvertisingHandle(buf[o]),
			Duration:                     binary.LittleEndian.Uint16(buf[o+1:]),
			MaxExtendedAdvertisingEvents: buf[o+3],
		}
	}
	return nil
}

func (p *HCILESetExtendedAdvertisingEnableCommandPacket) Opcode() Opcode {
	return OpcodeLESetExtendedAdvertisingEnable
}

// LESetExtendedAdvertisingEnable enables or disables the given sets.
// Disabling with no sets disables every set.
func (a *Adapter) LESetExtendedAdvertisingEnable(enable bool, sets ...AdvertisingSet) error {
	if enable && len(sets) == 0 {
		return errors.New("no advertising sets to enable")
	}
	_, err := a.op(&HCILESetExtendedAdvertisingEnableCommandPacket{Enable: enable, Sets: sets})
	return err
}
