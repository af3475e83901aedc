package hci

import "encoding/binary"

// EventMask selects the events the controller reports, Section 7.3.1.
type EventMask uint64

const (
	EventMaskDisconnectionCompleteEvent EventMask = (1 << 4)
	EventMaskHardwareErrorEvent         EventMask = (1 << 15)
	EventMaskLEMetaEvent                EventMask = (1 << 61)
)

// LEEventMask selects the LE Meta subevents, Section 7.8.1.
type LEEventMask uint64

const (
	LEEventMaskConnectionCompleteEvent         LEEventMask = (1 << 0)
	LEEventMaskEnhancedConnectionCompleteEvent LEEventMask = (1 << 9)
	LEEventMaskAdvertisingSetTerminatedEvent   LEEventMask = (1 << 17)
)

// maskCommand carries the single 64-bit parameter of both mask commands.
type maskCommand struct {
	opcode Opcode
	mask   uint64
}

func (p *maskCommand) Marshal() ([]byte, error) {
	buf := newCommand(p.opcode, 8)
	binary.LittleEndian.PutUint64(buf[4:], p.mask)
	return buf, nil
}

func (p *maskCommand) Unmarshal(buf []byte) error {
	params, err := commandParameters(buf, p.opcode, 8)
	if err != nil {
		return err
	}
	p.mask = binary.LittleEndian.Uint64(params)
	return nil
}

func (p *maskCommand) Opcode() Opcode {
	return p.opcode
}

func (a *Adapter) SetEventMask(mask EventMask) error {
	_, err := a.op(&maskCommand{opcode: OpcodeSetEventMask, mask: uint64(mask)})
	return err
}

func (a *Adapter) LESetEventMask(mask LEEventMask) error {
	_, err := a.op(&maskCommand{opcode: OpcodeLESetEventMask, mask: uint64(mask)})
	return err
}
