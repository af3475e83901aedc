package hci

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

type Packet interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type CommandPacket interface {
	Packet
	Opcode() Opcode
}

// Unmarshal decodes a packet received from the controller. Events this
// package does not model are returned as *EventPacket.
func Unmarshal(buf []byte) (Packet, error) {
	if len(buf) == 0 {
		return nil, io.ErrShortBuffer
	}
	switch PacketType(buf[0]) {
	case PacketTypeEvent:
		if len(buf) < 3 {
			return nil, io.ErrShortBuffer
		}
		if len(buf) != int(buf[2])+3 {
			return nil, io.ErrShortBuffer
		}
		switch EventCode(buf[1]) {
		case EventCodeCommandComplete:
			p := &CommandCompleteEventPacket{}
			return p, p.Unmarshal(buf)
		case EventCodeCommandStatus:
			p := &CommandStatusEventPacket{}
			return p, p.Unmarshal(buf)
		case EventCodeLEMeta:
			if len(buf) > 3 && LEMetaSubeventCode(buf[3]) == LEMetaSubeventCodeAdvertisingSetTerminated {
				p := &LEAdvertisingSetTerminatedEventPacket{}
				return p, p.Unmarshal(buf)
			}
		}
		p := &EventPacket{}
		return p, p.Unmarshal(buf)
	}
	return nil, errors.New("unsupported packet type")
}

// newCommand allocates a command packet of n parameter bytes with the header
// filled in.
func newCommand(op Opcode, n int) []byte {
	buf := make([]byte, 4+n)
	buf[0] = byte(PacketTypeCommand)
	binary.LittleEndian.PutUint16(buf[1:], uint16(op))
	buf[3] = byte(n)
	return buf
}

// commandParameters checks that buf is an op command carrying exactly n
// parameter bytes and returns them.
func commandParameters(buf []byte, op Opcode, n int) ([]byte, error) {
	if len(buf) < 4 {
		return nil, io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeCommand) || Opcode(binary.LittleEndian.Uint16(buf[1:])) != op {
		return nil, errors.New("incorrect packet")
	}
	if int(buf[3]) != n || len(buf) != 4+n {
		return nil, io.ErrShortBuffer
	}
	return buf[4:], nil
}

// GenericCommandPacket encompasses many argument-less packets.
type GenericCommandPacket struct {
	opcode Opcode
}

func NewGenericCommandPacket(opcode Opcode) *GenericCommandPacket {
	return &GenericCommandPacket{opcode}
}

func (p *GenericCommandPacket) Marshal() ([]byte, error) {
	return newCommand(p.opcode, 0), nil
}

func (p *GenericCommandPacket) Unmarshal(buf []byte) error {
	if len(buf) != 4 {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeCommand) {
		return errors.New("incorrect packet")
	}
	if buf[3] != 0 {
		return errors.New("unexpected parameters")
	}
	p.opcode = Opcode(binary.LittleEndian.Uint16(buf[1:3]))
	return nil
}

func (p *GenericCommandPacket) Opcode() Opcode {
	return p.opcode
}

type CommandCompleteEventPacket struct {
	NumCommandPackets uint8
	CommandOpcode     Opcode
	ReturnParameters  []byte
}

func (p *CommandCompleteEventPacket) Unmarshal(buf []byte) error {
	if len(buf) < 6 {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeEvent) || buf[1] != byte(EventCodeCommandComplete) {
		return errors.New("incorrect packet")
	}
	s := int(buf[2])
	if len(buf) != s+3 {
		return io.ErrShortBuffer
	}
	p.NumCommandPackets = buf[3]
	p.CommandOpcode = Opcode(binary.LittleEndian.Uint16(buf[4:]))
	p.ReturnParameters = buf[6:]
	return nil
}

func (p *CommandCompleteEventPacket) Marshal() ([]byte, error) {
	if len(p.ReturnParameters)+3 > math.MaxUint8 {
		return nil, io.ErrShortWrite
	}
	buf := make([]byte, 6+len(p.ReturnParameters))
	buf[0] = byte(PacketTypeEvent)
	buf[1] = byte(EventCodeCommandComplete)
	buf[2] = byte(len(p.ReturnParameters) + 3)
	buf[3] = byte(p.NumCommandPackets)
	binary.LittleEndian.PutUint16(buf[4:], uint16(p.CommandOpcode))
	copy(buf[6:], p.ReturnParameters)
	return buf, nil
}

// CommandStatusEventPacket is sent instead of Command Complete by commands
// that finish asynchronously, and by any command the controller rejects
// outright.
type CommandStatusEventPacket struct {
	Status            Status
	NumCommandPackets uint8
	CommandOpcode     Opcode
}

func (p *CommandStatusEventPacket) Unmarshal(buf []byte) error {
	if len(buf) != 7 {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeEvent) || buf[1] != byte(EventCodeCommandStatus) || buf[2] != 4 {
		return errors.New("incorrect packet")
	}
	p.Status = Status(buf[3])
	p.NumCommandPackets = buf[4]
	p.CommandOpcode = Opcode(binary.LittleEndian.Uint16(buf[5:]))
	return nil
}

func (p *CommandStatusEventPacket) Marshal() ([]byte, error) {
	buf := make([]byte, 7)
	buf[0] = byte(PacketTypeEvent)
	buf[1] = byte(EventCodeCommandStatus)
	buf[2] = 4
	buf[3] = byte(p.Status)
	buf[4] = p.NumCommandPackets
	binary.LittleEndian.PutUint16(buf[5:], uint16(p.CommandOpcode))
	return buf, nil
}

// LEAdvertisingSetTerminatedEventPacket reports that an extended advertising
// set stopped, either because a central connected or because its duration or
// event budget ran out.
type LEAdvertisingSetTerminatedEventPacket struct {
	Status                                Status
	AdvertisingHandle                     AdvertisingHandle
	ConnectionHandle                      uint16
	NumCompletedExtendedAdvertisingEvents uint8
}

func (p *LEAdvertisingSetTerminatedEventPacket) Unmarshal(buf []byte) error {
	if len(buf) != 9 {
		return io.ErrShortBuffer
	}
	if buf[0] != byte(PacketTypeEvent) || buf[1] != byte(EventCodeLEMeta) || buf[2] != 6 {
		return errors.New("incorrect packet")
	}
	if buf[3] != byte(LEMetaSubeventCodeAdvertisingSetTerminated) {
		return errors.New("incorrect subevent")
	}
	p.Status = Status(buf[4])
	p.AdvertisingHandle = AdvertisingHandle(buf[5])
	p.ConnectionHandle = binary.LittleEndian.Uint16(buf[6:8])
	p.NumCompletedExtendedAdvertisingEvents = buf[8]
	return nil
}

func (p *LEAdvertisingSetTerminatedEventPacket) Marshal() ([]byte, error) {
	buf := make([]byte, 9)
	buf[0] = byte(PacketTypeEvent)
	buf[1] = byte(EventCodeLEMeta)
	buf[2] = 6
	buf[3] = byte(LEMetaSubeventCodeAdvertisingSetTerminated)
	buf[4] = byte(p.Status)
	buf[5] = byte(p.AdvertisingHandle)
	binary.LittleEndian.PutUint16(buf[6:], p.ConnectionHandle)
	buf[8] = p.NumCompletedExtendedAdvertisingEvents
	return buf, nil
}

// EventPacket carries any event without a dedicated type.
type EventPacket struct {
	EventCode  EventCode
	Parameters []byte
}

func (p *EventPacket) Unmarshal(buf []byte) error {
	if len(buf) < 3 || buf[0] != byte(PacketTypeEvent) {
		return errors.New("incorrect packet")
	}
	if len(buf) != int(buf[2])+3 {
		return io.ErrShortBuffer
	}
	p.EventCode = EventCode(buf[1])
	p.Parameters = buf[3:]
	return nil
}

func (p *EventPacket) Marshal() ([]byte, error) {
	if len(p.Parameters) > math.MaxUint8 {
		return nil, io.ErrShortWrite
	}
	buf := make([]byte, 3+len(p.Parameters))
	buf[0] = byte(PacketTypeEvent)
	buf[1] = byte(p.EventCode)
	buf[2] = byte(len(p.Parameters))
	copy(buf[3:], p.Parameters)
	return buf, nil
}
