package hci

import (
	"io"
	"sync"
)

// fakeController answers every command with a successful Command Complete
// unless respond is set.
type fakeController struct {
	mu      sync.Mutex
	written []CommandPacket
	respond func(CommandPacket) []Packet

	events    chan Packet
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeController() *fakeController {
	return &fakeController{
		events: make(chan Packet, 64),
		closed: make(chan struct{}),
	}
}

func complete(op Opcode, params ...byte) *CommandCompleteEventPacket {
	return &CommandCompleteEventPacket{
		NumCommandPackets: 1,
		CommandOpcode:     op,
		ReturnParameters:  params,
	}
}

func (f *fakeController) ReadPacket() (Packet, error) {
	select {
	case p := <-f.events:
		return p, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeController) WritePacket(p Packet) error {
	cp := p.(CommandPacket)
	f.mu.Lock()
	f.written = append(f.written, cp)
	respond := f.respond
	f.mu.Unlock()

	replies := []Packet{complete(cp.Opcode(), 0x00)}
	if respond != nil {
		replies = respond(cp)
	}
	for _, r := range replies {
		f.events <- r
	}
	return nil
}

func (f *fakeController) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeController) commands() []CommandPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CommandPacket(nil), f.written...)
}
