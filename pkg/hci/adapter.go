package hci

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport moves whole HCI packets to and from a controller. *Socket is the
// production implementation.
type Transport interface {
	ReadPacket() (Packet, error)
	WritePacket(Packet) error
	Close() error
}

const DefaultCommandTimeout = 2 * time.Second

type Adapter struct {
	Transport

	// CommandTimeout bounds how long a command waits for its completion event.
	CommandTimeout time.Duration

	onPacketLock sync.Mutex
	onPacket     map[string]func(Packet, error)

	done chan struct{}
	err  error
}

func NewAdapter(t Transport) *Adapter {
	a := &Adapter{
		Transport:      t,
		CommandTimeout: DefaultCommandTimeout,
		onPacket:       make(map[string]func(Packet, error)),
		done:           make(chan struct{}),
	}
	go func() {
		for {
			p, err := a.ReadPacket()
			if err != nil {
				a.onPacketLock.Lock()
				a.err = err
				for _, cb := range a.onPacket {
					go cb(nil, err)
				}
				a.onPacketLock.Unlock()
				close(a.done)
				return
			}
			a.onPacketLock.Lock()
			for _, cb := range a.onPacket {
				go cb(p, nil)
			}
			a.onPacketLock.Unlock()
		}
	}()
	return a
}

// Handle registers fn for every packet read from the controller until the
// returned cancel func is called.
func (a *Adapter) Handle(fn func(Packet)) (cancel func()) {
	id := uuid.NewString()
	a.onPacketLock.Lock()
	a.onPacket[id] = func(p Packet, err error) {
		if err == nil {
			fn(p)
		}
	}
	a.onPacketLock.Unlock()
	return func() { a.remove(id) }
}

func (a *Adapter) remove(id string) {
	a.onPacketLock.Lock()
	delete(a.onPacket, id)
	a.onPacketLock.Unlock()
}

// op writes p and waits for the matching completion event. The returned
// slice holds the return parameters after the status byte.
func (a *Adapter) op(p CommandPacket) ([]byte, error) {
	done := make(chan []byte, 1)
	errc := make(chan error, 1)
	id := uuid.NewString()
	a.onPacketLock.Lock()
	if a.err != nil {
		a.onPacketLock.Unlock()
		return nil, ErrClosed
	}
	a.onPacket[id] = func(q Packet, err error) {
		if err != nil {
			select {
			case errc <- err:
			default:
			}
			return
		}
		var ret []byte
		switch q := q.(type) {
		case *CommandCompleteEventPacket:
			if q.CommandOpcode != p.Opcode() {
				return
			}
			ret = q.ReturnParameters
		case *CommandStatusEventPacket:
			// a zero status means a later event carries the result.
			if q.CommandOpcode != p.Opcode() || q.Status == StatusSuccess {
				return
			}
			ret = []byte{byte(q.Status)}
		default:
			return
		}
		a.remove(id)
		select {
		case done <- ret:
		default:
		}
	}
	a.onPacketLock.Unlock()
	defer a.remove(id)

	if err := a.WritePacket(p); err != nil {
		return nil, err
	}

	timer := time.NewTimer(a.CommandTimeout)
	defer timer.Stop()
	select {
	case buf := <-done:
		if len(buf) == 0 {
			return nil, io.ErrShortBuffer
		}
		if buf[0] != byte(StatusSuccess) {
			return nil, &StatusError{Opcode: p.Opcode(), Status: Status(buf[0])}
		}
		return buf[1:], nil
	case err := <-errc:
		return nil, err
	case <-timer.C:
		zap.L().Warn("hci command timed out", zap.Uint16("opcode", uint16(p.Opcode())), zap.Duration("timeout", a.CommandTimeout))
		return nil, ErrCommandTimeout
	}
}

func (a *Adapter) Reset() error {
	_, err := a.op(NewGenericCommandPacket(OpcodeReset))
	return err
}

func (a *Adapter) ReadBDAddr() (BDAddr, error) {
	var addr BDAddr
	buf, err := a.op(NewGenericCommandPacket(OpcodeReadBDAddr))
	if err != nil {
		return addr, err
	}
	if copy(addr[:], buf) != 6 {
		return addr, io.ErrShortBuffer
	}
	return addr, nil
}

// Done is closed once the transport returns a read error, including on Close.
func (a *Adapter) Done() <-chan struct{} {
	return a.done
}
