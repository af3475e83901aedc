//go:build linux

package hci

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ioctl numbers from the kernel's hci_sock.h, built as _IOW/_IOR('H', nr, int).
const (
	hciMaxDevices = 16

	hciDevUp      = 1<<30 | 'H'<<8 | 201 | 4<<16
	hciDevDown    = 1<<30 | 'H'<<8 | 202 | 4<<16
	hciGetDevList = 2<<30 | 'H'<<8 | 210 | 4<<16
)

type devListRequest struct {
	devNum uint16
	devs   [hciMaxDevices]struct {
		id  uint16
		opt uint32
	}
}

// Socket is an HCI User Channel. While it is open the kernel's Bluetooth
// stack has no access to the controller.
type Socket struct {
	fd  int
	dev int

	closeOnce sync.Once
	closed    chan struct{}

	rmu  sync.Mutex
	rbuf []byte
	wmu  sync.Mutex
}

// NewSocket returns a HCI User Channel of specified device id.
// If id is -1, the first device that can be bound is returned.
func NewSocket(id int) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.BTPROTO_HCI)
	if err != nil {
		return nil, fmt.Errorf("hci socket: %w", err)
	}

	ids := []int{id}
	if id == -1 {
		if ids, err = deviceIDs(fd); err != nil {
			unix.Close(fd)
			return nil, err
		}
	}

	var errs []error
	for _, id := range ids {
		s, err := bind(fd, id)
		if err == nil {
			zap.L().Info("hci user channel open", zap.Int("dev", id))
			return s, nil
		}
		errs = append(errs, fmt.Errorf("hci%d: %w", id, err))
	}
	unix.Close(fd)
	if len(errs) == 0 {
		return nil, errors.New("no hci devices")
	}
	return nil, errors.Join(errs...)
}

func deviceIDs(fd int) ([]int, error) {
	req := devListRequest{devNum: hciMaxDevices}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), hciGetDevList, uintptr(unsafe.Pointer(&req))); errno != 0 {
		return nil, fmt.Errorf("list hci devices: %w", errno)
	}
	ids := make([]int, 0, req.devNum)
	for _, d := range req.devs[:req.devNum] {
		ids = append(ids, int(d.id))
	}
	return ids, nil
}

func bind(fd, id int) (*Socket, error) {
	// Cycle the device to clear state a previous session left behind. It has
	// to be down for the user channel bind to succeed.
	for _, req := range []uint{hciDevDown, hciDevUp, hciDevDown} {
		if err := unix.IoctlSetInt(fd, req, id); err != nil {
			return nil, err
		}
	}

	if err := unix.Bind(fd, &unix.SockaddrHCI{Dev: uint16(id), Channel: unix.HCI_CHANNEL_USER}); err != nil {
		return nil, err
	}

	// drop anything queued during the bind
	pfds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	if n, _ := unix.Poll(pfds, 20); n > 0 && pfds[0].Revents&unix.POLLIN != 0 {
		unix.Read(fd, make([]byte, 260))
	}

	return &Socket{
		fd:     fd,
		dev:    id,
		closed: make(chan struct{}),
		rbuf:   make([]byte, math.MaxUint16),
	}, nil
}

// ReadPacket blocks for the next event. Packets other than events, such as
// ACL data from a central that connected, are logged and skipped.
func (s *Socket) ReadPacket() (Packet, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	for {
		select {
		case <-s.closed:
			return nil, io.EOF
		default:
		}
		n, err := unix.Read(s.fd, s.rbuf)
		if err != nil {
			return nil, err
		}
		buf := append([]byte(nil), s.rbuf[:n]...)
		zap.L().Debug("hci read", zap.Int("dev", s.dev), zap.String("packet", fmt.Sprintf("%x", buf)))
		if n > 0 && PacketType(buf[0]) != PacketTypeEvent {
			continue
		}
		return Unmarshal(buf)
	}
}

func (s *Socket) WritePacket(p Packet) error {
	buf, err := p.Marshal()
	if err != nil {
		return err
	}
	zap.L().Debug("hci write", zap.Int("dev", s.dev), zap.String("packet", fmt.Sprintf("%x", buf)))
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err = unix.Write(s.fd, buf)
	return err
}

// Close resets the controller, which also stops any advertising set left
// running, and releases the user channel.
func (s *Socket) Close() error {
	err := io.ErrClosedPipe
	s.closeOnce.Do(func() {
		close(s.closed)
		s.WritePacket(NewGenericCommandPacket(OpcodeReset))
		err = unix.Close(s.fd)
	})
	return err
}
