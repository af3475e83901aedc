package hci

import (
	"errors"
	"fmt"
)

var (
	ErrCommandTimeout = errors.New("hci: command timed out")
	ErrClosed         = errors.New("hci: adapter closed")
)

// Status is the error code returned by the controller, Vol 1, Part F.
type Status uint8

const (
	StatusSuccess                         Status = 0x00
	StatusUnknownCommand                  Status = 0x01
	StatusMemoryCapacityExceeded          Status = 0x07
	StatusCommandDisallowed               Status = 0x0C
	StatusUnsupportedFeatureOrParameter   Status = 0x11
	StatusInvalidCommandParameters        Status = 0x12
	StatusUnknownAdvertisingIdentifier    Status = 0x42
	StatusLimitReached                    Status = 0x43
	StatusPacketTooLong                   Status = 0x45
	StatusAdvertisingTimeout              Status = 0x3C
	StatusConnectionFailedToBeEstablished Status = 0x3E
)

var statusNames = map[Status]string{
	StatusSuccess:                         "success",
	StatusUnknownCommand:                  "unknown hci command",
	StatusMemoryCapacityExceeded:          "memory capacity exceeded",
	StatusCommandDisallowed:               "command disallowed",
	StatusUnsupportedFeatureOrParameter:   "unsupported feature or parameter value",
	StatusInvalidCommandParameters:        "invalid hci command parameters",
	StatusUnknownAdvertisingIdentifier:    "unknown advertising identifier",
	StatusLimitReached:                    "limit reached",
	StatusPacketTooLong:                   "packet too long",
	StatusAdvertisingTimeout:              "advertising timeout",
	StatusConnectionFailedToBeEstablished: "connection failed to be established",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

// StatusError is returned when the controller completes a command with a
// non-zero status.
type StatusError struct {
	Opcode Opcode
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hci: command 0x%04x failed: %s", uint16(e.Opcode), e.Status)
}

// IsStatus reports whether err is a StatusError carrying status s.
func IsStatus(err error, s Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == s
}
