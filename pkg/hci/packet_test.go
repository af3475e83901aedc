package hci

import (
	"bytes"
	"errors"
	"testing"
)

func TestUnmarshalEvents(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		check func(t *testing.T, p Packet)
	}{
		{
			name: "command complete",
			raw:  []byte{0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00},
			check: func(t *testing.T, p Packet) {
				cc, ok := p.(*CommandCompleteEventPacket)
				if !ok {
					t.Fatalf("got %T", p)
				}
				if cc.CommandOpcode != OpcodeReset || !bytes.Equal(cc.ReturnParameters, []byte{0x00}) {
					t.Errorf("got %+v", cc)
				}
			},
		},
		{
			name: "command status",
			raw:  []byte{0x04, 0x0F, 0x04, 0x01, 0x01, 0x36, 0x20},
			check: func(t *testing.T, p Packet) {
				cs, ok := p.(*CommandStatusEventPacket)
				if !ok {
					t.Fatalf("got %T", p)
				}
				if cs.Status != StatusUnknownCommand || cs.CommandOpcode != OpcodeLESetExtendedAdvertisingParameters {
					t.Errorf("got %+v", cs)
				}
			},
		},
		{
			name: "advertising set terminated",
			raw:  []byte{0x04, 0x3E, 0x06, 0x12, 0x00, 0x01, 0x40, 0x00, 0x00},
			check: func(t *testing.T, p Packet) {
				ev, ok := p.(*LEAdvertisingSetTerminatedEventPacket)
				if !ok {
					t.Fatalf("got %T", p)
				}
				if ev.AdvertisingHandle != 1 || ev.ConnectionHandle != 0x0040 {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			name: "unmodelled event",
			raw:  []byte{0x04, 0x10, 0x01, 0x2A},
			check: func(t *testing.T, p Packet) {
				ev, ok := p.(*EventPacket)
				if !ok {
					t.Fatalf("got %T", p)
				}
				if ev.EventCode != EventCodeHardwareError || !bytes.Equal(ev.Parameters, []byte{0x2A}) {
					t.Errorf("got %+v", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Unmarshal(tt.raw)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			tt.check(t, p)

			again, err := p.Marshal()
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !bytes.Equal(again, tt.raw) {
				t.Errorf("Marshal() = % x, want % x", again, tt.raw)
			}
		})
	}
}

func TestUnmarshalRejectsTruncatedEvent(t *testing.T) {
	if _, err := Unmarshal([]byte{0x04, 0x0E, 0x04, 0x01}); err == nil {
		t.Fatal("expected error for truncated event")
	}
	if _, err := Unmarshal(nil); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestLESetExtendedAdvertisingParametersMarshal(t *testing.T) {
	p := &HCILESetExtendedAdvertisingParametersCommandPacket{
		AdvertisingHandle:             1,
		AdvertisingEventProperties:    AdvertisingEventPropertyConnectable,
		PrimaryAdvertisingIntervalMin: 1600,
		PrimaryAdvertisingIntervalMax: 1602,
		PrimaryAdvertisingChannelMap:  AdvertisingChannelMapDefault,
		OwnAddressType:                OwnAddressTypePublicDeviceAddress,
		AdvertisingTxPower:            TxPowerNoPreference,
		PrimaryAdvertisingPHY:         PHYLE1M,
		SecondaryAdvertisingPHY:       PHYLE1M,
		AdvertisingSID:                2,
	}
	want := []byte{
		0x01, 0x36, 0x20, 25,
		0x01,       // handle
		0x01, 0x00, // properties
		0x40, 0x06, 0x00, // interval min
		0x42, 0x06, 0x00, // interval max
		0x07,                               // channel map
		0x00,                               // own address type
		0x00,                               // peer address type
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // peer address
		0x00, // filter policy
		0x7F, // tx power
		0x01, // primary phy
		0x00, // secondary max skip
		0x01, // secondary phy
		0x02, // sid
		0x00, // scan request notification
	}
	got, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Marshal() =\n% x\nwant\n% x", got, want)
	}

	var back HCILESetExtendedAdvertisingParametersCommandPacket
	if err := back.Unmarshal(got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != *p {
		t.Errorf("Unmarshal() = %+v, want %+v", back, *p)
	}
}

func TestLESetExtendedAdvertisingEnableMarshal(t *testing.T) {
	p := &HCILESetExtendedAdvertisingEnableCommandPacket{
		Enable: true,
		Sets:   []AdvertisingSet{{AdvertisingHandle: 1, Duration: 0x0102, MaxExtendedAdvertisingEvents: 5}},
	}
	want := []byte{0x01, 0x39, 0x20, 0x06, 0x01, 0x01, 0x01, 0x02, 0x01, 0x05}
	got, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Marshal() = % x, want % x", got, want)
	}
}

func TestLESetExtendedAdvertisingDataFragments(t *testing.T) {
	f := newFakeController()
	a := NewAdapter(f)
	defer a.Close()

	data := bytes.Repeat([]byte{0xAB}, 600)
	if err := a.LESetExtendedAdvertisingData(2, RawAD{Type: ADTypeManufacturerSpecificData, Data: data[:250]},
		RawAD{Type: ADTypeManufacturerSpecificData, Data: data[:250]},
		RawAD{Type: ADTypeManufacturerSpecificData, Data: data[:96]}); err != nil {
		t.Fatalf("LESetExtendedAdvertisingData() error = %v", err)
	}

	cmds := f.commands()
	wantOps := []AdvertisingDataOperation{
		AdvertisingDataOperationFirstFragment,
		AdvertisingDataOperationIntermediateFragment,
		AdvertisingDataOperationLastFragment,
	}
	if len(cmds) != len(wantOps) {
		t.Fatalf("sent %d commands, want %d", len(cmds), len(wantOps))
	}
	total := 0
	for i, c := range cmds {
		p, ok := c.(*HCILESetExtendedAdvertisingDataCommandPacket)
		if !ok {
			t.Fatalf("command %d is %T", i, c)
		}
		if p.Operation != wantOps[i] || p.AdvertisingHandle != 2 {
			t.Errorf("command %d: operation %d handle %d", i, p.Operation, p.AdvertisingHandle)
		}
		total += len(p.AdvertisingData)
	}
	if total != 252+252+98 {
		t.Errorf("sent %d bytes, want %d", total, 252+252+98)
	}
}

func TestLESetExtendedAdvertisingDataSingleCommand(t *testing.T) {
	f := newFakeController()
	a := NewAdapter(f)
	defer a.Close()

	if err := a.LESetExtendedAdvertisingData(0, CompleteLocalName("pack")); err != nil {
		t.Fatalf("LESetExtendedAdvertisingData() error = %v", err)
	}
	cmds := f.commands()
	if len(cmds) != 1 {
		t.Fatalf("sent %d commands, want 1", len(cmds))
	}
	buf, _ := cmds[0].Marshal()
	want := []byte{0x01, 0x37, 0x20, 0x0A, 0x00, 0x03, 0x01, 0x06, 0x05, 0x09, 'p', 'a', 'c', 'k'}
	if !bytes.Equal(buf, want) {
		t.Errorf("command = % x, want % x", buf, want)
	}
}

func TestSetAdvertisingDataLegacyLimit(t *testing.T) {
	long, err := MarshalAdvertisingData(CompleteLocalName("a name that is far too long for legacy"))
	if err != nil {
		t.Fatal(err)
	}
	p := &HCISetAdvertisingDataCommandPacket{AdvertisingData: long}
	if _, err := p.Marshal(); !errors.Is(err, ErrAdvertisingDataTooLong) {
		t.Fatalf("Marshal() error = %v, want %v", err, ErrAdvertisingDataTooLong)
	}

	p = &HCISetAdvertisingDataCommandPacket{AdvertisingData: []byte{0x02, 0x01, 0x06}}
	buf, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if len(buf) != 36 || buf[3] != 32 || buf[4] != 3 {
		t.Errorf("Marshal() = % x", buf)
	}

	var back HCISetAdvertisingDataCommandPacket
	if err := back.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !bytes.Equal(back.AdvertisingData, p.AdvertisingData) {
		t.Errorf("Unmarshal() = % x, want % x", back.AdvertisingData, p.AdvertisingData)
	}
}

func TestLESetAdvertisingParametersMarshal(t *testing.T) {
	p := &HCILESetAdvertisingParametersCommandPacket{
		AdvertisingIntervalMin: 1600,
		AdvertisingIntervalMax: 1602,
		AdvertisingType:        AdvertisingTypeNonConnectableUndirectedAdvertising,
		AdvertisingChannelMap:  AdvertisingChannelMapDefault,
	}
	buf, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := []byte{
		0x01, 0x06, 0x20, 0x0F,
		0x40, 0x06, 0x42, 0x06, 0x03, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x07, 0x00,
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("Marshal() = % x, want % x", buf, want)
	}

	var back HCILESetAdvertisingParametersCommandPacket
	if err := back.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != *p {
		t.Errorf("Unmarshal() = %+v, want %+v", back, *p)
	}
	if err := back.Unmarshal(buf[:18]); err == nil {
		t.Error("Unmarshal() accepted a truncated command")
	}
}

func TestMaskCommands(t *testing.T) {
	p := &maskCommand{opcode: OpcodeLESetEventMask, mask: uint64(LEEventMaskAdvertisingSetTerminatedEvent)}
	buf, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := []byte{0x01, 0x01, 0x20, 0x08, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf, want) {
		t.Errorf("Marshal() = % x, want % x", buf, want)
	}

	wrong := &maskCommand{opcode: OpcodeSetEventMask}
	if err := wrong.Unmarshal(buf); err == nil {
		t.Error("Unmarshal() accepted another opcode")
	}
}
