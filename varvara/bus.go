package varvara

import "github.com/nf/nuxbus/uxn"

// Core is the CPU attached to the bus.
// The System device exposes the pointers of both its stacks.
type Core interface {
	Stacks() (work, ret *uxn.Stack)
}

// Devices holds the optional peripherals of a Bus.
// A nil peripheral leaves its device page as plain register storage.
type Devices struct {
	Console *Console
	Screen  *Screen
	Clock   Clock
	Log     Logger
}

// Bus is the Varvara device bus: 16 devices of 16 ports each, backed by a
// register file that always holds the last byte written to each port.
//
// Read and Write never fail. Errors from peripherals are logged and
// otherwise ignored; the register file is the source of truth.
type Bus struct {
	mem [0x100]byte

	con   *Console
	scr   *Screen
	clock Clock
	log   Logger
}

// NewBus returns a Bus connected to the given devices.
func NewBus(d Devices) *Bus {
	b := &Bus{
		con:   d.Console,
		scr:   d.Screen,
		clock: d.Clock,
		log:   d.Log,
	}
	if b.log == nil {
		b.log = nopLogger{}
	}
	return b
}

// Halted reports whether the program has requested to stop.
func (b *Bus) Halted() bool { return b.mem[0x0f] != 0 }

// ExitCode returns the exit status requested by the program.
func (b *Bus) ExitCode() int { return int(b.mem[0x0f] & 0x7f) }

// Palette returns the colours currently held by the System device.
func (b *Bus) Palette() Palette { return decodePalette(&b.mem) }

// Registers returns a copy of the register file.
func (b *Bus) Registers() [0x100]byte { return b.mem }

// Short returns the 16-bit register at addr and addr+1.
func (b *Bus) Short(addr byte) uint16 { return short(b.mem[addr], b.mem[addr+1]) }

// Set stores v at addr without any device side effects.
// It is used by the host to deliver input to the program.
func (b *Bus) Set(addr, v byte) { b.mem[addr] = v }

// Read returns the value of the port at addr.
func (b *Bus) Read(core Core, addr byte) byte {
	page, port := addr&0xf0, addr&0x0f
	switch page {
	case 0x00: // System
		work, ret := core.Stacks()
		switch port {
		case 0x4:
			return work.Ptr
		case 0x5:
			return ret.Ptr
		}
	case 0x20: // Screen
		if s := b.scr; s != nil {
			switch port {
			case 0x2, 0x3:
				return half(s.Width(), port)
			case 0x4, 0x5:
				return half(s.Height(), port)
			case 0x8, 0x9:
				return half(s.X(), port)
			case 0xa, 0xb:
				return half(s.Y(), port)
			case 0xc, 0xd:
				return half(s.Addr(), port)
			}
		}
	case 0xc0: // Datetime
		if b.clock != nil {
			if port == 0xa {
				b.log.Warnf("datetime: daylight saving time is not supported")
				break
			}
			if v, ok := readDatetime(b.clock, port); ok {
				return v
			}
		}
	}
	return b.mem[addr]
}

// Write stores v at addr and performs any device side effect.
func (b *Bus) Write(core Core, addr, v byte) {
	b.mem[addr] = v

	page, port := addr&0xf0, addr&0x0f
	switch page {
	case 0x00: // System
		work, ret := core.Stacks()
		switch port {
		case 0x3:
			if v != 0 {
				b.log.Warnf("system: expansion operations are not implemented")
			}
		case 0x4:
			work.Ptr = v
		case 0x5:
			ret.Ptr = v
		case 0xe:
			if v != 0 {
				b.log.Debugf("WST %v\nRST %v", work, ret)
			}
		}
	case 0x10: // Console
		if b.con == nil {
			return
		}
		switch port {
		case 0x8:
			if _, err := b.con.Write([]byte{v}); err != nil {
				b.log.Warnf("console: write: %v", err)
			}
		case 0x9:
			if _, err := b.con.WriteError([]byte{v}); err != nil {
				b.log.Warnf("console: write error: %v", err)
			}
		}
	case 0x20: // Screen
		s := b.scr
		if s == nil {
			return
		}
		switch port {
		case 0x6:
			s.setAuto(AutoByte(v))
		case 0x8, 0x9:
			s.x = b.Short(0x28)
		case 0xa, 0xb:
			s.y = b.Short(0x2a)
		case 0xc, 0xd:
			s.addr = b.Short(0x2c)
		case 0xe:
			if err := s.draw(drawOp(v)); err != nil {
				b.log.Warnf("screen: %v", err)
			}
		}
	case 0x30, 0x40, 0x50, 0x60:
		b.log.Warnf("audio: operations are not implemented (port %.2x)", addr)
	case 0xa0, 0xb0:
		b.log.Warnf("file: operations are not implemented (port %.2x)", addr)
	}
}

// half returns the high byte of v for even ports and the low byte for odd.
func half(v uint16, port byte) byte {
	if port&0x1 == 0 {
		return byte(v >> 8)
	}
	return byte(v)
}

func short(hi, lo byte) uint16 {
	return uint16(hi)<<8 + uint16(lo)
}
