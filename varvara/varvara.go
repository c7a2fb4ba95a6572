// Package varvara implements the Varvara computing stack: the device bus
// that connects a Uxn CPU to its peripherals, and a host runtime to drive it.
package varvara

import (
	"io"

	"github.com/go-faster/errors"

	"github.com/nf/nuxbus/uxn"
)

// Config describes the host side of a Varvara machine.
// Nil fields disable the corresponding device.
type Config struct {
	Console *Console
	Surface Surface
	Clock   Clock
	Log     Logger

	// Observer, if non-nil, is called after every vector.
	Observer func(State)
}

// State is a snapshot of the machine taken between vectors.
type State struct {
	PC        uint16
	Work, Ret uxn.Stack
	Devices   [0x100]byte
	Halted    bool

	// Mem is the machine's memory. It is not copied, and must not be
	// used after the Observer returns.
	Mem *[0x10000]byte
}

// Varvara is a Uxn CPU attached to a Varvara device bus.
type Varvara struct {
	m   *uxn.Machine
	bus *Bus
	con *Console
	pal interface{ SetPalette(Palette) }
	log Logger

	observe func(State)
	stop    <-chan bool
	done    chan bool
}

// New returns a Varvara machine with rom loaded at the reset vector.
func New(rom []byte, c Config) *Varvara {
	var scr *Screen
	if c.Surface != nil {
		scr = NewScreen(c.Surface)
	}
	log := c.Log
	if log == nil {
		log = nopLogger{}
	}
	v := &Varvara{
		m: uxn.NewMachine(rom),
		bus: NewBus(Devices{
			Console: c.Console,
			Screen:  scr,
			Clock:   c.Clock,
			Log:     log,
		}),
		con:     c.Console,
		log:     log,
		observe: c.Observer,
		done:    make(chan bool),
	}
	v.pal, _ = c.Surface.(interface{ SetPalette(Palette) })
	v.m.Dev = v
	return v
}

func (v *Varvara) In(p byte) byte        { return v.bus.Read(v.m, p) }
func (v *Varvara) Out(p, b byte)         { v.bus.Write(v.m, p, b) }
func (v *Varvara) Bus() *Bus             { return v.bus }
func (v *Varvara) Machine() *uxn.Machine { return v.m }

// Console input types stored in port 0x17.
const (
	consoleStdin = 0x1
	consoleEnd   = 0x4
)

type consoleEvent struct {
	b, kind byte
}

// Run executes the reset vector and then the console and screen vectors
// until the program halts, stop is closed, or there is no further input to
// wait for. A receive on frames triggers the screen vector. Console input is
// read once the program has set a console vector.
// Run returns the program's exit code.
func (v *Varvara) Run(frames <-chan bool, stop <-chan bool) (int, error) {
	defer close(v.done)
	v.stop = stop

	var (
		input   <-chan consoleEvent
		pumping bool
		vector  uint16 = 0x100
	)
	for {
		if err := v.exec(vector); err != nil {
			return 0, err
		}
		if v.bus.Halted() || v.stopped() {
			break
		}
		if !pumping && v.con != nil && v.con.HasInput() && v.bus.Short(0x10) != 0 {
			input, pumping = v.pumpInput(), true
		}

		vector = 0
		for vector == 0 {
			if input == nil && frames == nil {
				return v.bus.ExitCode(), nil
			}
			select {
			case e, ok := <-input:
				if !ok {
					input = nil
					continue
				}
				v.bus.Set(0x12, e.b)
				v.bus.Set(0x17, e.kind)
				vector = v.bus.Short(0x10)
			case _, ok := <-frames:
				if !ok {
					frames = nil
					continue
				}
				vector = v.bus.Short(0x20)
			case <-stop:
				return v.bus.ExitCode(), nil
			}
		}
	}
	return v.bus.ExitCode(), nil
}

// halted reports whether the running vector should be abandoned.
func (v *Varvara) halted() bool { return v.bus.Halted() || v.stopped() }

func (v *Varvara) stopped() bool {
	select {
	case <-v.stop:
		return true
	default:
		return false
	}
}

// exec runs the vector at pc. If the CPU halts with an error and the System
// device has a catch vector, the catch vector is run instead of failing.
func (v *Varvara) exec(pc uint16) error {
	err := v.m.ExecVector(pc, v.halted)
	var h uxn.HaltError
	if errors.As(err, &h) {
		if catch := v.bus.Short(0x00); catch != 0 {
			v.log.Warnf("uxn: %v; running catch vector %.4x", h, catch)
			err = v.m.ExecVector(catch, v.halted)
		}
	}
	if v.pal != nil {
		v.pal.SetPalette(v.bus.Palette())
	}
	if v.observe != nil {
		v.observe(v.State())
	}
	if err != nil {
		return errors.Wrapf(err, "vector %.4x", pc)
	}
	return nil
}

// State returns a snapshot of the machine.
func (v *Varvara) State() State {
	return State{
		PC:      v.m.PC,
		Work:    v.m.Work,
		Ret:     v.m.Ret,
		Devices: v.bus.Registers(),
		Halted:  v.bus.Halted(),
		Mem:     &v.m.Mem,
	}
}

// pumpInput reads console input one byte at a time and delivers it to Run.
// The channel is closed after the end of input has been delivered.
func (v *Varvara) pumpInput() <-chan consoleEvent {
	ch := make(chan consoleEvent)
	send := func(e consoleEvent) bool {
		select {
		case ch <- e:
			return true
		case <-v.done:
			return false
		}
	}
	go func() {
		defer close(ch)
		var b [1]byte
		for {
			if err := v.con.ReadFull(b[:]); err != nil {
				if err != io.EOF {
					v.log.Warnf("console: read: %v", err)
				}
				send(consoleEvent{kind: consoleEnd})
				return
			}
			if !send(consoleEvent{b: b[0], kind: consoleStdin}) {
				return
			}
		}
	}()
	return ch
}
