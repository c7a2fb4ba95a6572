// Package uxn provides an implementation of a Uxn CPU, called Machine,
// that can be used to execute Uxn bytecode.
package uxn

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Machine is an implementation of a Uxn CPU.
type Machine struct {
	Mem  [0x10000]byte
	PC   uint16
	Work Stack
	Ret  Stack
	Dev  Device
}

// Device provides access to external systems connected to the Uxn CPU.
// Short device operations are issued as two byte accesses,
// the high byte at port and the low byte at port+1.
type Device interface {
	In(port byte) (value byte)
	Out(port, value byte)
}

// NewMachine returns a Uxn CPU loaded with the given rom at 0x100.
// Bytes beyond the end of addressable memory are dropped.
func NewMachine(rom []byte) *Machine {
	m := &Machine{PC: 0x100}
	copy(m.Mem[0x100:], rom)
	return m
}

// Stacks returns the work and return stacks.
func (m *Machine) Stacks() (work, ret *Stack) { return &m.Work, &m.Ret }

var ErrBRK = errors.New("BRK")

// ExecVector executes instructions from pc until BRK, a halt condition,
// or until halted (which may be nil) reports true.
func (m *Machine) ExecVector(pc uint16, halted func() bool) error {
	m.PC = pc
	for {
		if err := m.Exec(); err == ErrBRK {
			return nil
		} else if err != nil {
			return err
		}
		if halted != nil && halted() {
			return nil
		}
	}
}

// Exec executes the instruction at m.PC. It returns ErrBRK if that instruction
// is BRK, and otherwise only returns a non-nil error if it encounters a halt
// condition.
func (m *Machine) Exec() (err error) {
	var (
		op   = Op(m.Mem[m.PC])
		opPC = m.PC
	)
	defer func() {
		if e := recover(); e != nil {
			code, ok := e.(HaltCode)
			if !ok {
				panic(e)
			}
			m.Work.Ptr = 0
			st := m.Work.wrap()
			st.PushShort(opPC)
			st.Push(byte(op))
			st.Push(byte(code))
			err = HaltError{Addr: opPC, Op: op, HaltCode: code}
		}
	}()

	m.PC++

	switch op {
	case BRK:
		return ErrBRK
	case JCI, JMI, JSI:
		m.PC += 2
		if op == JCI && m.Work.wrap().Pop() == 0 {
			return nil
		}
		if op == JSI {
			m.Ret.wrap().PushShort(m.PC)
		}
		m.PC += short(m.Mem[m.PC-2], m.Mem[m.PC-1])
		return nil
	}

	var st *stackWrapper
	if op.Return() {
		st = m.Ret.mutate(op.Keep())
	} else {
		st = m.Work.mutate(op.Keep())
	}

	switch op.Base() {
	case LIT:
		st.Push(m.Mem[m.PC])
		m.PC++
		if op.Short() {
			st.Push(m.Mem[m.PC])
			m.PC++
		}
	case JMP, JSR:
		pc := m.PC
		if op.Short() {
			m.PC = st.PopShort()
		} else {
			m.PC += st.PopOffset()
		}
		if op.Base() == JSR {
			m.Ret.wrap().PushShort(pc)
		}
	case JCN:
		var addr uint16
		if op.Short() {
			addr = st.PopShort()
		} else {
			addr = m.PC + st.PopOffset()
		}
		if st.Pop() != 0 {
			m.PC = addr
		}
	case STH:
		var to *stackWrapper
		if op.Return() {
			to = m.Work.wrap()
		} else {
			to = m.Ret.wrap()
		}
		if op.Short() {
			to.PushShort(st.PopShort())
		} else {
			to.Push(st.Pop())
		}
	case LDZ, LDR, LDA:
		m.load(st, m.operandAddr(op, st), op.Base() == LDZ, op.Short())
	case STZ, STR, STA:
		m.store(st, m.operandAddr(op, st), op.Base() == STZ, op.Short())
	case DEI:
		m.deviceIn(st, op.Short())
	case DEO:
		m.deviceOut(st, op.Short())
	case SFT:
		sft := st.Pop()
		left, right := (sft&0xf0)>>4, sft&0x0f
		if op.Short() {
			st.PushShort((st.PopShort() >> right) << left)
		} else {
			st.Push((st.Pop() >> right) << left)
		}
	default:
		if op.Short() {
			execSimple(op, pushPopper[uint16](shortPushPopper{st}))
		} else {
			execSimple(op, pushPopper[byte](st))
		}
	}

	return nil
}

// operandAddr pops the memory address used by a load or store.
func (m *Machine) operandAddr(op Op, st *stackWrapper) uint16 {
	switch op.Base() {
	case LDZ, STZ:
		return uint16(st.Pop())
	case LDR, STR:
		return m.PC + st.PopOffset()
	}
	return st.PopShort()
}

// next returns the address of the second byte of a short at addr.
// Zero page accesses wrap within the zero page.
func next(addr uint16, zero bool) uint16 {
	if zero {
		return (addr + 1) & 0xff
	}
	return addr + 1
}

func (m *Machine) load(st *stackWrapper, addr uint16, zero, short bool) {
	st.Push(m.Mem[addr])
	if short {
		st.Push(m.Mem[next(addr, zero)])
	}
}

func (m *Machine) store(st *stackWrapper, addr uint16, zero, short bool) {
	if short {
		m.Mem[next(addr, zero)] = st.Pop()
	}
	m.Mem[addr] = st.Pop()
}

// deviceIn reads a port into the stack. A short read is two byte reads,
// high byte first.
func (m *Machine) deviceIn(st *stackWrapper, short bool) {
	port := st.Pop()
	st.Push(m.Dev.In(port))
	if short {
		st.Push(m.Dev.In(port + 1))
	}
}

// deviceOut writes the stack to a port. A short write is two byte writes,
// high byte first.
func (m *Machine) deviceOut(st *stackWrapper, short bool) {
	port := st.Pop()
	if !short {
		m.Dev.Out(port, st.Pop())
		return
	}
	v := st.PopShort()
	m.Dev.Out(port, byte(v>>8))
	m.Dev.Out(port+1, byte(v))
}

func execSimple[T byte | uint16](op Op, s pushPopper[T]) {
	switch op.Base() {
	case INC:
		s.Push(s.Pop() + 1)
	case POP:
		s.Pop()
	case NIP:
		v := s.Pop()
		s.Pop()
		s.Push(v)
	case SWP:
		b, a := s.Pop(), s.Pop()
		s.Push(b)
		s.Push(a)
	case ROT:
		c, b, a := s.Pop(), s.Pop(), s.Pop()
		s.Push(b)
		s.Push(c)
		s.Push(a)
	case DUP:
		v := s.Pop()
		s.Push(v)
		s.Push(v)
	case OVR:
		b, a := s.Pop(), s.Pop()
		s.Push(a)
		s.Push(b)
		s.Push(a)
	case EQU:
		s.PushBool(s.Pop() == s.Pop())
	case NEQ:
		s.PushBool(s.Pop() != s.Pop())
	case GTH:
		s.PushBool(s.Pop() < s.Pop())
	case LTH:
		s.PushBool(s.Pop() > s.Pop())
	case ADD:
		s.Push(s.Pop() + s.Pop())
	case SUB:
		b, a := s.Pop(), s.Pop()
		s.Push(a - b)
	case MUL:
		s.Push(s.Pop() * s.Pop())
	case DIV:
		b, a := s.Pop(), s.Pop()
		if b == 0 {
			panic(DivideByZero)
		}
		s.Push(a / b)
	case AND:
		s.Push(s.Pop() & s.Pop())
	case ORA:
		s.Push(s.Pop() | s.Pop())
	case EOR:
		s.Push(s.Pop() ^ s.Pop())
	default:
		panic(errors.Errorf("internal error: %v not implemented", op))
	}
}

// HaltError is returned by Exec if execution is halted by
// the program for some reason.
type HaltError struct {
	HaltCode
	Op   Op
	Addr uint16
}

func (e HaltError) Error() string {
	return fmt.Sprintf("%s executing %s at %.4x", e.HaltCode, e.Op, e.Addr)
}

// HaltCode signifies the type of condition that halted execution.
type HaltCode byte

const (
	Underflow    HaltCode = 0x01
	Overflow     HaltCode = 0x02
	DivideByZero HaltCode = 0x03
)

func (c HaltCode) String() string {
	switch c {
	case Underflow:
		return "stack underflow"
	case Overflow:
		return "stack overflow"
	case DivideByZero:
		return "division by zero"
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

func short(hi, lo byte) uint16 {
	return uint16(hi)<<8 + uint16(lo)
}
