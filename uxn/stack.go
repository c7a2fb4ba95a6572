package uxn

import (
	"fmt"
	"strings"
)

// Stack implements a Uxn CPU stack.
// Ptr is the index of the next free byte; it is exposed to
// the System device and may be rewritten by the program.
type Stack struct {
	Bytes [0x100]byte
	Ptr   byte
}

func (s *Stack) wrap() *stackWrapper { return s.mutate(false) }

func (s *Stack) mutate(keep bool) *stackWrapper {
	return &stackWrapper{Stack: s, keep: keep}
}

// PeekShort returns the top short of the stack without removing it.
func (s *Stack) PeekShort() (uint16, bool) {
	if s.Ptr < 2 {
		return 0, false
	}
	return short(s.Bytes[s.Ptr-2], s.Bytes[s.Ptr-1]), true
}

// stackWrapper tracks the bytes consumed by a single instruction so that
// keep mode can read operands without removing them.
type stackWrapper struct {
	*Stack
	keep   bool
	popped byte
	pushed bool
}

func (s *stackWrapper) Pop() byte {
	if s.pushed {
		panic("internal error: Pop after Push in stackWrapper")
	}
	if s.Ptr-s.popped == 0 {
		panic(Underflow)
	}
	if s.keep {
		s.popped++
	} else {
		s.Ptr--
	}
	return s.Bytes[s.Ptr-s.popped]
}

func (s *stackWrapper) Push(v byte) {
	if s.Ptr == 0xff {
		panic(Overflow)
	}
	s.Bytes[s.Ptr] = v
	s.Ptr++
	s.pushed = true
}

func (s *stackWrapper) PopShort() uint16 {
	lo := s.Pop()
	return short(s.Pop(), lo)
}

func (s *stackWrapper) PushShort(v uint16) {
	s.Push(byte(v >> 8))
	s.Push(byte(v))
}

func (s *stackWrapper) PopOffset() uint16 {
	return uint16(int8(s.Pop()))
}

func (s *stackWrapper) PushBool(b bool) {
	if b {
		s.Push(1)
	} else {
		s.Push(0)
	}
}

type shortPushPopper struct {
	*stackWrapper
}

func (s shortPushPopper) Pop() uint16   { return s.PopShort() }
func (s shortPushPopper) Push(v uint16) { s.PushShort(v) }

type pushPopper[T byte | uint16] interface {
	Pop() T
	Push(T)
	PushBool(bool)
}

var (
	_ pushPopper[byte]   = &stackWrapper{}
	_ pushPopper[uint16] = shortPushPopper{}
)

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, v := range s.Bytes[:s.Ptr] {
		fmt.Fprintf(&b, " %.2x", v)
	}
	b.WriteString(" )")
	return b.String()
}
