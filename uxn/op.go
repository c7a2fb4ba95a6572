package uxn

// Op represents a Uxn opcode.
type Op byte

// Mode bits that may be combined with a base opcode.
const (
	ModeShort  Op = 0x20
	ModeReturn Op = 0x40
	ModeKeep   Op = 0x80
)

// Short reports whether the opcode has the short flag set.
func (b Op) Short() bool { return b&ModeShort > 0 && b&0x9f > 0 }

// Return reports whether the opcode has the return flag set.
func (b Op) Return() bool { return b&ModeReturn > 0 && b&0x9f > 0 }

// Keep reports whether the opcode has the keep flag set.
func (b Op) Keep() bool { return b&ModeKeep > 0 && b&0x1f > 0 }

// Base returns the opcode without any flags set.
func (b Op) Base() Op {
	switch {
	case b&0x1f > 0:
		return b & 0x1f
	case b&0x9f == 0:
		return b
	case b&0x9f == 0x80:
		return LIT
	default:
		panic("unreachable")
	}
}

const (
	BRK Op = iota
	INC
	POP
	NIP
	SWP
	ROT
	DUP
	OVR
	EQU
	NEQ
	GTH
	LTH
	JMP
	JCN
	JSR
	STH
	LDZ
	STZ
	LDR
	STR
	LDA
	STA
	DEI
	DEO
	ADD
	SUB
	MUL
	DIV
	AND
	ORA
	EOR
	SFT
)

// Immediate opcodes occupy the flag combinations of BRK.
const (
	JCI Op = 0x20
	JMI Op = 0x40
	JSI Op = 0x60
	LIT Op = 0x80
)

var baseNames = [32]string{
	"BRK", "INC", "POP", "NIP", "SWP", "ROT", "DUP", "OVR",
	"EQU", "NEQ", "GTH", "LTH", "JMP", "JCN", "JSR", "STH",
	"LDZ", "STZ", "LDR", "STR", "LDA", "STA", "DEI", "DEO",
	"ADD", "SUB", "MUL", "DIV", "AND", "ORA", "EOR", "SFT",
}

func (b Op) String() string {
	var s string
	switch base := b.Base(); base {
	case JCI:
		return "JCI"
	case JMI:
		return "JMI"
	case JSI:
		return "JSI"
	case LIT:
		s = "LIT"
	default:
		s = baseNames[base]
	}
	if b.Short() {
		s += "2"
	}
	if b.Keep() {
		s += "k"
	}
	if b.Return() {
		s += "r"
	}
	return s
}
