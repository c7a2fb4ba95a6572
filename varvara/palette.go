package varvara

import "image/color"

// Palette holds the four system colours, each a 12-bit 0xRGB value.
//
// A Palette is always derived from the System device registers
// 0x08 through 0x0c; see Bus.Palette.
type Palette struct {
	Colour0, Colour1, Colour2, Colour3 uint16
}

func decodePalette(b *[0x100]byte) Palette {
	const mask = 0x0fff
	return Palette{
		Colour0: (uint16(b[0x8])<<1 | uint16(b[0x9]>>1)) & mask,
		Colour1: (uint16(b[0x9]&0x1)<<2 | uint16(b[0xa])) & mask,
		Colour2: (uint16(b[0xa])<<1 | uint16(b[0xb]>>1)) & mask,
		Colour3: (uint16(b[0xb]&0x1)<<2 | uint16(b[0xc])) & mask,
	}
}

// Colour returns colour i, which must be in the range [0, 3].
func (p Palette) Colour(i byte) uint16 {
	switch i & 0x3 {
	case 0:
		return p.Colour0
	case 1:
		return p.Colour1
	case 2:
		return p.Colour2
	default:
		return p.Colour3
	}
}

// RGBA returns colour i as an opaque color.RGBA, expanding each
// 4-bit channel to 8 bits.
func (p Palette) RGBA(i byte) color.RGBA {
	c := p.Colour(i)
	return color.RGBA{
		R: byte(c>>8&0xf) * 0x11,
		G: byte(c>>4&0xf) * 0x11,
		B: byte(c&0xf) * 0x11,
		A: 0xff,
	}
}
