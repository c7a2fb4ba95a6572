package varvara

import (
	"image"

	"github.com/go-faster/errors"
)

// Surface is a drawable area of colour indices.
//
// Fill sets every pixel of r to the palette index colour on the
// foreground layer if fg is set, otherwise on the background layer.
// Resolving the index to a colour is up to the Surface.
type Surface interface {
	Bounds() image.Rectangle
	Fill(r image.Rectangle, colour byte, fg bool) error
}

// Screen holds the drawing state of the Screen device.
type Screen struct {
	surface Surface

	x, y, addr             uint16
	autoX, autoY, autoAddr bool
	length                 byte // sprite count; stored but not yet used
}

// NewScreen returns a Screen that draws to s.
func NewScreen(s Surface) *Screen {
	return &Screen{surface: s}
}

func (s *Screen) Width() uint16  { return uint16(s.surface.Bounds().Dx()) }
func (s *Screen) Height() uint16 { return uint16(s.surface.Bounds().Dy()) }
func (s *Screen) X() uint16      { return s.x }
func (s *Screen) Y() uint16      { return s.y }
func (s *Screen) Addr() uint16   { return s.addr }
func (s *Screen) Length() byte   { return s.length }

// Auto reports which auto-increment flags are set.
func (s *Screen) Auto() (x, y, addr bool) { return s.autoX, s.autoY, s.autoAddr }

func (s *Screen) setAuto(b AutoByte) {
	s.autoX = b.X()
	s.autoY = b.Y()
	s.autoAddr = b.Addr()
	s.length = b.Length()
}

// DrawFill fills the given rectangle with colour.
func (s *Screen) DrawFill(fg bool, x, y, width, height uint16, colour byte) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height))
	if err := s.surface.Fill(r, colour, fg); err != nil {
		return errors.Wrap(err, "fill")
	}
	return nil
}

// DrawPixel sets the pixel under the cursor to colour and then advances the
// cursor according to the auto flags. A cursor outside the surface draws
// nothing and is not advanced.
func (s *Screen) DrawPixel(fg bool, colour byte) error {
	if s.x >= s.Width() || s.y >= s.Height() {
		return nil
	}
	r := image.Rect(int(s.x), int(s.y), int(s.x)+1, int(s.y)+1)
	if err := s.surface.Fill(r, colour, fg); err != nil {
		return errors.Wrap(err, "pixel")
	}
	if s.autoX {
		s.x++
	}
	if s.autoY {
		s.y++
	}
	return nil
}

// draw performs the pixel or fill operation encoded in op.
func (s *Screen) draw(op drawOp) error {
	if !op.Fill() {
		return s.DrawPixel(op.Foreground(), op.Color())
	}
	var (
		w, h          = s.Width(), s.Height()
		x, y          = s.x, s.y
		width, height uint16
	)
	if op.FlipX() {
		x, width = 0, s.x
	} else {
		width = sub(w, s.x)
	}
	if op.FlipY() {
		y, height = 0, s.y
	} else {
		height = sub(h, s.y)
	}
	return s.DrawFill(op.Foreground(), x, y, width, height, op.Color())
}

// sub returns a-b, or zero if b > a.
func sub(a, b uint16) uint16 {
	if b > a {
		return 0
	}
	return a - b
}

// AutoByte is the value of the Screen auto register.
type AutoByte byte

func (b AutoByte) X() bool      { return b&0x01 != 0 }
func (b AutoByte) Y() bool      { return b&0x02 != 0 }
func (b AutoByte) Addr() bool   { return b&0x04 != 0 }
func (b AutoByte) Length() byte { return byte(b >> 4) }

type drawOp byte

func (b drawOp) Color() byte      { return byte(b) & 0x03 }
func (b drawOp) FlipX() bool      { return b&0x10 != 0 }
func (b drawOp) FlipY() bool      { return b&0x20 != 0 }
func (b drawOp) Foreground() bool { return b&0x40 != 0 }
func (b drawOp) Fill() bool       { return b&0x80 != 0 }
