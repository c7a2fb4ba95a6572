package varvara

import (
	"image"
	"image/color"
	"sync"
)

// Canvas is an in-memory Surface with a background and a foreground layer
// of palette indices. Index 0 on the foreground layer is transparent.
//
// Canvas is safe for concurrent use, so that it may be rendered by a
// display goroutine while the machine draws to it.
type Canvas struct {
	mu      sync.Mutex
	w, h    int
	fg, bg  []byte
	palette Palette
	ops     int // total count of fills
}

// NewCanvas returns a blank Canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		w:  width,
		h:  height,
		fg: make([]byte, width*height),
		bg: make([]byte, width*height),
	}
}

func (c *Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.w, c.h) }

// Fill implements Surface. Parts of r outside the canvas are ignored.
func (c *Canvas) Fill(r image.Rectangle, colour byte, fg bool) error {
	r = r.Intersect(c.Bounds())
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.bg
	if fg {
		m = c.fg
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m[y*c.w : (y+1)*c.w]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = colour & 0x3
		}
	}
	c.ops++
	return nil
}

// At returns the palette index visible at (x, y).
func (c *Canvas) At(x, y int) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !(image.Point{x, y}).In(c.Bounds()) {
		return 0
	}
	if i := c.fg[y*c.w+x]; i != 0 {
		return i
	}
	return c.bg[y*c.w+x]
}

// SetPalette sets the colours used by Render.
func (c *Canvas) SetPalette(p Palette) {
	c.mu.Lock()
	c.palette = p
	c.mu.Unlock()
}

// Ops returns the number of fills performed so far.
func (c *Canvas) Ops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ops
}

// Render draws the canvas into dst, which should be the same size.
func (c *Canvas) Render(dst *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var theme [4]color.RGBA
	for i := range theme {
		theme[i] = c.palette.RGBA(byte(i))
	}
	b := dst.Bounds().Intersect(c.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := c.bg[y*c.w+x]
			if f := c.fg[y*c.w+x]; f != 0 {
				i = f
			}
			dst.SetRGBA(x, y, theme[i])
		}
	}
}

// Snapshot returns the current contents of the canvas as an image.
func (c *Canvas) Snapshot() *image.RGBA {
	m := image.NewRGBA(c.Bounds())
	c.Render(m)
	return m
}
