package varvara

import (
	"image"
	"image/draw"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// Window displays a Canvas and paces the screen vector.
type Window struct {
	Title  string
	Canvas *Canvas
	Scale  int
	Log    Logger
}

// Run opens the window and sends on frames at 60Hz, dropping frames the
// machine is too busy to take, until exit is closed or the window is closed.
// Run must be called from the main goroutine.
func (w *Window) Run(frames chan<- bool, exit <-chan bool) (err error) {
	driver.Main(func(s screen.Screen) {
		err = w.run(s, frames, exit)
	})
	return err
}

type tick struct{}

func (w *Window) run(s screen.Screen, frames chan<- bool, exit <-chan bool) error {
	log := w.Log
	if log == nil {
		log = nopLogger{}
	}
	scale := w.Scale
	if scale < 1 {
		scale = 1
	}
	sz := w.Canvas.Bounds().Size()
	win, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  w.Title,
		Width:  sz.X * scale,
		Height: sz.Y * scale,
	})
	if err != nil {
		return errors.Wrap(err, "new window")
	}
	defer win.Release()
	buf, err := s.NewBuffer(sz)
	if err != nil {
		return errors.Wrap(err, "new buffer")
	}
	defer buf.Release()
	tex, err := s.NewTexture(sz)
	if err != nil {
		return errors.Wrap(err, "new texture")
	}
	defer tex.Release()

	done := make(chan bool)
	defer close(done)
	go func() {
		t := time.NewTicker(time.Second / 60)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				win.Send(tick{})
			case <-done:
				return
			}
		}
	}()

	var winSize size.Event
	for {
		e := win.NextEvent()

		select {
		case <-exit:
			return nil
		default:
		}

		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case size.Event:
			winSize = e
			if winSize.WidthPx+winSize.HeightPx == 0 {
				return nil
			}

		case paint.Event:

		case tick:
			select {
			case frames <- true:
			default:
				// uxn cpu is busy
			}
			w.Canvas.Render(buf.RGBA())
			tex.Upload(image.Point{}, buf, buf.Bounds())
			win.Scale(winSize.Bounds(), tex, tex.Bounds(), draw.Src, nil)
			win.Publish()

		case error:
			log.Warnf("gui: %v", e)
		}
	}
}
