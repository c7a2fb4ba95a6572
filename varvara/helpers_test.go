package varvara

import (
	"fmt"
	"image"
	"time"
)

type fill struct {
	R      image.Rectangle
	Colour byte
	FG     bool
}

// recordingSurface records every fill instead of drawing it.
type recordingSurface struct {
	w, h  int
	fills []fill
	err   error
}

func (s *recordingSurface) Bounds() image.Rectangle { return image.Rect(0, 0, s.w, s.h) }

func (s *recordingSurface) Fill(r image.Rectangle, colour byte, fg bool) error {
	if s.err != nil {
		return s.err
	}
	s.fills = append(s.fills, fill{r, colour, fg})
	return nil
}

type recordingLogger struct {
	warn, debug []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
