package main

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/go-faster/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/nf/nuxbus/varvara"
)

type RunCmd struct {
	Program    string `arg:"" name:"program" help:"ROM or .tal file to run." type:"existingfile"`
	CLI        bool   `name:"cli" help:"Disable GUI features."`
	Raw        bool   `help:"Put the terminal in raw mode so console input is delivered per byte."`
	Screenshot string `help:"Write the final screen to a PNG file." type:"path" placeholder:"FILE"`
	CPUProfile string `name:"cpu-profile" help:"Write CPU profile to FILE." type:"path" placeholder:"FILE"`
}

func (r *RunCmd) Run(e *env) error {
	rom, err := loadROM(r.Program)
	if err != nil {
		return err
	}

	if prof := r.CPUProfile; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			return errors.Wrap(err, "creating CPU profile file")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	code, err := r.run(e, rom)
	if err != nil {
		return err
	}
	if code != 0 {
		return exitCode(code)
	}
	return nil
}

func (r *RunCmd) run(e *env, rom []byte) (int, error) {
	var in io.Reader = os.Stdin
	if fd := int(os.Stdin.Fd()); r.Raw && term.IsTerminal(fd) {
		st, err := term.MakeRaw(fd)
		if err != nil {
			return 0, errors.Wrap(err, "raw terminal")
		}
		defer term.Restore(fd, st)
	}

	var (
		cfg    = e.cfg
		canvas *varvara.Canvas
		c      = varvara.Config{Log: e.log}
	)
	if cfg.Devices.Console {
		c.Console = varvara.NewConsole(os.Stdout, os.Stderr, in)
	}
	if cfg.Devices.Screen {
		canvas = varvara.NewCanvas(cfg.Screen.Width, cfg.Screen.Height)
		c.Surface = canvas
	}
	if cfg.Devices.Clock {
		c.Clock = varvara.SystemClock
	}
	v := varvara.New(rom, c)

	var (
		code int
		err  error
	)
	if r.CLI || canvas == nil {
		code, err = v.Run(nil, nil)
	} else {
		var (
			frames = make(chan bool, 1)
			stop   = make(chan bool)
			exit   = make(chan bool)
		)
		go func() {
			code, err = v.Run(frames, stop)
			close(exit)
		}()
		w := &varvara.Window{
			Title:  "nuxbus " + filepath.Base(r.Program),
			Canvas: canvas,
			Scale:  cfg.Screen.Scale,
			Log:    e.log,
		}
		if werr := w.Run(frames, exit); werr != nil {
			return 0, errors.Wrap(werr, "gui")
		}
		close(stop)
		<-exit
	}
	if err != nil {
		return 0, err
	}
	if r.Screenshot != "" && canvas != nil {
		if err := writeScreenshot(r.Screenshot, canvas, cfg.Screen.Scale); err != nil {
			return 0, err
		}
	}
	return code, nil
}

// loadROM reads a ROM file, or assembles a .tal file with uxnasm.
func loadROM(name string) ([]byte, error) {
	if filepath.Ext(name) != ".tal" {
		return os.ReadFile(name)
	}
	tmp, err := os.MkdirTemp("", "nuxbus-build-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	romFile := filepath.Join(tmp, filepath.Base(name)+".rom")
	return devBuild(os.Stderr, name, romFile)
}

// writeScreenshot writes the canvas to a PNG file, scaled up by scale.
func writeScreenshot(name string, c *varvara.Canvas, scale int) error {
	src := c.Snapshot()
	sz := src.Bounds().Size()
	dst := image.NewRGBA(image.Rect(0, 0, sz.X*scale, sz.Y*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding screenshot")
	}
	return f.Close()
}
