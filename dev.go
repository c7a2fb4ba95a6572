package main

import (
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/howeyc/fsnotify"
	"gopkg.in/Sirupsen/logrus.v0"

	"github.com/nf/nuxbus/varvara"
)

type DevCmd struct {
	Program string `arg:"" name:"program" help:".tal file to assemble and watch." type:"existingfile"`
}

func (c *DevCmd) Run(e *env) error { return devMode(e, c.Program) }

func devMode(e *env, talFile string) error {
	talFile = filepath.Clean(talFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(talFile)); err != nil {
		return errors.Wrap(err, "watch")
	}
	tmp, err := os.MkdirTemp("", "nuxbus-dev-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	romFile := filepath.Join(tmp, filepath.Base(talFile)+".rom")

	debug := newDebugger()
	runner := &devRunner{cfg: e.cfg, level: e.log.Level, debug: debug}
	debug.reset = func() { runner.start(nil) }
	debug.screenshot = runner.screenshot
	log.SetPrefix("")
	log.SetOutput(debug.log)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("nuxbus: ")
	}()

	go func() {
		run := time.After(1 * time.Millisecond)
		for {
			select {
			case <-run:
				log.Printf("dev: build %s", filepath.Base(talFile))
				rom, err := devBuild(debug.log, talFile, romFile)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				syms, err := parseSymbols(romFile + ".sym")
				if err != nil {
					log.Printf("dev: reading symbols: %v", err)
				}
				debug.setSymbols(syms)
				runner.start(rom)
			case ev := <-watcher.Event:
				if ev.Name == talFile && !ev.IsAttrib() {
					run = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()

	err = debug.Run()
	runner.halt()
	return err
}

// devBuild assembles talFile into romFile with uxnasm and returns the ROM.
func devBuild(out io.Writer, talFile, romFile string) ([]byte, error) {
	cmd := exec.Command("uxnasm", talFile, romFile)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, "uxnasm")
	}
	return os.ReadFile(romFile)
}

// devRunner runs the most recently built ROM, restarting the machine
// each time a new ROM is started.
type devRunner struct {
	cfg   Config
	level logrus.Level
	debug *debugger

	mu     sync.Mutex
	rom    []byte
	canvas *varvara.Canvas
	stop   chan bool
}

// start halts the running machine and boots a new one from rom,
// or from the previous ROM if rom is nil.
func (r *devRunner) start(rom []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.haltLocked()
	if rom != nil {
		r.rom = rom
	}
	if r.rom == nil {
		log.Print("dev: nothing to run")
		return
	}

	logger := logrus.New()
	logger.Out = r.debug.log
	logger.Level = r.level
	logger.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	var (
		stop   = make(chan bool)
		frames = make(chan bool, 1)
		canvas = varvara.NewCanvas(r.cfg.Screen.Width, r.cfg.Screen.Height)
		v      = varvara.New(r.rom, varvara.Config{
			Console:  varvara.NewConsole(r.debug.log, r.debug.log, nil),
			Surface:  canvas,
			Clock:    varvara.SystemClock,
			Log:      logger,
			Observer: r.debug.observe,
		})
	)
	r.stop, r.canvas = stop, canvas

	go func() {
		t := time.NewTicker(time.Second / 60)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				select {
				case frames <- true:
				default:
				}
			case <-stop:
				return
			}
		}
	}()
	go func() {
		code, err := v.Run(frames, stop)
		if err != nil {
			log.Printf("dev: %v", err)
			return
		}
		log.Printf("dev: exit code %d", code)
	}()
	log.Print("dev: start")
}

func (r *devRunner) halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.haltLocked()
}

func (r *devRunner) haltLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *devRunner) screenshot(name string) error {
	r.mu.Lock()
	c := r.canvas
	r.mu.Unlock()
	if c == nil {
		return errors.New("no screen")
	}
	return writeScreenshot(name, c, r.cfg.Screen.Scale)
}
