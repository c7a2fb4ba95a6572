package main

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/nuxbus/uxn"
	"github.com/nf/nuxbus/varvara"
)

// debugger is the dev mode terminal UI. It shows the log, symbol watches,
// the CPU stacks and the device register file.
type debugger struct {
	log     *tview.TextView
	watch   *tview.TextView
	devices *tview.TextView
	state   *tview.TextView
	input   *tview.InputField
	cols    *tview.Flex
	rows    *tview.Flex
	app     *tview.Application

	reset      func()
	screenshot func(name string) error

	mu      sync.Mutex
	syms    symbols
	watches []watch
	last    time.Time
}

type watch struct {
	symbol
	short bool
}

func (d *debugger) symbols() symbols {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syms
}

func (d *debugger) setSymbols(s symbols) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syms = s
}

func newDebugger() *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		devices: tview.NewTextView().
			SetWrap(false),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.devices.SetBackgroundColor(tcell.ColorDarkSlateGray)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false).
		AddItem(d.devices, 62, 0, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 3, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok {
			switch cmd {
			case "w", "w2", "watch", "watch2":
				for _, s := range d.symbols().withLabelPrefix(arg) {
					entries = append(entries, cmd+" "+s.label)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		d.command(cmd)
	})
	return d
}

func (d *debugger) command(cmd string) {
	switch cmd {
	case "exit":
		d.app.Stop()
		return
	case "reset":
		if d.reset != nil {
			d.reset()
		}
		return
	}
	if cmd, arg, ok := strings.Cut(cmd, " "); ok {
		switch cmd {
		case "shot", "screenshot":
			if d.screenshot == nil {
				return
			}
			if err := d.screenshot(arg); err != nil {
				log.Printf("screenshot: %v", err)
				return
			}
			log.Printf("wrote %s", arg)
			return
		case "w", "w2", "watch", "watch2":
			s, ok := d.symbols().resolve(arg)
			if !ok {
				log.Printf("invalid address %q", arg)
				return
			}
			d.mu.Lock()
			d.watches = append(d.watches,
				watch{symbol: s, short: strings.HasSuffix(cmd, "2")})
			d.mu.Unlock()
			log.Printf("watching %.4x", s.addr)
			return
		}
	}
	log.Printf("unknown command %q", cmd)
}

func (d *debugger) Run() error { return d.app.Run() }

// observe is the varvara Observer for dev mode. It is called on the
// machine's goroutine, so memory is read here and only text is handed
// to the UI.
func (d *debugger) observe(s varvara.State) {
	d.mu.Lock()
	if !s.Halted && time.Since(d.last) < time.Second/10 {
		d.mu.Unlock()
		return
	}
	d.last = time.Now()
	d.mu.Unlock()

	var (
		watch   = d.watchContent(s.Mem)
		devices = devicesMsg(&s.Devices)
		state   = stateMsg(d.symbols(), s)
	)
	d.app.QueueUpdateDraw(func() {
		if s.Halted {
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		} else {
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		}
		d.watch.SetText(watch)
		d.devices.SetText(devices)
		d.state.SetText(state)
	})
}

func stateMsg(syms symbols, s varvara.State) string {
	var (
		op    = uxn.Op(s.Mem[s.PC])
		pcSym string
	)
	if ss := syms.forAddr(s.PC); len(ss) > 0 {
		pcSym = ss[0].String()
	}
	kind := "       "
	if s.Halted {
		kind = "[HALT!]"
	}
	return fmt.Sprintf("%.4x %- 6s %s %s\nws: %v\nrs: %v\n",
		s.PC, op, kind, pcSym, s.Work, s.Ret)
}

var deviceNames = [16]string{
	"system", "console", "screen", "audio", "audio", "audio", "audio", "",
	"control", "mouse", "file", "file", "datetime", "", "", "",
}

func devicesMsg(regs *[0x100]byte) string {
	var b strings.Builder
	for page := 0; page < 0x100; page += 0x10 {
		fmt.Fprintf(&b, "%-8s %.2x:", deviceNames[page>>4], page)
		for _, v := range regs[page : page+0x10] {
			fmt.Fprintf(&b, " %.2x", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (d *debugger) watchContent(mem *[0x10000]byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%.4x] ", w.label, w.addr)
		if w.short {
			fmt.Fprintf(&b, "%.2x%.2x", mem[w.addr], mem[w.addr+1])
		} else {
			fmt.Fprintf(&b, "  %.2x", mem[w.addr])
		}
	}
	return b.String()
}
