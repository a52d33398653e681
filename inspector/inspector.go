// Package inspector provides a read-only terminal UI that mirrors a
// running mips.Machine's state. It never issues commands back into the
// machine — the debug adapter is the sole driver — and it never reads
// the Machine directly either: every refresh goes through
// dap.Session.Inspect, which takes the session's read lock, so polling
// can never observe a Machine mid-Step or a pointer Restart has since
// replaced.
package inspector

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mipskit/mips32/dap"
	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/mips"
)

var registerMnemonics = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// Inspector is the observer-only TUI: one App, three read-only panels,
// polling a dap.Session rather than owning a Machine reference itself.
type Inspector struct {
	mu      sync.Mutex
	session *dap.Session

	App          *tview.Application
	RegisterView *tview.TextView
	SourceView   *tview.TextView
	OutputView   *tview.TextView
	MainLayout   *tview.Flex

	stop chan struct{}
}

// New builds an Inspector that polls session for its machine and
// line-info table on every Refresh. session's line table may be empty
// if no line-info sidecar is available, in which case the source panel
// shows raw addresses instead of source text.
func New(session *dap.Session) *Inspector {
	insp := &Inspector{
		session: session,
		App:     tview.NewApplication(),
		stop:    make(chan struct{}),
	}
	insp.initializeViews()
	insp.buildLayout()
	return insp
}

func (insp *Inspector) initializeViews() {
	insp.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	insp.RegisterView.SetBorder(true).SetTitle(" Registers ")

	insp.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	insp.SourceView.SetBorder(true).SetTitle(" Source ")

	insp.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	insp.OutputView.SetBorder(true).SetTitle(" Output ")
}

func (insp *Inspector) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(insp.SourceView, 0, 2, false).
		AddItem(insp.RegisterView, 0, 1, false)

	insp.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, false).
		AddItem(insp.OutputView, 0, 1, false)

	insp.App.SetRoot(insp.MainLayout, true)
	insp.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || event.Key() == tcell.KeyEscape {
			insp.Stop()
			return nil
		}
		return event
	})
}

// WriteString makes Inspector usable as a mips.Writer, so a program's
// syscall output is mirrored into the Output panel alongside whatever
// the caller also writes it to.
func (insp *Inspector) WriteString(s string) (int, error) {
	insp.mu.Lock()
	defer insp.mu.Unlock()
	fmt.Fprint(insp.OutputView, s)
	insp.OutputView.ScrollToEnd()
	return len(s), nil
}

// Refresh redraws every panel from the session's current state. It
// pulls the Machine through session.Inspect, which holds the session's
// read lock for the duration of the callback, so this never races a
// DAP request that is mid-Step or mid-Restart on the same Machine.
func (insp *Inspector) Refresh() {
	insp.mu.Lock()
	defer insp.mu.Unlock()
	insp.session.Inspect(func(m *mips.Machine, lines lineinfo.Table) {
		insp.updateRegisterView(m)
		insp.updateSourceView(m, lines)
	})
}

func (insp *Inspector) updateRegisterView(m *mips.Machine) {
	var lines []string
	for row := 0; row < 8; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			n := row*4 + col
			cols = append(cols, fmt.Sprintf("$%-4s 0x%08X", registerMnemonics[n], m.Reg(uint32(n))))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PC  0x%08X   HI 0x%08X   LO 0x%08X", m.PC, m.Hi, m.Lo))
	if m.PrevResult != nil {
		lines = append(lines, fmt.Sprintf("[red]fault: %s[white]", m.PrevResult.Error()))
	}
	insp.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (insp *Inspector) updateSourceView(m *mips.Machine, lineTable lineinfo.Table) {
	pc := m.PC
	start := pc - 16
	if start > pc {
		start = 0
	}
	var lines []string
	for addr := start; addr <= pc+16; addr += 4 {
		marker, color := "  ", "white"
		if addr == pc {
			marker, color = "->", "yellow"
		}
		text := fmt.Sprintf("0x%08X", addr)
		if lineTable != nil {
			if rec, ok := lineTable.Lookup(addr); ok {
				text = rec.LineContents
			}
		}
		lines = append(lines, fmt.Sprintf("[%s]%s 0x%08X: %s[white]", color, marker, addr, text))
	}
	insp.SourceView.SetText(strings.Join(lines, "\n"))
}

// Run starts the polling refresh loop and blocks on the tview event
// loop until Stop is called or the application exits.
func (insp *Inspector) Run() error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				insp.Refresh()
				insp.App.QueueUpdateDraw(func() {})
			case <-insp.stop:
				return
			}
		}
	}()

	return insp.App.Run()
}

// Stop tears down the tview application.
func (insp *Inspector) Stop() {
	select {
	case <-insp.stop:
	default:
		close(insp.stop)
	}
	insp.App.Stop()
}
