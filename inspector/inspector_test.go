package inspector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mipskit/mips32/dap"
	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/mips"
)

func newTestSession(lines lineinfo.Table) (*dap.Session, *mips.Machine) {
	m := mips.NewMachine(nil)
	m.Mem.AddPool(make([]byte, 0x100), 0x00400000, 0x100)
	m.PC = 0x00400000
	m.SetReg(8, 0xCAFEBABE)
	return dap.NewSession(m, lines), m
}

func TestRefreshRendersRegisterValues(t *testing.T) {
	session, _ := newTestSession(lineinfo.Table{})
	insp := New(session)
	insp.Refresh()
	assert.Contains(t, insp.RegisterView.GetText(true), "0xCAFEBABE")
}

func TestRefreshHighlightsCurrentPC(t *testing.T) {
	session, _ := newTestSession(lineinfo.Table{})
	insp := New(session)
	insp.Refresh()
	text := insp.SourceView.GetText(true)
	assert.True(t, strings.Contains(text, "-> 0x00400000"))
}

func TestWriteStringAppendsToOutputView(t *testing.T) {
	session, _ := newTestSession(lineinfo.Table{})
	insp := New(session)
	n, err := insp.WriteString("hello\n")
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Contains(t, insp.OutputView.GetText(true), "hello")
}

func TestSourceViewShowsLineInfoText(t *testing.T) {
	lines := lineinfo.Table{0x00400000: {InstrAddr: 0x00400000, LineNumber: 1, LineContents: "add $t0, $t1, $t2"}}
	session, _ := newTestSession(lines)
	insp := New(session)
	insp.Refresh()
	assert.Contains(t, insp.SourceView.GetText(true), "add $t0, $t1, $t2")
}

func TestRefreshObservesMachineStateThroughSession(t *testing.T) {
	session, m := newTestSession(lineinfo.Table{})
	insp := New(session)

	m.SetReg(9, 0xABCD1234)
	insp.Refresh()
	assert.Contains(t, insp.RegisterView.GetText(true), "0xABCD1234")
}
