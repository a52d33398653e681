package dap

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/mips"
)

func TestServeHandlesOneClientThenReturns(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := mips.NewMachine(nil)
	code := []byte{0x01, 0x00, 0x0A, 0x20} // addi $t2, $zero, 1 (little-endian word 0x200A0001)
	m.Mem.AddPool(code, 0x00400000, uint32(len(code)))
	m.PC = 0x00400000
	m.StopAddress = 0x00400004

	session := NewSession(m, lineinfo.Table{})

	done := make(chan error, 1)
	go func() { done <- Serve(addr, session) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeMessage(conn, Message{Seq: 1, Type: "request", Command: "initialize"}))
	reader := bufio.NewReader(conn)
	resp, err := readMessage(reader)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	initialized, err := readMessage(reader)
	require.NoError(t, err)
	assert.Equal(t, "initialized", initialized.Event)

	require.NoError(t, writeMessage(conn, Message{Seq: 2, Type: "request", Command: "disconnect"}))
	disconnectResp, err := readMessage(reader)
	require.NoError(t, err)
	assert.True(t, disconnectResp.Success)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after disconnect")
	}
}
