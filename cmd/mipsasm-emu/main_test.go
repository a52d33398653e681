package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipskit/mips32/dap"
)

// writeMessageForTest and readMessageForTest mirror the Content-Length
// framing the debug adapter speaks, without reaching into dap's
// unexported framing helpers.
func writeMessageForTest(w io.Writer, msg dap.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Content-Length: %d\r\n\r\n%s", len(body), body)
	return err
}

func readMessageForTest(r *bufio.Reader) (dap.Message, error) {
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return dap.Message{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			contentLength, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return dap.Message{}, err
			}
		}
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return dap.Message{}, err
	}
	var msg dap.Message
	err := json.Unmarshal(body, &msg)
	return msg, err
}

func TestRunServesOneClientOverTCP(t *testing.T) {
	dir := t.TempDir()
	objectPath := filepath.Join(dir, "out.o")
	lineInfoPath := filepath.Join(dir, "out.o.li")

	// addi $t2, $zero, 1
	require.NoError(t, os.WriteFile(objectPath, []byte{0x01, 0x00, 0x0A, 0x20}, 0o600))
	require.NoError(t, os.WriteFile(lineInfoPath, []byte("[[record]]\ninstr_addr = 4194304\nline_number = 1\nline_contents = \"addi $t2, $zero, 1\"\n"), 0o600))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	done := make(chan error, 1)
	go func() { done <- run(port, objectPath, lineInfoPath, false) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeMessageForTest(conn, dap.Message{Seq: 1, Type: "request", Command: "initialize"}))
	reader := bufio.NewReader(conn)
	resp, err := readMessageForTest(reader)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	require.NoError(t, writeMessageForTest(conn, dap.Message{Seq: 2, Type: "request", Command: "disconnect"}))
	_, err = readMessageForTest(reader)
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after disconnect")
	}
}
