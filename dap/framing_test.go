package dap

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	msg := Message{Seq: 1, Type: "request", Command: "initialize"}
	require.NoError(t, writeMessage(&buf, msg))

	got, err := readMessage(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, msg.Seq, got.Seq)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.Command, got.Command)
}

func TestReadMessageRejectsMissingContentLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("\r\n{}"))
	_, err := readMessage(r)
	assert.Error(t, err)
}

func TestReadMessageHandlesMultipleHeaders(t *testing.T) {
	raw := "Content-Type: application/json\r\nContent-Length: 2\r\n\r\n{}"
	r := bufio.NewReader(bytes.NewBufferString(raw))
	_, err := readMessage(r)
	assert.NoError(t, err)
}
