package dap

import (
	"bufio"
	"fmt"
	"net"
)

// Serve binds addr, accepts exactly one debug-adapter client, and
// drives session's request/response loop over that connection until
// the client disconnects or asks to. It never restarts the listener —
// a second connection attempt after the first client leaves is out of
// scope. session is built by the caller via NewSession, so a caller
// that also wants a read-only observer (see the inspector package) can
// poll the same Session through Session.Inspect while Serve drives it.
func Serve(addr string, session *Session) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding debug adapter on %s: %w", addr, err)
	}
	defer ln.Close()

	sessionLog.Printf("listening on %s", addr)

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accepting debug adapter client: %w", err)
	}
	defer conn.Close()

	sessionLog.Printf("client connected from %s", conn.RemoteAddr())

	reader := bufio.NewReader(conn)

	for {
		req, err := readMessage(reader)
		if err != nil {
			sessionLog.Printf("connection closed: %v", err)
			return nil
		}

		for _, msg := range session.Handle(req) {
			if err := writeMessage(conn, msg); err != nil {
				return fmt.Errorf("writing DAP response: %w", err)
			}
		}

		if req.Command == "disconnect" {
			return nil
		}
	}
}
