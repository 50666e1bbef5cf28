/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package sockconn

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/tlsprofile"
)

// Connection is a byte-level TCP endpoint, active or passive, with an
// optional TLS wrapper. Read and write paths are independently
// mutex-protected so receive and send do not serialize on each other
// (spec §5, "Shared-resource policy").
type Connection struct {
	tunables Tunables
	profile  *tlsprofile.Profile

	state atomic.Uint32

	muConnect sync.Mutex
	muRead    sync.Mutex
	muWrite   sync.Mutex

	conn     net.Conn
	rawConn  net.Conn // pre-TLS conn, kept for FD() since tls.Conn hides the descriptor
	listener net.Listener
}

// FD returns the underlying socket's raw file descriptor, for
// registration with a pollset.Set. It always resolves through the
// pre-TLS connection since crypto/tls.Conn does not implement
// syscall.Conn.
func (c *Connection) FD() (int, error) {
	sc, ok := c.rawConn.(syscall.Conn)
	if !ok {
		return 0, errors.New("connection does not expose a raw file descriptor")
	}

	raw, e := sc.SyscallConn()
	if e != nil {
		return 0, e
	}

	var fd int
	var ctrlErr error
	if e := raw.Control(func(descriptor uintptr) {
		fd = int(descriptor)
	}); e != nil {
		ctrlErr = e
	}

	return fd, ctrlErr
}

// New builds an unconnected Connection with the given tunables and an
// optional TLS profile (nil disables TLS on this connection).
func New(t Tunables, profile *tlsprofile.Profile) *Connection {
	t.ApplyWANPreset()
	c := &Connection{tunables: t, profile: profile}
	c.state.Store(uint32(StateUnconnected))
	return c
}

// State reports the connection's current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(uint32(s))
}

// Connect dials the configured peer, retrying up to
// tunables.ConnectRetries times with a short backoff, then applies
// socket tunables and performs the TLS handshake if a profile is set.
func (c *Connection) Connect() liberr.Error {
	c.muConnect.Lock()
	defer c.muConnect.Unlock()

	c.setState(StateConnecting)

	addr := net.JoinHostPort(c.tunables.Hostname, strconv.Itoa(int(c.tunables.Port)))
	dialer := net.Dialer{Timeout: c.connectTimeout()}

	var lastErr error
	for attempt := 0; attempt <= c.tunables.retries(); attempt++ {
		conn, e := dialer.Dial("tcp", addr)
		if e == nil {
			if e2 := applySocketOptions(conn, c.tunables); e2 != nil {
				_ = conn.Close()
				lastErr = e2
			} else {
				c.conn = conn
				c.rawConn = conn
				if c.profile != nil {
					if e3 := c.handshakeClient(); e3 != nil {
						c.setState(StateFailed)
						return ErrorTLSHandshake.Error(e3)
					}
				}
				c.setState(StateConnected)
				return nil
			}
		} else {
			lastErr = e
		}

		time.Sleep(backoff(attempt))
	}

	c.setState(StateFailed)
	return ErrorConnectFailed.Error(lastErr)
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt+1) * 50 * time.Millisecond
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}

func (c *Connection) connectTimeout() time.Duration {
	if c.tunables.ConnectTimeout > 0 {
		return c.tunables.ConnectTimeout
	}
	return 10 * time.Second
}

func (c *Connection) handshakeClient() error {
	tc := tls.Client(c.conn, c.profile.TLS())
	if e := tc.HandshakeContext(nil); e != nil { //nolint:staticcheck // nil Context is fine: no cancellation wiring at this layer.
		return e
	}
	c.conn = tc
	return nil
}

// Listen opens the passive listener.
func (c *Connection) Listen() liberr.Error {
	addr := net.JoinHostPort(c.tunables.Hostname, strconv.Itoa(int(c.tunables.Port)))

	l, e := net.Listen("tcp", addr)
	if e != nil {
		return ErrorListenFailed.Error(e)
	}

	c.listener = l
	c.setState(StateUnconnected)
	return nil
}

// Accept blocks for one incoming connection, applies the configured
// accept filter (spec §4.2, "Client-address filtering"), applies
// socket tunables, performs the TLS handshake if configured, and
// returns a new Connection representing the accepted peer. The
// listener itself is retained by the receiver for further Accept calls.
func (c *Connection) Accept() (*Connection, liberr.Error) {
	if c.listener == nil {
		return nil, ErrorNotListening.Error(nil)
	}

	raw, e := c.listener.Accept()
	if e != nil {
		return nil, ErrorAcceptFailed.Error(e)
	}

	if !c.acceptAllowed(raw) {
		_ = raw.Close()
		return nil, ErrorAcceptDisallowed.Error(nil)
	}

	if e2 := applySocketOptions(raw, c.tunables); e2 != nil {
		_ = raw.Close()
		return nil, ErrorAcceptFailed.Error(e2)
	}

	peer := &Connection{tunables: c.tunables, profile: c.profile, conn: raw, rawConn: raw}
	peer.setState(StateConnected)

	if c.profile != nil {
		ts := tls.Server(raw, c.profile.TLS())
		if e3 := ts.HandshakeContext(nil); e3 != nil { //nolint:staticcheck
			_ = raw.Close()
			peer.setState(StateFailed)
			return nil, ErrorTLSHandshake.Error(e3)
		}
		peer.conn = ts
	}

	return peer, nil
}

// acceptAllowed implements the client-address filter: if AcceptHostname
// and/or AcceptPort are configured, the accepted peer's address must
// match (hostname-or-port independent: either half can be checked
// alone).
func (c *Connection) acceptAllowed(raw net.Conn) bool {
	if c.tunables.AcceptHostname == "" && c.tunables.AcceptPort == 0 {
		return true
	}

	host, portStr, e := net.SplitHostPort(raw.RemoteAddr().String())
	if e != nil {
		return false
	}

	if c.tunables.AcceptHostname != "" && !hostMatches(c.tunables.AcceptHostname, host) {
		return false
	}

	if c.tunables.AcceptPort != 0 {
		port, _ := strconv.Atoi(portStr)
		if uint16(port) != c.tunables.AcceptPort {
			return false
		}
	}

	return true
}

func hostMatches(want, got string) bool {
	if want == got {
		return true
	}
	// Accept either a literal IP match or the pre-resolution hostname
	// recorded in configuration (spec §6, "Handshake").
	ips, e := net.LookupHost(want)
	if e != nil {
		return false
	}
	for _, ip := range ips {
		if ip == got {
			return true
		}
	}
	return false
}

// Read is a blocking read into buf. A clean peer close is reported as
// ErrorEndOfFile rather than Go's plain io.EOF, matching spec §7's
// EndOfFile error kind.
func (c *Connection) Read(buf []byte) (int, liberr.Error) {
	c.muRead.Lock()
	defer c.muRead.Unlock()

	for {
		n, e := c.conn.Read(buf)
		if e == nil {
			return n, nil
		}
		if isEOF(e) {
			return n, ErrorEndOfFile.Error(e)
		}
		if isEINTR(e) {
			continue
		}
		return n, ErrorIOError.Error(e)
	}
}

// WriteVector performs an all-or-error vectored write of bufs, each
// treated as one iovec entry, within the given deadline. On timeout it
// returns ErrorTimeout along with the byte count actually written
// before the deadline elapsed.
func (c *Connection) WriteVector(bufs net.Buffers, deadline time.Duration) (int64, liberr.Error) {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()

	if deadline > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(deadline))
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}

	n, e := bufs.WriteTo(c.conn)
	if e == nil {
		return n, nil
	}

	if ne, ok := e.(net.Error); ok && ne.Timeout() {
		return n, ErrorTimeout.Error(e)
	}

	return n, ErrorIOError.Error(e)
}

// Close tears down the connection and any retained listener.
func (c *Connection) Close() liberr.Error {
	c.setState(StateClosed)

	var errs []string
	if c.conn != nil {
		if e := c.conn.Close(); e != nil {
			errs = append(errs, e.Error())
		}
	}
	if c.listener != nil {
		if e := c.listener.Close(); e != nil {
			errs = append(errs, e.Error())
		}
	}

	if len(errs) > 0 {
		return ErrorIOError.Error(errors.New(strings.Join(errs, "; ")))
	}
	return nil
}

func isEOF(e error) bool {
	return errors.Is(e, io.EOF)
}

func isEINTR(e error) bool {
	type temporary interface{ Temporary() bool }
	if t, ok := e.(temporary); ok {
		return t.Temporary()
	}
	return false
}
