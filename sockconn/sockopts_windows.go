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

//go:build windows

package sockconn

import (
	"net"
	"syscall"

	"golang.org/x/sys/windows"
)

// applySocketOptions sets TCP_NODELAY and the read/write buffer sizes
// using the windows.Setsockopt* wrappers; unlike the Unix variant it
// does not set SO_REUSEADDR or TCP_MAXSEG. SIGPIPE does not exist on
// Windows, so there is nothing to suppress.
func applySocketOptions(c net.Conn, t Tunables) error {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return nil
	}

	rc, e := sc.SyscallConn()
	if e != nil {
		return e
	}

	return rc.Control(func(fd uintptr) {
		h := windows.Handle(fd)
		_ = windows.SetsockoptInt(h, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1)

		if t.SocketReadBufferSize > 0 {
			_ = windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_RCVBUF, int(t.SocketReadBufferSize))
		}
		if t.SocketWriteBufferSize > 0 {
			_ = windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_SNDBUF, int(t.SocketWriteBufferSize))
		}
	})
}
