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

//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package pollset

import "golang.org/x/sys/unix"

func newBackend() backend { return &pollBackend{} }

// pollBackend is the stateless fallback used on platforms without a
// dedicated epoll/kqueue backend: it rebuilds the pollfd slice from
// the registered set on every wait. Chosen over IOCP-style completion
// ports, which this module does not implement (see DESIGN.md, open
// question 7.1): poll(2) covers every remaining POSIX target with one
// code path.
type pollBackend struct {
	fds map[int]struct{}
}

func (b *pollBackend) open() error {
	b.fds = make(map[int]struct{}, Capacity)
	return nil
}

func (b *pollBackend) add(fd int) error {
	b.fds[fd] = struct{}{}
	return nil
}

func (b *pollBackend) remove(fd int) error {
	delete(b.fds, fd)
	return nil
}

func (b *pollBackend) wait(timeoutMs int) ([]int, error) {
	fds := make([]unix.PollFd, 0, len(b.fds))
	for fd := range b.fds {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}

	n, e := unix.Poll(fds, timeoutMs)
	if e != nil {
		if e == unix.EINTR {
			return nil, nil
		}
		return nil, e
	}

	out := make([]int, 0, n)
	for _, p := range fds {
		if p.Revents&unix.POLLIN != 0 {
			out = append(out, int(p.Fd))
		}
	}
	return out, nil
}

func (b *pollBackend) close() error { return nil }
