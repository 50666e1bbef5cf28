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

//go:build linux

package pollset

import "golang.org/x/sys/unix"

func newBackend() backend { return &epollBackend{} }

// epollBackend is the Linux backend: one epoll fd, reused across
// Check calls, closed on Set.Close.
type epollBackend struct {
	fd  int
	buf [Capacity]unix.EpollEvent
}

func (b *epollBackend) open() error {
	fd, e := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if e != nil {
		return e
	}
	b.fd = fd
	return nil
}

func (b *epollBackend) add(fd int) error {
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	return unix.EpollCtl(b.fd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(timeoutMs int) ([]int, error) {
	n, e := unix.EpollWait(b.fd, b.buf[:], timeoutMs)
	if e != nil {
		if e == unix.EINTR {
			return nil, nil
		}
		return nil, e
	}

	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, int(b.buf[i].Fd))
	}
	return out, nil
}

func (b *epollBackend) close() error {
	return unix.Close(b.fd)
}
