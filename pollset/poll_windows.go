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

package pollset

import "golang.org/x/sys/windows"

func newBackend() backend { return &wsaPollBackend{} }

// wsaPollBackend uses WSAPoll, the Windows Sockets analogue of
// poll(2). This module does not implement IOCP-based completion ports
// (see DESIGN.md, open question 7.1): the spec's poll-set contract is
// level-triggered readiness, which WSAPoll expresses directly without
// the completion/overlapped-IO bookkeeping IOCP would require.
type wsaPollBackend struct {
	fds map[int]struct{}
}

func (b *wsaPollBackend) open() error {
	b.fds = make(map[int]struct{}, Capacity)
	return nil
}

func (b *wsaPollBackend) add(fd int) error {
	b.fds[fd] = struct{}{}
	return nil
}

func (b *wsaPollBackend) remove(fd int) error {
	delete(b.fds, fd)
	return nil
}

func (b *wsaPollBackend) wait(timeoutMs int) ([]int, error) {
	fds := make([]windows.WSAPollFd, 0, len(b.fds))
	for fd := range b.fds {
		fds = append(fds, windows.WSAPollFd{Fd: windows.Handle(fd), Events: windows.POLLIN})
	}

	n, e := windows.WSAPoll(fds, timeoutMs)
	if e != nil {
		return nil, e
	}

	out := make([]int, 0, n)
	for _, p := range fds {
		if p.REvents&windows.POLLIN != 0 {
			out = append(out, int(p.Fd))
		}
	}
	return out, nil
}

func (b *wsaPollBackend) close() error { return nil }
