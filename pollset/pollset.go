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

// Package pollset provides a uniform readiness-multiplexer interface
// over the platform's native facility: epoll on Linux, kqueue on the
// BSDs and Darwin, and a poll(2)/WSAPoll fallback elsewhere. Receive
// threads register (fd, user object) pairs and block in Check until at
// least one is readable.
package pollset

import (
	"sync"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// Capacity is the fixed maximum number of (fd, user object)
// registrations a Set accepts.
const Capacity = 1024

// backend is the OS-specific half: opening/closing the kernel
// readiness object and performing the blocking wait. One
// implementation is compiled in per platform (epoll_linux.go,
// kqueue_bsd.go, poll_other.go).
type backend interface {
	open() error
	add(fd int) error
	remove(fd int) error
	wait(timeoutMs int) ([]int, error)
	close() error
}

// Registration is the user-visible slot returned by NextReady.
type Registration struct {
	FD     int
	Object interface{}
}

// Set is the OS-abstract readiness multiplexer. Stateful backends
// (epoll, kqueue) hold a kernel fd that Close releases; the poll
// fallback is stateless and Close is a no-op.
type Set struct {
	mu sync.Mutex

	be backend

	objects map[int]interface{}
	ready   []Registration
	pos     int
}

// New opens a Set using the platform's compiled-in backend.
func New() (*Set, liberr.Error) {
	be := newBackend()
	if e := be.open(); e != nil {
		return nil, ErrorBackendOpen.Error(e)
	}

	return &Set{
		be:      be,
		objects: make(map[int]interface{}, Capacity),
	}, nil
}

// Add registers fd with an opaque user object. Returns ErrorFull once
// Capacity registrations are already held.
func (s *Set) Add(fd int, obj interface{}) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.objects) >= Capacity {
		return ErrorFull.Error(nil)
	}

	if e := s.be.add(fd); e != nil {
		return ErrorBackendOp.Error(e)
	}

	s.objects[fd] = obj
	return nil
}

// Remove unregisters fd. Returns ErrorNotFound if fd was never added.
// If fd is present in the current ready list (from the in-progress
// wave), it is also removed from that list, so no stale event is
// reported for it.
func (s *Set) Remove(fd int) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[fd]; !ok {
		return ErrorNotFound.Error(nil)
	}

	if e := s.be.remove(fd); e != nil {
		return ErrorBackendOp.Error(e)
	}

	delete(s.objects, fd)

	for i := s.pos; i < len(s.ready); i++ {
		if s.ready[i].FD == fd {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			break
		}
	}

	return nil
}

// Check blocks until at least one registered fd is readable or
// timeoutMs elapses, refilling the ready list consumed by NextReady.
func (s *Set) Check(timeoutMs int) (int, liberr.Error) {
	fds, e := s.be.wait(timeoutMs)
	if e != nil {
		return 0, ErrorBackendOp.Error(e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = s.ready[:0]
	s.pos = 0

	for _, fd := range fds {
		if obj, ok := s.objects[fd]; ok {
			s.ready = append(s.ready, Registration{FD: fd, Object: obj})
		}
	}

	return len(s.ready), nil
}

// NextReady yields each readable registration from the most recent
// Check exactly once, then ok is false.
func (s *Set) NextReady() (Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.ready) {
		return Registration{}, false
	}

	r := s.ready[s.pos]
	s.pos++
	return r, true
}

// Close releases the backend's kernel resources, if any.
func (s *Set) Close() liberr.Error {
	if e := s.be.close(); e != nil {
		return ErrorBackendOp.Error(e)
	}
	return nil
}
