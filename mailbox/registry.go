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

package mailbox

import "sync"

// Registry is the process-wide set of known mailboxes, keyed by module
// id. recvengine posts through it; transport's poll_inbox and the
// overload watchdog (spec §5) read through it.
type Registry struct {
	mu    sync.RWMutex
	boxes map[uint16]*AppInbox
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{boxes: make(map[uint16]*AppInbox)}
}

// Get returns the inbox for id, creating it on first reference.
func (r *Registry) Get(id uint16) *AppInbox {
	r.mu.RLock()
	b, ok := r.boxes[id]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.boxes[id]; ok {
		return b
	}
	b = NewAppInbox(id)
	r.boxes[id] = b
	return b
}

// All returns a snapshot copy of every registered mailbox, for the
// overload watchdog and for metrics.
func (r *Registry) All() map[uint16]*AppInbox {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[uint16]*AppInbox, len(r.boxes))
	for k, v := range r.boxes {
		out[k] = v
	}
	return out
}
