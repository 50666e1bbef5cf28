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

// Package fields holds the structured key/value attributes attached to
// a log entry, on top of logrus.Fields.
package fields

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a thread-safe accumulator of structured log attributes.
// The zero value is ready to use.
type Fields struct {
	mu sync.RWMutex
	m  logrus.Fields
}

func New() *Fields {
	return &Fields{m: make(logrus.Fields)}
}

func (f *Fields) Add(key string, val interface{}) *Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(logrus.Fields)
	}
	f.m[key] = val
	return f
}

func (f *Fields) Merge(o *Fields) *Fields {
	if o == nil {
		return f
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(logrus.Fields)
	}
	for k, v := range o.m {
		f.m[k] = v
	}
	return f
}

// Clone returns an independent copy of the current field set.
func (f *Fields) Clone() *Fields {
	n := New()
	if f == nil {
		return n
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for k, v := range f.m {
		n.m[k] = v
	}
	return n
}

// Logrus returns the underlying logrus.Fields, safe to pass directly to
// a logrus.Entry.WithFields call.
func (f *Fields) Logrus() logrus.Fields {
	if f == nil {
		return logrus.Fields{}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	r := make(logrus.Fields, len(f.m))
	for k, v := range f.m {
		r[k] = v
	}
	return r
}
