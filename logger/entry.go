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

package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/nabbar/ndbtransport/logger/fields"
	"github.com/nabbar/ndbtransport/logger/level"
)

// Entry binds one log line's level, message, structured fields and an
// optional error, ready to be emitted through a Logger.
type Entry struct {
	lvl level.Level
	msg string
	fld *fields.Fields
	err error
}

func NewEntry(lvl level.Level, msg string) *Entry {
	return &Entry{lvl: lvl, msg: msg, fld: fields.New()}
}

func (e *Entry) SetError(err error) *Entry {
	e.err = err
	return e
}

func (e *Entry) Field(key string, val interface{}) *Entry {
	e.fld.Add(key, val)
	return e
}

func (e *Entry) Fields(f *fields.Fields) *Entry {
	e.fld.Merge(f)
	return e
}

func (e *Entry) logrusFields() logrus.Fields {
	f := e.fld.Logrus()
	if e.err != nil {
		f["error"] = e.err.Error()
	}
	return f
}
