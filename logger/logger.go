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

// Package logger is the structured logging facade used throughout the
// transport core: a logrus.Logger underneath, a colorable stdout hook
// always attached, and an optional rotating file hook layered on top.
package logger

import (
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	liberr "github.com/nabbar/ndbtransport/errors"
	"github.com/nabbar/ndbtransport/logger/fields"
	"github.com/nabbar/ndbtransport/logger/hookfile"
	"github.com/nabbar/ndbtransport/logger/level"
)

// Options configures a Logger at construction time.
type Options struct {
	Level     string `validate:"required,oneof=panic fatal error warning info debug"`
	FilePath  string `validate:"omitempty,filepath"`
	FileLevel string `validate:"omitempty,oneof=panic fatal error warning info debug"`
}

func (o Options) Validate() error {
	return validator.New().Struct(o)
}

// Logger wraps a logrus.Logger with the module's own Level/Fields/Entry
// vocabulary, so call sites never import logrus directly.
type Logger struct {
	mu   sync.RWMutex
	base *logrus.Logger
	fld  *fields.Fields
}

// New builds a Logger from Options, wiring the colorable stdout hook
// and, when FilePath is set, a rotating file hook at FileLevel.
func New(o Options) (*Logger, liberr.Error) {
	if e := o.Validate(); e != nil {
		return nil, ErrorOptionsInvalid.Error(e)
	}

	lvl := level.Parse(o.Level)
	base := newStdoutLogrus(lvl)

	if o.FilePath != "" {
		flvl := lvl
		if o.FileLevel != "" {
			flvl = level.Parse(o.FileLevel)
		}
		base.AddHook(hookfile.New(o.FilePath, logrusLevelsUpTo(flvl), &logrus.JSONFormatter{}))
	}

	return &Logger{base: base, fld: fields.New()}, nil
}

func logrusLevelsUpTo(lvl level.Level) []logrus.Level {
	all := []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel, logrus.DebugLevel}
	r := make([]logrus.Level, 0, len(all))
	for _, l := range all {
		if l <= lvl.Logrus() {
			r = append(r, l)
		}
	}
	return r
}

// WithFields returns a derived Logger carrying the given fields on
// every subsequent entry, in addition to the parent's own fields.
func (l *Logger) WithFields(f *fields.Fields) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{base: l.base, fld: l.fld.Clone().Merge(f)}
}

// Log emits a pre-built Entry at its own level.
func (l *Logger) Log(e *Entry) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := e.fld.Clone().Merge(l.fld)
	entry := l.base.WithFields(merged.Logrus())
	if e.err != nil {
		entry = entry.WithField("error", e.err.Error())
	}
	entry.Log(e.lvl.Logrus(), e.msg)
}

func (l *Logger) Debug(msg string) { l.Log(NewEntry(level.DebugLevel, msg)) }
func (l *Logger) Info(msg string)  { l.Log(NewEntry(level.InfoLevel, msg)) }
func (l *Logger) Warn(msg string)  { l.Log(NewEntry(level.WarnLevel, msg)) }
func (l *Logger) Error(msg string, err error) {
	l.Log(NewEntry(level.ErrorLevel, msg).SetError(err))
}
