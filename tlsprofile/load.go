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

package tlsprofile

import (
	"github.com/pelletier/go-toml"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// allowList is the on-disk shape of a profile's negotiable parameters,
// the slice an operator edits in the cluster's TOML config file; the
// certificate material and mutual-auth flag are supplied separately at
// startup and never round-trip through this file.
type allowList struct {
	MinVersion Version       `toml:"min_version" mapstructure:"min_version"`
	MaxVersion Version       `toml:"max_version" mapstructure:"max_version"`
	Ciphers    []CipherSuite `toml:"ciphers" mapstructure:"ciphers"`
	Curves     []Curve       `toml:"curves" mapstructure:"curves"`
}

// DecodeTOML applies a TOML-encoded cipher/curve/version allow-list to
// p, overriding whatever New set as defaults.
func (p *Profile) DecodeTOML(data []byte) liberr.Error {
	var a allowList
	if e := toml.Unmarshal(data, &a); e != nil {
		return ErrorVersionRange.Error(e)
	}

	if a.MinVersion != VersionUnknown && a.MaxVersion != VersionUnknown {
		if e := p.SetVersionRange(a.MinVersion, a.MaxVersion); e != nil {
			return e
		}
	}
	if len(a.Ciphers) > 0 {
		if e := p.SetCipherSuites(a.Ciphers); e != nil {
			return e
		}
	}
	if len(a.Curves) > 0 {
		if e := p.SetCurves(a.Curves); e != nil {
			return e
		}
	}
	return nil
}

// EncodeTOML serializes the profile's current cipher/curve/version
// allow-list, the inverse of DecodeTOML.
func (p *Profile) EncodeTOML() ([]byte, error) {
	p.mu.RLock()
	a := allowList{MinVersion: p.versionMin, MaxVersion: p.versionMax, Ciphers: p.cipherSuites, Curves: p.curves}
	p.mu.RUnlock()
	return toml.Marshal(a)
}
