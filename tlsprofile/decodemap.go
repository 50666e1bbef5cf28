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
	"github.com/go-viper/mapstructure/v2"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// DecodeMap applies a generic map[string]interface{} (as produced by a
// collaborator's own flag/env/etcd config loader, upstream of this
// package) to p, going through the same allowList shape DecodeTOML
// uses. The string -> CipherSuite/Curve/Version conversions run through
// mapstructure's TextUnmarshallerHookFunc, since all three enum
// types already implement encoding.TextUnmarshaler.
func (p *Profile) DecodeMap(m map[string]interface{}) liberr.Error {
	var a allowList

	dec, e := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
		Result:     &a,
	})
	if e != nil {
		return ErrorVersionRange.Error(e)
	}
	if e = dec.Decode(m); e != nil {
		return ErrorVersionRange.Error(e)
	}

	if a.MinVersion != VersionUnknown && a.MaxVersion != VersionUnknown {
		if ee := p.SetVersionRange(a.MinVersion, a.MaxVersion); ee != nil {
			return ee
		}
	}
	if len(a.Ciphers) > 0 {
		if ee := p.SetCipherSuites(a.Ciphers); ee != nil {
			return ee
		}
	}
	if len(a.Curves) > 0 {
		if ee := p.SetCurves(a.Curves); ee != nil {
			return ee
		}
	}
	return nil
}
