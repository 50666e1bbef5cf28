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
	"crypto/tls"
	"strings"
)

// Curve identifies an elliptic curve used by ECDHE cipher suites.
type Curve uint16

const (
	CurveUnknown Curve = iota
	CurveX25519        = Curve(tls.X25519)
	CurveP256          = Curve(tls.CurveP256)
	CurveP384          = Curve(tls.CurveP384)
	CurveP521          = Curve(tls.CurveP521)
)

func (c Curve) String() string {
	switch c {
	case CurveX25519:
		return "x25519"
	case CurveP256:
		return "p256"
	case CurveP384:
		return "p384"
	case CurveP521:
		return "p521"
	default:
		return "unknown"
	}
}

// ParseCurve maps a curve name to a Curve, returning CurveUnknown if it
// does not match any supported curve.
func ParseCurve(s string) Curve {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x25519", "25519":
		return CurveX25519
	case "p256", "256":
		return CurveP256
	case "p384", "384":
		return CurveP384
	case "p521", "521":
		return CurveP521
	default:
		return CurveUnknown
	}
}

// DefaultCurves returns the curve preference list applied when a
// Profile does not set one explicitly.
func DefaultCurves() []Curve {
	return []Curve{CurveX25519, CurveP256, CurveP384}
}

func toTLSCurves(c []Curve) []tls.CurveID {
	r := make([]tls.CurveID, 0, len(c))
	for _, v := range c {
		if v != CurveUnknown {
			r = append(r, tls.CurveID(v))
		}
	}
	return r
}
