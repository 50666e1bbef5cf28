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
	"fmt"

	"gopkg.in/yaml.v3"
)

// This file gives CipherSuite, Curve and Version the same multi-format
// marshaling surface the enum types carry: a Profile is frequently
// loaded from an operator-edited TOML or YAML cluster config file and
// occasionally shipped as a CBOR-encoded control-plane message, so all
// three round-trip through the same String()/Parse pair as JSON and
// plain text do.

func (c CipherSuite) MarshalJSON() ([]byte, error) {
	return quoteBytes(c.String()), nil
}

func (c *CipherSuite) UnmarshalJSON(b []byte) error {
	*c = ParseCipher(string(trimQuotes(b)))
	return nil
}

func (c CipherSuite) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *CipherSuite) UnmarshalYAML(n *yaml.Node) error {
	*c = ParseCipher(n.Value)
	return nil
}

func (c CipherSuite) MarshalTOML() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CipherSuite) UnmarshalTOML(i interface{}) error {
	s, e := tomlString(i)
	if e != nil {
		return e
	}
	*c = ParseCipher(s)
	return nil
}

func (c CipherSuite) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CipherSuite) UnmarshalText(b []byte) error {
	*c = ParseCipher(string(b))
	return nil
}

func (c CipherSuite) MarshalCBOR() ([]byte, error) {
	return cborTextMarshal(c.String())
}

func (c *CipherSuite) UnmarshalCBOR(b []byte) error {
	s, e := cborTextUnmarshal(b)
	if e != nil {
		return e
	}
	*c = ParseCipher(s)
	return nil
}

func (c Curve) MarshalJSON() ([]byte, error) {
	return quoteBytes(c.String()), nil
}

func (c *Curve) UnmarshalJSON(b []byte) error {
	*c = ParseCurve(string(trimQuotes(b)))
	return nil
}

func (c Curve) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *Curve) UnmarshalYAML(n *yaml.Node) error {
	*c = ParseCurve(n.Value)
	return nil
}

func (c Curve) MarshalTOML() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Curve) UnmarshalTOML(i interface{}) error {
	s, e := tomlString(i)
	if e != nil {
		return e
	}
	*c = ParseCurve(s)
	return nil
}

func (c Curve) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Curve) UnmarshalText(b []byte) error {
	*c = ParseCurve(string(b))
	return nil
}

func (c Curve) MarshalCBOR() ([]byte, error) {
	return cborTextMarshal(c.String())
}

func (c *Curve) UnmarshalCBOR(b []byte) error {
	s, e := cborTextUnmarshal(b)
	if e != nil {
		return e
	}
	*c = ParseCurve(s)
	return nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	return quoteBytes(v.String()), nil
}

func (v *Version) UnmarshalJSON(b []byte) error {
	*v = ParseVersion(string(trimQuotes(b)))
	return nil
}

func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

func (v *Version) UnmarshalYAML(n *yaml.Node) error {
	*v = ParseVersion(n.Value)
	return nil
}

func (v Version) MarshalTOML() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalTOML(i interface{}) error {
	s, e := tomlString(i)
	if e != nil {
		return e
	}
	*v = ParseVersion(s)
	return nil
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	*v = ParseVersion(string(b))
	return nil
}

func (v Version) MarshalCBOR() ([]byte, error) {
	return cborTextMarshal(v.String())
}

func (v *Version) UnmarshalCBOR(b []byte) error {
	s, e := cborTextUnmarshal(b)
	if e != nil {
		return e
	}
	*v = ParseVersion(s)
	return nil
}

func tomlString(i interface{}) (string, error) {
	switch p := i.(type) {
	case []byte:
		return string(p), nil
	case string:
		return p, nil
	default:
		return "", fmt.Errorf("tlsprofile: value not in a TOML string-like format")
	}
}

func quoteBytes(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	b = append(b, s...)
	b = append(b, '"')
	return b
}

func trimQuotes(b []byte) []byte {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return b[1 : len(b)-1]
	}
	return b
}
