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

// CipherSuite identifies one TLS 1.2/1.3 cipher suite accepted on a
// connection's TLS variant.
type CipherSuite uint16

const (
	CipherUnknown                                 CipherSuite = 0
	CipherECDHE_RSA_WITH_AES_128_GCM_SHA256                   = CipherSuite(tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	CipherECDHE_ECDSA_WITH_AES_128_GCM_SHA256                 = CipherSuite(tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256)
	CipherECDHE_RSA_WITH_AES_256_GCM_SHA384                   = CipherSuite(tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384)
	CipherECDHE_ECDSA_WITH_AES_256_GCM_SHA384                 = CipherSuite(tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384)
	CipherECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256             = CipherSuite(tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256)
	CipherECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256           = CipherSuite(tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256)
	CipherAES_128_GCM_SHA256                                  = CipherSuite(tls.TLS_AES_128_GCM_SHA256)
	CipherAES_256_GCM_SHA384                                  = CipherSuite(tls.TLS_AES_256_GCM_SHA384)
	CipherCHACHA20_POLY1305_SHA256                            = CipherSuite(tls.TLS_CHACHA20_POLY1305_SHA256)
)

func (c CipherSuite) String() string {
	if n := tls.CipherSuiteName(uint16(c)); n != "" {
		return n
	}
	return "unknown"
}

// ParseCipher maps a cipher suite name (as reported by
// tls.CipherSuiteName) back to a CipherSuite.
func ParseCipher(s string) CipherSuite {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range append(DefaultCipherSuites13(), DefaultCipherSuites12()...) {
		if c.String() == s {
			return c
		}
	}
	return CipherUnknown
}

// DefaultCipherSuites12 is the TLS 1.2 ECDHE allow-list applied when a
// Profile leaves CipherSuites unset.
func DefaultCipherSuites12() []CipherSuite {
	return []CipherSuite{
		CipherECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		CipherECDHE_RSA_WITH_AES_128_GCM_SHA256,
		CipherECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		CipherECDHE_RSA_WITH_AES_256_GCM_SHA384,
		CipherECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		CipherECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	}
}

// DefaultCipherSuites13 is the fixed TLS 1.3 suite set; Go's tls package
// does not allow configuring it, it is exposed only for Profile.List.
func DefaultCipherSuites13() []CipherSuite {
	return []CipherSuite{
		CipherAES_128_GCM_SHA256,
		CipherAES_256_GCM_SHA384,
		CipherCHACHA20_POLY1305_SHA256,
	}
}

func toTLSCipherSuites(c []CipherSuite) []uint16 {
	r := make([]uint16, 0, len(c))
	for _, v := range c {
		if v != CipherUnknown {
			r = append(r, uint16(v))
		}
	}
	return r
}
