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
	"crypto/x509"
	"sync"

	liberr "github.com/nabbar/ndbtransport/errors"
)

// Profile configures the TLS variant of a Connection. It is built once
// at startup and is safe for concurrent read access afterward; the
// underlying *tls.Config it produces is rebuilt every time a new
// certificate pair is added.
type Profile struct {
	mu           sync.RWMutex
	serverName   string
	versionMin   Version
	versionMax   Version
	cipherSuites []CipherSuite
	curves       []Curve
	certs        []tls.Certificate
	clientCAs    *x509.CertPool
	mutualAuth   bool
}

// New builds a Profile applying the module's conservative defaults:
// TLS 1.2 minimum, TLS 1.3 maximum, the ECDHE-only cipher allow-list
// and the X25519/P256/P384 curve preference.
func New(serverName string) *Profile {
	return &Profile{
		serverName:   serverName,
		versionMin:   VersionTLS12,
		versionMax:   VersionTLS13,
		cipherSuites: DefaultCipherSuites12(),
		curves:       DefaultCurves(),
	}
}

// SetVersionRange overrides the accepted TLS version range.
func (p *Profile) SetVersionRange(min, max Version) liberr.Error {
	if min == VersionUnknown || max == VersionUnknown || min > max {
		return ErrorVersionRange.Error(nil)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versionMin, p.versionMax = min, max
	return nil
}

// SetCipherSuites overrides the TLS 1.2 cipher allow-list. TLS 1.3
// suites are fixed by the runtime and are not configurable.
func (p *Profile) SetCipherSuites(c []CipherSuite) liberr.Error {
	for _, v := range c {
		if v == CipherUnknown {
			return ErrorCipherUnknown.Error(nil)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cipherSuites = c
	return nil
}

// SetCurves overrides the curve preference order.
func (p *Profile) SetCurves(c []Curve) liberr.Error {
	for _, v := range c {
		if v == CurveUnknown {
			return ErrorCurveUnknown.Error(nil)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.curves = c
	return nil
}

// AddCertificatePairString parses an in-memory PEM key/certificate
// pair and appends it to the profile's certificate list.
func (p *Profile) AddCertificatePairString(key, crt string) liberr.Error {
	c, e := tls.X509KeyPair([]byte(crt), []byte(key))
	if e != nil {
		return ErrorCertPairParse.Error(e)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.certs = append(p.certs, c)
	return nil
}

// AddCertificatePairFile loads a PEM key/certificate pair from disk and
// appends it to the profile's certificate list.
func (p *Profile) AddCertificatePairFile(keyFile, crtFile string) liberr.Error {
	c, e := tls.LoadX509KeyPair(crtFile, keyFile)
	if e != nil {
		return ErrorCertPairParse.Error(e)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.certs = append(p.certs, c)
	return nil
}

// AddClientCAFile loads a PEM root CA used to verify client
// certificates when RequireMutualAuth is enabled.
func (p *Profile) AddClientCAFile(caFile string) liberr.Error {
	pem, e := readFile(caFile)
	if e != nil {
		return ErrorCertPairParse.Error(e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.clientCAs == nil {
		p.clientCAs = x509.NewCertPool()
	}
	if !p.clientCAs.AppendCertsFromPEM(pem) {
		return ErrorCertPairParse.Error(nil)
	}
	return nil
}

// RequireMutualAuth toggles whether the server side of a Connection
// demands and verifies a client certificate.
func (p *Profile) RequireMutualAuth(require bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mutualAuth = require
}

// Validate checks the profile is usable before it is handed to a
// Connection: at least one certificate pair, and a coherent version
// range.
func (p *Profile) Validate() liberr.Error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.certs) < 1 {
		return ErrorCertPairEmpty.Error(nil)
	}
	if p.versionMin == VersionUnknown || p.versionMax == VersionUnknown || p.versionMin > p.versionMax {
		return ErrorVersionRange.Error(nil)
	}
	return nil
}

// TLS renders the profile into a stdlib *tls.Config ready to wrap a
// net.Conn, as used by the Connection's TLS variant.
func (p *Profile) TLS() *tls.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg := &tls.Config{
		ServerName:   p.serverName,
		MinVersion:   uint16(p.versionMin),
		MaxVersion:   uint16(p.versionMax),
		CipherSuites: toTLSCipherSuites(p.cipherSuites),
		CurvePreferences: func() []tls.CurveID {
			r := make([]tls.CurveID, 0, len(p.curves))
			for _, c := range p.curves {
				r = append(r, tls.CurveID(c))
			}
			return r
		}(),
		Certificates: p.certs,
	}

	if p.mutualAuth {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = p.clientCAs
	}

	return cfg
}
