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

package sockconn

import "github.com/nabbar/ndbtransport/errors"

const (
	ErrorConnectFailed errors.CodeError = iota + errors.MinPkgSockConn
	ErrorListenFailed
	ErrorNotListening
	ErrorAcceptFailed
	ErrorAcceptDisallowed
	ErrorTLSHandshake
	ErrorEndOfFile
	ErrorTimeout
	ErrorIOError
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorConnectFailed)
	errors.RegisterIdFctMessage(ErrorConnectFailed, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorConnectFailed:
		return "connect attempts exhausted without success"
	case ErrorListenFailed:
		return "failed to open the listening socket"
	case ErrorNotListening:
		return "accept called on a connection with no listener"
	case ErrorAcceptFailed:
		return "accept syscall failed"
	case ErrorAcceptDisallowed:
		return "accepted peer does not match the configured identity"
	case ErrorTLSHandshake:
		return "TLS handshake failed"
	case ErrorEndOfFile:
		return "peer closed the connection cleanly"
	case ErrorTimeout:
		return "write deadline elapsed before completion"
	case ErrorIOError:
		return "underlying syscall failed"
	}

	return ""
}
