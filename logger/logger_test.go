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

package logger_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/ndbtransport/logger"
)

var _ = Describe("Logger", func() {
	It("rejects an invalid level", func() {
		_, e := logger.New(logger.Options{Level: "bogus"})
		Expect(e).To(HaveOccurred())
	})

	It("builds a logger at a valid level", func() {
		l, e := logger.New(logger.Options{Level: "info"})
		Expect(e).ToNot(HaveOccurred())
		Expect(l).ToNot(BeNil())
		l.Info("ready")
	})

	It("writes to the configured file hook", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "node.log")

		l, e := logger.New(logger.Options{Level: "info", FilePath: path, FileLevel: "info"})
		Expect(e).ToNot(HaveOccurred())

		l.Error("connection refused", nil)

		b, e := os.ReadFile(path)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(ContainSubstring("connection refused"))
	})
})
