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

package errors_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/ndbtransport/errors"
)

const testCode liberr.CodeError = liberr.MinAvailable + 1

var _ = Describe("CodeError", func() {
	BeforeEach(func() {
		if !liberr.ExistInMapMessage(testCode) {
			liberr.RegisterIdFctMessage(testCode, func(code liberr.CodeError) string {
				if code == testCode {
					return "test error"
				}
				return liberr.UnknownMessage
			})
		}
	})

	It("resolves a registered code to its message", func() {
		Expect(testCode.Message()).To(Equal("test error"))
	})

	It("falls back to the unknown message for an unregistered code", func() {
		var unregistered liberr.CodeError = liberr.MinAvailable + 999
		Expect(unregistered.Message()).To(Equal(liberr.UnknownMessage))
	})

	It("builds an Error carrying its own code and message", func() {
		e := testCode.Error(nil)
		Expect(e.GetCode()).To(Equal(testCode))
		Expect(e.StringError()).To(Equal("test error"))
	})

	It("formats Errorf with arguments when a registered message has no verbs", func() {
		e := testCode.Errorf("ignored")
		Expect(e.StringError()).To(Equal("test error"))
	})

	It("reports GetCodePackages keyed by the registering file", func() {
		pkgs := liberr.GetCodePackages("ndbtransport")
		Expect(pkgs).To(HaveKey(testCode))
	})
})

var _ = Describe("Error hierarchy", func() {
	It("chains parents via New and reports them through GetParent", func() {
		root := liberr.New(1, "root")
		wrapped := liberr.New(2, "wrapped", root)

		Expect(wrapped.HasParent()).To(BeTrue())
		parents := wrapped.GetParent(false)
		Expect(parents).To(HaveLen(1))
		Expect(parents[0].Error()).To(Equal("root"))
	})

	It("finds a code anywhere in the parent chain via HasCode", func() {
		root := liberr.New(7, "deep")
		mid := liberr.New(8, "mid", root)
		top := liberr.New(9, "top", mid)

		Expect(top.HasCode(7)).To(BeTrue())
		Expect(top.IsCode(7)).To(BeFalse())
	})

	It("deduplicates codes across GetParentCode", func() {
		root := liberr.New(3, "root")
		a := liberr.New(3, "a", root)
		b := liberr.New(4, "b", a)

		Expect(b.GetParentCode()).To(ConsistOf(liberr.CodeError(4), liberr.CodeError(3)))
	})

	It("wraps a plain error as a zero-code parent via Add", func() {
		e := liberr.New(1, "main")
		e.Add(errors.New("plain"))

		Expect(e.ContainsString("plain")).To(BeTrue())
	})

	It("unwraps to a slice compatible with errors.Is/As", func() {
		root := liberr.New(5, "root")
		wrapped := liberr.New(6, "wrapped", root)

		var target liberr.Error
		Expect(errors.As(wrapped, &target)).To(BeTrue())
		Expect(target.GetCode()).To(Equal(liberr.CodeError(6)))
	})
})

var _ = Describe("IfError", func() {
	It("returns nil when every parent is nil", func() {
		Expect(liberr.IfError(1, "msg", nil, nil)).To(BeNil())
	})

	It("returns an Error when at least one parent survives filtering", func() {
		e := liberr.IfError(1, "msg", nil, errors.New("boom"))
		Expect(e).NotTo(BeNil())
		Expect(e.ContainsString("boom")).To(BeTrue())
	})
})

var _ = Describe("package-level helpers", func() {
	It("Is/Get/Has recognize an Error wrapped in a plain error chain", func() {
		inner := liberr.New(42, "inner")
		outer := fmtErrorf(inner)

		Expect(liberr.Is(outer)).To(BeTrue())
		Expect(liberr.Get(outer).GetCode()).To(Equal(liberr.CodeError(42)))
		Expect(liberr.Has(outer, 42)).To(BeTrue())
	})
})

var _ = Describe("ErrorMode", func() {
	AfterEach(func() {
		liberr.SetModeReturnError(liberr.Default)
	})

	It("defaults to rendering the bare message", func() {
		e := liberr.New(1, "plain message")
		Expect(e.Error()).To(Equal("plain message"))
	})

	It("renders code and message together in ErrorReturnCodeError mode", func() {
		liberr.SetModeReturnError(liberr.ErrorReturnCodeError)
		e := liberr.New(1, "plain message")
		Expect(e.Error()).To(ContainSubstring("plain message"))
		Expect(e.Error()).To(ContainSubstring("1"))
	})

	It("round-trips through GetModeReturnError", func() {
		liberr.SetModeReturnError(liberr.ErrorReturnStringError)
		Expect(liberr.GetModeReturnError()).To(Equal(liberr.ErrorReturnStringError))
	})
})

func fmtErrorf(e error) error {
	return errors.Join(errors.New("context"), e)
}
