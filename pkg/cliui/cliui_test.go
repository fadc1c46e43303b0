package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks errors", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("reports buffers as non-terminals", func() {
		Expect(cliui.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})

	It("prints the step result", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "opening store", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("opening store"))
	})

	It("renders markdown", func() {
		out, err := cliui.RenderMarkdown("# Title\n\nsome *text*", 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Title"))
	})
})

var _ = Describe("Ago", func() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	It("formats coarse elapsed times", func() {
		Expect(cliui.Ago(now.Add(-10*time.Second), now)).To(Equal("just now"))
		Expect(cliui.Ago(now.Add(-3*time.Minute), now)).To(Equal("3m ago"))
		Expect(cliui.Ago(now.Add(-5*time.Hour), now)).To(Equal("5h ago"))
		Expect(cliui.Ago(now.Add(-49*time.Hour), now)).To(Equal("2d ago"))
	})
})
