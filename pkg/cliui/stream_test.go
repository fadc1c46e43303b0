package cliui_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/decoder"
)

var _ = Describe("StreamWriter", func() {
	It("writes only the appended text", func() {
		var buf bytes.Buffer
		sw := cliui.NewStreamWriter(&buf)

		m := chat.NewAssistantMessage("echo")
		sw.Update(m)
		m.Apply(decoder.Content("Hel"))
		sw.Update(m)
		sw.Update(m)
		m.Apply(decoder.Content("lo"))
		sw.Update(m)

		Expect(buf.String()).To(Equal("Hello"))
	})

	It("starts over after Reset", func() {
		var buf bytes.Buffer
		sw := cliui.NewStreamWriter(&buf)

		first := chat.NewAssistantMessage("echo")
		first.Apply(decoder.Content("one"))
		sw.Update(first)
		sw.Reset()

		second := chat.NewAssistantMessage("echo")
		second.Apply(decoder.Content("two"))
		sw.Update(second)

		Expect(buf.String()).To(Equal("onetwo"))
	})
})

var _ = Describe("ReplyStatus", func() {
	It("mentions skipped lines", func() {
		m := chat.NewAssistantMessage("echo")
		m.Apply(decoder.ParseWarning("garbage"))
		m.Apply(decoder.Done())
		Expect(cliui.ReplyStatus(m)).To(ContainSubstring("1 malformed line(s) skipped"))
	})

	It("includes the error notice of a failed reply", func() {
		m := chat.NewAssistantMessage("echo")
		m.Fail(errors.New("connection reset"))
		Expect(cliui.ReplyStatus(m)).To(ContainSubstring("connection reset"))
	})
})
