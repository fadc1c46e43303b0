package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/config"
)

var _ = Describe("Catalog", func() {
	It("falls back to the default models", func() {
		c := chat.NewCatalog(nil, "")
		Expect(c.Models()).To(HaveLen(len(config.DefaultModels())))
		Expect(c.Default().ID).To(Equal("gpt-4o-mini"))
	})

	It("looks up configured models", func() {
		c := chat.NewCatalog([]config.ModelConfig{{ID: "a", Name: "Model A"}, {ID: "b"}}, "b")

		m, ok := c.Lookup("a")
		Expect(ok).To(BeTrue())
		Expect(m.Label()).To(Equal("Model A"))

		_, ok = c.Lookup("z")
		Expect(ok).To(BeFalse())

		Expect(c.Default().Label()).To(Equal("b"))
		Expect(c.Index("b")).To(Equal(1))
	})

	It("adds an unlisted default model first", func() {
		c := chat.NewCatalog([]config.ModelConfig{{ID: "a"}}, "custom")
		Expect(c.Models()[0].ID).To(Equal("custom"))
		Expect(c.Default().ID).To(Equal("custom"))
	})
})
