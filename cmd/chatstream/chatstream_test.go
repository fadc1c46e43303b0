package chatstreamcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatstreamcmder "github.com/papercomputeco/chatstream/cmd/chatstream"
)

var _ = Describe("NewChatstreamCmd", func() {
	It("registers every subcommand", func() {
		cmd := chatstreamcmder.NewChatstreamCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"chat", "send", "decode", "serve", "sessions",
			"models", "tui", "config", "init", "version",
		))
	})

	It("has global flags", func() {
		cmd := chatstreamcmder.NewChatstreamCmd()
		Expect(cmd.PersistentFlags().Lookup("debug").Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("log-json")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
