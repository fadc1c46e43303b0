package servecmder

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/config"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the server flags with config defaults", func() {
		cmd := NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8080"))
		Expect(cmd.Flags().Lookup("format").DefValue).To(Equal(config.FormatNDJSON))
		Expect(cmd.Flags().Lookup("storage").DefValue).To(Equal(config.StorageSQLite))
		Expect(cmd.Flags().Lookup("sqlite").Shorthand).To(Equal("s"))
	})
})

var _ = Describe("serverConfig", func() {
	It("converts the server section", func() {
		cfg := config.NewDefaultConfig().Server
		cfg.TokenDelay = "5ms"

		apiConfig, err := serverConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(apiConfig.ListenAddr).To(Equal(cfg.Listen))
		Expect(apiConfig.TokenDelay).To(Equal(5 * time.Millisecond))
		Expect(apiConfig.Burst).To(Equal(int(cfg.Burst)))
	})

	It("rejects unknown formats", func() {
		cfg := config.NewDefaultConfig().Server
		cfg.Format = "xml"
		_, err := serverConfig(cfg)
		Expect(err).To(MatchError(ContainSubstring("unknown streaming format")))
	})

	It("rejects invalid delays", func() {
		cfg := config.NewDefaultConfig().Server
		cfg.TokenDelay = "slow"
		_, err := serverConfig(cfg)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("openLogFile", func() {
	It("appends JSON records to the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "serve.log")

		log, closer, err := openLogFile(path, false)
		Expect(err).NotTo(HaveOccurred())
		log.Info("listening", "addr", ":8080")
		log.Debug("hidden")
		Expect(closer.Close()).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"listening"`))
		Expect(string(data)).To(ContainSubstring(`"addr":":8080"`))
		Expect(string(data)).NotTo(ContainSubstring("hidden"))
	})

	It("fails for an unwritable path", func() {
		_, _, err := openLogFile(filepath.Join(GinkgoT().TempDir(), "missing", "serve.log"), false)
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
