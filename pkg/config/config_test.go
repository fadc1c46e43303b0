package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatstream/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[client]
target = "http://remote:9000"
done_sentinel = true

[server]
format = "sse"

[[models]]
id = "mistral"
name = "Mistral"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.Target).To(Equal("http://remote:9000"))
			Expect(cfg.Client.DoneSentinel).To(BeTrue())
			Expect(cfg.Server.Format).To(Equal("sse"))
			Expect(cfg.Models).To(Equal([]config.ModelConfig{{ID: "mistral", Name: "Mistral"}}))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			data := `[storage]
driver = "memory"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Storage.Driver).To(Equal("memory"))
			Expect(cfg.Client).To(Equal(defaults.Client))
			Expect(cfg.Server).To(Equal(defaults.Server))
			Expect(cfg.Events).To(Equal(defaults.Events))
			Expect(cfg.Models).To(Equal(defaults.Models))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[client\ntarget ="), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version 99"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Server.Listen = ":9999"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("client.model", "llama3.2")).To(Succeed())

			val, err := c.GetConfigValue("client.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("llama3.2"))
		})

		It("sets a uint config key", func() {
			Expect(c.SetConfigValue("client.chunk_size", "128")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.ChunkSize).To(Equal(uint(128)))
		})

		It("sets a bool config key", func() {
			Expect(c.SetConfigValue("client.done_sentinel", "true")).To(Succeed())

			val, err := c.GetConfigValue("client.done_sentinel")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("true"))
		})

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				Expect(c.SetConfigValue(key, value)).NotTo(Succeed())
			},
			Entry("uint", "server.burst", "lots"),
			Entry("bool", "client.done_sentinel", "maybe"),
			Entry("duration", "client.timeout", "soon"),
			Entry("format", "server.format", "xml"),
			Entry("storage driver", "storage.driver", "mysql"),
			Entry("events provider", "events.provider", "nats"),
			Entry("rate", "server.rate_limit", "fast"),
		)

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("server.format", "sse")).To(Succeed())
			Expect(c.SetConfigValue("server.listen", ":7070")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Format).To(Equal("sse"))
			Expect(cfg.Server.Listen).To(Equal(":7070"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("client.target")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("http://localhost:8080"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("storage.postgres_dsn")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns every key in TOML section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(HaveLen(17))
		Expect(keys[0]).To(Equal("client.target"))
		Expect(keys[len(keys)-1]).To(Equal("events.topic"))
		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
	})

	It("rejects unknown keys", func() {
		Expect(config.IsValidConfigKey("target")).To(BeFalse())
		Expect(config.IsValidConfigKey("embedding.model")).To(BeFalse())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(&config.Config{}))
	})

	It("rejects unsupported config version", func() {
		_, err := config.ParseConfigTOML([]byte("version = 2\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("EventsConfig", func() {
	It("splits the broker list", func() {
		e := config.EventsConfig{Brokers: " a:9092, ,b:9092 "}
		Expect(e.BrokerList()).To(Equal([]string{"a:9092", "b:9092"}))
	})
})

var _ = Describe("durations", func() {
	It("parses configured durations", func() {
		cfg := config.NewDefaultConfig()
		d, err := cfg.Server.TokenDelayDuration()
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Milliseconds()).To(Equal(int64(30)))

		cfg.Client.Timeout = ""
		d, err = cfg.Client.TimeoutDuration()
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeZero())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[server]
format = "sse"

[[models]]
id = "phi3"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Format).To(Equal("sse"))
		Expect(cfg.Server.Listen).To(Equal(":8080"))
		Expect(cfg.Models).To(Equal([]config.ModelConfig{{ID: "phi3"}}))
	})

	It("env vars take precedence over config file values", func() {
		data := `[client]
model = "gpt-4o"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		os.Setenv("CHATSTREAM_CLIENT_MODEL", "llama3.2")
		defer os.Unsetenv("CHATSTREAM_CLIENT_MODEL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("client.model")).To(Equal("llama3.2"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[server]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent"})

		Expect(v.GetString("server.listen")).To(Equal(":8080"))
	})

	It("pulls name, shorthand, default and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		var chunk uint
		var sentinel bool
		config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &target)
		config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, &chunk)
		config.AddBoolFlag(cmd, config.Flags, config.FlagDoneSentinel, &sentinel)

		f := cmd.Flags().Lookup("target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("t"))
		Expect(f.Usage).To(Equal("Chat server URL"))
		Expect(f.DefValue).To(Equal("http://localhost:8080"))

		Expect(cmd.Flags().Lookup("chunk-size").DefValue).To(Equal("4096"))
		Expect(cmd.Flags().Lookup("done-sentinel").DefValue).To(Equal("false"))
	})
})
