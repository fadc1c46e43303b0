package utils_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/config"
	"github.com/papercomputeco/chatstream/pkg/logger"
	"github.com/papercomputeco/chatstream/pkg/storage/inmemory"
	"github.com/papercomputeco/chatstream/pkg/storage/sqlite"
	"github.com/papercomputeco/chatstream/pkg/storage/utils"
)

var _ = Describe("NewDriver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("builds the in-memory driver", func() {
		d, err := utils.NewDriver(ctx, config.StorageConfig{Driver: config.StorageMemory}, "", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("creates the sqlite database inside the dot directory by default", func() {
		dir := GinkgoT().TempDir()
		d, err := utils.NewDriver(ctx, config.StorageConfig{Driver: config.StorageSQLite}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()

		Expect(d).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		_, err = os.Stat(filepath.Join(dir, utils.DefaultSQLiteFile))
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a DSN for postgres", func() {
		_, err := utils.NewDriver(ctx, config.StorageConfig{Driver: config.StoragePostgres}, "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("postgres_dsn")))
	})

	It("rejects unknown drivers", func() {
		_, err := utils.NewDriver(ctx, config.StorageConfig{Driver: "mysql"}, "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unknown storage driver")))
	})
})

var _ = Describe("ResolveSQLitePath", func() {
	It("prefers the configured path", func() {
		p, err := utils.ResolveSQLitePath("/tmp/x.db", "/home/me/.chatstream")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal("/tmp/x.db"))
	})

	It("requires a path or a dot directory", func() {
		_, err := utils.ResolveSQLitePath("", "")
		Expect(err).To(HaveOccurred())
	})
})
