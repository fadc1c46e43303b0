package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/storage"
	"github.com/papercomputeco/chatstream/pkg/storage/postgres"
	"github.com/papercomputeco/chatstream/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("CHATSTREAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("CHATSTREAM_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		ctx := context.Background()

		driver, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all sessions before each test for isolation.
		Expect(driver.Reset(ctx)).To(Succeed())
		return driver
	})

	It("fails fast on an unreachable database", func() {
		_ = connStr()
		_, err := postgres.NewDriver(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
		Expect(err).To(HaveOccurred())
	})
})
