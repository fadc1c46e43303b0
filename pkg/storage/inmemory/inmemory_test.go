package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatstream/pkg/storage"
	"github.com/papercomputeco/chatstream/pkg/storage/inmemory"
	"github.com/papercomputeco/chatstream/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("hands out copies", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()
		s := storagetest.NewSession("copy", time.Now())
		Expect(d.SaveSession(ctx, s)).To(Succeed())

		got, err := d.GetSession(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		got.Title = "mutated"

		again, err := d.GetSession(ctx, s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Title).To(Equal("copy"))
		Expect(d.Count()).To(Equal(1))
	})
})
