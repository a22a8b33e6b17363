package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/xid"
)

var _ = Describe("IDGenerator", func() {
	It("should generate sequential IDs", func() {
		g := &sequentialIDGenerator{}

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should generate unique xids in parallel mode", func() {
		g := parallelIDGenerator{}

		id1 := g.Generate()
		id2 := g.Generate()

		Expect(id1).NotTo(Equal(id2))
		_, err := xid.FromString(id1)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not switch generator after use", func() {
		g := GetIDGenerator()

		Expect(GetIDGenerator()).To(BeIdenticalTo(g))
		Expect(UseParallelIDGenerator).To(Panic())
	})
})
