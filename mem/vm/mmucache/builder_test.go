package mmucache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmucache/mem/replacement"
)

var _ = Describe("Builder", func() {
	It("should build with the default parameters", func() {
		c := MakeBuilder().Build("MMUCache")

		Expect(c.Name()).To(Equal("MMUCache"))
		Expect(c.NumLevels()).To(Equal(3))
		Expect(c.Stats().NumEntries).To(Equal(12))
		Expect(c.Stats().NumPageTables).To(Equal(1))

		root := c.Table(c.RootTable())
		Expect(root.BaseAddr() & 0xfff).To(BeZero())
		Expect(root.BaseAddr() >> 30).To(BeZero())
	})

	It("should build reproducible caches with a seed", func() {
		c1 := MakeBuilder().WithSeed(42).Build("C1")
		c2 := MakeBuilder().WithSeed(42).Build("C2")

		t1, err := c1.Walk(0x1234_5678_9000)
		Expect(err).NotTo(HaveOccurred())
		t2, err := c2.Walk(0x1234_5678_9000)
		Expect(err).NotTo(HaveOccurred())

		for i := range t1 {
			Expect(c1.Table(t1[i]).BaseAddr()).
				To(Equal(c2.Table(t2[i]).BaseAddr()))
		}
	})

	It("should support other hierarchies", func() {
		c := MakeBuilder().
			WithVAddrBits(57).
			WithNumLevels(4).
			WithNumEntries(16).
			Build("MMUCache")

		Expect(c.Translate(0)).To(Succeed())
		Expect(c.Misses()).To(Equal(uint64(4)))
	})

	It("should accept the default parameters", func() {
		Expect(MakeBuilder().Validate()).To(Succeed())
	})

	DescribeTable("should reject invalid parameters",
		func(b Builder) {
			Expect(b.Validate()).To(MatchError(ErrInvalidConfig))
			Expect(func() { b.Build("MMUCache") }).To(Panic())
		},
		Entry("no entries", MakeBuilder().WithNumEntries(0)),
		Entry("no levels", MakeBuilder().WithNumLevels(0)),
		Entry("too many levels", MakeBuilder().WithNumLevels(6)),
		Entry("zero index bits", MakeBuilder().WithIndexBits(0)),
		Entry("too wide address", MakeBuilder().WithVAddrBits(65)),
		Entry("overlapping tags", MakeBuilder().WithTagShift(4)),
		Entry("narrow table address", MakeBuilder().WithTableAddrBits(12)),
		Entry("no retries", MakeBuilder().WithMaxAllocRetries(0)),
		Entry("small victim finder",
			MakeBuilder().WithVictimFinder(replacement.NewLRU(1, 4))),
	)
})
