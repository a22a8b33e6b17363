package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LRU", func() {
	var p *LRU

	BeforeEach(func() {
		p = NewLRU(1, 4)
	})

	It("should pick untouched ways first", func() {
		Expect(p.FindVictim(0)).To(Equal(0))

		p.Touch(0, 0, 1)
		Expect(p.FindVictim(0)).To(Equal(1))

		p.Touch(0, 1, 2)
		p.Touch(0, 2, 3)
		Expect(p.FindVictim(0)).To(Equal(3))
	})

	It("should evict the least recently used way", func() {
		for way := 0; way < 4; way++ {
			p.Touch(0, way, uint64(way+1))
		}

		p.Touch(0, 0, 5)

		Expect(p.FindVictim(0)).To(Equal(1))
	})

	It("should cycle through all the ways", func() {
		for now := uint64(1); now <= 8; now++ {
			victim := p.FindVictim(0)
			Expect(victim).To(Equal(int((now - 1) % 4)))
			p.Touch(0, victim, now)
		}
	})

	It("should panic on bad shapes", func() {
		Expect(func() { NewLRU(0, 4) }).To(Panic())
		Expect(func() { NewLRU(1, 0) }).To(Panic())
	})
})
