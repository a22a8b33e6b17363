package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TreePLRU", func() {
	It("should start from the last way", func() {
		p := NewTreePLRU(1, 12)

		Expect(p.FindVictim(0)).To(Equal(11))
	})

	It("should never pick the most recently touched way", func() {
		p := NewTreePLRU(2, 12)

		for now := uint64(1); now < 200; now++ {
			victim := p.FindVictim(1)
			Expect(victim).To(BeNumerically(">=", 0))
			Expect(victim).To(BeNumerically("<", 12))

			p.Touch(1, victim, now)
			Expect(p.FindVictim(1)).NotTo(Equal(victim))
		}
	})

	It("should protect the two most recently touched ways", func() {
		p := NewTreePLRU(1, 12)

		var prev, last int
		prev = p.FindVictim(0)
		p.Touch(0, prev, 1)
		last = p.FindVictim(0)
		p.Touch(0, last, 2)

		for now := uint64(3); now < 100; now++ {
			victim := p.FindVictim(0)
			Expect(victim).NotTo(Equal(prev))
			Expect(victim).NotTo(Equal(last))

			p.Touch(0, victim, now)
			prev, last = last, victim
		}
	})

	It("should visit every way when filling", func() {
		p := NewTreePLRU(1, 12)
		seen := make(map[int]bool)

		for now := uint64(1); now <= 12; now++ {
			victim := p.FindVictim(0)
			seen[victim] = true
			p.Touch(0, victim, now)
		}

		Expect(seen).To(HaveLen(12))
	})

	It("should keep sets independent", func() {
		p := NewTreePLRU(2, 4)

		p.Touch(0, 3, 1)

		Expect(p.FindVictim(0)).To(BeNumerically("<", 2))
		Expect(p.FindVictim(1)).To(Equal(3))
	})

	It("should record the last touch time", func() {
		p := NewTreePLRU(1, 4)

		p.Touch(0, 2, 42)

		Expect(p.LastTouch(0, 2)).To(Equal(uint64(42)))
	})

	It("should work with a single way", func() {
		p := NewTreePLRU(1, 1)

		p.Touch(0, 0, 1)

		Expect(p.FindVictim(0)).To(Equal(0))
	})

	It("should panic on out-of-range way", func() {
		p := NewTreePLRU(1, 4)

		Expect(func() { p.Touch(0, 4, 1) }).To(Panic())
		Expect(func() { p.FindVictim(1) }).To(Panic())
	})
})
