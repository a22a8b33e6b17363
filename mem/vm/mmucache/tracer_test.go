package mmucache

import (
	"bytes"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmucache/sim/hooking"
)

var _ = Describe("Tracer", func() {
	var (
		buf    *bytes.Buffer
		c      *Comp
		tracer *Tracer
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		tracer = NewTracer(buf)
		c = MakeBuilder().WithSeed(1).Build("MMUCache")
		c.AcceptHook(tracer)
	})

	It("should write one line per event", func() {
		Expect(c.Translate(0)).To(Succeed())
		Expect(c.Translate(0)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(9))

		rootAddr := c.Table(c.RootTable()).BaseAddr()
		Expect(lines[0]).To(HavePrefix(
			fmt.Sprintf("1,MMUCache,MMUCachePageTableAlloc,0,0x%x,", rootAddr)))
		Expect(lines[1]).To(HavePrefix(
			fmt.Sprintf("1,MMUCache,MMUCacheMiss,0,0x%x,", rootAddr)))
		Expect(lines[6]).To(HavePrefix(
			fmt.Sprintf("4,MMUCache,MMUCacheHit,0,0x%x,", rootAddr)))
	})

	It("should ignore other hook items", func() {
		tracer.Func(hooking.HookCtx{Domain: c, Item: "something"})

		Expect(buf.Len()).To(BeZero())
	})
})
