package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmucache/mem/vm/mmucache"
)

type sampleComponent struct {
	name  string
	Hits  uint64
	Label string
}

func (c *sampleComponent) Name() string {
	return c.name
}

func (c *sampleComponent) Stats() mmucache.Stats {
	return mmucache.Stats{Name: c.name, Hits: c.Hits}
}

func (c *sampleComponent) Snapshot() mmucache.Snapshot {
	return mmucache.Snapshot{Stats: c.Stats()}
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		router http.Handler
		cache  *mmucache.Comp
	)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		m = NewMonitor().WithProfileDuration(10 * time.Millisecond)
		cache = mmucache.MakeBuilder().WithSeed(1).Build("MMUCache")
		m.RegisterComponent(cache)
		m.RegisterComponent(&sampleComponent{name: "Sample", Hits: 7})
		router = m.Router()
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["MMUCache","Sample"]`))
	})

	It("should not register two components with the same name", func() {
		Expect(func() {
			m.RegisterComponent(&sampleComponent{name: "Sample"})
		}).To(Panic())
	})

	It("should report the statistics of a cache", func() {
		Expect(cache.Translate(0)).To(Succeed())
		Expect(cache.Translate(0)).To(Succeed())

		rec := get("/api/stats/MMUCache")
		Expect(rec.Code).To(Equal(http.StatusOK))

		stats := mmucache.Stats{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &stats)).To(Succeed())
		Expect(stats.Hits).To(Equal(uint64(3)))
		Expect(stats.Misses).To(Equal(uint64(3)))
		Expect(stats.NumPageTables).To(Equal(4))
	})

	It("should report the statistics of all components", func() {
		rec := get("/api/stats")

		stats := []mmucache.Stats{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &stats)).To(Succeed())
		Expect(stats).To(HaveLen(2))
		Expect(stats[1].Hits).To(Equal(uint64(7)))
	})

	It("should return 404 for unknown components", func() {
		Expect(get("/api/stats/Nope").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/component/Nope").Code).To(Equal(http.StatusNotFound))
	})

	It("should serialize a component", func() {
		rec := get("/api/component/Sample")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should serialize a cache while it translates", func() {
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)

			for i := uint64(0); i < 200; i++ {
				Expect(cache.Translate(i << 21)).To(Succeed())
			}
		}()

		for i := 0; i < 20; i++ {
			rec := get("/api/component/MMUCache")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))
		}

		Eventually(done).Should(BeClosed())
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Replay", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		rec := get("/api/progress")

		var bars []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Replay"))
		Expect(bars[0]["finished"]).To(BeNumerically("==", 3))
		Expect(bars[0]["in_progress"]).To(BeNumerically("==", 1))

		m.CompleteProgressBar(bar)
		Expect(get("/api/progress").Body.String()).To(MatchJSON(`[]`))
	})

	It("should report resource usage", func() {
		rec := get("/api/resource")

		rsp := resourceRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		rec := get("/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("SampleType"))
	})
})
