package mmucache

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmucache/datarecording"
)

var _ = Describe("Recorder", func() {
	var (
		dbPath   string
		writer   *datarecording.SQLiteWriter
		recorder *Recorder
		c        *Comp
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "record")
		writer = datarecording.NewSQLiteWriter(dbPath)
		writer.Init()

		recorder = NewRecorder(writer)
		c = MakeBuilder().WithSeed(1).Build("MMUCache")
		c.AcceptHook(recorder)
	})

	AfterEach(func() {
		Expect(writer.Close()).To(Succeed())
	})

	It("should record every step and the statistics", func() {
		Expect(c.Translate(0)).To(Succeed())
		Expect(c.Translate(0)).To(Succeed())
		recorder.RecordStats(c)
		recorder.Flush()

		reader := datarecording.NewSQLiteReader(dbPath)
		reader.Init()
		defer reader.Close()

		Expect(reader.ListTables()).To(ConsistOf(
			recorder.StepTableName(), recorder.StatsTableName()))

		reader.MapTable(recorder.StepTableName(), StepRecord{})
		hits, total, err := reader.QueryTable(context.Background(),
			recorder.StepTableName(),
			datarecording.QueryParams{
				Where:   "Event = ?",
				Args:    []any{HookPosHit.Name},
				OrderBy: "Seq",
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
		Expect(hits).To(HaveLen(3))

		first := hits[0].(*StepRecord)
		Expect(first.Seq).To(Equal(uint64(4)))
		Expect(first.Cache).To(Equal("MMUCache"))
		Expect(first.Level).To(Equal(0))

		_, total, err = reader.QueryTable(context.Background(),
			recorder.StepTableName(), datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(9))

		reader.MapTable(recorder.StatsTableName(), StatsRecord{})
		stats, _, err := reader.QueryTable(context.Background(),
			recorder.StatsTableName(), datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(HaveLen(1))
		Expect(stats[0].(*StatsRecord).Hits).To(Equal(uint64(3)))
		Expect(stats[0].(*StatsRecord).Misses).To(Equal(uint64(3)))
		Expect(stats[0].(*StatsRecord).NumPageTables).To(Equal(4))
	})

	It("should record addresses that use the top bit", func() {
		const vAddr = uint64(0xffff_8000_0020_1000)

		wide := MakeBuilder().
			WithSeed(2).
			WithVAddrBits(64).
			Build("WideMMUCache")
		wide.AcceptHook(recorder)

		Expect(wide.Translate(vAddr)).To(Succeed())
		Expect(func() { recorder.Flush() }).NotTo(Panic())

		reader := datarecording.NewSQLiteReader(dbPath)
		reader.Init()
		defer reader.Close()

		reader.MapTable(recorder.StepTableName(), StepRecord{})
		steps, total, err := reader.QueryTable(context.Background(),
			recorder.StepTableName(),
			datarecording.QueryParams{
				Where:   `Cache = ? AND "Index" = ?`,
				Args:    []any{"WideMMUCache", wide.index(vAddr, 0)},
				OrderBy: "Seq",
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeNumerically(">", 0))
		Expect(steps[0].(*StepRecord).VAddr).To(Equal(vAddr))
	})
})
