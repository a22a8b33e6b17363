package mmucache

import (
	"github.com/sarchlab/mmucache/datarecording"
	"github.com/sarchlab/mmucache/sim/hooking"
)

const (
	stepTableName  = "mmucache_step"
	statsTableName = "mmucache_stats"
)

// StepRecord is a row of the step table.
type StepRecord struct {
	Seq       uint64
	Cache     string
	Event     string
	Level     int
	VAddr     uint64
	Index     uint64
	Tag       uint64
	WayID     int
	TableAddr uint64
}

// StatsRecord is a row of the stats table.
type StatsRecord struct {
	Cache          string
	Hits           uint64
	Misses         uint64
	HitRate        float64
	NumPageTables  int
	NumLiveEntries int
}

// A Recorder is a hook that stores every translation step in a
// DataRecorder, and can store the final statistics of MMU caches.
type Recorder struct {
	recorder datarecording.DataRecorder
}

// NewRecorder creates the step and stats tables in the data recorder.
func NewRecorder(recorder datarecording.DataRecorder) *Recorder {
	recorder.CreateTable(stepTableName, StepRecord{})
	recorder.CreateTable(statsTableName, StatsRecord{})

	return &Recorder{recorder: recorder}
}

// StepTableName returns the name of the table that holds StepRecords.
func (r *Recorder) StepTableName() string {
	return stepTableName
}

// StatsTableName returns the name of the table that holds StatsRecords.
func (r *Recorder) StatsTableName() string {
	return statsTableName
}

// Func records the step of the hook context.
func (r *Recorder) Func(ctx hooking.HookCtx) {
	step, ok := ctx.Item.(Step)
	if !ok {
		return
	}

	r.recorder.InsertData(stepTableName, StepRecord{
		Seq:       step.Seq,
		Cache:     ctx.Domain.Name(),
		Event:     ctx.Pos.Name,
		Level:     step.Level,
		VAddr:     step.VAddr,
		Index:     step.Index,
		Tag:       step.Tag,
		WayID:     step.WayID,
		TableAddr: step.TableAddr,
	})
}

// RecordStats stores the current statistics of the MMU cache.
func (r *Recorder) RecordStats(c *Comp) {
	s := c.Stats()

	r.recorder.InsertData(statsTableName, StatsRecord{
		Cache:          s.Name,
		Hits:           s.Hits,
		Misses:         s.Misses,
		HitRate:        s.HitRate,
		NumPageTables:  s.NumPageTables,
		NumLiveEntries: s.NumLiveEntries,
	})
}

// Flush writes the buffered records.
func (r *Recorder) Flush() {
	r.recorder.Flush()
}
