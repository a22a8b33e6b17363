package mmucache

import (
	"fmt"
	"io"

	"github.com/sarchlab/mmucache/sim/hooking"
)

// A Tracer writes a line for each hit, miss, allocation, and eviction of an
// MMU cache.
type Tracer struct {
	writer io.Writer
}

// NewTracer produces a new Tracer, injecting the dependency of a writer.
func NewTracer(w io.Writer) *Tracer {
	t := new(Tracer)
	t.writer = w

	return t
}

// Func prints the trace information as
// seq,cache,event,level,tag,table address.
func (t *Tracer) Func(ctx hooking.HookCtx) {
	step, ok := ctx.Item.(Step)
	if !ok {
		return
	}

	_, err := fmt.Fprintf(t.writer,
		"%d,%s,%s,%d,0x%x,0x%x\n",
		step.Seq,
		ctx.Domain.Name(),
		ctx.Pos.Name,
		step.Level,
		step.Tag,
		step.TableAddr)
	if err != nil {
		panic(err)
	}
}
