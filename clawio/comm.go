package clawio

import (
	"fmt"
	"sync"
)

// ProcessGroup is the fixed set of cooperating processes a frame is
// written by. Every member must make the same sequence of Barrier and
// Collective calls; a mismatched sequence hangs or corrupts the frame
// rather than producing an error.
type ProcessGroup interface {
	// Rank returns this member's index, 0 <= Rank() < Size().
	Rank() int

	// Size returns the number of members.
	Size() int

	// Barrier blocks until every member has reached it.
	Barrier()

	// Collective runs fn exactly once per group, on rank 0, after all
	// members have entered and before any member leaves. Every member
	// receives rank 0's result and error. Entering the collective also
	// publishes each member's prior memory writes to fn.
	Collective(fn func() (interface{}, error)) (interface{}, error)
}

// localCore is the state shared by the members of a LocalGroup.
type localCore struct {
	size int

	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation int

	result interface{}
	err    error
}

// LocalGroup is an in-process ProcessGroup whose members run as
// goroutines in one address space. It is the group used by tests and
// single-machine runs; distributed transports implement ProcessGroup
// themselves.
type LocalGroup struct {
	core *localCore
	rank int
}

// NewLocalGroup creates the member handles of an in-process group of
// the given size. Each member goroutine uses exactly one handle.
func NewLocalGroup(size int) ([]*LocalGroup, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: group size %d", ErrConfiguration, size)
	}
	core := &localCore{size: size}
	core.cond = sync.NewCond(&core.mu)
	members := make([]*LocalGroup, size)
	for i := range members {
		members[i] = &LocalGroup{core: core, rank: i}
	}
	return members, nil
}

// Rank returns this member's index.
func (g *LocalGroup) Rank() int { return g.rank }

// Size returns the group size.
func (g *LocalGroup) Size() int { return g.core.size }

// Barrier blocks until all members arrive. The generation counter
// lets the barrier be reused immediately by the next phase.
func (g *LocalGroup) Barrier() {
	c := g.core
	c.mu.Lock()
	gen := c.generation
	c.arrived++
	if c.arrived == c.size {
		c.arrived = 0
		c.generation++
		c.cond.Broadcast()
	} else {
		for c.generation == gen {
			c.cond.Wait()
		}
	}
	c.mu.Unlock()
}

// Collective implements ProcessGroup. Rank 0 runs its own fn between
// an entry and an exit barrier; the exit barrier broadcasts the result.
func (g *LocalGroup) Collective(fn func() (interface{}, error)) (interface{}, error) {
	c := g.core
	g.Barrier()
	if g.rank == 0 {
		res, err := fn()
		c.mu.Lock()
		c.result, c.err = res, err
		c.mu.Unlock()
	}
	g.Barrier()
	c.mu.Lock()
	res, err := c.result, c.err
	c.mu.Unlock()
	return res, err
}
