package clawio

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNewLocalGroup(t *testing.T) {
	members, err := NewLocalGroup(3)
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, m := range members {
		require.Equal(t, i, m.Rank())
		require.Equal(t, 3, m.Size())
	}

	_, err = NewLocalGroup(0)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestBarrierSeparatesPhases(t *testing.T) {
	const size = 4
	members, err := NewLocalGroup(size)
	require.NoError(t, err)

	var before, after atomic.Int32
	var g errgroup.Group
	for _, m := range members {
		m := m
		g.Go(func() error {
			before.Add(1)
			m.Barrier()
			// Every member must have finished the first phase by now.
			if got := before.Load(); got != size {
				return errors.New("barrier released early")
			}
			after.Add(1)
			m.Barrier()
			if got := after.Load(); got != size {
				return errors.New("second barrier released early")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestCollectiveRunsOnceAndBroadcasts(t *testing.T) {
	members, err := NewLocalGroup(3)
	require.NoError(t, err)

	var calls atomic.Int32
	results := make([]interface{}, len(members))
	var g errgroup.Group
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			res, err := m.Collective(func() (interface{}, error) {
				calls.Add(1)
				return "metadata", nil
			})
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), calls.Load(), "collective body must run exactly once")
	for _, r := range results {
		require.Equal(t, "metadata", r)
	}
}

func TestCollectiveBroadcastsError(t *testing.T) {
	members, err := NewLocalGroup(2)
	require.NoError(t, err)

	boom := errors.New("metadata write failed")
	errs := make([]error, len(members))
	var g errgroup.Group
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			_, e := m.Collective(func() (interface{}, error) {
				return nil, boom
			})
			errs[i] = e
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, e := range errs {
		require.ErrorIs(t, e, boom, "rank %d", i)
	}
}

func TestCollectiveSequence(t *testing.T) {
	// Consecutive collectives must not bleed results into each other.
	members, err := NewLocalGroup(2)
	require.NoError(t, err)

	var g errgroup.Group
	for _, m := range members {
		m := m
		g.Go(func() error {
			for round := 0; round < 50; round++ {
				res, err := m.Collective(func() (interface{}, error) {
					return round, nil
				})
				if err != nil {
					return err
				}
				if res.(int) != round {
					return errors.New("stale collective result")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
