package utils

import (
	"context"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// GroupWorkFunc runs a single group's share of work over the half-open range [from, to).
type GroupWorkFunc func(groupNum, from, to int)

// GroupWorkParallel splits totalSize work items into at most numGroups contiguous groups and runs
// each group on its own goroutine, returning once every group is done. Groups are numbered in
// increasing order of their ranges, so callers merging per-group results by group number see the
// items in their original order. A numGroups <= 0 uses ParallelFactor.
func GroupWorkParallel(ctx context.Context, totalSize, numGroups int, groupWork GroupWorkFunc) error {
	if numGroups <= 0 {
		numGroups = ParallelFactor
	}
	if numGroups > totalSize {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		return ctx.Err()
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	var wait sync.WaitGroup
	wait.Add(numGroups)
	from := 0
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		to := from + groupSize
		if groupNum < extra {
			to++
		}
		groupNum, groupFrom, groupTo := groupNum, from, to
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			if ctx.Err() != nil {
				return
			}
			groupWork(groupNum, groupFrom, groupTo)
		})
		from = to
	}
	wait.Wait()
	return ctx.Err()
}
