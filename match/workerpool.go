package match

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/vnsched/vnsched/schederr"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnode"
)

// shardCount returns how many shards to split work into: enough to
// use available cores without spawning more goroutines than there is
// work to give them.
func shardCount(n int) int {
	g := runtime.GOMAXPROCS(0)
	if g < 1 {
		g = 1
	}
	if n < g {
		g = n
	}
	if g < 1 {
		g = 1
	}
	return g
}

// preFilterEligible runs IsVnodeEligible across nodes concurrently,
// fanning out disjoint index ranges to a worker pool and merging
// results back in input order. Each shard only reads vnode state, so
// running it off the driver goroutine is safe even though scratch
// bits and placement-set aggregates are otherwise driver-owned.
func preFilterEligible(nodes []*vnode.Vnode, req *Request, want ExclusivityWanted, chunk *selspec.Chunk) ([]*vnode.Vnode, []*schederr.Error) {
	n := len(nodes)
	if n == 0 {
		return nil, nil
	}
	shards := shardCount(n)
	errsPerNode := make([]*schederr.Error, n)

	g, _ := errgroup.WithContext(context.Background())
	chunkSize := (n + shards - 1) / shards
	for s := 0; s < shards; s++ {
		start := s * chunkSize
		end := start + chunkSize
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := IsVnodeEligible(nodes[i], req, want, chunk); err != nil {
					errsPerNode[i] = err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	eligible := make([]*vnode.Vnode, 0, n)
	var errs []*schederr.Error
	for i, node := range nodes {
		if errsPerNode[i] == nil {
			eligible = append(eligible, node)
		} else {
			errs = append(errs, errsPerNode[i])
		}
	}
	return eligible, errs
}
