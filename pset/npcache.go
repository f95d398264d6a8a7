package pset

import (
	"fmt"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix/v2"
	"github.com/vnsched/vnsched/vnode"
)

// Cache memoizes BuildPlacementSets results keyed by (grouping resource
// list, node-pool identity), avoiding rebuilding the same partition
// repeatedly within a cycle. It is not safe for concurrent use — each
// worker that needs partitioning builds or shares its own Cache.
type Cache struct {
	tree *iradix.Tree[[]*Set]
}

// NewCache returns an empty np_cache.
func NewCache() *Cache {
	return &Cache{tree: iradix.New[[]*Set]()}
}

func cacheKey(pool *vnode.Pool, groupingRes []string) []byte {
	return []byte(fmt.Sprintf("%p|%s", pool, strings.Join(groupingRes, ",")))
}

// Get returns the cached partition for groupingRes against pool, if any.
func (c *Cache) Get(pool *vnode.Pool, groupingRes []string) ([]*Set, bool) {
	return c.tree.Get(cacheKey(pool, groupingRes))
}

// Put stores a partition computed for groupingRes against pool.
func (c *Cache) Put(pool *vnode.Pool, groupingRes []string, sets []*Set) {
	tree, _, _ := c.tree.Insert(cacheKey(pool, groupingRes), sets)
	c.tree = tree
}

// BuildOrGet returns the cached partition for a single grouping
// resource against pool, building and caching it on a miss.
func (c *Cache) BuildOrGet(pool *vnode.Pool, groupingRes string, flags BuildFlag) []*Set {
	key := []string{groupingRes}
	if sets, ok := c.Get(pool, key); ok {
		return sets
	}
	sets := BuildPlacementSets(pool, groupingRes, flags)
	c.Put(pool, key, sets)
	return sets
}
