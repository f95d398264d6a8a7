package snapshot

import (
	"testing"

	"github.com/shoenig/test/must"

	"github.com/vnsched/vnsched/vnode"
)

func testNodes() []*vnode.Vnode {
	return []*vnode.Vnode{
		{Rank: 0, Name: "n1", ParentHost: "h1"},
		{Rank: 1, Name: "n2", ParentHost: "h1"},
		{Rank: 2, Name: "n3", ParentHost: "h2"},
	}
}

func TestStore_LoadAndByRank(t *testing.T) {
	s, err := New()
	must.NoError(t, err)
	must.NoError(t, s.Load(testNodes()))

	sn := s.Snapshot()
	v, err := sn.ByRank(1)
	must.NoError(t, err)
	must.NotNil(t, v)
	must.Eq(t, "n2", v.Name)
}

func TestStore_ByName(t *testing.T) {
	s, err := New()
	must.NoError(t, err)
	must.NoError(t, s.Load(testNodes()))

	sn := s.Snapshot()
	v, err := sn.ByName("n3")
	must.NoError(t, err)
	must.NotNil(t, v)
	must.Eq(t, "h2", v.ParentHost)

	missing, err := sn.ByName("nope")
	must.NoError(t, err)
	must.Nil(t, missing)
}

func TestStore_ByHostGroupsSharedHost(t *testing.T) {
	s, err := New()
	must.NoError(t, err)
	must.NoError(t, s.Load(testNodes()))

	sn := s.Snapshot()
	nodes, err := sn.ByHost("h1")
	must.NoError(t, err)
	must.Eq(t, 2, len(nodes))
}

func TestStore_SnapshotIsolatedFromLaterLoad(t *testing.T) {
	s, err := New()
	must.NoError(t, err)
	must.NoError(t, s.Load(testNodes()))

	sn := s.Snapshot()
	must.NoError(t, s.Load([]*vnode.Vnode{{Rank: 0, Name: "only", ParentHost: "h1"}}))

	nodes, err := sn.All()
	must.NoError(t, err)
	must.Eq(t, 3, len(nodes))
}

func TestSnapshot_PoolBuildsVnodePool(t *testing.T) {
	s, err := New()
	must.NoError(t, err)
	must.NoError(t, s.Load(testNodes()))

	pool, err := s.Snapshot().Pool()
	must.NoError(t, err)
	must.Eq(t, 3, len(pool.Nodes))
}
