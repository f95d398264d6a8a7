package match

import "github.com/vnsched/vnsched/pset"

func newTestCache() *pset.Cache { return pset.NewCache() }
