package selspec

import (
	"testing"

	"github.com/shoenig/test/must"
	"github.com/vnsched/vnsched/resource"
)

func defs() map[string]*resource.Def {
	return map[string]*resource.Def{
		"ncpus": {Name: "ncpus", Kind: resource.KindNumber, Flags: resource.FlagConsumable},
		"mem":   {Name: "mem", Kind: resource.KindSize, Flags: resource.FlagConsumable | resource.FlagMemNormalize},
		"excl":  {Name: "excl", Kind: resource.KindBoolean},
	}
}

func lookup(t *testing.T) func(string) *resource.Def {
	d := defs()
	return func(name string) *resource.Def { return d[name] }
}

func TestParse_SingleChunk(t *testing.T) {
	sp, err := Parse("2:ncpus=4:mem=8gb", lookup(t))
	must.NoError(t, err)
	must.Eq(t, 1, len(sp.Chunks))
	must.Eq(t, 2, sp.Chunks[0].Count)
	must.Eq(t, 2, sp.TotalChunks)
	must.Eq(t, 8.0, sp.TotalCPUs)
}

func TestParse_MultipleChunksPreservesFirstOriginalText(t *testing.T) {
	sp, err := Parse("1:ncpus=2+3:ncpus=1", lookup(t))
	must.NoError(t, err)
	must.Eq(t, 2, len(sp.Chunks))
	must.Eq(t, "1:ncpus=2", sp.Chunks[0].OriginalText)
	must.Eq(t, "", sp.Chunks[1].OriginalText)
	must.Eq(t, 5.0, sp.TotalCPUs)
}

func TestParse_DefaultCountIsOne(t *testing.T) {
	sp, err := Parse("ncpus=1", lookup(t))
	must.NoError(t, err)
	must.Eq(t, 1, sp.Chunks[0].Count)
}

func TestParse_RejectsUnknownResource(t *testing.T) {
	_, err := Parse("1:bogus=1", lookup(t))
	must.Error(t, err)
}

func TestParsePlace_DefaultsToFree(t *testing.T) {
	p, err := ParsePlace("")
	must.NoError(t, err)
	must.Eq(t, PlaceFree, p.Kind)
}

func TestParsePlace_ExclHostImpliesExcl(t *testing.T) {
	p, err := ParsePlace("scatter:exclhost")
	must.NoError(t, err)
	must.Eq(t, PlaceScatter, p.Kind)
	must.True(t, p.Excl)
	must.True(t, p.ExclHost)
}

func TestParsePlace_RejectsMultipleKinds(t *testing.T) {
	_, err := ParsePlace("pack:scatter")
	must.Error(t, err)
}

func TestParsePlace_Grouping(t *testing.T) {
	p, err := ParsePlace("scatter:group=rack")
	must.NoError(t, err)
	must.Eq(t, "rack", p.Grouping)
}
