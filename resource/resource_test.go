package resource

import (
	"testing"

	"github.com/shoenig/test/must"
	"github.com/vnsched/vnsched/schederr"
)

func TestParseValue_Kinds(t *testing.T) {
	cases := []struct {
		name string
		def  *Def
		text string
		want func(*testing.T, *Value)
	}{
		{
			name: "boolean true",
			def:  &Def{Name: "switch", Kind: KindBoolean},
			text: "True",
			want: func(t *testing.T, v *Value) { must.True(t, v.Bool) },
		},
		{
			name: "number",
			def:  &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable},
			text: "8",
			want: func(t *testing.T, v *Value) { must.Eq(t, 8.0, v.Avail) },
		},
		{
			name: "string",
			def:  &Def{Name: "vntype", Kind: KindString},
			text: `"cray_compute"`,
			want: func(t *testing.T, v *Value) { must.Eq(t, "cray_compute", v.Str) },
		},
		{
			name: "string set",
			def:  &Def{Name: "aoe", Kind: KindStringSet},
			text: "a,b,c",
			want: func(t *testing.T, v *Value) { must.Eq(t, []string{"a", "b", "c"}, v.StrSet) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseValue(tc.def, tc.text)
			must.NoError(t, err)
			tc.want(t, v)
		})
	}
}

func TestParseValue_SizeNormalizesToMiB(t *testing.T) {
	def := &Def{Name: "mem", Kind: KindSize, Flags: FlagConsumable | FlagMemNormalize}
	v, err := ParseValue(def, "8gb")
	must.NoError(t, err)
	must.Eq(t, uint64(8192), v.SizeMiB())
}

func TestDynamicAvail(t *testing.T) {
	v := &Value{Avail: 10, Assigned: 4}
	must.Eq(t, 6.0, v.DynamicAvail())

	over := &Value{Avail: 10, Assigned: 12}
	must.Eq(t, 0.0, over.DynamicAvail())

	unlimited := &Value{Avail: Unlimited, Assigned: 1000}
	must.Eq(t, Unlimited, unlimited.DynamicAvail())
}

func TestMatchResource_Consumable(t *testing.T) {
	def := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	res := &Value{Def: def, Avail: 8}
	req := &Value{Def: def, Avail: 4}

	count, err := MatchResource(res, req, false)
	must.NoError(t, err)
	must.Eq(t, int64(2), count)
}

func TestMatchResource_ConsumableInsufficient(t *testing.T) {
	def := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	res := &Value{Def: def, Avail: 2}
	req := &Value{Def: def, Avail: 4}

	count, err := MatchResource(res, req, false)
	must.Eq(t, int64(0), count)
	must.NotNil(t, err)
	must.Eq(t, "ncpus", err.Resource)
}

func TestMatchResource_Boolean(t *testing.T) {
	def := &Def{Name: "excl", Kind: KindBoolean}

	count, err := MatchResource(&Value{Def: def, Bool: true}, &Value{Def: def, Bool: true}, false)
	must.NoError(t, err)
	must.Eq(t, Unbounded, count)

	count, err = MatchResource(&Value{Def: def, Bool: false}, &Value{Def: def, Bool: true}, false)
	must.NotNil(t, err)
	must.Eq(t, int64(0), count)
}

func TestMatchResource_String(t *testing.T) {
	def := &Def{Name: "vntype", Kind: KindString}

	count, err := MatchResource(&Value{Def: def, Str: "cray_compute"}, &Value{Def: def, Str: "cray_compute"}, false)
	must.NoError(t, err)
	must.Eq(t, Unbounded, count)

	_, err = MatchResource(&Value{Def: def, Str: "other"}, &Value{Def: def, Str: "cray_compute"}, false)
	must.NotNil(t, err)
}

func TestCheckAvailResources_MinimumAcrossRequests(t *testing.T) {
	ncpus := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	mem := &Def{Name: "mem", Kind: KindSize, Flags: FlagConsumable}

	avail := List{
		{Def: ncpus, Avail: 8},
		{Def: mem, Avail: 16 * 1024 * 1024}, // 16GB in KB
	}
	req := List{
		{Def: ncpus, Avail: 2},             // 4 chunks possible
		{Def: mem, Avail: 8 * 1024 * 1024}, // 2 chunks possible
	}

	var errs schederr.List
	count := CheckAvailResources(avail, req, 0, nil, &errs)
	must.Eq(t, int64(2), count)
	must.True(t, errs.Empty())
}

func TestCheckAvailResources_ReturnAllErr(t *testing.T) {
	ncpus := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	mem := &Def{Name: "mem", Kind: KindSize, Flags: FlagConsumable}

	avail := List{
		{Def: ncpus, Avail: 1},
		{Def: mem, Avail: 1},
	}
	req := List{
		{Def: ncpus, Avail: 4},
		{Def: mem, Avail: 4},
	}

	var errs schederr.List
	count := CheckAvailResources(avail, req, ReturnAllErr, nil, &errs)
	must.Eq(t, int64(0), count)
	must.Eq(t, 2, len(errs.Errors()))
}

func TestAddResourceList_SumsConsumables(t *testing.T) {
	ncpus := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	a := List{{Def: ncpus, Assigned: 2}}
	b := List{{Def: ncpus, Avail: 3}}

	out := AddResourceList(a, b, AddAssigned)
	must.Eq(t, 5.0, out.FindByName("ncpus").Assigned)
}

func TestAddResourceList_Subtract(t *testing.T) {
	ncpus := &Def{Name: "ncpus", Kind: KindNumber, Flags: FlagConsumable}
	a := List{{Def: ncpus, Assigned: 5}}
	b := List{{Def: ncpus, Avail: 3}}

	out := AddResourceList(a, b, AddAssigned|AddSubtract)
	must.Eq(t, 2.0, out.FindByName("ncpus").Assigned)
}
