package registry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/nrmlc/internal/model"
)

func TestGetOrCreateFact_ReusesByName(t *testing.T) {
	r := New()

	a := r.GetOrCreateFact("Constants")
	b := r.GetOrCreateFact("Calculation")
	c := r.GetOrCreateFact("Constants")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Stats().Facts)
}

func TestCreateItem_RegistersPath(t *testing.T) {
	r := New(WithIDSource(&CounterSource{}))
	f := r.GetOrCreateFact("Constants")

	id, err := r.CreateItem(f, "afstand", "afstand")
	require.NoError(t, err)

	path, ok := r.Path("afstand")
	require.True(t, ok)
	assert.Equal(t, "#/facts/"+f+"/items/"+id, path)

	loc, ok := r.Lookup("afstand")
	require.True(t, ok)
	assert.Equal(t, Location{FactID: f, ItemID: id}, loc)

	_, ok = r.Path("missing")
	assert.False(t, ok)
}

func TestCreateItem_DuplicateKeyOverwrites(t *testing.T) {
	r := New()
	f := r.GetOrCreateFact("Constants")

	first, err := r.CreateItem(f, "x", "")
	require.NoError(t, err)
	second, err := r.CreateItem(f, "x", "")
	require.NoError(t, err)

	path, _ := r.Path("x")
	assert.True(t, strings.HasSuffix(path, second))
	assert.False(t, strings.HasSuffix(path, first))
	assert.Equal(t, 2, r.Stats().Items)
	assert.Equal(t, 1, r.Stats().Variables)
}

func TestStructuralErrors(t *testing.T) {
	r := New()
	f := r.GetOrCreateFact("Constants")
	it, err := r.CreateItem(f, "a", "")
	require.NoError(t, err)

	_, err = r.CreateItem("no-such-fact", "b", "")
	assert.ErrorIs(t, err, ErrUnknownFact)

	err = r.AddVersion("no-such-fact", it, model.TypeDefinition{})
	assert.ErrorIs(t, err, ErrUnknownFact)

	err = r.AddVersion(f, "no-such-item", model.TypeDefinition{})
	assert.ErrorIs(t, err, ErrUnknownItem)

	other := r.GetOrCreateFact("Calculation")
	err = r.AddVersion(other, it, model.TypeDefinition{})
	assert.ErrorIs(t, err, ErrUnknownItem, "item ids are scoped to their fact")
}

func TestToDocument_StripsKeysAndKeepsOrder(t *testing.T) {
	r := New(WithIDSource(&CounterSource{}))
	consts := r.GetOrCreateFact("Constants")
	calc := r.GetOrCreateFact("Calculation")

	a, _ := r.CreateItem(consts, "a", "a")
	b, _ := r.CreateItem(consts, "b", "b")
	c, _ := r.CreateItem(calc, "c", "c")
	require.NoError(t, r.AddVersion(consts, a, model.TypeDefinition{ValidFrom: "2025-01-01", Type: model.DataTypeNumeric}))

	doc := r.ToDocument(Sections{})

	assert.Equal(t, model.DefaultSchemaURL, doc.Schema)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "nl", doc.Language)
	require.Len(t, doc.Facts, 2)
	assert.Equal(t, consts, doc.Facts[0].ID)
	assert.Equal(t, calc, doc.Facts[1].ID)
	assert.Equal(t, []string{a, b}, []string{doc.Facts[0].Fact.Items[0].ID, doc.Facts[0].Fact.Items[1].ID})
	assert.Equal(t, c, doc.Facts[1].Fact.Items[0].ID)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	s := string(data)
	assert.NotContains(t, s, "reference")
	assert.NotContains(t, s, "inputs")
	assert.NotContains(t, s, "outputs")
	assert.NotContains(t, s, "includes")
	assert.Less(t, strings.Index(s, consts), strings.Index(s, calc))
	assert.Less(t, strings.Index(s, `"`+a+`"`), strings.Index(s, `"`+b+`"`))
	assert.Contains(t, s, `"versions":[]`, "items without versions encode an empty list")
}

func TestToDocument_Idempotent(t *testing.T) {
	r := New()
	f := r.GetOrCreateFact("Constants")
	it, _ := r.CreateItem(f, "a", "a")
	require.NoError(t, r.AddVersion(f, it, model.TypeDefinition{ValidFrom: "2025-01-01", Type: model.DataTypeText}))

	sections := Sections{Outputs: map[string]model.OutputSpec{"a": {Source: model.NewReference(Path(f, it))}}}
	first := r.ToDocument(sections)
	second := r.ToDocument(sections)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated emission differs (-first +second):\n%s", diff)
	}

	// mutating an emitted document must not leak back into the registry
	first.Facts[0].Fact.Items[0].Item.Versions = nil
	first.Outputs["b"] = model.OutputSpec{}
	third := r.ToDocument(sections)
	assert.Len(t, third.Facts[0].Fact.Items[0].Item.Versions, 1)
	assert.Len(t, third.Outputs, 1)
}

func TestToDocument_Sections(t *testing.T) {
	r := New(WithLanguage("en"))
	doc := r.ToDocument(Sections{
		SchemaURL: "https://example.org/schema.json",
		Inputs:    map[string]model.InputSpec{"kinderen": {Type: model.NewReference("#/facts/kind")}},
		Includes:  []model.IncludeSpec{{Law: "wet_x", Output: "y"}},
	})

	assert.Equal(t, "https://example.org/schema.json", doc.Schema)
	assert.Equal(t, "en", doc.Language)
	assert.Len(t, doc.Inputs, 1)
	assert.Len(t, doc.Includes, 1)
	assert.Nil(t, doc.Outputs)
}

func TestIdentityTokensUnique(t *testing.T) {
	for _, src := range []IDSource{UUIDSource{}, &CounterSource{}} {
		r := New(WithIDSource(src))
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			f := r.GetOrCreateFact(strings.Repeat("f", i+1))
			require.False(t, seen[f], "duplicate fact id %s", f)
			seen[f] = true
			for j := 0; j < 5; j++ {
				it, err := r.CreateItem(f, f+string(rune('a'+j)), "")
				require.NoError(t, err)
				require.False(t, seen[it], "duplicate item id %s", it)
				seen[it] = true
			}
		}
	}
}

func TestCounterSource_Deterministic(t *testing.T) {
	a, b := &CounterSource{}, &CounterSource{}
	for i := 0; i < 3; i++ {
		assert.Equal(t, a.NewID(), b.NewID())
	}
	assert.Equal(t, "00000000-0000-4000-8000-000000000004", a.NewID())
}

func TestNewIDSource(t *testing.T) {
	src, err := NewIDSource("counter")
	require.NoError(t, err)
	assert.IsType(t, &CounterSource{}, src)

	src, err = NewIDSource("")
	require.NoError(t, err)
	assert.IsType(t, UUIDSource{}, src)

	_, err = NewIDSource("snowflake")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	r := New()
	f := r.GetOrCreateFact("Constants")
	a, _ := r.CreateItem(f, "a", "")
	_, _ = r.CreateItem(f, "a-value", "")
	require.NoError(t, r.AddVersion(f, a, model.TypeDefinition{}))
	require.NoError(t, r.AddVersion(f, a, model.TypeDefinition{}))

	assert.Equal(t, Stats{Facts: 1, Items: 2, Versions: 2, Variables: 2}, r.Stats())
}
