package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePositional(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), nil)
	v, err := r.Resolve("a3")
	require.NoError(t, err)
	assert.Equal(t, Variable{Name: "a3", Side: "a", Index: 2, Kind: VarPositional}, v)
}

func TestResolveBracketIndexIsZeroBased(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), nil)
	v, err := r.Resolve("a[0]")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, VarBracketIndex, v.Kind)
}

func TestResolveAttribute(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"id", "name", "amount"}), nil)
	v, err := r.Resolve("a.name")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, VarAttribute, v.Kind)
}

func TestResolveAttributeMissingColumn(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"id"}), nil)
	_, err := r.Resolve("a.nope")
	assert.Error(t, err)
}

func TestResolveAttributeRequiresHeader(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), nil)
	_, err := r.Resolve("a.name")
	assert.Error(t, err)
}

func TestResolveDictionaryWithSpaces(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"customer id", "amount"}), nil)
	v, err := r.Resolve(`a["customer id"]`)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, VarDictionary, v.Kind)
}

func TestResolveDictionarySingleQuote(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"customer id"}), nil)
	v, err := r.Resolve(`a['customer id']`)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Index)
}

func TestResolveDirectUniqueName(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"id", "name"}), nil)
	v, err := r.Resolve("name")
	require.NoError(t, err)
	assert.Equal(t, "a", v.Side)
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, VarDirect, v.Kind)
}

func TestResolveDirectAmbiguous(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"id", "name"}), NewTableSchema([]string{"name", "amount"}))
	_, err := r.Resolve("name")
	assert.ErrorContains(t, err, "Ambiguous")
}

func TestResolveDirectNotFound(t *testing.T) {
	r := NewResolver(NewTableSchema([]string{"id"}), nil)
	_, err := r.Resolve("nonexistent")
	assert.Error(t, err)
}

func TestResolveBSideRequiresJoin(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), nil)
	_, err := r.Resolve("b1")
	assert.Error(t, err)
}

func TestResolveSpecials(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), NewTableSchema(nil))
	for _, name := range []string{"NR", "NF", "aNR", "bNR", "BNF"} {
		v, err := r.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, VarSpecial, v.Kind)
	}
}

func TestResolveBSidePositionalWithJoin(t *testing.T) {
	r := NewResolver(NewTableSchema(nil), NewTableSchema(nil))
	v, err := r.Resolve("b2")
	require.NoError(t, err)
	assert.Equal(t, "b", v.Side)
	assert.Equal(t, 1, v.Index)
}
