package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nugget-stub/nugget/internal/errs"
)

func TestUUIDGeneratesCanonicalForm(t *testing.T) {
	g := New([]Spec{{Name: "id", Type: UUID}})
	v, err := g.Value("id")
	require.NoError(t, err)
	s, ok := v.(string)
	require.True(t, ok)
	assert.Len(t, s, 36)
}

func TestValueIsMemoizedAcrossCalls(t *testing.T) {
	g := New([]Spec{{Name: "id", Type: UUID}})
	first, err := g.Value("id")
	require.NoError(t, err)
	second, err := g.Value("id")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIntegerRespectsRange(t *testing.T) {
	min, max := int64(5), int64(5)
	g := New([]Spec{{Name: "n", Type: Integer, Min: &min, Max: &max}})
	v, err := g.Value("n")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestIntegerMinGreaterThanMaxFails(t *testing.T) {
	min, max := int64(10), int64(1)
	g := New([]Spec{{Name: "n", Type: Integer, Min: &min, Max: &max}})
	_, err := g.Value("n")
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidVariableRange, e.Kind())
}

func TestStringWithPrefix(t *testing.T) {
	prefix := "order_"
	g := New([]Spec{{Name: "s", Type: String, Prefix: &prefix}})
	v, err := g.Value("s")
	require.NoError(t, err)
	s := v.(string)
	assert.Contains(t, s, "order_generated_")
}

func TestUnknownVariableNameReturnsNilNoError(t *testing.T) {
	g := New(nil)
	v, err := g.Value("nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestGenerateAllProducesEveryDeclaredVariable(t *testing.T) {
	g := New([]Spec{{Name: "a", Type: UUID}, {Name: "b", Type: String}})
	all, err := g.GenerateAll()
	require.NoError(t, err)
	assert.Contains(t, all, "a")
	assert.Contains(t, all, "b")
}

func TestValidateWarnsOnInapplicableUUIDParameters(t *testing.T) {
	prefix := "x"
	diags := Validate("GET", "/thing", Spec{Name: "id", Type: UUID, Prefix: &prefix})
	assert.Len(t, diags, 1)
}

func TestValidateIsQuietWhenParametersMatchType(t *testing.T) {
	min, max := int64(0), int64(10)
	diags := Validate("GET", "/thing", Spec{Name: "n", Type: Integer, Min: &min, Max: &max})
	assert.Empty(t, diags)
}
