package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nugget-stub/nugget/internal/errs"
)

func TestParseVar(t *testing.T) {
	n, err := Parse("user_id")
	require.NoError(t, err)
	assert.Equal(t, Var{Name: "user_id"}, n)
}

func TestParsePayloadFieldPath(t *testing.T) {
	n, err := Parse("payload.user.name")
	require.NoError(t, err)
	assert.Equal(t, Payload{FieldPath: []string{"user", "name"}}, n)
}

func TestParsePathParam(t *testing.T) {
	n, err := Parse("path.id")
	require.NoError(t, err)
	assert.Equal(t, Path{Name: "id"}, n)
}

func TestParseObjectsWholeCollection(t *testing.T) {
	n, err := Parse("objects.user")
	require.NoError(t, err)
	assert.Equal(t, Objects{TypeName: "user"}, n)
}

func TestParseObjectsWithField(t *testing.T) {
	n, err := Parse("objects.user.name")
	require.NoError(t, err)
	assert.Equal(t, Objects{TypeName: "user", FieldPath: []string{"name"}}, n)
}

func TestParseObjectsWithLiteralID(t *testing.T) {
	n, err := Parse("objects.user[42]")
	require.NoError(t, err)
	obj := n.(Objects)
	assert.Equal(t, "user", obj.TypeName)
	require.NotNil(t, obj.ID)
	assert.Equal(t, "42", obj.ID.Literal)
}

func TestParseObjectsWithNestedIDAndField(t *testing.T) {
	n, err := Parse("objects.user[{path.id}].name")
	require.NoError(t, err)
	obj := n.(Objects)
	require.NotNil(t, obj.ID)
	assert.Equal(t, Path{Name: "id"}, obj.ID.Nested)
	assert.Equal(t, []string{"name"}, obj.FieldPath)
}

func TestParseEmptyPlaceholderIsSyntaxError(t *testing.T) {
	_, err := Parse("")
	assertKind(t, err, errs.TemplateSyntaxError)
}

func TestParseInvalidIdentifierIsSyntaxError(t *testing.T) {
	_, err := Parse("123abc")
	assertKind(t, err, errs.TemplateSyntaxError)
}

func TestParseUnbalancedBracketIsSyntaxError(t *testing.T) {
	_, err := Parse("objects.user[42")
	assertKind(t, err, errs.TemplateSyntaxError)
}

func TestParseNestedObjectsInsideIDIsRejected(t *testing.T) {
	_, err := Parse("objects.user[{objects.other[1]}]")
	assertKind(t, err, errs.TemplateSyntaxError)
}

func assertKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	e, ok := errs.As(err)
	if !ok {
		t.Fatalf("expected an *errs.Error, got %v", err)
	}
	if e.Kind() != kind {
		t.Fatalf("expected kind %s, got %s", kind, e.Kind())
	}
}
