// Package template parses placeholder expressions into a small AST rather
// than repeatedly re-parsing strings, then walks a JSON-shaped response
// template substituting them.
package template

import (
	"regexp"
	"strings"

	"github.com/nugget-stub/nugget/internal/errs"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Node is a parsed placeholder expression.
type Node interface{}

// Var references a variable generated for this request: {var_name}.
type Var struct {
	Name string
}

// Payload references a field path into the parsed request body: {payload.a.b.c}.
type Payload struct {
	FieldPath []string
}

// Path references a single path parameter: {path.name}.
type Path struct {
	Name string
}

// IDExpr is the bracketed id expression in an Objects lookup: either a
// bare literal or one level of nested simple-placeholder substitution.
type IDExpr struct {
	Literal string // used when Nested == nil
	Nested  Node   // a Var, Payload, or Path node; nil when Literal is used
}

// Objects references the object store: {objects.T}, {objects.T.field},
// {objects.T[id]}, or {objects.T[id].field}.
type Objects struct {
	TypeName  string
	ID        *IDExpr // nil for the whole-collection forms
	FieldPath []string
}

// Parse parses the content between the outer "{" and "}" of one
// placeholder into its AST node. Malformed syntax (unbalanced brackets,
// empty identifiers, trailing garbage) yields a TemplateSyntaxError.
func Parse(content string) (Node, error) {
	if content == "" {
		return nil, errs.New(errs.TemplateSyntaxError, "empty placeholder")
	}

	switch {
	case strings.HasPrefix(content, "payload."):
		fields, err := splitFieldPath(content[len("payload."):])
		if err != nil {
			return nil, err
		}
		return Payload{FieldPath: fields}, nil

	case strings.HasPrefix(content, "path."):
		name := content[len("path."):]
		if !identifierRe.MatchString(name) {
			return nil, errs.New(errs.TemplateSyntaxError, "invalid path parameter name %q", name)
		}
		return Path{Name: name}, nil

	case strings.HasPrefix(content, "objects."):
		return parseObjects(content[len("objects."):])

	default:
		if !identifierRe.MatchString(content) {
			return nil, errs.New(errs.TemplateSyntaxError, "invalid placeholder %q", content)
		}
		return Var{Name: content}, nil
	}
}

func splitFieldPath(s string) ([]string, error) {
	if s == "" {
		return nil, errs.New(errs.TemplateSyntaxError, "empty field path")
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if !identifierRe.MatchString(p) {
			return nil, errs.New(errs.TemplateSyntaxError, "invalid field path segment %q", p)
		}
	}
	return parts, nil
}

func parseObjects(rest string) (Node, error) {
	// type_name is the leading run of identifier characters.
	i := 0
	for i < len(rest) && isIdentChar(rest[i], i == 0) {
		i++
	}
	typeName := rest[:i]
	if !identifierRe.MatchString(typeName) {
		return nil, errs.New(errs.TemplateSyntaxError, "invalid object type name %q", typeName)
	}
	rest = rest[i:]

	node := Objects{TypeName: typeName}

	if rest == "" {
		return node, nil
	}

	if rest[0] == '[' {
		idExprStr, remainder, err := extractBracketed(rest)
		if err != nil {
			return nil, err
		}
		idExpr, err := parseIDExpr(idExprStr)
		if err != nil {
			return nil, err
		}
		node.ID = idExpr
		rest = remainder
		if rest == "" {
			return node, nil
		}
	}

	if rest[0] != '.' {
		return nil, errs.New(errs.TemplateSyntaxError, "unexpected trailing characters %q", rest)
	}
	fields, err := splitFieldPath(rest[1:])
	if err != nil {
		return nil, err
	}
	node.FieldPath = fields
	return node, nil
}

// extractBracketed pulls the "[...]" starting at rest[0]=='[' out, honoring
// one level of nested "{...}" inside it, and returns its interior plus
// whatever followed the closing "]".
func extractBracketed(rest string) (inner, remainder string, err error) {
	depth := 0
	for idx := 0; idx < len(rest); idx++ {
		switch rest[idx] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[1:idx], rest[idx+1:], nil
			}
		}
	}
	return "", "", errs.New(errs.TemplateSyntaxError, "unbalanced '[' in %q", rest)
}

func parseIDExpr(s string) (*IDExpr, error) {
	if s == "" {
		return nil, errs.New(errs.TemplateSyntaxError, "empty id expression")
	}
	if s[0] == '{' {
		if s[len(s)-1] != '}' {
			return nil, errs.New(errs.TemplateSyntaxError, "unbalanced '{' in id expression %q", s)
		}
		nested, err := Parse(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		switch nested.(type) {
		case Var, Payload, Path:
			return &IDExpr{Nested: nested}, nil
		default:
			return nil, errs.New(errs.TemplateSyntaxError, "id expression only supports one level of simple nested substitution")
		}
	}
	return &IDExpr{Literal: s}, nil
}

func isIdentChar(b byte, first bool) bool {
	if b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
		return true
	}
	if !first && b >= '0' && b <= '9' {
		return true
	}
	return false
}
