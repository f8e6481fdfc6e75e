package template

import (
	"github.com/nugget-stub/nugget/internal/store"
)

// VariableSource supplies per-request generated variable values.
type VariableSource interface {
	Value(name string) (any, error)
}

// Environment bundles everything a placeholder may resolve against: the
// per-request generated variables, the parsed payload, path parameters,
// and a read-only handle to the object store.
type Environment struct {
	Variables  VariableSource
	Payload    any // parsed JSON body, or nil
	Defaults   map[string]any
	PathParams map[string]string
	Objects    *store.ObjectStore
}

// Warning is emitted for an unknown placeholder reference — not a request
// failure, just a diagnostic for the caller to log.
type Warning struct {
	Placeholder string
	Message     string
}

// Resolve evaluates node against env, returning the typed value, whether a
// reference to a real backing value was found (false for unknown
// references, which still yield a usable value of nil), and any warning.
// A non-nil error is always a hard failure (InvalidVariableRange) that the
// caller must abort rendering on, as opposed to a Warning, which is not a
// request failure.
func Resolve(node Node, env *Environment) (value any, found bool, warn *Warning, err error) {
	switch n := node.(type) {
	case Var:
		v, genErr := env.Variables.Value(n.Name)
		if genErr != nil {
			return nil, false, nil, genErr
		}
		if v == nil {
			return nil, false, &Warning{Placeholder: n.Name, Message: "unknown variable"}, nil
		}
		return v, true, nil, nil

	case Payload:
		if v, ok := walkFields(env.Payload, n.FieldPath); ok {
			return v, true, nil, nil
		}
		if v, ok := lookupDefault(env.Defaults, n.FieldPath); ok {
			return v, true, nil, nil
		}
		return nil, false, &Warning{Placeholder: "payload." + joinDots(n.FieldPath), Message: "missing payload field and no default"}, nil

	case Path:
		if v, ok := env.PathParams[n.Name]; ok {
			return v, true, nil, nil
		}
		return nil, false, &Warning{Placeholder: "path." + n.Name, Message: "unknown path parameter"}, nil

	case Objects:
		return resolveObjects(n, env)
	}
	return nil, false, nil, nil
}

func resolveObjects(n Objects, env *Environment) (any, bool, *Warning, error) {
	if n.ID == nil {
		objs := env.Objects.GetAll(n.TypeName)
		if len(n.FieldPath) == 0 {
			return objectsToAny(objs), true, nil, nil
		}
		if len(n.FieldPath) == 1 {
			return env.Objects.GetFieldAcross(n.TypeName, n.FieldPath[0]), true, nil, nil
		}
		out := make([]any, len(objs))
		for i, obj := range objs {
			v, _ := walkFields(obj.Data, n.FieldPath)
			out[i] = v
		}
		return out, true, nil, nil
	}

	id, ok, err := resolveIDExpr(n.ID, env)
	if err != nil {
		return nil, false, nil, err
	}
	if !ok {
		// Empty or non-string nested id resolves to a not-found lookup.
		return nil, true, nil, nil
	}

	data, ok := env.Objects.GetByID(n.TypeName, id)
	if !ok {
		return nil, true, nil, nil
	}
	if len(n.FieldPath) == 0 {
		return data, true, nil, nil
	}
	v, _ := walkFields(data, n.FieldPath)
	return v, true, nil, nil
}

func resolveIDExpr(idExpr *IDExpr, env *Environment) (string, bool, error) {
	if idExpr.Nested == nil {
		return idExpr.Literal, true, nil
	}
	v, found, _, err := Resolve(idExpr.Nested, env)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false, nil
	}
	return s, true, nil
}

func objectsToAny(objs []*store.Object) []any {
	out := make([]any, len(objs))
	for i, obj := range objs {
		out[i] = obj.Data
	}
	return out
}

// walkFields descends into value following a dotted field path. A nil or
// non-object value at any step, or a missing key, is a miss.
func walkFields(value any, path []string) (any, bool) {
	current := value
	for _, field := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[field]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}

func lookupDefault(defaults map[string]any, path []string) (any, bool) {
	if defaults == nil {
		return nil, false
	}
	if v, ok := defaults[joinDots(path)]; ok {
		return v, true
	}
	if v, ok := defaults[path[len(path)-1]]; ok {
		return v, true
	}
	return nil, false
}

func joinDots(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}
