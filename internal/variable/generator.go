// Package variable generates one concrete value per declared VariableSpec,
// memoized for the lifetime of a single request so repeated placeholders
// resolve identically.
package variable

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/nugget-stub/nugget/internal/errs"
)

// Type identifies a variable's generation strategy.
type Type string

const (
	UUID    Type = "uuid"
	Integer Type = "integer"
	String  Type = "string"
)

// Spec is one declared variable's generation parameters, as configured on
// a Route. Unset Min/Max/Prefix are represented as nil so the loader can
// detect (and warn about) parameters supplied for the wrong type.
type Spec struct {
	Name   string
	Type   Type
	Prefix *string
	Min    *int64
	Max    *int64
}

// Diagnostic records a load-time warning produced while validating a Spec.
type Diagnostic struct {
	RouteMethod string
	RoutePath   string
	Message     string
}

// Validate checks a Spec for parameters that don't apply to its Type,
// returning one Diagnostic per ignored parameter. It never fails — ignored
// parameters are tolerated, only warned about.
func Validate(routeMethod, routePath string, spec Spec) []Diagnostic {
	var diags []Diagnostic
	warn := func(param string) {
		diags = append(diags, Diagnostic{
			RouteMethod: routeMethod,
			RoutePath:   routePath,
			Message:     fmt.Sprintf("variable %q: type %q doesn't support %q; ignoring", spec.Name, spec.Type, param),
		})
	}

	switch spec.Type {
	case UUID:
		if spec.Prefix != nil {
			warn("prefix")
		}
		if spec.Min != nil {
			warn("min")
		}
		if spec.Max != nil {
			warn("max")
		}
	case Integer:
		if spec.Prefix != nil {
			warn("prefix")
		}
	case String:
		if spec.Min != nil {
			warn("min")
		}
		if spec.Max != nil {
			warn("max")
		}
	default:
		if spec.Prefix != nil {
			warn("prefix")
		}
		if spec.Min != nil {
			warn("min")
		}
		if spec.Max != nil {
			warn("max")
		}
	}
	return diags
}

// Generator produces and memoizes variable values for a single request.
// It is not safe for concurrent use across requests — construct one per
// request from the shared, thread-safe random source.
type Generator struct {
	specs  []Spec
	cached map[string]any
}

// New creates a Generator for the given declared specs.
func New(specs []Spec) *Generator {
	return &Generator{specs: specs, cached: make(map[string]any, len(specs))}
}

// GenerateAll produces (and memoizes) a value for every declared spec,
// returning the resulting var_name -> value mapping. Fails fast with
// InvalidVariableRange if any integer spec has min > max.
func (g *Generator) GenerateAll() (map[string]any, error) {
	for _, spec := range g.specs {
		if _, err := g.Value(spec.Name); err != nil {
			return nil, err
		}
	}
	return g.cached, nil
}

// Value returns the memoized value for name, generating it on first use.
func (g *Generator) Value(name string) (any, error) {
	if v, ok := g.cached[name]; ok {
		return v, nil
	}
	var spec *Spec
	for i := range g.specs {
		if g.specs[i].Name == name {
			spec = &g.specs[i]
			break
		}
	}
	if spec == nil {
		return nil, nil
	}
	v, err := generate(*spec)
	if err != nil {
		return nil, err
	}
	g.cached[name] = v
	return v, nil
}

func generate(spec Spec) (any, error) {
	switch spec.Type {
	case UUID:
		return uuid.New().String(), nil
	case Integer:
		min := int64(0)
		max := int64(1<<32 - 1)
		if spec.Min != nil {
			min = *spec.Min
		}
		if spec.Max != nil {
			max = *spec.Max
		}
		if min > max {
			return nil, errs.New(errs.InvalidVariableRange, "variable %q: min (%d) > max (%d)", spec.Name, min, max)
		}
		span := uint64(max-min) + 1
		return min + int64(uint64N(span)), nil
	case String:
		suffix := rand.Uint32()
		base := fmt.Sprintf("generated_%d", suffix)
		if spec.Prefix != nil {
			return *spec.Prefix + base, nil
		}
		return base, nil
	default:
		return nil, errs.New(errs.ConfigError, "variable %q: unknown type %q", spec.Name, spec.Type)
	}
}

// uint64N returns a uniformly distributed value in [0, n) using math/rand's
// top-level (lock-protected, concurrency-safe) Uint64 source. math/rand/v2
// provides this directly as Uint64N; this is the equivalent unbiased
// rejection-sampling implementation for the math/rand (v1) source this
// toolchain supports.
func uint64N(n uint64) uint64 {
	if n&(n-1) == 0 {
		return rand.Uint64() & (n - 1)
	}
	max := ^uint64(0) - (^uint64(0))%n
	v := rand.Uint64()
	for v > max {
		v = rand.Uint64()
	}
	return v % n
}

// math/rand's top-level functions (rand.Uint64, rand.Uint32) are already
// safe for concurrent use, so no extra lock is needed here to keep the
// random source thread-safe.
