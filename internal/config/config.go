// Package config loads and validates a Nugget route table from CLI flags
// and a YAML configuration file.
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/nugget-stub/nugget/internal/errs"
	"github.com/nugget-stub/nugget/internal/variable"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
}

// VariableSpec is the YAML shape of a declared route variable.
type VariableSpec struct {
	Type    string `yaml:"type"`
	Prefix  *string `yaml:"prefix,omitempty"`
	Min     *int64  `yaml:"min,omitempty"`
	Max     *int64  `yaml:"max,omitempty"`
	Default any     `yaml:"default,omitempty"` // parsed but not referenced by any operation
}

// ResponseTemplate is a route's template-path response.
type ResponseTemplate struct {
	Status int `yaml:"status"`
	Body   any `yaml:"body"`
}

// Route is one configured endpoint.
type Route struct {
	Method      string                  `yaml:"method"`
	Path        string                  `yaml:"path"`
	ObjectName  string                  `yaml:"object_name,omitempty"`
	StoreObject *bool                   `yaml:"store_object,omitempty"`
	Variables   map[string]VariableSpec `yaml:"variables,omitempty"`
	Response    *ResponseTemplate       `yaml:"response,omitempty"`
	LuaScript   string                  `yaml:"lua_script,omitempty"`
}

// ShouldStoreObject defaults to true whenever object_name is set, unless
// store_object is explicitly false.
func (r Route) ShouldStoreObject() bool {
	if r.ObjectName == "" {
		return false
	}
	if r.StoreObject == nil {
		return true
	}
	return *r.StoreObject
}

// Config is the fully loaded, validated route table.
type Config struct {
	Port      int
	LogFormat string
	Metrics   bool
	Routes    []Route
	Defaults  map[string]any
}

type fileConfig struct {
	Routes   []Route        `yaml:"routes"`
	Defaults map[string]any `yaml:"defaults"`
}

// Diagnostic is a non-fatal load-time warning, distinct from the error Load
// returns, which is always a fatal ConfigError.
type Diagnostic struct {
	Message string
}

// Load parses CLI flags from args, reads the named (or default) YAML file,
// and validates the result. A non-nil error is always an *errs.Error of
// kind ConfigError.
func Load(args []string) (*Config, []Diagnostic, error) {
	fs := flag.NewFlagSet("nugget", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the route-table YAML file")
	port := fs.Int("port", 3000, "HTTP listen port")
	logFormat := fs.String("log-format", "json", "log output format: json or console")
	metrics := fs.Bool("metrics", true, "serve /metrics")

	if err := fs.Parse(args); err != nil {
		return nil, nil, errs.Wrap(errs.ConfigError, err, "parsing flags")
	}

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ConfigError, err, "reading %s", *configPath)
	}

	var diags []Diagnostic
	diags = append(diags, checkUnknownKeys(raw)...)

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, nil, errs.Wrap(errs.ConfigError, err, "parsing %s", *configPath)
	}

	cfg := &Config{
		Port:      *port,
		LogFormat: *logFormat,
		Metrics:   *metrics,
		Routes:    fc.Routes,
		Defaults:  fc.Defaults,
	}

	routeDiags, err := validate(cfg)
	if err != nil {
		return nil, nil, err
	}
	diags = append(diags, routeDiags...)

	return cfg, diags, nil
}

var knownTopLevelKeys = map[string]bool{"routes": true, "defaults": true}

func checkUnknownKeys(raw []byte) []Diagnostic {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &top); err != nil {
		return nil
	}
	var diags []Diagnostic
	for k := range top {
		if !knownTopLevelKeys[k] {
			diags = append(diags, Diagnostic{Message: fmt.Sprintf("unknown top-level key %q ignored", k)})
		}
	}
	return diags
}

func validate(cfg *Config) ([]Diagnostic, error) {
	var diags []Diagnostic
	seen := map[string]bool{"POST /state/clear": true}

	for i, r := range cfg.Routes {
		if !validMethods[r.Method] {
			return nil, errs.New(errs.ConfigError, "route %d: invalid method %q", i, r.Method)
		}
		key := r.Method + " " + r.Path
		if seen[key] {
			return nil, errs.New(errs.ConfigError, "route %d: %s collides with a reserved or earlier route", i, key)
		}
		seen[key] = true

		hasResponse := r.Response != nil
		hasScript := r.LuaScript != ""
		if hasResponse == hasScript {
			return nil, errs.New(errs.ConfigError, "route %s: exactly one of response or lua_script is required", key)
		}

		if r.ObjectName != "" && !identifierRe.MatchString(r.ObjectName) {
			return nil, errs.New(errs.ConfigError, "route %s: object_name %q is not a valid identifier", key, r.ObjectName)
		}

		for name, vs := range r.Variables {
			if !identifierRe.MatchString(name) {
				return nil, errs.New(errs.ConfigError, "route %s: variable name %q is not a valid identifier", key, name)
			}
			t := variable.Type(vs.Type)
			if t != variable.UUID && t != variable.Integer && t != variable.String {
				return nil, errs.New(errs.ConfigError, "route %s: variable %q has unknown type %q", key, name, vs.Type)
			}
			for _, d := range variable.Validate(r.Method, r.Path, variable.Spec{
				Name: name, Type: t, Prefix: vs.Prefix, Min: vs.Min, Max: vs.Max,
			}) {
				diags = append(diags, Diagnostic{Message: d.Message})
			}
		}
	}
	return diags, nil
}

// ToVariableSpecs flattens a route's declared variables into the order-
// independent slice the variable generator consumes.
func (r Route) ToVariableSpecs() []variable.Spec {
	specs := make([]variable.Spec, 0, len(r.Variables))
	for name, vs := range r.Variables {
		specs = append(specs, variable.Spec{
			Name: name, Type: variable.Type(vs.Type), Prefix: vs.Prefix, Min: vs.Min, Max: vs.Max,
		})
	}
	return specs
}
