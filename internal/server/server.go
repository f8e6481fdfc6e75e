// Package server turns one matched route plus an inbound *http.Request
// into a JSON response, dispatching to either the template renderer or the
// Lua script bridge, and handles the reserved state-admin endpoint.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nugget-stub/nugget/internal/config"
	"github.com/nugget-stub/nugget/internal/errs"
	"github.com/nugget-stub/nugget/internal/logging"
	"github.com/nugget-stub/nugget/internal/metrics"
	"github.com/nugget-stub/nugget/internal/script"
	"github.com/nugget-stub/nugget/internal/store"
	"github.com/nugget-stub/nugget/internal/template"
	"github.com/nugget-stub/nugget/internal/variable"
)

// Server holds the process-wide singletons the pipeline dispatches
// against.
type Server struct {
	objects  *store.ObjectStore
	state    *store.ScriptState
	bridge   *script.Bridge
	defaults map[string]any
	log      zerolog.Logger
}

// New creates a Server backed by the given stores.
func New(objects *store.ObjectStore, state *store.ScriptState, defaults map[string]any, log zerolog.Logger) *Server {
	return &Server{
		objects:  objects,
		state:    state,
		bridge:   script.New(objects, state),
		defaults: defaults,
		log:      log,
	}
}

// HandlerFor returns the http.HandlerFunc for one configured route: parses
// the body, dispatches to the script or template path, and writes the
// resulting response (route matching and path-param extraction already
// happened in the router).
func (s *Server) HandlerFor(route config.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		pathParams := mux.Vars(r)
		payload, payloadUnparseable := parseJSONBody(r)

		var status int
		var body any
		var errKind string

		switch {
		case route.LuaScript != "":
			status, body, errKind = s.runScript(route, r, pathParams, payload)

		default:
			status, body, errKind = s.runTemplate(route, pathParams, payload, payloadUnparseable)
		}

		writeJSON(w, status, body)
		logging.Request(s.log, r.Method, r.URL.Path, status, time.Since(start), errKind)
	}
}

func (s *Server) runScript(route config.Route, r *http.Request, pathParams map[string]string, payload any) (int, any, string) {
	reqCtx := script.RequestContext{
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    r.Header,
		Body:       payload,
		PathParams: pathParams,
	}
	status, body, err := s.bridge.Execute(reqCtx, route.LuaScript)
	if err != nil {
		metrics.RecordScriptExecution(route.Path, scriptOutcome(err))
		return errorResponse(err)
	}
	metrics.RecordScriptExecution(route.Path, "ok")
	return status, body, ""
}

// scriptOutcome maps a script execution failure to the outcome label
// nugget_script_executions_total distinguishes between.
func scriptOutcome(err error) string {
	e, ok := errs.As(err)
	if !ok {
		return "runtime_error"
	}
	switch e.Kind() {
	case errs.ScriptReturnShape:
		return "return_shape_error"
	case errs.ScriptConversionError:
		return "conversion_error"
	default:
		return "runtime_error"
	}
}

func (s *Server) runTemplate(route config.Route, pathParams map[string]string, payload any, payloadUnparseable bool) (int, any, string) {
	gen := variable.New(route.ToVariableSpecs())
	if _, err := gen.GenerateAll(); err != nil {
		return errorResponse(err)
	}

	env := &template.Environment{
		Variables:  gen,
		Payload:    payload,
		Defaults:   s.defaults,
		PathParams: pathParams,
		Objects:    s.objects,
	}

	var warnings []template.Warning
	rendered, err := template.Render(route.Response.Body, env, &warnings)
	if err != nil {
		return errorResponse(err)
	}

	if payloadUnparseable && referencesPayload(warnings) {
		return errorResponse(errs.New(errs.BadPayload, "request body is required by this route's template but failed to parse as JSON"))
	}

	for _, w := range warnings {
		s.log.Debug().Str("placeholder", w.Placeholder).Str("reason", w.Message).Msg("unresolved placeholder")
	}

	status := route.Response.Status
	if status == 0 {
		status = 200
	}

	if route.ShouldStoreObject() {
		if m, ok := rendered.(map[string]any); ok {
			s.objects.Put(route.ObjectName, m)
			metrics.RecordObjectStored(route.ObjectName)
			metrics.SetObjectStoreSize(route.ObjectName, s.objects.Count(route.ObjectName))
		}
	}

	return status, rendered, ""
}

// StateClearHandler handles POST /state/clear.
func (s *Server) StateClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.objects.Clear()
		s.state.Clear()
		metrics.ResetObjectStoreSize()
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
		logging.Request(s.log, r.Method, r.URL.Path, http.StatusOK, time.Since(start), "")
	}
}

func referencesPayload(warnings []template.Warning) bool {
	for _, w := range warnings {
		if strings.HasPrefix(w.Placeholder, "payload.") {
			return true
		}
	}
	return false
}

// parseJSONBody reads and parses the request body as JSON. An empty body
// yields (nil, false). A non-empty body that fails to parse yields
// (nil, true) — the caller decides whether that failure matters.
func parseJSONBody(r *http.Request) (payload any, unparseable bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, true
	}
	return v, false
}

func errorResponse(err error) (int, any, string) {
	if e, ok := errs.As(err); ok {
		return errs.HTTPStatus(e.Kind()), map[string]any{"error": string(e.Kind()), "detail": e.Error()}, string(e.Kind())
	}
	return http.StatusInternalServerError, map[string]any{"error": "InternalError", "detail": err.Error()}, "InternalError"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
