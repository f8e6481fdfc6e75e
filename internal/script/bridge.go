// Package script runs a route's lua_script against a fresh
// github.com/yuin/gopher-lua interpreter, exposing request/state/objects
// globals, and translates the script's returned table into a status/body
// pair, or any failure along the way into one of the script error kinds.
//
// Each invocation gets its own *lua.LState rather than sharing one behind a
// lock, which trivially guarantees concurrent scripts never corrupt each
// other's local variables: there simply is nothing to share. The two
// pieces of state a script CAN observe across requests — the object store
// and the script state store — already guard themselves with their own
// locks, so no additional synchronization belongs here.
package script

import (
	"net/http"

	lua "github.com/yuin/gopher-lua"

	"github.com/nugget-stub/nugget/internal/errs"
	"github.com/nugget-stub/nugget/internal/store"
)

// RequestContext is everything about the inbound HTTP request a script may
// inspect through the "request" global.
type RequestContext struct {
	Method     string
	Path       string
	Headers    http.Header
	Body       any // parsed JSON body, or nil if absent/not parsed
	PathParams map[string]string
}

// Bridge runs lua_script route bodies against the shared object and state
// stores.
type Bridge struct {
	objects *store.ObjectStore
	state   *store.ScriptState
}

// New creates a Bridge backed by the given stores.
func New(objects *store.ObjectStore, state *store.ScriptState) *Bridge {
	return &Bridge{objects: objects, state: state}
}

// Execute runs script in a fresh interpreter and returns the status/body
// pair from its `return {status = ..., body = ...}` table. Errors are
// always one of ScriptRuntimeError (the script raised or failed to parse),
// ScriptReturnShape (it returned something other than a well-formed result
// table), or ScriptConversionError (its body isn't JSON-representable).
func (b *Bridge) Execute(reqCtx RequestContext, script string) (status int, body any, err error) {
	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("request", b.buildRequestTable(L, reqCtx))
	L.SetGlobal("state", b.buildStateTable(L))
	L.SetGlobal("objects", b.buildObjectsTable(L))

	fn, loadErr := L.LoadString(script)
	if loadErr != nil {
		return 0, nil, errs.Wrap(errs.ScriptRuntimeError, loadErr, "script failed to parse")
	}
	L.Push(fn)
	if callErr := L.PCall(0, 1, nil); callErr != nil {
		return 0, nil, errs.Wrap(errs.ScriptRuntimeError, callErr, "script raised an error")
	}

	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return 0, nil, errs.New(errs.ScriptReturnShape, "script must return a table with status and body fields, got %s", ret.Type())
	}

	status = 200
	if statusLV := L.GetField(tbl, "status"); statusLV != lua.LNil {
		n, ok := statusLV.(lua.LNumber)
		if !ok {
			return 0, nil, errs.New(errs.ScriptReturnShape, "status field must be a number, got %s", statusLV.Type())
		}
		status = int(n)
	}

	bodyLV := L.GetField(tbl, "body")
	bodyJSON, convErr := luaToJSON(bodyLV, make(map[*lua.LTable]bool))
	if convErr != nil {
		return 0, nil, convErr
	}

	return status, bodyJSON, nil
}

func (b *Bridge) buildRequestTable(L *lua.LState, reqCtx RequestContext) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("method", lua.LString(reqCtx.Method))
	tbl.RawSetString("path", lua.LString(reqCtx.Path))
	tbl.RawSetString("body", goToLua(L, reqCtx.Body))

	params := L.NewTable()
	for k, v := range reqCtx.PathParams {
		params.RawSetString(k, lua.LString(v))
	}
	tbl.RawSetString("path_params", params)

	tbl.RawSetString("headers", buildHeadersTable(L, reqCtx.Headers))
	return tbl
}

// buildHeadersTable returns a table whose __index metamethod performs a
// case-insensitive lookup against headers, since Lua's plain table indexing
// has no notion of it and header access must be case-insensitive.
func buildHeadersTable(L *lua.LState, headers http.Header) *lua.LTable {
	tbl := L.NewTable()
	meta := L.NewTable()
	meta.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		v := headers.Get(key) // http.Header.Get already canonicalizes case
		if v == "" {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(v))
		}
		return 1
	}))
	L.SetMetatable(tbl, meta)
	return tbl
}

func (b *Bridge) buildStateTable(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		L.Push(goToLua(L, b.state.Get(key)))
		return 1
	}))
	tbl.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		value := L.CheckAny(2)
		goVal, err := luaToJSON(value, make(map[*lua.LTable]bool))
		if err != nil {
			L.RaiseError("state.set: %s", err)
		}
		b.state.Set(key, goVal)
		return 0
	}))
	return tbl
}

// buildObjectsTable exposes a point-in-time snapshot of the object store,
// taken once per invocation, as a plain read-only table of
// type_name -> list of objects.
func (b *Bridge) buildObjectsTable(L *lua.LState) *lua.LTable {
	snapshot := b.objects.Snapshot()
	tbl := L.NewTable()
	for typeName, objs := range snapshot {
		list := make([]any, len(objs))
		for i, obj := range objs {
			list[i] = obj
		}
		tbl.RawSetString(typeName, goToLua(L, list))
	}
	return tbl
}
