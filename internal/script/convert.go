package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nugget-stub/nugget/internal/errs"
)

// goToLua converts a JSON-compatible Go value into a Lua value.
func goToLua(L *lua.LState, val any) lua.LValue {
	switch v := val.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(float64(v))
	case int64:
		return lua.LNumber(float64(v))
	case float64:
		return lua.LNumber(v)
	case []any:
		tbl := L.NewTable()
		for i, item := range v {
			tbl.RawSetInt(i+1, goToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range v {
			tbl.RawSetString(k, goToLua(L, item))
		}
		return tbl
	case map[string]string:
		tbl := L.NewTable()
		for k, item := range v {
			tbl.RawSetString(k, lua.LString(item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// luaToJSON converts a Lua value returned from a script into a
// JSON-compatible Go value: integer-keyed dense tables starting at 1
// become arrays, string-keyed
// tables become objects, tables mixing both kinds of key are rejected, and
// a table reachable from itself (a cycle) or containing a function value is
// rejected. Numbers with a zero fractional part in integer range are
// emitted as int64; everything else stays float64.
func luaToJSON(v lua.LValue, visiting map[*lua.LTable]bool) (any, error) {
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(lv), nil
	case lua.LString:
		return string(lv), nil
	case lua.LNumber:
		f := float64(lv)
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return f, nil
	case *lua.LTable:
		return luaTableToJSON(lv, visiting)
	default:
		return nil, errs.New(errs.ScriptConversionError, "value of type %T is not JSON-representable", v)
	}
}

func luaTableToJSON(tbl *lua.LTable, visiting map[*lua.LTable]bool) (any, error) {
	if visiting[tbl] {
		return nil, errs.New(errs.ScriptConversionError, "table contains a cycle")
	}
	visiting[tbl] = true
	defer delete(visiting, tbl)

	hasString := false
	hasNonDenseNumeric := false
	maxIndex := 0
	count := 0

	tbl.ForEach(func(key, _ lua.LValue) {
		count++
		switch k := key.(type) {
		case lua.LNumber:
			n := int(k)
			if float64(n) != float64(k) || n < 1 {
				hasNonDenseNumeric = true
				return
			}
			if n > maxIndex {
				maxIndex = n
			}
		case lua.LString:
			hasString = true
		default:
			hasNonDenseNumeric = true
		}
	})

	if hasString && (maxIndex > 0 || hasNonDenseNumeric) {
		return nil, errs.New(errs.ScriptConversionError, "table mixes integer and string keys")
	}
	if hasNonDenseNumeric && !hasString {
		return nil, errs.New(errs.ScriptConversionError, "table has non-dense or non-positive integer keys")
	}

	if !hasString && maxIndex > 0 {
		if maxIndex != count {
			return nil, errs.New(errs.ScriptConversionError, "table has gaps in its integer keys")
		}
		arr := make([]any, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			val, err := luaToJSON(tbl.RawGetInt(i), visiting)
			if err != nil {
				return nil, err
			}
			arr[i-1] = val
		}
		return arr, nil
	}

	obj := make(map[string]any)
	var iterErr error
	tbl.ForEach(func(key, value lua.LValue) {
		if iterErr != nil {
			return
		}
		ks, ok := key.(lua.LString)
		if !ok {
			return
		}
		val, err := luaToJSON(value, visiting)
		if err != nil {
			iterErr = err
			return
		}
		obj[string(ks)] = val
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return obj, nil
}
