package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/kessel-ui/kessel"
)

func init() {
	Register(kessel.LangLua, func() vm { return &luaVM{} })
}

const luaProxyMeta = "kessel.Proxy"

// luaVM embeds one gopher-lua state. Proxy objects are *lua.LUserData
// wrapped around a raw ElementId with a shared metatable of Go-backed
// methods -- the standard gopher-lua idiom for exposing a native handle,
// grounded on the multi-VM embedding shape in the retrieved TUI script
// bridge (wwsheng009-yao/tui/script.go), generalized from its single-VM
// v8 case to gopher-lua's userdata+metatable pattern.
type luaVM struct {
	L      *lua.LState
	bridge *Bridge
	ready  []*lua.LFunction
}

func (v *luaVM) init(b *Bridge) error {
	v.bridge = b
	v.L = lua.NewState()

	v.registerProxyType()
	v.registerGlobals()
	v.registerVariables()
	return nil
}

func (v *luaVM) close() {
	if v.L != nil {
		v.L.Close()
	}
}

func (v *luaVM) load(mod kessel.ScriptModule) error {
	return v.L.DoString(mod.Source)
}

func (v *luaVM) call(fnName string, ev *kessel.Event) error {
	fn := v.L.GetGlobal(fnName)
	if fn == lua.LNil {
		return fmt.Errorf("lua: function %q not defined", fnName)
	}
	return v.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, v.pushEvent(ev))
}

// setVariable is a no-op for Lua: reads always resolve through
// registerVariables' __index trap into Bridge.variableValue, so there is
// nothing to push proactively when another VM writes a variable.
func (v *luaVM) setVariable(name, value string) error { return nil }

func (v *luaVM) fireReady() error {
	for _, fn := range v.ready {
		if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return err
		}
	}
	return nil
}

// pushEvent builds a plain Lua table mirroring the Event fields a handler
// needs. stopPropagation is exposed as a callable (`ev:stopPropagation()`)
// rather than a writable flag, since a plain table assignment can't be
// observed from Go without its own metatable machinery.
func (v *luaVM) pushEvent(ev *kessel.Event) *lua.LTable {
	t := v.L.NewTable()
	t.RawSetString("x", lua.LNumber(ev.X))
	t.RawSetString("y", lua.LNumber(ev.Y))
	t.RawSetString("key", lua.LString(ev.Key))
	t.RawSetString("kind", lua.LNumber(ev.Kind))
	t.RawSetString("stopPropagation", v.L.NewFunction(func(L *lua.LState) int {
		ev.StopPropagation = true
		return 0
	}))
	return t
}

// registerProxyType installs the ElementProxy metatable: __index is a
// method table, so `proxy:setText("x")` dispatches to the Go closures
// below with the wrapped ElementId as receiver.
func (v *luaVM) registerProxyType() {
	L := v.L
	mt := L.NewTypeMetatable(luaProxyMeta)
	methods := L.NewTable()
	L.SetField(mt, "__index", methods)

	reg := func(name string, fn lua.LGFunction) { L.SetField(methods, name, L.NewFunction(fn)) }

	reg("setText", func(L *lua.LState) int {
		v.bridge.proxySetText(v.checkProxy(L, 1), L.CheckString(2))
		return 0
	})
	reg("getText", func(L *lua.LState) int {
		L.Push(lua.LString(v.bridge.proxyGetText(v.checkProxy(L, 1))))
		return 1
	})
	reg("setStyle", func(L *lua.LState) int {
		v.bridge.proxySetStyle(v.checkProxy(L, 1), L.CheckString(2))
		return 0
	})
	reg("setVisible", func(L *lua.LState) int {
		v.bridge.proxySetVisible(v.checkProxy(L, 1), L.ToBool(2))
		return 0
	})
	reg("getVisible", func(L *lua.LState) int {
		L.Push(lua.LBool(v.bridge.proxyGetVisible(v.checkProxy(L, 1))))
		return 1
	})
	reg("setChecked", func(L *lua.LState) int {
		v.bridge.proxySetChecked(v.checkProxy(L, 1), L.ToBool(2))
		return 0
	})
	reg("getParent", func(L *lua.LState) int {
		p, ok := v.bridge.proxyGetParent(v.checkProxy(L, 1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(v.newProxy(p))
		return 1
	})
	reg("getChildren", func(L *lua.LState) int {
		kids := v.bridge.proxyGetChildren(v.checkProxy(L, 1))
		t := L.NewTable()
		for i, c := range kids {
			t.RawSetInt(i+1, v.newProxy(c))
		}
		L.Push(t)
		return 1
	})
	reg("getNextSibling", func(L *lua.LState) int {
		s, ok := v.bridge.proxyGetNextSibling(v.checkProxy(L, 1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(v.newProxy(s))
		return 1
	})
	reg("getPreviousSibling", func(L *lua.LState) int {
		s, ok := v.bridge.proxyGetPreviousSibling(v.checkProxy(L, 1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(v.newProxy(s))
		return 1
	})
}

func (v *luaVM) newProxy(el kessel.ElementId) *lua.LUserData {
	ud := v.L.NewUserData()
	ud.Value = el
	v.L.SetMetatable(ud, v.L.GetTypeMetatable(luaProxyMeta))
	return ud
}

func (v *luaVM) checkProxy(L *lua.LState, n int) kessel.ElementId {
	ud := L.CheckUserData(n)
	return ud.Value.(kessel.ElementId)
}

func (v *luaVM) proxyList(ids []kessel.ElementId) *lua.LTable {
	t := v.L.NewTable()
	for i, id := range ids {
		t.RawSetInt(i+1, v.newProxy(id))
	}
	return t
}

func (v *luaVM) registerGlobals() {
	L := v.L

	L.SetGlobal("getElementById", L.NewFunction(func(L *lua.LState) int {
		id, ok := v.bridge.getElementById(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(v.newProxy(id))
		return 1
	}))
	L.SetGlobal("getElementsByTag", L.NewFunction(func(L *lua.LState) int {
		kind, _ := tagKind(L.CheckString(1))
		L.Push(v.proxyList(v.bridge.getElementsByTag(kind)))
		return 1
	}))
	L.SetGlobal("getElementsByClass", L.NewFunction(func(L *lua.LState) int {
		L.Push(v.proxyList(v.bridge.getElementsByClass(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("querySelector", L.NewFunction(func(L *lua.LState) int {
		id, ok := v.bridge.querySelector(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(v.newProxy(id))
		return 1
	}))
	L.SetGlobal("querySelectorAll", L.NewFunction(func(L *lua.LState) int {
		L.Push(v.proxyList(v.bridge.querySelectorAll(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("getComponentProperty", L.NewFunction(func(L *lua.LState) int {
		val, ok := v.bridge.getComponentProperty(v.checkProxy(L, 1), L.CheckString(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(val))
		return 1
	}))
	L.SetGlobal("addEventListener", L.NewFunction(func(L *lua.LState) int {
		kind := inputKindFromName(L.CheckString(1))
		fn := L.CheckFunction(2)
		v.bridge.doc.Dispatcher().AddEventListener(kind, func(ev *kessel.Event) {
			if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, v.pushEvent(ev)); err != nil {
				v.bridge.doc.Logger(kessel.SeverityError, "%v", &kessel.ScriptError{Language: "lua", Handler: "addEventListener", Detail: err.Error()})
			}
		})
		return 0
	}))
	L.SetGlobal("onReady", L.NewFunction(func(L *lua.LState) int {
		v.ready = append(v.ready, L.CheckFunction(1))
		return 0
	}))
}

// registerVariables installs a metatable on the globals table trapping
// reads/writes of every name the document declares as a reactive variable
// (spec.md §3 "Reactive variable", §4.F "exposed as first-class names in
// the script environment"). Non-variable globals (functions, user
// declarations) pass through to the real table unaffected, since Lua only
// invokes __index/__newindex when a raw lookup misses.
func (v *luaVM) registerVariables() {
	L := v.L
	names := make(map[string]bool, len(v.bridge.doc.Variables()))
	for name := range v.bridge.doc.Variables() {
		names[name] = true
	}

	real, ok := L.Get(lua.GlobalsIndex).(*lua.LTable)
	if !ok {
		return
	}

	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if names[name] {
			L.Push(lua.LString(v.bridge.variableValue(name)))
			return 1
		}
		L.Push(real.RawGetString(name))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		val := L.CheckAny(3)
		if names[name] {
			v.bridge.setVariableValue(name, lua.LVAsString(val))
			return 0
		}
		real.RawSetString(name, val)
		return 0
	}))
	L.SetMetatable(real, mt)
}
