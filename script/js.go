package script

import (
	"fmt"
	"strings"

	v8go "rogchap.com/v8go"

	"github.com/kessel-ui/kessel"
)

func init() {
	Register(kessel.LangJS, func() vm { return &jsVM{} })
}

// jsVM embeds one v8go isolate and context. Proxy objects are plain JS
// objects built by a bootstrap-time helper function (__kesselProxy) that
// tags each with its raw element handle and forwards method calls to
// native functions keyed by that handle -- v8go has no first-class
// userdata type, so element identity rides inside the JS value itself
// (spec.md §9 "Proxy objects... wrap in an opaque object").
type jsVM struct {
	iso    *v8go.Isolate
	ctx    *v8go.Context
	bridge *Bridge
	ready  []*v8go.Function

	currentEvent *kessel.Event
}

func (v *jsVM) init(b *Bridge) error {
	v.bridge = b
	v.iso = v8go.NewIsolate()

	global := v8go.NewObjectTemplate(v.iso)
	v.bindGlobals(global)

	v.ctx = v8go.NewContext(v.iso, global)

	if err := v.bootstrapProxyHelper(); err != nil {
		return err
	}
	return v.installVariables()
}

func (v *jsVM) close() {
	if v.ctx != nil {
		v.ctx.Close()
	}
	if v.iso != nil {
		v.iso.Dispose()
	}
}

func (v *jsVM) load(mod kessel.ScriptModule) error {
	_, err := v.ctx.RunScript(mod.Source, "module.js")
	return err
}

func (v *jsVM) call(fnName string, ev *kessel.Event) error {
	val, err := v.ctx.Global().Get(fnName)
	if err != nil {
		return err
	}
	fn, err := val.AsFunction()
	if err != nil {
		return fmt.Errorf("js: %q is not a function", fnName)
	}
	return v.invokeWithEvent(fn, ev)
}

// setVariable is a no-op: reads always resolve through __kesselGetVar into
// Bridge.variableValue, so a cross-VM write needs no local cache refresh.
func (v *jsVM) setVariable(name, value string) error { return nil }

func (v *jsVM) fireReady() error {
	for _, fn := range v.ready {
		if _, err := fn.Call(v.ctx.Global()); err != nil {
			return err
		}
	}
	return nil
}

// invokeWithEvent stashes ev so the __kesselStop native callback (bound to
// the event object's stopPropagation method) can flip StopPropagation on
// the right Go value, then calls fn with a freshly built event object.
// Single-threaded cooperative scheduling (spec.md §4.F) guarantees no
// concurrent call can race this field.
func (v *jsVM) invokeWithEvent(fn *v8go.Function, ev *kessel.Event) error {
	v.currentEvent = ev
	defer func() { v.currentEvent = nil }()

	evVal, err := v.ctx.RunScript(fmt.Sprintf(
		`({x:%g, y:%g, key:%q, kind:%d, stopPropagation(){ __kesselStop(); }})`,
		ev.X, ev.Y, ev.Key, ev.Kind), "kessel-event.js")
	if err != nil {
		return err
	}
	_, err = fn.Call(v.ctx.Global(), evVal)
	return err
}

func (v *jsVM) callHandler(fn *v8go.Function, ev *kessel.Event) {
	if err := v.invokeWithEvent(fn, ev); err != nil {
		v.bridge.doc.Logger(kessel.SeverityError, "%v", &kessel.ScriptError{Language: "js", Handler: "addEventListener", Detail: err.Error()})
	}
}

// bootstrapProxyHelper defines the JS-side proxy constructor once per VM.
func (v *jsVM) bootstrapProxyHelper() error {
	const src = `
function __kesselProxy(id) {
  return {
    __el: id,
    setText(t) { __kesselSetText(id, String(t)); },
    getText() { return __kesselGetText(id); },
    setStyle(n) { __kesselSetStyle(id, String(n)); },
    setVisible(b) { __kesselSetVisible(id, !!b); },
    getVisible() { return __kesselGetVisible(id); },
    setChecked(b) { __kesselSetChecked(id, !!b); },
    getParent() { return __kesselGetParent(id); },
    getChildren() { return __kesselGetChildren(id); },
    getNextSibling() { return __kesselGetNextSibling(id); },
    getPreviousSibling() { return __kesselGetPreviousSibling(id); },
  };
}
`
	_, err := v.ctx.RunScript(src, "kessel-proxy.js")
	return err
}

// installVariables defines a global accessor property per declared
// reactive variable, forwarding get/set to native functions (spec.md §4.F
// "exposed as first-class names in the script environment").
func (v *jsVM) installVariables() error {
	for name := range v.bridge.doc.Variables() {
		src := fmt.Sprintf(
			`Object.defineProperty(globalThis, %q, {get(){ return __kesselGetVar(%q); }, set(val){ __kesselSetVar(%q, String(val)); }, configurable:true});`,
			name, name, name)
		if _, err := v.ctx.RunScript(src, "kessel-vars.js"); err != nil {
			return err
		}
	}
	return nil
}

func (v *jsVM) bindGlobals(global *v8go.ObjectTemplate) {
	set := func(name string, fn func(*v8go.FunctionCallbackInfo) *v8go.Value) {
		global.Set(name, v8go.NewFunctionTemplate(v.iso, fn))
	}

	set("__kesselSetText", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if el, ok := elArg(info, 0); ok {
			v.bridge.proxySetText(el, info.Args()[1].String())
		}
		return nil
	})
	set("__kesselGetText", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return strVal(v.iso, "")
		}
		return strVal(v.iso, v.bridge.proxyGetText(el))
	})
	set("__kesselSetStyle", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if el, ok := elArg(info, 0); ok {
			v.bridge.proxySetStyle(el, info.Args()[1].String())
		}
		return nil
	})
	set("__kesselSetVisible", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if el, ok := elArg(info, 0); ok {
			v.bridge.proxySetVisible(el, info.Args()[1].Boolean())
		}
		return nil
	})
	set("__kesselGetVisible", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return boolVal(v.iso, false)
		}
		return boolVal(v.iso, v.bridge.proxyGetVisible(el))
	})
	set("__kesselSetChecked", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if el, ok := elArg(info, 0); ok {
			v.bridge.proxySetChecked(el, info.Args()[1].Boolean())
		}
		return nil
	})
	set("__kesselGetParent", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return nil
		}
		p, ok := v.bridge.proxyGetParent(el)
		if !ok {
			return nil
		}
		return v.newProxyValue(p)
	})
	set("__kesselGetChildren", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return nil
		}
		return v.newProxyArray(v.bridge.proxyGetChildren(el))
	})
	set("__kesselGetNextSibling", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return nil
		}
		s, ok := v.bridge.proxyGetNextSibling(el)
		if !ok {
			return nil
		}
		return v.newProxyValue(s)
	})
	set("__kesselGetPreviousSibling", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return nil
		}
		s, ok := v.bridge.proxyGetPreviousSibling(el)
		if !ok {
			return nil
		}
		return v.newProxyValue(s)
	})
	set("__kesselStop", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if v.currentEvent != nil {
			v.currentEvent.StopPropagation = true
		}
		return nil
	})

	set("getElementById", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		id, ok := v.bridge.getElementById(info.Args()[0].String())
		if !ok {
			return nil
		}
		return v.newProxyValue(id)
	})
	set("getElementsByTag", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		kind, _ := tagKind(info.Args()[0].String())
		return v.newProxyArray(v.bridge.getElementsByTag(kind))
	})
	set("getElementsByClass", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		return v.newProxyArray(v.bridge.getElementsByClass(info.Args()[0].String()))
	})
	set("querySelector", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		id, ok := v.bridge.querySelector(info.Args()[0].String())
		if !ok {
			return nil
		}
		return v.newProxyValue(id)
	})
	set("querySelectorAll", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		return v.newProxyArray(v.bridge.querySelectorAll(info.Args()[0].String()))
	})
	set("getComponentProperty", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		el, ok := elArg(info, 0)
		if !ok {
			return nil
		}
		val, ok := v.bridge.getComponentProperty(el, info.Args()[1].String())
		if !ok {
			return nil
		}
		return strVal(v.iso, val)
	})
	set("__kesselGetVar", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		return strVal(v.iso, v.bridge.variableValue(info.Args()[0].String()))
	})
	set("__kesselSetVar", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		v.bridge.setVariableValue(info.Args()[0].String(), info.Args()[1].String())
		return nil
	})
	set("addEventListener", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		kind := inputKindFromName(info.Args()[0].String())
		if fn, err := info.Args()[1].AsFunction(); err == nil {
			v.bridge.doc.Dispatcher().AddEventListener(kind, func(ev *kessel.Event) {
				v.callHandler(fn, ev)
			})
		}
		return nil
	})
	set("onReady", func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if fn, err := info.Args()[0].AsFunction(); err == nil {
			v.ready = append(v.ready, fn)
		}
		return nil
	})
}

// newProxyValue invokes the bootstrapped __kesselProxy(id) JS function to
// build one proxy object.
func (v *jsVM) newProxyValue(el kessel.ElementId) *v8go.Value {
	ctorVal, err := v.ctx.Global().Get("__kesselProxy")
	if err != nil {
		return nil
	}
	ctor, err := ctorVal.AsFunction()
	if err != nil {
		return nil
	}
	idVal, err := v8go.NewValue(v.iso, int32(el))
	if err != nil {
		return nil
	}
	result, err := ctor.Call(v.ctx.Global(), idVal)
	if err != nil {
		return nil
	}
	return result
}

// newProxyArray evaluates a small literal array expression rather than
// building a v8go array value field-by-field, since the ids involved are
// plain integers with no untrusted content to escape.
func (v *jsVM) newProxyArray(ids []kessel.ElementId) *v8go.Value {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "__kesselProxy(%d)", id)
	}
	b.WriteByte(']')
	val, err := v.ctx.RunScript(b.String(), "kessel-list.js")
	if err != nil {
		return nil
	}
	return val
}

func elArg(info *v8go.FunctionCallbackInfo, i int) (kessel.ElementId, bool) {
	args := info.Args()
	if i >= len(args) {
		return kessel.NoElement, false
	}
	n := args[i].Integer()
	if n < 0 {
		return kessel.NoElement, false
	}
	return kessel.ElementId(n), true
}

func strVal(iso *v8go.Isolate, s string) *v8go.Value {
	val, _ := v8go.NewValue(iso, s)
	return val
}

func boolVal(iso *v8go.Isolate, b bool) *v8go.Value {
	val, _ := v8go.NewValue(iso, b)
	return val
}
