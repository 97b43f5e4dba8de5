package script

import (
	"fmt"
	"time"

	"github.com/kessel-ui/kessel"
)

// vm is the per-language interpreter contract every embedded script
// language plugs into the bridge through. One instance is created per
// enabled language at startup (spec.md §4.F "Multi-VM").
type vm interface {
	// init prepares the VM's global environment: getElementById and
	// friends, addEventListener/onReady, and reactive-variable bindings.
	init(b *Bridge) error
	// load compiles and runs one script module's top-level code.
	load(mod kessel.ScriptModule) error
	// call invokes an exported function by name with the given event,
	// running to completion before returning (spec.md §4.F "Scheduling
	// model": activations are synchronous and may not preempt rendering).
	call(fnName string, ev *kessel.Event) error
	// setVariable notifies this VM that another VM wrote a reactive
	// variable, so a VM that caches values (rather than always reading
	// through the bridge) can refresh (spec.md §4.F "Cross-VM").
	setVariable(name, value string) error
	// fireReady invokes every onReady callback registered in this VM.
	fireReady() error
	close()
}

// vmFactory constructs a fresh vm for the language it is registered under.
type vmFactory func() vm

var registry = map[kessel.ScriptLanguage]vmFactory{}

// Register adds a language -> VM factory mapping. Language files (lua.go,
// js.go) call this from their init().
func Register(lang kessel.ScriptLanguage, f vmFactory) {
	registry[lang] = f
}

// The four mutation tables plus reactive-variable writes spec.md §4.F
// names: "style changes, text changes, visibility changes, checkbox-state
// changes" are modeled as append-only slices rather than maps so replay
// order (and therefore read-your-writes lookups, which scan from the
// newest entry backwards) matches the order scripts issued them in.
type pendingStyle struct {
	el   kessel.ElementId
	name string
}
type pendingText struct {
	el   kessel.ElementId
	text string
}
type pendingVisibility struct {
	el      kessel.ElementId
	visible bool
}
type pendingChecked struct {
	el      kessel.ElementId
	checked bool
}
type pendingVariable struct {
	name, value string
}

// Bridge is the concrete kessel.ScriptDrainer a host wires into
// kessel.EngineConfig.Bridge. It owns one VM per script language present
// in the document, routes event dispatch into the owning VM, and applies
// every VM's queued mutations atomically once per frame.
type Bridge struct {
	doc   *kessel.Document
	vms   map[kessel.ScriptLanguage]vm
	owner map[string]kessel.ScriptLanguage // exported fn name -> language

	budget time.Duration

	styles  []pendingStyle
	texts   []pendingText
	visible []pendingVisibility
	checked []pendingChecked
	vars    []pendingVariable

	lastErr error
}

// New creates a Bridge for doc, instantiating one VM per distinct language
// among doc.Scripts() and loading every module into its VM. A language
// with no registered factory (spec.md names "python" and "wren" alongside
// "lua" and "js"; this build registers only the latter two, see
// DESIGN.md) is skipped with a logged warning rather than aborting load --
// matching the parser's own forward-compatibility posture for unknown
// property ids.
func New(doc *kessel.Document, scriptBudgetMs int) (*Bridge, error) {
	b := &Bridge{
		doc:   doc,
		vms:   make(map[kessel.ScriptLanguage]vm),
		owner: make(map[string]kessel.ScriptLanguage),
	}
	if scriptBudgetMs > 0 {
		b.budget = time.Duration(scriptBudgetMs) * time.Millisecond
	}

	for _, mod := range doc.Scripts() {
		v, ok := b.vms[mod.Language]
		if !ok {
			factory, known := registry[mod.Language]
			if !known {
				doc.Logger(kessel.SeverityWarn, "script bridge: no VM registered for language %q, module skipped", mod.Language)
				continue
			}
			v = factory()
			if err := v.init(b); err != nil {
				return nil, fmt.Errorf("script bridge: init %s VM: %w", mod.Language, err)
			}
			b.vms[mod.Language] = v
		}
		if err := v.load(mod); err != nil {
			return nil, fmt.Errorf("script bridge: load module (%s): %w", mod.Language, err)
		}
		for _, fn := range mod.Exports {
			b.owner[fn] = mod.Language
		}
	}

	doc.Dispatcher().Invoke = b.invoke
	return b, nil
}

// Close releases every VM's native resources (v8go isolates in
// particular must be disposed explicitly).
func (b *Bridge) Close() {
	for _, v := range b.vms {
		v.close()
	}
}

// invoke is wired as the Document's EventDispatcher.HandlerInvoker. It
// routes to the VM owning fnName and isolates any failure per spec.md §4.F
// "Cancellation & errors": a panic or error is caught and logged with the
// handler's identity, the process is not terminated, mutations the
// handler queued before failing are still applied at the next Drain, and
// later events still invoke the handler (no global disablement).
func (b *Bridge) invoke(fnName string, ev *kessel.Event) {
	lang, ok := b.owner[fnName]
	if !ok {
		return
	}
	v := b.vms[lang]

	// Queue lengths before the call, so a budget overrun drops only the
	// mutations this activation queued.
	ns, nt, nv, nc, nr := len(b.styles), len(b.texts), len(b.visible), len(b.checked), len(b.vars)
	start := time.Now()
	err := safeCall(v, fnName, ev)
	elapsed := time.Since(start)

	if b.budget > 0 && elapsed > b.budget {
		b.doc.Logger(kessel.SeverityError, "%v", &kessel.ScriptError{Language: string(lang), Handler: fnName, Detail: "script_budget_ms exceeded"})
		b.styles, b.texts, b.visible = b.styles[:ns], b.texts[:nt], b.visible[:nv]
		b.checked, b.vars = b.checked[:nc], b.vars[:nr]
		return
	}
	if err != nil {
		b.doc.Logger(kessel.SeverityError, "%v", &kessel.ScriptError{Language: string(lang), Handler: fnName, Detail: err.Error()})
		b.lastErr = err
	}
}

// safeCall recovers a panicking handler into an error, since gopher-lua
// and v8go callbacks can themselves panic on a misused Go binding.
func safeCall(v vm, fnName string, ev *kessel.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return v.call(fnName, ev)
}

// FireReady invokes every VM's registered onReady callbacks once. A host
// calls this after New returns and before the first Tick.
func (b *Bridge) FireReady() error {
	for lang, v := range b.vms {
		if err := v.fireReady(); err != nil {
			b.doc.Logger(kessel.SeverityError, "%v", &kessel.ScriptError{Language: string(lang), Handler: "onReady", Detail: err.Error()})
		}
	}
	return nil
}

// discardPending clears every queued mutation; Drain calls it once they
// have been applied. (A timed-out activation's own mutations are dropped in
// invoke, per spec.md §5 "Cancellation / timeouts".)
func (b *Bridge) discardPending() {
	b.styles, b.texts, b.visible, b.checked, b.vars = nil, nil, nil, nil, nil
}

// Drain implements kessel.ScriptDrainer: it applies every queued mutation
// atomically -- style, then text, then visibility, then checkbox state,
// then reactive-variable writes -- and broadcasts each variable write to
// every live VM before returning (spec.md §4.F "Mutation batching",
// "Cross-VM variable synchronization").
func (b *Bridge) Drain(doc *kessel.Document) error {
	for _, m := range b.styles {
		if id, ok := doc.FindStyleByName(m.name); ok {
			doc.SetElementStyle(m.el, id)
		} else {
			doc.Logger(kessel.SeverityWarn, "script bridge: setStyle(%q): no such style", m.name)
		}
	}
	for _, m := range b.texts {
		doc.SetProperty(m.el, kessel.KeyTextContent, kessel.StringValue(m.text))
	}
	for _, m := range b.visible {
		doc.SetVisible(m.el, m.visible)
	}
	for _, m := range b.checked {
		doc.SetProperty(m.el, kessel.KeyChecked, kessel.BoolValue(m.checked))
	}
	for _, m := range b.vars {
		doc.ApplyVariableWrite(m.name, m.value)
		for _, v := range b.vms {
			if err := v.setVariable(m.name, m.value); err != nil {
				doc.Logger(kessel.SeverityWarn, "script bridge: propagate variable %q: %v", m.name, err)
			}
		}
	}

	b.discardPending()
	err := b.lastErr
	b.lastErr = nil
	return err
}

// --- queue helpers used by proxy.go and the language bindings ---

func (b *Bridge) queueStyle(el kessel.ElementId, name string)   { b.styles = append(b.styles, pendingStyle{el, name}) }
func (b *Bridge) queueText(el kessel.ElementId, text string)    { b.texts = append(b.texts, pendingText{el, text}) }
func (b *Bridge) queueVisible(el kessel.ElementId, vis bool)    { b.visible = append(b.visible, pendingVisibility{el, vis}) }
func (b *Bridge) queueChecked(el kessel.ElementId, checked bool) { b.checked = append(b.checked, pendingChecked{el, checked}) }
func (b *Bridge) queueVariable(name, value string)              { b.vars = append(b.vars, pendingVariable{name, value}) }

// pendingTextFor/pendingVisibleFor/pendingVariableFor implement read-your-writes
// within one activation (spec.md §4.F "Reads reflect pending writes...
// within an activation") by scanning backwards for the most recent queued
// entry before falling back to the committed document state.
func (b *Bridge) pendingTextFor(el kessel.ElementId) (string, bool) {
	for i := len(b.texts) - 1; i >= 0; i-- {
		if b.texts[i].el == el {
			return b.texts[i].text, true
		}
	}
	return "", false
}

func (b *Bridge) pendingVisibleFor(el kessel.ElementId) (bool, bool) {
	for i := len(b.visible) - 1; i >= 0; i-- {
		if b.visible[i].el == el {
			return b.visible[i].visible, true
		}
	}
	return false, false
}

func (b *Bridge) pendingVariableFor(name string) (string, bool) {
	for i := len(b.vars) - 1; i >= 0; i-- {
		if b.vars[i].name == name {
			return b.vars[i].value, true
		}
	}
	return "", false
}
