package script

import "github.com/kessel-ui/kessel"

// This file implements the Proxy API bodies shared by every language
// binding (spec.md §4.F, §9 "Proxy objects in scripts... wrap in an
// opaque object whose methods enqueue mutations"). lua.go and js.go each
// wrap an ElementId in their own native handle type and forward to these
// methods rather than touching the Document directly, which is what
// makes Bridge.Drain's apply atomic.

func (b *Bridge) proxySetText(el kessel.ElementId, text string) { b.queueText(el, text) }

func (b *Bridge) proxyGetText(el kessel.ElementId) string {
	if v, ok := b.pendingTextFor(el); ok {
		return v
	}
	return b.doc.GetProperty(el, kessel.KeyTextContent).Str
}

func (b *Bridge) proxySetStyle(el kessel.ElementId, name string) { b.queueStyle(el, name) }

func (b *Bridge) proxySetVisible(el kessel.ElementId, visible bool) { b.queueVisible(el, visible) }

func (b *Bridge) proxyGetVisible(el kessel.ElementId) bool {
	if v, ok := b.pendingVisibleFor(el); ok {
		return v
	}
	return b.doc.Visible(el)
}

func (b *Bridge) proxySetChecked(el kessel.ElementId, checked bool) { b.queueChecked(el, checked) }

func (b *Bridge) proxyGetParent(el kessel.ElementId) (kessel.ElementId, bool) {
	p := b.doc.ElementAt(el).Parent()
	return p, p != kessel.NoElement
}

func (b *Bridge) proxyGetChildren(el kessel.ElementId) []kessel.ElementId {
	return b.doc.ElementAt(el).Children()
}

func (b *Bridge) proxyGetNextSibling(el kessel.ElementId) (kessel.ElementId, bool) {
	return b.doc.NextSibling(el)
}

func (b *Bridge) proxyGetPreviousSibling(el kessel.ElementId) (kessel.ElementId, bool) {
	return b.doc.PreviousSibling(el)
}

func (b *Bridge) getElementById(id string) (kessel.ElementId, bool) { return b.doc.FindByID(id) }

func (b *Bridge) getElementsByTag(kind kessel.Kind) []kessel.ElementId { return b.doc.FindByTag(kind) }

func (b *Bridge) getElementsByClass(styleName string) []kessel.ElementId {
	return b.doc.FindByStyleName(styleName)
}

// querySelectorAll implements the minimal selector grammar spec.md §4.F
// names: "#id", ".class", "tag". No combinators or compound selectors --
// the spec does not ask for descendant/child selector matching.
func (b *Bridge) querySelectorAll(selector string) []kessel.ElementId {
	if selector == "" {
		return nil
	}
	switch selector[0] {
	case '#':
		if id, ok := b.getElementById(selector[1:]); ok {
			return []kessel.ElementId{id}
		}
		return nil
	case '.':
		return b.getElementsByClass(selector[1:])
	default:
		if kind, ok := tagKind(selector); ok {
			return b.getElementsByTag(kind)
		}
		return nil
	}
}

func (b *Bridge) querySelector(selector string) (kessel.ElementId, bool) {
	all := b.querySelectorAll(selector)
	if len(all) == 0 {
		return kessel.NoElement, false
	}
	return all[0], true
}

func tagKind(name string) (kessel.Kind, bool) {
	switch name {
	case "app":
		return kessel.KindApp, true
	case "container":
		return kessel.KindContainer, true
	case "text":
		return kessel.KindText, true
	case "button":
		return kessel.KindButton, true
	case "image":
		return kessel.KindImage, true
	case "input":
		return kessel.KindInput, true
	case "checkbox":
		return kessel.KindCheckbox, true
	case "slider":
		return kessel.KindSlider, true
	}
	return 0, false
}

func (b *Bridge) getComponentProperty(el kessel.ElementId, name string) (string, bool) {
	return b.doc.ComponentProperty(el, name)
}

// variableValue/setVariableValue back getElementById's sibling concern,
// reactive variables: reads always resolve through the bridge so a script
// sees its own queued write before the next Drain commits it.
func (b *Bridge) variableValue(name string) string {
	if v, ok := b.pendingVariableFor(name); ok {
		return v
	}
	if rv, ok := b.doc.Variable(name); ok {
		return rv.Value()
	}
	return ""
}

func (b *Bridge) setVariableValue(name, value string) { b.queueVariable(name, value) }

// inputKindFromName maps the addEventListener(event_kind, ...) string a
// script passes to the backend-neutral InputEventKind spec.md §4.G
// defines. Unrecognized names fall back to pointer_down rather than
// erroring, matching the parser's general forward-compatible posture.
func inputKindFromName(name string) kessel.InputEventKind {
	switch name {
	case "pointer_down":
		return kessel.InputPointerDown
	case "pointer_up":
		return kessel.InputPointerUp
	case "pointer_move":
		return kessel.InputPointerMove
	case "wheel":
		return kessel.InputWheel
	case "key_down":
		return kessel.InputKeyDown
	case "key_up":
		return kessel.InputKeyUp
	case "resize":
		return kessel.InputResize
	case "focus_change":
		return kessel.InputFocusChange
	}
	return kessel.InputPointerDown
}
