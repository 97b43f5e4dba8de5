package kessel

import "github.com/google/uuid"

// IterOrder selects traversal order for IterDescendants.
type IterOrder uint8

const (
	OrderPre IterOrder = iota
	OrderPost
)

// Document is the arena that owns every element, style, resource, script
// module, and reactive variable for one loaded CUI. It is the mutable tree
// the parser populates, the resolver/layout/translator observe, and scripts
// mutate through the bridge -- mirroring the teacher's Scene, generalized
// from a pointer-linked *Node tree to integer-indexed arenas (spec.md §9
// "Arena ownership").
type Document struct {
	InstanceID uuid.UUID

	elements []Element
	root     ElementId

	styles    []Style
	resources []Resource
	scripts   []ScriptModule

	reactive map[string]*ReactiveVariable

	byStringID map[string]ElementId

	epoch uint64 // incremented once per frame; keys the resolved-style cache

	ScrollOffset Vec2 // host-set viewport scroll offset; layout does not apply it (position:sticky is laid out in flow)

	ViewportWidth, ViewportHeight float32

	Logger Logger

	dispatcher *EventDispatcher
	resolver   *StyleResolver

	injectQueue []syntheticPointerEvent
}

// Vec2 is a 2D point/offset.
type Vec2 struct{ X, Y float32 }

// NewDocument creates an empty document with a single App-kind root.
func NewDocument() *Document {
	d := &Document{
		InstanceID: uuid.New(),
		byStringID: make(map[string]ElementId),
		reactive:   make(map[string]*ReactiveVariable),
		Logger:     discardLogger,
	}
	d.resolver = newStyleResolver(d)
	d.dispatcher = newEventDispatcher(d)
	root := d.createElement(KindApp, NoElement)
	d.root = root
	return d
}

// Root returns the document's root element handle.
func (d *Document) Root() ElementId { return d.root }

// Epoch returns the current frame epoch.
func (d *Document) Epoch() uint64 { return d.epoch }

// Dispatcher returns the document's event dispatcher.
func (d *Document) Dispatcher() *EventDispatcher { return d.dispatcher }

// Resolver returns the document's style resolver.
func (d *Document) Resolver() *StyleResolver { return d.resolver }

// element returns a pointer into the arena. Panics on out-of-range handles,
// which can only happen from a caller-side bug (handles are never exposed
// to scripts directly -- see script.Proxy).
func (d *Document) element(id ElementId) *Element {
	return &d.elements[id]
}

// Exists reports whether id refers to a live element.
func (d *Document) Exists(id ElementId) bool {
	return int(id) >= 0 && int(id) < len(d.elements)
}

// createElement allocates a new element and, if parent is not NoElement,
// appends it to the parent's child list. Internal only (spec.md §4.B).
func (d *Document) createElement(kind Kind, parent ElementId) ElementId {
	id := ElementId(len(d.elements))
	el := Element{
		id:          id,
		kind:        kind,
		style:       NoStyle,
		parent:      parent,
		visible:     true,
		interactive: kind != KindContainer && kind != KindApp,
		inline:      make(map[Key]Value),
	}
	d.elements = append(d.elements, el)
	if parent != NoElement && int(parent) < len(d.elements) {
		p := d.element(parent)
		p.children = append(p.children, id)
	}
	d.markStyleDirty(id)
	d.markLayoutDirty(id)
	return id
}

// CreateElement is the public entry point used by the binary parser and by
// script-driven element creation (if a host enables it). Every non-root
// element must be given a parent (invariant 1, spec.md §3).
func (d *Document) CreateElement(kind Kind, parent ElementId) ElementId {
	return d.createElement(kind, parent)
}

// SetStringID registers id as the element's "#id" lookup key.
func (d *Document) SetStringID(el ElementId, id string) {
	e := d.element(el)
	if e.strID != "" {
		delete(d.byStringID, e.strID)
	}
	e.strID = id
	if id != "" {
		d.byStringID[id] = el
	}
}

// FindByID implements find_by_id.
func (d *Document) FindByID(id string) (ElementId, bool) {
	el, ok := d.byStringID[id]
	return el, ok
}

// FindByTag implements find_by_tag, returning handles in document order.
func (d *Document) FindByTag(kind Kind) []ElementId {
	var out []ElementId
	d.IterDescendants(d.root, OrderPre, func(id ElementId) bool {
		if d.element(id).kind == kind {
			out = append(out, id)
		}
		return true
	})
	return out
}

// FindByStyleName implements find_by_style_name.
func (d *Document) FindByStyleName(name string) []ElementId {
	var out []ElementId
	d.IterDescendants(d.root, OrderPre, func(id ElementId) bool {
		e := d.element(id)
		if e.style != NoStyle && d.styles[e.style].Name == name {
			out = append(out, id)
		}
		return true
	})
	return out
}

// IterChildren implements iter_children.
func (d *Document) IterChildren(el ElementId) []ElementId {
	return d.element(el).Children()
}

// IterDescendants implements iter_descendants, visiting el itself as well.
// Returning false from visit stops the traversal early.
func (d *Document) IterDescendants(el ElementId, order IterOrder, visit func(ElementId) bool) {
	if !d.Exists(el) {
		return
	}
	if order == OrderPre {
		if !visit(el) {
			return
		}
	}
	for _, c := range d.element(el).children {
		d.IterDescendants(c, order, visit)
	}
	if order == OrderPost {
		visit(el)
	}
}

// GetProperty implements get_property: returns the resolved value if one is
// cached and valid, otherwise forces a resolve first. Reading never
// observes a stale value (invariant: "no stale reads possible via the
// public API").
func (d *Document) GetProperty(el ElementId, key Key) Value {
	d.resolver.ensureResolved(el)
	return d.element(el).resolved.values[key]
}

// GetInlineProperty returns only the inline value set directly on el,
// ignoring cascade/inheritance, or (Value{}, false) if unset.
func (d *Document) GetInlineProperty(el ElementId, key Key) (Value, bool) {
	v, ok := d.element(el).inline[key]
	return v, ok
}

// SetProperty implements set_property: mutates the element's inline map and
// invalidates caches per spec.md §4.B. Keys outside the closed enumeration
// (e.g. an unrecognized property id from a newer CUI format) are silently
// ignored, matching the parser's forward-compatibility requirement
// (spec.md §4.A "skip unknown property ids").
func (d *Document) SetProperty(el ElementId, key Key, value Value) {
	if key == KeyInvalid || key >= keyCount {
		return
	}
	e := d.element(el)
	e.inline[key] = value
	d.invalidateFor(el, key)
}

func (d *Document) invalidateFor(el ElementId, key Key) {
	meta := key.Meta()
	d.markStyleDirty(el)
	if meta.Inherited || meta.TriggersStyleInv {
		d.markStyleDirtyDescendants(el)
	}
	if meta.TriggersLayout {
		d.markLayoutDirtyUpward(el)
	}
}

// markStyleDirtyDescendants marks every descendant of el (not el itself)
// style-dirty. Used whenever a change to el can alter an inherited
// property's effective value for its subtree -- an inline property write
// on an inherited/style-invalidating key (invalidateFor above), or a
// reassignment of el's own style or pseudo-state, either of which can
// change any inherited key (e.g. color, font-size) the cascade computes
// for descendants (spec.md §3 invariant 4: "no ancestor has a style-dirty
// flag set").
func (d *Document) markStyleDirtyDescendants(el ElementId) {
	d.IterDescendants(el, OrderPre, func(id ElementId) bool {
		if id != el {
			d.markStyleDirty(id)
		}
		return true
	})
}

// markStyleDirty clears an element's resolved-cache validity.
func (d *Document) markStyleDirty(el ElementId) {
	if !d.Exists(el) {
		return
	}
	d.element(el).styleDirty = true
	d.element(el).resolved.valid = false
}

// markLayoutDirty marks only el (used at creation time).
func (d *Document) markLayoutDirty(el ElementId) {
	if d.Exists(el) {
		d.element(el).layoutDirty = true
	}
}

// markLayoutDirtyUpward marks el and every ancestor up to the root, per
// spec.md §4.D: "marking an element dirty marks all ancestors dirty up to
// the root".
func (d *Document) markLayoutDirtyUpward(el ElementId) {
	for d.Exists(el) {
		e := d.element(el)
		if e.layoutDirty {
			break // already dirty; ancestors were marked when this was set
		}
		e.layoutDirty = true
		if el == d.root {
			break
		}
		el = e.parent
	}
}

// SetVisible sets the visibility flag and triggers layout invalidation
// (visibility affects box computation for flex siblings).
func (d *Document) SetVisible(el ElementId, visible bool) {
	e := d.element(el)
	if e.visible == visible {
		return
	}
	e.visible = visible
	d.markLayoutDirtyUpward(el)
}

// SetPseudo replaces the active pseudo-state bitset for el and invalidates
// its resolved cache (a new (epoch, pseudo) key requires recompute).
func (d *Document) SetPseudo(el ElementId, state PseudoState) {
	e := d.element(el)
	if e.pseudo == state {
		return
	}
	e.pseudo = state
	d.markStyleDirty(el)
	d.markStyleDirtyDescendants(el)
}

// Pseudo returns the element's active pseudo-state bitset.
func (d *Document) Pseudo(el ElementId) PseudoState {
	return d.element(el).pseudo
}

// AdvanceFrame increments the frame epoch. Called once per frame by the
// host driver (config.go) after mutations are drained.
func (d *Document) AdvanceFrame() {
	d.epoch++
}

// ElementCount returns the number of elements in the arena, including the
// root. Element handles are dense, so every ElementId in [0, ElementCount)
// is valid -- used by kuibin.Encode to walk the tree in wire order.
func (d *Document) ElementCount() int { return len(d.elements) }

// ElementAt returns the element for a handle, for callers outside the
// package (e.g. kuibin.Encode) that need its exported accessors.
func (d *Document) ElementAt(id ElementId) *Element { return d.element(id) }

// StyleOf returns the style assigned to el, or NoStyle.
func (d *Document) StyleOf(el ElementId) StyleId { return d.element(el).style }

// InlineProperties returns a copy of the properties set directly on el,
// ignoring cascade/inheritance.
func (d *Document) InlineProperties(el ElementId) map[Key]Value {
	src := d.element(el).inline
	out := make(map[Key]Value, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Events returns the event bindings attached to el.
func (d *Document) Events(el ElementId) []EventBinding {
	return d.element(el).events
}

// Visible reports el's own visibility flag, for the script bridge's
// Proxy.getVisible (spec.md §4.F).
func (d *Document) Visible(el ElementId) bool {
	return d.element(el).visible
}

// NextSibling returns the element immediately after el in its parent's
// child list, for Proxy.getNextSibling.
func (d *Document) NextSibling(el ElementId) (ElementId, bool) {
	e := d.element(el)
	if e.parent == NoElement || !d.Exists(e.parent) {
		return NoElement, false
	}
	siblings := d.element(e.parent).children
	for i, id := range siblings {
		if id == el && i+1 < len(siblings) {
			return siblings[i+1], true
		}
	}
	return NoElement, false
}

// PreviousSibling returns the element immediately before el in its
// parent's child list, for Proxy.getPreviousSibling.
func (d *Document) PreviousSibling(el ElementId) (ElementId, bool) {
	e := d.element(el)
	if e.parent == NoElement || !d.Exists(e.parent) {
		return NoElement, false
	}
	siblings := d.element(e.parent).children
	for i, id := range siblings {
		if id == el && i > 0 {
			return siblings[i-1], true
		}
	}
	return NoElement, false
}

// SetComponentProperty sets a custom-component instance property, read back
// through getComponentProperty (spec.md §4.F).
func (d *Document) SetComponentProperty(el ElementId, name, value string) {
	e := d.element(el)
	if e.componentProps == nil {
		e.componentProps = make(map[string]string)
	}
	e.componentProps[name] = value
}

// ComponentProperty reads a custom-component instance property set by
// SetComponentProperty, or by the binary parser from a component's
// property block.
func (d *Document) ComponentProperty(el ElementId, name string) (string, bool) {
	v, ok := d.element(el).componentProps[name]
	return v, ok
}
