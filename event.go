package kessel

// InputEventKind tags a backend-neutral input event (spec.md §4.G).
type InputEventKind uint8

const (
	InputPointerDown InputEventKind = iota
	InputPointerUp
	InputPointerMove
	InputWheel
	InputKeyDown
	InputKeyUp
	InputResize
	InputFocusChange
)

// MouseButton identifies which pointer button is involved.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// KeyModifiers is a bitset of held modifier keys, grounded on the teacher's
// input.go readModifiers.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Event carries one dispatched event's data through capture and bubble.
// A handler sets StopPropagation to halt bubbling (spec.md §4.G).
type Event struct {
	Kind      InputEventKind
	Target    ElementId
	X, Y      float32 // pointer position, document space
	Button    MouseButton
	Key       string
	Modifiers KeyModifiers
	DeltaX    float32 // wheel
	DeltaY    float32

	StopPropagation bool
}

// HandlerInvoker fires a script-bound event handler by function name. Set
// by the host (config.go wires it to the script bridge); left nil in
// documents that have no script bridge attached.
type HandlerInvoker func(scriptFn string, ev *Event)

type globalListener struct {
	id uint32
	fn func(*Event)
}

// EventDispatcher implements spec.md §4.G: hit testing, pseudo-class
// updates, target-then-bubble propagation (no capture pass), focus/tab
// navigation, and the post-dispatch mutation-drain trigger. Hit testing and
// the reverse-paint-order walk are grounded directly on the teacher's
// input.go (`collectInteractable` + `hitTest`).
type EventDispatcher struct {
	doc *Document

	listeners map[InputEventKind][]globalListener
	nextID    uint32

	Invoke HandlerInvoker

	focused ElementId
	hoverPath []ElementId

	// AfterDispatch is called once per event after propagation completes,
	// so the host can run the mutation drain (spec.md §4.F/§4.G).
	AfterDispatch func()
}

func newEventDispatcher(doc *Document) *EventDispatcher {
	return &EventDispatcher{
		doc:       doc,
		listeners: make(map[InputEventKind][]globalListener),
		focused:   NoElement,
	}
}

// EventListenerHandle allows removing a registered global listener.
type EventListenerHandle struct {
	kind InputEventKind
	id   uint32
	d    *EventDispatcher
}

// Remove unregisters the listener.
func (h EventListenerHandle) Remove() {
	if h.d == nil {
		return
	}
	ls := h.d.listeners[h.kind]
	for i, l := range ls {
		if l.id == h.id {
			h.d.listeners[h.kind] = append(ls[:i], ls[i+1:]...)
			return
		}
	}
}

// AddEventListener registers a global handler for an event kind (spec.md
// §4.F `addEventListener`).
func (d *EventDispatcher) AddEventListener(kind InputEventKind, fn func(*Event)) EventListenerHandle {
	d.nextID++
	id := d.nextID
	d.listeners[kind] = append(d.listeners[kind], globalListener{id: id, fn: fn})
	return EventListenerHandle{kind: kind, id: id, d: d}
}

func (d *EventDispatcher) fireGlobal(ev *Event) {
	for _, l := range d.listeners[ev.Kind] {
		l.fn(ev)
		if ev.StopPropagation {
			return
		}
	}
}

// hitTest walks the laid-out tree in reverse paint order (topmost first)
// and returns the first interactive element whose resolved box contains
// the point, exactly mirroring the teacher's collectInteractable+hitTest
// pair (input.go), generalized from *Node to ElementId.
func (d *EventDispatcher) hitTest(x, y float32) ElementId {
	var order []ElementId
	d.collectInteractable(d.doc.root, &order)
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		l := d.doc.element(id).layout
		if x >= l.WorldX && x <= l.WorldX+l.Width && y >= l.WorldY && y <= l.WorldY+l.Height {
			return id
		}
	}
	return NoElement
}

// collectInteractable appends el (if interactive) and its visible
// descendants in paint order -- the same z-index stable sort Translate uses
// for siblings (command.go's childrenInPaintOrder) -- so that reversing the
// result walks hit candidates topmost-first by actual paint order, not raw
// document order (spec.md §4.G "reverse paint order").
func (d *EventDispatcher) collectInteractable(el ElementId, out *[]ElementId) {
	e := d.doc.element(el)
	if !e.visible {
		return
	}
	if e.interactive {
		*out = append(*out, el)
	}
	for _, c := range childrenInPaintOrder(d.doc, el) {
		d.collectInteractable(c, out)
	}
}

// pathToRoot returns [root, ..., parent, target] for capture/bubble order.
func (d *Document) pathToRoot(target ElementId) []ElementId {
	var path []ElementId
	for id := target; id != NoElement && d.Exists(id); {
		path = append(path, id)
		id = d.element(id).parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// DispatchPointer handles pointer_down/up/move, updating the `:hover`
// pseudo-class along the event path as it goes (spec.md §4.G "Hover state
// updates the :hover pseudo-class bit of the target and its ancestors
// along the event path"), then runs target->bubble propagation.
func (d *EventDispatcher) DispatchPointer(kind InputEventKind, x, y float32, button MouseButton, mods KeyModifiers) {
	target := d.hitTest(x, y)
	ev := &Event{Kind: kind, Target: target, X: x, Y: y, Button: button, Modifiers: mods}

	if kind == InputPointerMove || kind == InputPointerDown {
		d.updateHover(target)
	}

	d.propagate(ev)
	d.fireGlobal(ev)
	if d.AfterDispatch != nil {
		d.AfterDispatch()
	}
}

func (d *EventDispatcher) updateHover(target ElementId) {
	newPath := d.doc.pathToRoot(target)
	newSet := make(map[ElementId]bool, len(newPath))
	for _, id := range newPath {
		newSet[id] = true
	}
	for _, id := range d.hoverPath {
		if !newSet[id] {
			d.setPseudoBit(id, PseudoHover, false)
		}
	}
	for _, id := range newPath {
		d.setPseudoBit(id, PseudoHover, true)
	}
	d.hoverPath = newPath
}

func (d *EventDispatcher) setPseudoBit(el ElementId, bit PseudoState, on bool) {
	cur := d.doc.Pseudo(el)
	if on {
		cur |= bit
	} else {
		cur &^= bit
	}
	d.doc.SetPseudo(el, cur)
}

// DispatchKey routes a keyboard event to the focused element first, then
// bubbles; if unhandled, fires global key listeners (spec.md §4.G "Focus").
func (d *EventDispatcher) DispatchKey(kind InputEventKind, key string, mods KeyModifiers) {
	ev := &Event{Kind: kind, Target: d.focused, Key: key, Modifiers: mods}
	if d.focused != NoElement {
		d.propagate(ev)
	}
	if !ev.StopPropagation {
		d.fireGlobal(ev)
	}
	if d.AfterDispatch != nil {
		d.AfterDispatch()
	}
}

// propagate invokes the target's bound handlers for ev.Kind, then bubbles
// (target->root), invoking each ancestor's bound handlers in turn, until
// ev.StopPropagation is set. There is no capture (root->target) pass: no
// handler runs on the way down.
func (d *EventDispatcher) propagate(ev *Event) {
	if ev.Target == NoElement {
		return
	}
	path := d.doc.pathToRoot(ev.Target)

	d.invokeBound(ev.Target, ev)
	if ev.StopPropagation {
		return
	}

	for i := len(path) - 2; i >= 0; i-- {
		d.invokeBound(path[i], ev)
		if ev.StopPropagation {
			return
		}
	}
}

func (d *EventDispatcher) invokeBound(el ElementId, ev *Event) {
	if d.Invoke == nil {
		return
	}
	e := d.doc.element(el)
	for _, b := range e.events {
		if eventBindingMatches(b.Kind, ev.Kind) {
			d.Invoke(b.ScriptFn, ev)
		}
	}
}

func eventBindingMatches(bound EventKind, in InputEventKind) bool {
	switch in {
	case InputPointerDown:
		return bound == EventPointerDown || bound == EventClick
	case InputPointerUp:
		return bound == EventPointerUp
	case InputPointerMove:
		return bound == EventPointerMove
	case InputKeyDown:
		return bound == EventKeyDown
	case InputKeyUp:
		return bound == EventKeyUp
	}
	return false
}

// --- Focus & tab navigation ---

// Focused returns the currently focused element, or NoElement.
func (d *EventDispatcher) Focused() ElementId { return d.focused }

// Focus moves focus to el, firing blur/focus pseudo-state updates.
func (d *EventDispatcher) Focus(el ElementId) {
	if d.focused == el {
		return
	}
	if d.focused != NoElement {
		d.setPseudoBit(d.focused, PseudoFocus, false)
	}
	d.focused = el
	if el != NoElement {
		d.setPseudoBit(el, PseudoFocus, true)
	}
}

// focusableOrder returns every focusable element in document order.
func (d *EventDispatcher) focusableOrder() []ElementId {
	var out []ElementId
	d.doc.IterDescendants(d.doc.root, OrderPre, func(id ElementId) bool {
		if d.doc.element(id).focusable {
			out = append(out, id)
		}
		return true
	})
	return out
}

// FocusNext advances focus to the next focusable element in document
// order, wrapping at the end (spec.md §4.G "Tab navigation... wrap at
// ends").
func (d *EventDispatcher) FocusNext() {
	order := d.focusableOrder()
	if len(order) == 0 {
		d.Focus(NoElement)
		return
	}
	if d.focused == NoElement {
		d.Focus(order[0])
		return
	}
	for i, id := range order {
		if id == d.focused {
			d.Focus(order[(i+1)%len(order)])
			return
		}
	}
	d.Focus(order[0])
}

// FocusPrev moves focus to the previous focusable element, wrapping.
func (d *EventDispatcher) FocusPrev() {
	order := d.focusableOrder()
	if len(order) == 0 {
		d.Focus(NoElement)
		return
	}
	if d.focused == NoElement {
		d.Focus(order[len(order)-1])
		return
	}
	for i, id := range order {
		if id == d.focused {
			d.Focus(order[(i-1+len(order))%len(order)])
			return
		}
	}
	d.Focus(order[len(order)-1])
}

// SetFocusable marks whether an element participates in Tab navigation.
func (d *Document) SetFocusable(el ElementId, focusable bool) {
	d.element(el).focusable = focusable
}

// SetInteractive marks whether an element participates in hit testing.
func (d *Document) SetInteractive(el ElementId, interactive bool) {
	d.element(el).interactive = interactive
}

// BindEvent attaches a script handler to el for the given event kind.
func (d *Document) BindEvent(el ElementId, kind EventKind, scriptFn string) {
	e := d.element(el)
	e.events = append(e.events, EventBinding{Kind: kind, ScriptFn: scriptFn})
}
