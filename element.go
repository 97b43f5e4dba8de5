package kessel

// Kind identifies how an element is laid out, rendered, and scripted.
type Kind uint8

const (
	KindApp Kind = iota
	KindContainer
	KindText
	KindButton
	KindImage
	KindInput
	KindCheckbox
	KindSlider
	KindComponent // custom-component instance
)

// EventKind enumerates the input/document events an element can bind a
// script handler to.
type EventKind uint8

const (
	EventClick EventKind = iota
	EventPointerDown
	EventPointerUp
	EventPointerMove
	EventPointerEnter
	EventPointerLeave
	EventKeyDown
	EventKeyUp
	EventFocus
	EventBlur
	EventChange
)

// EventBinding ties an event kind on an element to a script function name
// exported by one of the document's script modules.
type EventBinding struct {
	Kind   EventKind
	ScriptFn string
}

// PseudoState is a bitset of active pseudo-classes (spec.md §9: "model as
// a bitset per element rather than separate element variants").
type PseudoState uint8

const (
	PseudoHover PseudoState = 1 << iota
	PseudoActive
	PseudoFocus
	PseudoDisabled
)

// resolvedCache holds an element's memoized resolved property map together
// with the (epoch, pseudo-state) key it was computed for (spec.md §4.C).
type resolvedCache struct {
	valid  bool
	epoch  uint64
	pseudo PseudoState
	values [keyCount]Value
}

// Element is a node in the document tree. Handles (ElementId) are stable
// array indices into Document.elements; Go pointers are deliberately never
// used for tree links, matching the "arena ownership" design note (spec.md
// §9) and the dense-index style of the teacher's scene graph.
type Element struct {
	id     ElementId
	kind   Kind
	strID  string // optional application-assigned string id ("#id")
	style  StyleId
	parent ElementId
	children []ElementId

	// Typed property store: only keys explicitly set are present, so
	// get_property falls back to cascade/default for everything else.
	inline map[Key]Value

	resolved resolvedCache

	layout LayoutResult

	visible bool
	pseudo  PseudoState

	events []EventBinding

	// componentProps holds custom-component instance properties, exposed to
	// scripts via getComponentProperty.
	componentProps map[string]string

	styleDirty  bool // this element's own resolved cache needs recompute
	layoutDirty bool // this element's box needs recompute

	interactive bool
	focusable   bool
}

// Id returns the element's stable handle.
func (e *Element) Id() ElementId { return e.id }

// Kind returns the element's kind tag.
func (e *Element) Kind() Kind { return e.kind }

// StringID returns the element's application-assigned string id, if any.
func (e *Element) StringID() string { return e.strID }

// Parent returns the parent handle, or NoElement for the root.
func (e *Element) Parent() ElementId { return e.parent }

// Children returns the element's child handles in document order. The
// returned slice must not be mutated by the caller.
func (e *Element) Children() []ElementId { return e.children }

// Visible reports the element's own visibility flag (does not consider
// ancestor visibility).
func (e *Element) Visible() bool { return e.visible }

// Interactive reports whether the element participates in hit testing.
func (e *Element) Interactive() bool { return e.interactive }
