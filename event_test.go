package kessel

import "testing"

func buildClickableDoc() (*Document, ElementId) {
	doc := NewDocument()
	btn := doc.CreateElement(KindButton, doc.Root())
	setFixedSize(doc, btn, 100, 50)
	NewLayoutEngine().Layout(doc, 400, 400)
	return doc, btn
}

func TestHitTestFindsTopmostInteractiveElement(t *testing.T) {
	doc, btn := buildClickableDoc()
	if got := doc.Dispatcher().hitTest(10, 10); got != btn {
		t.Fatalf("hitTest(10,10) = %v, want %v", got, btn)
	}
	if got := doc.Dispatcher().hitTest(900, 900); got != NoElement {
		t.Fatalf("hitTest outside any box = %v, want NoElement", got)
	}
}

func TestHitTestPrefersTopmostOverlappingElement(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement(KindButton, doc.Root())
	b := doc.CreateElement(KindButton, doc.Root())
	setFixedSize(doc, a, 100, 100)
	setFixedSize(doc, b, 100, 100)
	doc.SetProperty(a, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	doc.SetProperty(b, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	NewLayoutEngine().Layout(doc, 400, 400)

	if got := doc.Dispatcher().hitTest(10, 10); got != b {
		t.Fatalf("hitTest over two stacked elements = %v, want %v (later sibling painted on top)", got, b)
	}
}

func TestHitTestFollowsZIndexNotDocumentOrder(t *testing.T) {
	doc := NewDocument()
	first := doc.CreateElement(KindButton, doc.Root())
	second := doc.CreateElement(KindButton, doc.Root())
	setFixedSize(doc, first, 100, 100)
	setFixedSize(doc, second, 100, 100)
	doc.SetProperty(first, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	doc.SetProperty(second, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	// first precedes second in document order, so raw tree order would
	// paint second on top; first's higher z-index must still win.
	doc.SetProperty(first, KeyZIndex, IntValue(5))
	doc.SetProperty(second, KeyZIndex, IntValue(1))
	NewLayoutEngine().Layout(doc, 400, 400)

	if got := doc.Dispatcher().hitTest(10, 10); got != first {
		t.Fatalf("hitTest over two stacked elements = %v, want %v (higher z-index painted on top despite earlier document order)", got, first)
	}
}

func TestDispatchPointerInvokesBoundHandler(t *testing.T) {
	doc, btn := buildClickableDoc()
	doc.BindEvent(btn, EventClick, "onClick")

	var invoked string
	doc.Dispatcher().Invoke = func(fn string, ev *Event) { invoked = fn }

	doc.Dispatcher().DispatchPointer(InputPointerDown, 10, 10, MouseLeft, 0)
	if invoked != "onClick" {
		t.Fatalf("invoked = %q, want %q", invoked, "onClick")
	}
}

func TestStopPropagationHaltsBubble(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement(KindButton, doc.Root())
	child := doc.CreateElement(KindButton, parent)
	setFixedSize(doc, parent, 100, 100)
	setFixedSize(doc, child, 50, 50)
	NewLayoutEngine().Layout(doc, 400, 400)

	doc.BindEvent(child, EventClick, "childHandler")
	doc.BindEvent(parent, EventClick, "parentHandler")

	var calls []string
	doc.Dispatcher().Invoke = func(fn string, ev *Event) {
		calls = append(calls, fn)
		if fn == "childHandler" {
			ev.StopPropagation = true
		}
	}

	doc.Dispatcher().DispatchPointer(InputPointerDown, 5, 5, MouseLeft, 0)
	if len(calls) != 1 || calls[0] != "childHandler" {
		t.Fatalf("calls = %v, want [childHandler] only (parent should not fire after stopPropagation)", calls)
	}
}

func TestHoverUpdatesPseudoStateAlongPath(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement(KindButton, doc.Root())
	child := doc.CreateElement(KindButton, parent)
	setFixedSize(doc, parent, 100, 100)
	setFixedSize(doc, child, 50, 50)
	NewLayoutEngine().Layout(doc, 400, 400)

	doc.Dispatcher().DispatchPointer(InputPointerMove, 5, 5, MouseLeft, 0)
	if doc.Pseudo(child)&PseudoHover == 0 {
		t.Fatalf("child is not marked :hover after a pointer move over it")
	}
	if doc.Pseudo(parent)&PseudoHover == 0 {
		t.Fatalf("ancestor is not marked :hover after a pointer move over its descendant")
	}

	doc.Dispatcher().DispatchPointer(InputPointerMove, 999, 999, MouseLeft, 0)
	if doc.Pseudo(child)&PseudoHover != 0 {
		t.Fatalf("child is still marked :hover after the pointer moved away")
	}
}

func TestFocusNextWrapsAround(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement(KindInput, doc.Root())
	b := doc.CreateElement(KindInput, doc.Root())
	doc.SetFocusable(a, true)
	doc.SetFocusable(b, true)

	doc.Dispatcher().FocusNext()
	if doc.Dispatcher().Focused() != a {
		t.Fatalf("first FocusNext = %v, want %v", doc.Dispatcher().Focused(), a)
	}
	doc.Dispatcher().FocusNext()
	if doc.Dispatcher().Focused() != b {
		t.Fatalf("second FocusNext = %v, want %v", doc.Dispatcher().Focused(), b)
	}
	doc.Dispatcher().FocusNext()
	if doc.Dispatcher().Focused() != a {
		t.Fatalf("third FocusNext = %v, want wraparound to %v", doc.Dispatcher().Focused(), a)
	}
}

func TestInjectClickDispatchesPressThenRelease(t *testing.T) {
	doc, btn := buildClickableDoc()
	doc.BindEvent(btn, EventClick, "onClick")
	var clicks int
	doc.Dispatcher().Invoke = func(fn string, ev *Event) {
		if fn == "onClick" {
			clicks++
		}
	}

	doc.InjectClick(10, 10)
	doc.DrainInjected()
	doc.DrainInjected()

	if clicks != 1 {
		t.Fatalf("clicks = %v, want 1 (pointer_down alone maps to a click binding)", clicks)
	}
	if doc.HasInjected() {
		t.Fatalf("injected queue should be drained after two DrainInjected calls")
	}
}
