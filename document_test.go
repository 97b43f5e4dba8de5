package kessel

import "testing"

func TestCreateElementParenting(t *testing.T) {
	doc := NewDocument()
	child := doc.CreateElement(KindContainer, doc.Root())
	grandchild := doc.CreateElement(KindText, child)

	if got := doc.ElementAt(child).Parent(); got != doc.Root() {
		t.Fatalf("child.Parent() = %v, want root", got)
	}
	if got := doc.ElementAt(grandchild).Parent(); got != child {
		t.Fatalf("grandchild.Parent() = %v, want child", got)
	}
	kids := doc.IterChildren(doc.Root())
	if len(kids) != 1 || kids[0] != child {
		t.Fatalf("root children = %v, want [%v]", kids, child)
	}
}

func TestFindByID(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindButton, doc.Root())
	doc.SetStringID(el, "submit")

	got, ok := doc.FindByID("submit")
	if !ok || got != el {
		t.Fatalf("FindByID(submit) = (%v, %v), want (%v, true)", got, ok, el)
	}
	if _, ok := doc.FindByID("missing"); ok {
		t.Fatalf("FindByID(missing) found an element, want false")
	}

	// Re-assigning the string id drops the old lookup entry.
	doc.SetStringID(el, "confirm")
	if _, ok := doc.FindByID("submit"); ok {
		t.Fatalf("old id %q still resolves after reassignment", "submit")
	}
	if got, ok := doc.FindByID("confirm"); !ok || got != el {
		t.Fatalf("FindByID(confirm) = (%v, %v), want (%v, true)", got, ok, el)
	}
}

func TestFindByTagAndStyleName(t *testing.T) {
	doc := NewDocument()
	btn1 := doc.CreateElement(KindButton, doc.Root())
	_ = doc.CreateElement(KindText, doc.Root())
	btn2 := doc.CreateElement(KindButton, doc.Root())

	buttons := doc.FindByTag(KindButton)
	if len(buttons) != 2 || buttons[0] != btn1 || buttons[1] != btn2 {
		t.Fatalf("FindByTag(button) = %v, want [%v %v]", buttons, btn1, btn2)
	}

	style := doc.AddStyle(Style{Name: "primary"})
	doc.SetElementStyle(btn1, style)
	named := doc.FindByStyleName("primary")
	if len(named) != 1 || named[0] != btn1 {
		t.Fatalf("FindByStyleName(primary) = %v, want [%v]", named, btn1)
	}
}

func TestSiblingNavigation(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement(KindContainer, doc.Root())
	b := doc.CreateElement(KindContainer, doc.Root())
	c := doc.CreateElement(KindContainer, doc.Root())

	if got, ok := doc.NextSibling(a); !ok || got != b {
		t.Fatalf("NextSibling(a) = (%v, %v), want (%v, true)", got, ok, b)
	}
	if got, ok := doc.NextSibling(c); ok {
		t.Fatalf("NextSibling(c) = (%v, true), want ok=false", got)
	}
	if got, ok := doc.PreviousSibling(b); !ok || got != a {
		t.Fatalf("PreviousSibling(b) = (%v, %v), want (%v, true)", got, ok, a)
	}
	if got, ok := doc.PreviousSibling(a); ok {
		t.Fatalf("PreviousSibling(a) = (%v, true), want ok=false", got)
	}
}

func TestSetPropertyInvalidatesUpward(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement(KindContainer, doc.Root())
	child := doc.CreateElement(KindText, parent)

	doc.ElementAt(child).layoutDirty = false
	doc.ElementAt(parent).layoutDirty = false
	doc.SetProperty(child, KeyTextContent, StringValue("hello"))

	if !doc.ElementAt(child).layoutDirty {
		t.Fatalf("child.layoutDirty = false after a layout-triggering property set")
	}
	if !doc.ElementAt(parent).layoutDirty {
		t.Fatalf("parent.layoutDirty = false, want upward propagation to root")
	}
}

func TestSetPropertyUnknownKeyIgnored(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindText, doc.Root())
	before := doc.InlineProperties(el)

	doc.SetProperty(el, KeyInvalid, StringValue("x"))
	doc.SetProperty(el, keyCount, StringValue("x"))

	after := doc.InlineProperties(el)
	if len(after) != len(before) {
		t.Fatalf("SetProperty with an out-of-range key mutated inline properties: %v", after)
	}
}

func TestComponentProperty(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindComponent, doc.Root())

	if _, ok := doc.ComponentProperty(el, "label"); ok {
		t.Fatalf("ComponentProperty returned ok=true before any value was set")
	}
	doc.SetComponentProperty(el, "label", "Save")
	if got, ok := doc.ComponentProperty(el, "label"); !ok || got != "Save" {
		t.Fatalf("ComponentProperty(label) = (%q, %v), want (\"Save\", true)", got, ok)
	}
}

func TestSetVisibleMarksLayoutDirty(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindText, doc.Root())
	doc.ElementAt(el).layoutDirty = false
	doc.ElementAt(doc.Root()).layoutDirty = false

	doc.SetVisible(el, false)
	if doc.Visible(el) {
		t.Fatalf("Visible(el) = true, want false")
	}
	if !doc.ElementAt(el).layoutDirty {
		t.Fatalf("SetVisible did not mark the element layout-dirty")
	}
}
