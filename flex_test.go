package kessel

import "testing"

func setFixedSize(doc *Document, el ElementId, w, h float32) {
	doc.SetProperty(el, KeyWidth, LengthValue(Px(w)))
	doc.SetProperty(el, KeyHeight, LengthValue(Px(h)))
}

func TestFlexRowPlacesChildrenSideBySide(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 300, 100)
	a := doc.CreateElement(KindContainer, row)
	b := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 50, 50)
	setFixedSize(doc, b, 50, 50)

	NewLayoutEngine().Layout(doc, 800, 600)

	ra, rb := doc.Result(a), doc.Result(b)
	if ra.X != 0 {
		t.Fatalf("first child X = %v, want 0", ra.X)
	}
	if rb.X != 50 {
		t.Fatalf("second child X = %v, want 50 (placed after the first)", rb.X)
	}
}

func TestFlexGapAddsSpaceBetweenItems(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 300, 100)
	doc.SetProperty(row, KeyGap, FloatValue(10))
	a := doc.CreateElement(KindContainer, row)
	b := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 50, 50)
	setFixedSize(doc, b, 50, 50)

	NewLayoutEngine().Layout(doc, 800, 600)

	if got := doc.Result(b).X; got != 60 {
		t.Fatalf("second child X = %v, want 60 (50 width + 10 gap)", got)
	}
}

func TestFlexGrowDistributesFreeSpace(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 300, 100)
	a := doc.CreateElement(KindContainer, row)
	b := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 50, 50)
	setFixedSize(doc, b, 50, 50)
	doc.SetProperty(a, KeyFlexGrow, FloatValue(1))
	doc.SetProperty(b, KeyFlexGrow, FloatValue(3))

	NewLayoutEngine().Layout(doc, 800, 600)

	// 200px free space split 1:3 -> a gets +50, b gets +150.
	if got := doc.Result(a).Width; got != 100 {
		t.Fatalf("grow=1 child width = %v, want 100", got)
	}
	if got := doc.Result(b).Width; got != 200 {
		t.Fatalf("grow=3 child width = %v, want 200", got)
	}
}

func TestFlexShrinkNeverProducesNegativeSize(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 50, 50)
	a := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 500, 50)
	doc.SetProperty(a, KeyFlexShrink, FloatValue(1))

	NewLayoutEngine().Layout(doc, 800, 600)

	if got := doc.Result(a).Width; got < 0 {
		t.Fatalf("shrunk width = %v, must never be negative", got)
	}
}

func TestJustifyContentCenterWithZeroGrow(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 300, 100)
	doc.SetProperty(row, KeyJustifyContent, EnumValue(uint32(JustifyCenter)))
	a := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 100, 50)

	NewLayoutEngine().Layout(doc, 800, 600)

	if got := doc.Result(a).X; got != 100 {
		t.Fatalf("centered child X = %v, want 100 ((300-100)/2)", got)
	}
}

func TestOrderPropertyReordersPaintButNotTreeStructure(t *testing.T) {
	doc := NewDocument()
	row := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, row, 300, 100)
	a := doc.CreateElement(KindContainer, row)
	b := doc.CreateElement(KindContainer, row)
	setFixedSize(doc, a, 50, 50)
	setFixedSize(doc, b, 50, 50)
	doc.SetProperty(a, KeyOrder, IntValue(1))
	doc.SetProperty(b, KeyOrder, IntValue(0))

	NewLayoutEngine().Layout(doc, 800, 600)

	if got := doc.Result(b).X; got != 0 {
		t.Fatalf("order=0 child X = %v, want 0 (placed first despite being added second)", got)
	}
	if got := doc.Result(a).X; got != 50 {
		t.Fatalf("order=1 child X = %v, want 50", got)
	}
	// Document order (child list) must be unaffected by the order property.
	kids := doc.IterChildren(row)
	if kids[0] != a || kids[1] != b {
		t.Fatalf("child list = %v, want [%v %v] (insertion order preserved)", kids, a, b)
	}
}

func TestAbsolutePositionResolvesAgainstPositionedAncestor(t *testing.T) {
	doc := NewDocument()
	anchor := doc.CreateElement(KindContainer, doc.Root())
	setFixedSize(doc, anchor, 200, 200)
	doc.SetProperty(anchor, KeyPositionMode, EnumValue(uint32(PositionRelative)))

	child := doc.CreateElement(KindContainer, anchor)
	setFixedSize(doc, child, 20, 20)
	doc.SetProperty(child, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	doc.SetProperty(child, KeyTop, LengthValue(Px(5)))
	doc.SetProperty(child, KeyLeft, LengthValue(Px(5)))

	NewLayoutEngine().Layout(doc, 800, 600)

	r := doc.Result(child)
	if r.WorldX != 5 || r.WorldY != 5 {
		t.Fatalf("absolute child world position = (%v,%v), want (5,5) relative to its positioned ancestor", r.WorldX, r.WorldY)
	}
}
