package kessel

import "testing"

func TestStyleCascadePrecedence(t *testing.T) {
	doc := NewDocument()
	base := doc.AddStyle(Style{Name: "base", Base: map[Key]Value{
		KeyColor: ColorValue(Color{R: 1, A: 255}),
	}})
	override := doc.AddStyle(Style{Name: "override", Extends: []StyleId{base}, Base: map[Key]Value{
		KeyColor: ColorValue(Color{G: 1, A: 255}),
	}})

	el := doc.CreateElement(KindText, doc.Root())
	doc.SetElementStyle(el, override)

	got := doc.GetProperty(el, KeyColor).Color
	want := Color{G: 1, A: 255}
	if got != want {
		t.Fatalf("cascaded color = %v, want %v (the style's own base should beat its extends parent)", got, want)
	}

	doc.SetProperty(el, KeyColor, ColorValue(Color{B: 1, A: 255}))
	if got := doc.GetProperty(el, KeyColor).Color; got != (Color{B: 1, A: 255}) {
		t.Fatalf("inline color = %v, want it to beat the style chain", got)
	}
}

func TestPseudoOverlayAppliesOverBase(t *testing.T) {
	doc := NewDocument()
	style := doc.AddStyle(Style{
		Name: "button",
		Base: map[Key]Value{KeyBackgroundColor: ColorValue(Color{R: 1, A: 255})},
		Pseudo: map[PseudoState]map[Key]Value{
			PseudoHover: {KeyBackgroundColor: ColorValue(Color{G: 1, A: 255})},
		},
	})
	el := doc.CreateElement(KindButton, doc.Root())
	doc.SetElementStyle(el, style)

	if got := doc.GetProperty(el, KeyBackgroundColor).Color; got != (Color{R: 1, A: 255}) {
		t.Fatalf("base background = %v, want red", got)
	}

	doc.SetPseudo(el, PseudoHover)
	if got := doc.GetProperty(el, KeyBackgroundColor).Color; got != (Color{G: 1, A: 255}) {
		t.Fatalf("hovered background = %v, want green overlay applied", got)
	}
}

func TestInheritedPropertyFlowsToChildren(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement(KindContainer, doc.Root())
	child := doc.CreateElement(KindText, parent)

	doc.SetProperty(parent, KeyFontSize, FloatValue(24))
	if got := doc.GetProperty(child, KeyFontSize).F; got != 24 {
		t.Fatalf("child inherited font size = %v, want 24", got)
	}

	doc.SetProperty(child, KeyFontSize, FloatValue(12))
	if got := doc.GetProperty(child, KeyFontSize).F; got != 12 {
		t.Fatalf("child inline font size = %v, want 12 (should override inherited)", got)
	}
	if got := doc.GetProperty(parent, KeyFontSize).F; got != 24 {
		t.Fatalf("parent font size = %v, want unaffected by child override", got)
	}
}

func TestDanglingStyleReferenceLogsAndFallsBackToDefault(t *testing.T) {
	doc := NewDocument()
	var warned bool
	doc.Logger = func(level Severity, format string, args ...any) {
		if level == SeverityWarn {
			warned = true
		}
	}

	el := doc.CreateElement(KindText, doc.Root())
	doc.SetElementStyle(el, StyleId(999))

	got := doc.GetProperty(el, KeyColor).Color
	if got != (Color{A: 255}) {
		t.Fatalf("color with dangling style = %v, want the KeyColor default (opaque black)", got)
	}
	if !warned {
		t.Fatalf("expected a warning to be logged for a dangling style reference")
	}
}

func TestDetectStyleCycles(t *testing.T) {
	styles := []Style{
		{ID: 0, Extends: []StyleId{1}},
		{ID: 1, Extends: []StyleId{2}},
		{ID: 2, Extends: []StyleId{0}},
	}
	if _, found := detectStyleCycles(styles); !found {
		t.Fatalf("detectStyleCycles did not find the 0->1->2->0 cycle")
	}

	acyclic := []Style{
		{ID: 0, Extends: []StyleId{1}},
		{ID: 1, Extends: nil},
	}
	if _, found := detectStyleCycles(acyclic); found {
		t.Fatalf("detectStyleCycles reported a cycle in an acyclic chain")
	}
}

func TestFindStyleByName(t *testing.T) {
	doc := NewDocument()
	id := doc.AddStyle(Style{Name: "card"})
	got, ok := doc.FindStyleByName("card")
	if !ok || got != id {
		t.Fatalf("FindStyleByName(card) = (%v, %v), want (%v, true)", got, ok, id)
	}
	if _, ok := doc.FindStyleByName("missing"); ok {
		t.Fatalf("FindStyleByName(missing) found a style, want false")
	}
}
