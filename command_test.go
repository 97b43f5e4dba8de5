package kessel

import "testing"

func buildPaintedDoc() *Document {
	doc := NewDocument()
	el := doc.CreateElement(KindText, doc.Root())
	doc.SetProperty(el, KeyTextContent, StringValue("hi"))
	doc.SetProperty(el, KeyColor, ColorValue(Color{R: 1, A: 255}))
	NewLayoutEngine().Layout(doc, 200, 200)
	return doc
}

func TestTranslateEmitsDrawTextForTextContent(t *testing.T) {
	doc := buildPaintedDoc()
	cmds := NewCommandTranslator().Translate(doc)

	var found bool
	for _, c := range cmds {
		if c.Kind == CmdDrawText && c.Text == "hi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("commands %v do not contain a DrawText for \"hi\"", cmds)
	}
}

func TestTranslatePushPopTransformBalanced(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindContainer, doc.Root())
	doc.SetProperty(el, KeyTransform, TransformValue(Transform2D{2, 0, 0, 2, 0, 0}))
	NewLayoutEngine().Layout(doc, 200, 200)

	cmds := NewCommandTranslator().Translate(doc)
	depth := 0
	for _, c := range cmds {
		switch c.Kind {
		case CmdPushTransform:
			depth++
		case CmdPopTransform:
			depth--
		}
	}
	if depth != 0 {
		t.Fatalf("push/pop transform depth ended at %v, want 0", depth)
	}
}

func TestTranslatePushPopClipBalanced(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindContainer, doc.Root())
	doc.SetProperty(el, KeyOverflow, EnumValue(uint32(OverflowHidden)))
	doc.CreateElement(KindText, el)
	NewLayoutEngine().Layout(doc, 200, 200)

	cmds := NewCommandTranslator().Translate(doc)
	depth := 0
	for _, c := range cmds {
		switch c.Kind {
		case CmdPushClip:
			depth++
		case CmdPopClip:
			depth--
		}
	}
	if depth != 0 {
		t.Fatalf("push/pop clip depth ended at %v, want 0", depth)
	}
}

func TestTranslatePaintOrderFollowsZIndex(t *testing.T) {
	doc := NewDocument()
	container := doc.CreateElement(KindContainer, doc.Root())
	back := doc.CreateElement(KindText, container)
	front := doc.CreateElement(KindText, container)
	doc.SetProperty(back, KeyTextContent, StringValue("back"))
	doc.SetProperty(front, KeyTextContent, StringValue("front"))
	doc.SetProperty(back, KeyZIndex, IntValue(5))
	doc.SetProperty(front, KeyZIndex, IntValue(1))
	NewLayoutEngine().Layout(doc, 200, 200)

	cmds := NewCommandTranslator().Translate(doc)
	var order []string
	for _, c := range cmds {
		if c.Kind == CmdDrawText {
			order = append(order, c.Text)
		}
	}
	if len(order) != 2 || order[0] != "front" || order[1] != "back" {
		t.Fatalf("paint order = %v, want [front back] (lower z-index paints first)", order)
	}
}

func TestTranslateSkipsInvisibleSubtree(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindText, doc.Root())
	doc.SetProperty(el, KeyTextContent, StringValue("hidden"))
	doc.SetVisible(el, false)
	NewLayoutEngine().Layout(doc, 200, 200)

	cmds := NewCommandTranslator().Translate(doc)
	for _, c := range cmds {
		if c.Kind == CmdDrawText && c.Text == "hidden" {
			t.Fatalf("an invisible element was painted: %v", c)
		}
	}
}
