package kessel

import "sort"

// CommandKind identifies the kind of render command, matching the closed
// set in spec.md §4.E.
type CommandKind uint8

const (
	CmdPushTransform CommandKind = iota
	CmdPopTransform
	CmdPushClip
	CmdPopClip
	CmdDrawRect
	CmdDrawText
	CmdDrawImage
	CmdDrawTextInput
	CmdDrawCheckbox
	CmdDrawSlider
	CmdSetGlobalAlpha
)

// Rect is an axis-aligned device-pixel rectangle, origin top-left.
type Rect struct {
	X, Y, Width, Height float32
}

// InputState/CheckboxState/SliderState carry the minimal state a backend
// needs to paint an interactive widget without reaching back into the
// document.
type InputState struct {
	Text    string
	Caret   int
	Focused bool
}

type CheckboxState struct {
	Checked bool
}

type SliderState struct {
	Value, Min, Max float32
}

// Command is one immutable render instruction. Only the fields relevant to
// Kind are populated.
type Command struct {
	Kind CommandKind

	Rect      Rect
	Transform Transform2D
	Fill      Color
	Stroke    Color
	Radius    float32

	Text      string
	TextColor Color
	Font      string
	Align     TextAlign

	Resource ResourceId
	Tint     Color

	Alpha float32

	InputState    InputState
	CheckboxState CheckboxState
	SliderState   SliderState

	Element ElementId
}

// CommandTranslator walks the laid-out tree in paint order and emits the
// flat, ordered command stream described in spec.md §4.E, grounded on the
// teacher's render.go (`RenderCommand`/`CommandType`) and batch.go
// (stable ordering by tree position then z-index).
type CommandTranslator struct {
	Font Font
}

// NewCommandTranslator returns a translator using the default text
// measurer; set Font to match the LayoutEngine's for consistent metrics.
func NewCommandTranslator() *CommandTranslator {
	return &CommandTranslator{Font: defaultFont{}}
}

// paintEntry is a (element, z-index, tree-order) tuple used to compute
// sibling paint order: document order, then stable sort by z-index
// (spec.md §4.E "parents before children; siblings in document order, then
// by z-index for stacking").
type paintEntry struct {
	id       ElementId
	zIndex   int64
	treeOrder int
}

// childrenInPaintOrder returns el's children stable-sorted by z-index,
// document order breaking ties -- the order both Translate (paint) and the
// event dispatcher's hit test (spec.md §4.G "reverse paint order") must
// agree on.
func childrenInPaintOrder(doc *Document, el ElementId) []ElementId {
	children := doc.element(el).Children()
	entries := make([]paintEntry, len(children))
	for i, c := range children {
		entries[i] = paintEntry{id: c, zIndex: doc.GetProperty(c, KeyZIndex).I, treeOrder: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].zIndex < entries[j].zIndex
	})
	out := make([]ElementId, len(entries))
	for i, pe := range entries {
		out[i] = pe.id
	}
	return out
}

// Translate emits the render command stream for doc's current layout.
func (t *CommandTranslator) Translate(doc *Document) []Command {
	var cmds []Command
	clipDepth := 0
	xformDepth := 0
	tree := 0
	t.walk(doc, doc.root, &cmds, &clipDepth, &xformDepth, &tree)
	assertBalanced(doc, clipDepth, "clip push/pop")
	assertBalanced(doc, xformDepth, "transform push/pop")
	return cmds
}

func (t *CommandTranslator) walk(doc *Document, el ElementId, cmds *[]Command, clipDepth, xformDepth, tree *int) {
	e := doc.element(el)
	if !e.visible {
		return
	}
	*tree++

	layout := e.layout
	rect := Rect{
		X:      roundPixel(layout.WorldX),
		Y:      roundPixel(layout.WorldY),
		Width:  roundPixel(layout.Width),
		Height: roundPixel(layout.Height),
	}

	xform := doc.GetProperty(el, KeyTransform).Xform
	pushedTransform := xform != IdentityTransform2D
	if pushedTransform {
		*cmds = append(*cmds, Command{Kind: CmdPushTransform, Transform: xform, Element: el})
		*xformDepth++
	}

	alpha := doc.GetProperty(el, KeyOpacity).F
	if alpha != 1 {
		*cmds = append(*cmds, Command{Kind: CmdSetGlobalAlpha, Alpha: alpha, Element: el})
	}

	overflow := Overflow(doc.GetProperty(el, KeyOverflow).Enum)
	pushedClip := overflow == OverflowHidden
	if pushedClip {
		*cmds = append(*cmds, Command{Kind: CmdPushClip, Rect: rect, Element: el})
		*clipDepth++
	}

	t.emitSelf(doc, el, rect, cmds)

	for _, c := range childrenInPaintOrder(doc, el) {
		t.walk(doc, c, cmds, clipDepth, xformDepth, tree)
	}

	if pushedClip {
		*cmds = append(*cmds, Command{Kind: CmdPopClip, Element: el})
		*clipDepth--
	}
	if pushedTransform {
		*cmds = append(*cmds, Command{Kind: CmdPopTransform, Element: el})
		*xformDepth--
	}
}

func (t *CommandTranslator) emitSelf(doc *Document, el ElementId, rect Rect, cmds *[]Command) {
	e := doc.element(el)

	bg := doc.GetProperty(el, KeyBackgroundColor).Color
	border := doc.GetProperty(el, KeyBorderColor).Color
	radius := doc.GetProperty(el, KeyBorderRadius).F
	if bg.A != 0 || border.A != 0 {
		*cmds = append(*cmds, Command{Kind: CmdDrawRect, Rect: rect, Fill: bg, Stroke: border, Radius: radius, Element: el})
	}

	switch e.kind {
	case KindText, KindButton:
		text := doc.GetProperty(el, KeyTextContent).Str
		if text != "" {
			color := doc.GetProperty(el, KeyColor).Color
			align := TextAlign(doc.GetProperty(el, KeyTextAlign).Enum)
			fontFamily := doc.GetProperty(el, KeyFontFamily).Str
			*cmds = append(*cmds, Command{Kind: CmdDrawText, Rect: rect, Text: text, Font: fontFamily, TextColor: color, Align: align, Element: el})
		}
	case KindImage:
		res := doc.GetProperty(el, KeyImageSource).Res
		tint := doc.GetProperty(el, KeyImageTint).Color
		if res != NoResource {
			*cmds = append(*cmds, Command{Kind: CmdDrawImage, Rect: rect, Resource: res, Tint: tint, Element: el})
		}
	case KindInput:
		text := doc.GetProperty(el, KeyTextContent).Str
		focused := e.pseudo&PseudoFocus != 0
		*cmds = append(*cmds, Command{Kind: CmdDrawTextInput, Rect: rect, InputState: InputState{Text: text, Caret: len([]rune(text)), Focused: focused}, Element: el})
	case KindCheckbox:
		checked := doc.GetProperty(el, KeyChecked).B
		*cmds = append(*cmds, Command{Kind: CmdDrawCheckbox, Rect: rect, CheckboxState: CheckboxState{Checked: checked}, Element: el})
	case KindSlider:
		state := SliderState{
			Value: doc.GetProperty(el, KeySliderValue).F,
			Min:   doc.GetProperty(el, KeySliderMin).F,
			Max:   doc.GetProperty(el, KeySliderMax).F,
		}
		*cmds = append(*cmds, Command{Kind: CmdDrawSlider, Rect: rect, SliderState: state, Element: el})
	}
}
