package kessel

import "testing"

func layoutOnce(doc *Document, vw, vh float32) {
	NewLayoutEngine().Layout(doc, vw, vh)
}

func TestLayoutRootFillsViewport(t *testing.T) {
	doc := NewDocument()
	layoutOnce(doc, 800, 600)

	r := doc.Result(doc.Root())
	if r.Width != 800 || r.Height != 600 {
		t.Fatalf("root size = %vx%v, want 800x600", r.Width, r.Height)
	}
}

func TestLayoutCleanSubtreeNotReWalked(t *testing.T) {
	doc := NewDocument()
	child := doc.CreateElement(KindContainer, doc.Root())
	layoutOnce(doc, 400, 300)

	before := doc.Result(child)
	doc.ElementAt(child).layout.WorldX = 12345 // poke a sentinel a clean re-layout must not touch
	layoutOnce(doc, 400, 300)

	after := doc.Result(child)
	if after.WorldX != 12345 {
		t.Fatalf("clean subtree was re-walked: WorldX = %v, want sentinel 12345 preserved", after.WorldX)
	}
	_ = before
}

func TestLayoutRespondsToViewportResize(t *testing.T) {
	doc := NewDocument()
	layoutOnce(doc, 400, 300)
	layoutOnce(doc, 800, 600)

	r := doc.Result(doc.Root())
	if r.Width != 800 || r.Height != 600 {
		t.Fatalf("root size after resize = %vx%v, want 800x600", r.Width, r.Height)
	}
}

func TestResolveLengthPercentAndPixel(t *testing.T) {
	if got := resolveLength(Px(10), 200); got != 10 {
		t.Fatalf("resolveLength(10px, 200) = %v, want 10", got)
	}
	if got := resolveLength(Percent(50), 200); got != 100 {
		t.Fatalf("resolveLength(50%%, 200) = %v, want 100", got)
	}
	if got := resolveLength(Auto, 200); got != 0 {
		t.Fatalf("resolveLength(auto, 200) = %v, want 0", got)
	}
}

func TestResolveLengthForEmVwVh(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindText, doc.Root())
	doc.SetProperty(el, KeyFontSize, FloatValue(20))
	doc.ViewportWidth, doc.ViewportHeight = 1000, 500

	if got := resolveLengthFor(doc, el, Length{Value: 2, Unit: UnitEm}, 0); got != 40 {
		t.Fatalf("resolveLengthFor(2em) = %v, want 40 (2 * font-size 20)", got)
	}
	if got := resolveLengthFor(doc, el, Length{Value: 10, Unit: UnitVw}, 0); got != 100 {
		t.Fatalf("resolveLengthFor(10vw) = %v, want 100 (10%% of viewport width 1000)", got)
	}
	if got := resolveLengthFor(doc, el, Length{Value: 10, Unit: UnitVh}, 0); got != 50 {
		t.Fatalf("resolveLengthFor(10vh) = %v, want 50 (10%% of viewport height 500)", got)
	}
}

func TestClampNonNegativeHandlesNaNAndNegative(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindContainer, doc.Root())
	var warnings int
	doc.Logger = func(level Severity, format string, args ...any) {
		if level == SeverityWarn {
			warnings++
		}
	}

	if got := clampNonNegative(doc, el, -5); got != 0 {
		t.Fatalf("clampNonNegative(-5) = %v, want 0", got)
	}
	if got := clampNonNegative(doc, el, 5); got != 5 {
		t.Fatalf("clampNonNegative(5) = %v, want 5 (unchanged)", got)
	}
	if warnings != 1 {
		t.Fatalf("warnings logged = %v, want exactly 1 (for the negative case)", warnings)
	}
}

// stubFont reports a fixed intrinsic size for one known string, letting a
// layout test pin down exact numbers without depending on a real text
// shaper (text shaping is a host/backend concern, spec.md §1 non-goal).
type stubFont struct {
	text          string
	width, height float32
}

func (f stubFont) MeasureString(text string, size float32) (float32, float32) {
	if text == f.text {
		return f.width, f.height
	}
	return float32(len([]rune(text))) * size * 0.55, size * 1.25
}

// TestHelloTextLayoutCentersInContainer is spec.md §8 scenario 1: an
// absolutely positioned 200x100 container at (200,100) containing one
// centered text child measuring 88x16 should place the text at (256,142).
func TestHelloTextLayoutCentersInContainer(t *testing.T) {
	doc := NewDocument()
	app := doc.Root()
	doc.SetProperty(app, KeyWidth, LengthValue(Px(800)))
	doc.SetProperty(app, KeyHeight, LengthValue(Px(600)))

	container := doc.CreateElement(KindContainer, app)
	doc.SetProperty(container, KeyPositionMode, EnumValue(uint32(PositionAbsolute)))
	doc.SetProperty(container, KeyLeft, LengthValue(Px(200)))
	doc.SetProperty(container, KeyTop, LengthValue(Px(100)))
	doc.SetProperty(container, KeyWidth, LengthValue(Px(200)))
	doc.SetProperty(container, KeyHeight, LengthValue(Px(100)))
	doc.SetProperty(container, KeyJustifyContent, EnumValue(uint32(JustifyCenter)))
	doc.SetProperty(container, KeyAlignItems, EnumValue(uint32(AlignCenter)))

	text := doc.CreateElement(KindText, container)
	doc.SetProperty(text, KeyTextContent, StringValue("Hello"))
	doc.SetProperty(text, KeyTextAlign, EnumValue(uint32(TextAlignCenter)))
	doc.SetProperty(text, KeyFontSize, FloatValue(16))

	le := &LayoutEngine{Font: stubFont{text: "Hello", width: 88, height: 16}}
	le.Layout(doc, 800, 600)

	r := doc.Result(text)
	if r.WorldX != 256 || r.WorldY != 142 || r.Width != 88 || r.Height != 16 {
		t.Fatalf("text box = {x:%v y:%v w:%v h:%v}, want {x:256 y:142 w:88 h:16}",
			r.WorldX, r.WorldY, r.Width, r.Height)
	}
}

func TestBorderAndPaddingShrinkContentBox(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement(KindContainer, doc.Root())
	doc.SetProperty(el, KeyWidth, LengthValue(Px(100)))
	doc.SetProperty(el, KeyHeight, LengthValue(Px(100)))
	doc.SetProperty(el, KeyPadding, EdgesValue(UniformEdge(Px(10))))
	doc.SetProperty(el, KeyBorderWidth, EdgesValue(UniformEdge(Px(5))))

	layoutOnce(doc, 400, 400)
	r := doc.Result(el)
	if r.ContentWidth != 70 || r.ContentHeight != 70 {
		t.Fatalf("content box = %vx%v, want 70x70 (100 - 2*10 padding - 2*5 border)", r.ContentWidth, r.ContentHeight)
	}
}
