package kessel

import "math"

// LayoutResult is the final resolved box for an element: position and size
// of its border box, plus the absolute (document-space) position used by
// hit testing and command emission.
type LayoutResult struct {
	X, Y          float32 // border-box origin relative to the containing block
	Width, Height float32 // border-box size

	ContentX, ContentY          float32 // content-box origin relative to border-box origin
	ContentWidth, ContentHeight float32

	WorldX, WorldY float32 // absolute device-pixel position of the border-box origin

	cbWidth, cbHeight float32 // containing block this result was computed against
	epoch             uint64
}

// Result returns the current layout result for an element. Valid only after
// Layout has been run at least once on the containing document.
func (d *Document) Result(el ElementId) LayoutResult {
	return d.element(el).layout
}

// Font measures text for intrinsic sizing (layout's "auto" width/height for
// Text elements). Grounded on the teacher's text.go Font interface
// (`MeasureString(text string) (width, height float64)`); concrete font
// loading/shaping is a host/backend concern (spec.md §1 non-goal: "full
// text shaping"), so only measurement is part of the core contract.
type Font interface {
	MeasureString(text string, size float32) (width, height float32)
}

// defaultFont is a monospace-ish approximation used when no Font is
// configured, sufficient for deterministic layout tests.
type defaultFont struct{}

func (defaultFont) MeasureString(text string, size float32) (float32, float32) {
	return float32(len([]rune(text))) * size * 0.55, size * 1.25
}

// LayoutEngine runs the box-model + flex algorithm described in spec.md
// §4.D. It holds no state of its own beyond the font measurer; all
// invalidation state lives on the Document/Element so re-layout is always
// driven by the dirty flags set by Document.SetProperty.
type LayoutEngine struct {
	Font Font
}

// NewLayoutEngine returns a LayoutEngine with the default text measurer.
func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{Font: defaultFont{}}
}

// Layout recomputes the document's layout tree against the given viewport,
// starting from the root. If the root is not layout-dirty and the viewport
// size is unchanged the call is a no-op: since dirty marking always
// propagates upward to the root (spec.md §4.D), a clean root guarantees the
// whole document is clean.
func (le *LayoutEngine) Layout(doc *Document, viewportW, viewportH float32) {
	doc.ViewportWidth, doc.ViewportHeight = viewportW, viewportH
	root := doc.root
	re := doc.element(root)
	if !re.layoutDirty && re.layout.cbWidth == viewportW && re.layout.cbHeight == viewportH {
		return
	}
	le.layoutSubtree(doc, root, viewportW, viewportH, 0, 0, root, viewportW, viewportH)
}

// layoutSubtree computes el's border box (assignedW x assignedH, already
// decided by the parent's flex/absolute pass) and recurses into its
// children. origin is the absolute (world) position of el's own border
// box's top-left corner. posAncestor/posW/posH describe the nearest positioned
// ancestor's content box, used to resolve this subtree's absolutely
// positioned descendants.
func (le *LayoutEngine) layoutSubtree(doc *Document, el ElementId, assignedW, assignedH, originX, originY float32, posAncestor ElementId, posW, posH float32) {
	e := doc.element(el)
	epoch := doc.Epoch()

	if !e.layoutDirty && e.layout.cbWidth == assignedW && e.layout.cbHeight == assignedH && e.layout.epoch == epoch {
		// Clean subtree under unchanged constraints: never re-walked
		// (spec.md §4.D invalidation rule).
		return
	}

	assignedW = clampNonNegative(doc, el, assignedW)
	assignedH = clampNonNegative(doc, el, assignedH)

	edges := resolveBoxEdges(doc, el, assignedW) // box-sizing defaults to border-box
	contentW := assignedW - edges.border.Left - edges.border.Right - edges.padding.Left - edges.padding.Right
	contentH := assignedH - edges.border.Top - edges.border.Bottom - edges.padding.Top - edges.padding.Bottom
	contentW = clampNonNegative(doc, el, contentW)
	contentH = clampNonNegative(doc, el, contentH)

	e.layout.X, e.layout.Y = 0, 0 // the caller overwrites these after this returns; root keeps (0,0)
	e.layout.Width, e.layout.Height = assignedW, assignedH
	e.layout.ContentX = edges.border.Left + edges.padding.Left
	e.layout.ContentY = edges.border.Top + edges.padding.Top
	e.layout.ContentWidth, e.layout.ContentHeight = contentW, contentH
	e.layout.WorldX = originX
	e.layout.WorldY = originY
	e.layout.cbWidth, e.layout.cbHeight = assignedW, assignedH
	e.layout.epoch = epoch
	e.layoutDirty = false

	contentOriginX := originX + e.layout.ContentX
	contentOriginY := originY + e.layout.ContentY

	nextPosAncestor, nextPosW, nextPosH := posAncestor, posW, posH
	posMode := positionModeOf(doc, el)
	if posMode != PositionStatic {
		nextPosAncestor, nextPosW, nextPosH = el, contentW, contentH
	}

	children := e.Children()
	var flow, absolute []ElementId
	for _, c := range children {
		if !doc.element(c).visible {
			continue
		}
		switch positionModeOf(doc, c) {
		case PositionAbsolute, PositionFixed:
			absolute = append(absolute, c)
		default:
			flow = append(flow, c)
		}
	}

	le.layoutFlexChildren(doc, el, flow, contentW, contentH, contentOriginX, contentOriginY, nextPosAncestor, nextPosW, nextPosH)

	for _, c := range absolute {
		le.layoutAbsoluteChild(doc, c, nextPosAncestor, nextPosW, nextPosH, originX, originY)
	}
}

type boxEdges struct {
	border, padding EdgeSet
}

// resolveBoxEdges resolves border/padding edges against the containing
// block's width, matching "well-defined rules for margin-top/padding-top
// using width" from spec.md §4.D.
func resolveBoxEdges(doc *Document, el ElementId, cbWidth float32) boxEdges {
	border := doc.GetProperty(el, KeyBorderWidth).Edges
	padding := doc.GetProperty(el, KeyPadding).Edges
	return boxEdges{
		border:  resolveEdgeSet(doc, el, border, cbWidth),
		padding: resolveEdgeSet(doc, el, padding, cbWidth),
	}
}

func resolveEdgeSet(doc *Document, el ElementId, e EdgeSet, widthBase float32) EdgeSet {
	return EdgeSet{
		Top:    Px(resolveLengthFor(doc, el, e.Top, widthBase)),
		Right:  Px(resolveLengthFor(doc, el, e.Right, widthBase)),
		Bottom: Px(resolveLengthFor(doc, el, e.Bottom, widthBase)),
		Left:   Px(resolveLengthFor(doc, el, e.Left, widthBase)),
	}
}

// resolveLengthFor resolves a length that may use em/vw/vh against el's
// resolved font size and the document's current viewport.
func resolveLengthFor(doc *Document, el ElementId, l Length, base float32) float32 {
	switch l.Unit {
	case UnitEm:
		return l.Value * doc.GetProperty(el, KeyFontSize).F
	case UnitVw:
		return l.Value / 100 * doc.ViewportWidth
	case UnitVh:
		return l.Value / 100 * doc.ViewportHeight
	}
	return resolveLength(l, base)
}

// resolveLength resolves px/percent lengths against a single base
// dimension. "auto" resolves to 0 here; callers needing auto-as-computed
// handle that case themselves before calling this. em/vw/vh need extra
// context (font size, viewport) not available here -- use
// resolveLengthFor for those units.
func resolveLength(l Length, base float32) float32 {
	switch l.Unit {
	case UnitPx:
		return l.Value
	case UnitPercent:
		return l.Value / 100 * base
	}
	return 0
}

func positionModeOf(doc *Document, el ElementId) PositionMode {
	return PositionMode(doc.GetProperty(el, KeyPositionMode).Enum)
}

// clampNonNegative clamps negative or NaN sizes to zero and logs a
// LayoutWarning (spec.md §4.D "Failures"). Layout stays total/infallible.
func clampNonNegative(doc *Document, el ElementId, v float32) float32 {
	if math.IsNaN(float64(v)) {
		doc.Logger(SeverityWarn, "%v", &LayoutWarning{Element: el, Detail: "NaN size clamped to 0"})
		return 0
	}
	if v < 0 {
		doc.Logger(SeverityWarn, "%v", &LayoutWarning{Element: el, Detail: "negative size clamped to 0"})
		return 0
	}
	return v
}

// roundPixel rounds a layout coordinate to the nearest device pixel using
// round-half-to-even ("banker's rounding"), per spec.md §4.D "Numeric
// semantics" (chosen to avoid cumulative drift across repeated frames).
func roundPixel(v float32) float32 {
	return float32(math.RoundToEven(float64(v)))
}
