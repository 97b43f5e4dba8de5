package kessel

// flexLine groups the flow children packed into one wrap line.
type flexLine struct {
	items    []ElementId
	mainSize []float32 // hypothetical (pre-grow/shrink) main size per item
	crossSize []float32
	lineCross float32
}

// isRowDirection reports whether dir's main axis is horizontal.
func isRowDirection(dir FlexDirection) bool {
	return dir == FlexRow || dir == FlexRowReverse
}

func isReverseDirection(dir FlexDirection) bool {
	return dir == FlexRowReverse || dir == FlexColumnReverse
}

// layoutFlexChildren runs the flex algorithm from spec.md §4.D step 3 over
// contentW x contentH, positioning each flow child's border box and then
// recursing into it via layoutSubtree.
func (le *LayoutEngine) layoutFlexChildren(doc *Document, container ElementId, flow []ElementId, contentW, contentH, originX, originY float32, posAncestor ElementId, posW, posH float32) {
	if len(flow) == 0 {
		return
	}
	dir := FlexDirection(doc.GetProperty(container, KeyFlexDirection).Enum)
	wrap := doc.GetProperty(container, KeyFlexWrap).B
	justify := Justify(doc.GetProperty(container, KeyJustifyContent).Enum)
	alignItems := Align(doc.GetProperty(container, KeyAlignItems).Enum)
	alignContent := Align(doc.GetProperty(container, KeyAlignContent).Enum)
	gap := doc.GetProperty(container, KeyGap).F

	row := isRowDirection(dir)
	mainCB, crossCB := contentW, contentH
	if !row {
		mainCB, crossCB = contentH, contentW
	}

	ordered := orderFlexItems(doc, flow)

	lines := packFlexLines(doc, le, ordered, mainCB, row, wrap, gap)

	// Cross-axis line sizes and total cross size. A single (non-wrapping)
	// line always fills the container's cross size, independent of
	// align-content -- align-content only distributes slack between
	// multiple lines (spec.md §4.D / standard flexbox cross-size rules).
	totalCross := float32(0)
	for i := range lines {
		if len(lines[i].items) == 0 {
			continue
		}
		if len(lines) <= 1 {
			lines[i].lineCross = crossCB
			totalCross += crossCB
			continue
		}
		maxCross := float32(0)
		for _, cs := range lines[i].crossSize {
			if cs > maxCross {
				maxCross = cs
			}
		}
		lines[i].lineCross = maxCross
		totalCross += maxCross
	}
	if len(lines) > 1 {
		totalCross += gap * float32(len(lines)-1)
	}

	crossOffset := float32(0)
	crossExtra := float32(0)
	crossGapExtra := float32(0)
	if crossCB > totalCross {
		free := crossCB - totalCross
		switch alignContent {
		case AlignEnd:
			crossOffset = free
		case AlignCenter:
			crossOffset = free / 2
		case AlignSpaceBetween:
			if len(lines) > 1 {
				crossGapExtra = free / float32(len(lines)-1)
			}
		case AlignStretch:
			if len(lines) > 0 {
				crossExtra = free / float32(len(lines))
			}
		}
	}

	for li := range lines {
		line := &lines[li]
		if len(line.items) == 0 {
			continue
		}
		lineCross := line.lineCross + crossExtra

		remainingFree := distributeMainAxis(doc, line, mainCB, gap, justify)
		start, betweenExtra := justifyOffset(remainingFree, len(line.items), justify)

		reverse := isReverseDirection(dir)
		mainPos := start
		if reverse {
			mainPos = mainCB - start
			for _, m := range line.mainSize {
				mainPos -= m
			}
			if len(line.items) > 1 {
				mainPos -= gap * float32(len(line.items)-1)
				mainPos -= betweenExtra * float32(len(line.items)-1)
			}
		}

		for idx, child := range line.items {
			childMain := line.mainSize[idx]
			childCross := line.crossSize[idx]
			crossPos := alignChildCross(doc, child, alignItems, lineCross, childCross)

			var localX, localY, w, h float32
			if row {
				w, h = childMain, childCross
				if alignItems == AlignStretch && doc.GetProperty(child, KeyHeight).Len.Unit == UnitAuto {
					h = lineCross
				}
				localX, localY = mainPos, crossOffset+crossPos
			} else {
				w, h = childCross, childMain
				if alignItems == AlignStretch && doc.GetProperty(child, KeyWidth).Len.Unit == UnitAuto {
					w = lineCross
				}
				localX, localY = crossOffset+crossPos, mainPos
			}

			childWorldX := originX + localX
			childWorldY := originY + localY
			le.layoutSubtree(doc, child, w, h, childWorldX, childWorldY, posAncestor, posW, posH)
			ce := doc.element(child)
			ce.layout.X, ce.layout.Y = localX, localY

			mainPos += childMain + gap + betweenExtra
		}

		crossOffset += lineCross + gap + crossGapExtra
	}
}

// orderFlexItems returns flow in the order the `order` property requests,
// without mutating the document tree (spec.md §4.D "Ordering").
func orderFlexItems(doc *Document, flow []ElementId) []ElementId {
	out := append([]ElementId(nil), flow...)
	// Stable insertion sort by `order`; ties keep insertion (document) order.
	for i := 1; i < len(out); i++ {
		oi := doc.GetProperty(out[i], KeyOrder).I
		j := i - 1
		for j >= 0 && doc.GetProperty(out[j], KeyOrder).I > oi {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = out[i]
	}
	return out
}

// hypotheticalSize computes a child's pre-distribution main and cross sizes
// from its explicit constraint (basis/width/height) or intrinsic content size.
func (le *LayoutEngine) hypotheticalSize(doc *Document, child ElementId, row bool) (mainSize, crossSize float32) {
	widthProp := doc.GetProperty(child, KeyWidth).Len
	heightProp := doc.GetProperty(child, KeyHeight).Len
	basis := doc.GetProperty(child, KeyFlexBasis).Len

	intrinsicW, intrinsicH := le.intrinsicSize(doc, child)

	resolve := func(l Length, intrinsic float32) (float32, bool) {
		if l.Unit == UnitAuto {
			return intrinsic, false
		}
		if l.Unit == UnitPx {
			return l.Value, true
		}
		return 0, false // percent-of-auto-parent treated as 0, spec.md §8 boundary case
	}

	w, wExplicit := resolve(widthProp, intrinsicW)
	h, hExplicit := resolve(heightProp, intrinsicH)

	if row {
		if basis.Unit != UnitAuto {
			if bv, ok := resolve(basis, w); ok || basis.Unit == UnitPx {
				w = bv
			}
		}
		_ = wExplicit
		return w, h
	}
	if basis.Unit != UnitAuto {
		if bv, ok := resolve(basis, h); ok || basis.Unit == UnitPx {
			h = bv
		}
	}
	_ = hExplicit
	return h, w
}

// intrinsicSize measures an element's natural size: text measured via the
// configured Font, everything else defaults to zero (it must come from an
// explicit size or stretch/grow).
func (le *LayoutEngine) intrinsicSize(doc *Document, el ElementId) (w, h float32) {
	e := doc.element(el)
	if e.kind != KindText && e.kind != KindButton && e.kind != KindInput {
		return 0, 0
	}
	text := doc.GetProperty(el, KeyTextContent).Str
	fontSize := doc.GetProperty(el, KeyFontSize).F
	if text == "" {
		return 0, 0
	}
	return le.Font.MeasureString(text, fontSize)
}

// packFlexLines partitions ordered children into wrap lines whose summed
// main size (plus gaps) does not exceed mainCB, per spec.md §4.D step 3.
func packFlexLines(doc *Document, le *LayoutEngine, ordered []ElementId, mainCB float32, row, wrap bool, gap float32) []flexLine {
	var lines []flexLine
	cur := flexLine{}
	curMain := float32(0)

	for _, child := range ordered {
		main, cross := le.hypotheticalSize(doc, child, row)
		addGap := float32(0)
		if len(cur.items) > 0 {
			addGap = gap
		}
		if wrap && len(cur.items) > 0 && curMain+addGap+main > mainCB {
			lines = append(lines, cur)
			cur = flexLine{}
			curMain = 0
			addGap = 0
		}
		cur.items = append(cur.items, child)
		cur.mainSize = append(cur.mainSize, main)
		cur.crossSize = append(cur.crossSize, cross)
		curMain += addGap + main
	}
	if len(cur.items) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// distributeMainAxis applies grow/shrink to fill or fit free main-axis
// space within a single line, never producing negative sizes. It returns
// the free space left over after grow distribution (zero whenever any
// item had a positive grow factor), which the caller feeds to
// justifyOffset for the "total grow = 0" boundary case (spec.md §8).
func distributeMainAxis(doc *Document, line *flexLine, mainCB, gap float32, justify Justify) float32 {
	used := float32(0)
	for _, m := range line.mainSize {
		used += m
	}
	if len(line.items) > 1 {
		used += gap * float32(len(line.items)-1)
	}
	free := mainCB - used

	if free > 0 {
		totalGrow := float32(0)
		for _, c := range line.items {
			totalGrow += doc.GetProperty(c, KeyFlexGrow).F
		}
		if totalGrow > 0 {
			for i, c := range line.items {
				grow := doc.GetProperty(c, KeyFlexGrow).F
				if grow <= 0 {
					continue
				}
				line.mainSize[i] += free * (grow / totalGrow)
			}
			return 0
		}
		return free
	} else if free < 0 {
		totalShrink := float32(0)
		for i, c := range line.items {
			shrink := doc.GetProperty(c, KeyFlexShrink).F
			totalShrink += shrink * line.mainSize[i]
		}
		if totalShrink > 0 {
			for i, c := range line.items {
				shrink := doc.GetProperty(c, KeyFlexShrink).F
				weight := shrink * line.mainSize[i]
				delta := free * (weight / totalShrink)
				line.mainSize[i] += delta
				if line.mainSize[i] < 0 {
					line.mainSize[i] = 0
				}
			}
		}
	}
	return 0
}

// alignChildCross returns the child's cross-axis offset within its line per
// align-items/align-self.
func alignChildCross(doc *Document, child ElementId, containerAlign Align, lineCross, childCross float32) float32 {
	align := containerAlign
	if v, ok := doc.GetInlineProperty(child, KeyAlignSelf); ok && Align(v.Enum) != AlignStretch {
		align = Align(v.Enum)
	}
	switch align {
	case AlignEnd:
		return lineCross - childCross
	case AlignCenter:
		return (lineCross - childCross) / 2
	default: // AlignStart, AlignStretch (stretch sizing handled by caller)
		return 0
	}
}

// justifyOffset returns the main-axis start offset and extra per-gap space
// for the given justify-content mode. distributeMainAxis already absorbed
// any grow-based free space; this only matters when grow is zero across
// the whole line (spec.md §8 boundary case: "flex with total grow = 0").
func justifyOffset(free float32, count int, justify Justify) (start, betweenExtra float32) {
	if free <= 0 || count == 0 {
		return 0, 0
	}
	switch justify {
	case JustifyEnd:
		return free, 0
	case JustifyCenter:
		return free / 2, 0
	case JustifySpaceBetween:
		if count > 1 {
			return 0, free / float32(count-1)
		}
		return 0, 0
	case JustifySpaceAround:
		return free / float32(count) / 2, free / float32(count)
	case JustifySpaceEvenly:
		return free / float32(count+1), free / float32(count+1)
	default:
		return 0, 0
	}
}

// layoutAbsoluteChild computes an absolutely/fixed positioned element's box
// from top/right/bottom/left/width/height against the nearest positioned
// ancestor's content box (or the viewport, for position:fixed, per spec.md
// §4.D step 4).
func (le *LayoutEngine) layoutAbsoluteChild(doc *Document, child ElementId, posAncestor ElementId, posW, posH, ancestorOriginX, ancestorOriginY float32) {
	mode := positionModeOf(doc, child)

	baseOriginX, baseOriginY, baseW, baseH := ancestorOriginX, ancestorOriginY, posW, posH
	if mode == PositionFixed {
		baseOriginX, baseOriginY = 0, 0
		baseW, baseH = doc.ViewportWidth, doc.ViewportHeight
	} else if posAncestor != NoElement {
		anc := doc.element(posAncestor)
		baseOriginX = anc.layout.WorldX + anc.layout.ContentX
		baseOriginY = anc.layout.WorldY + anc.layout.ContentY
	}

	top := doc.GetProperty(child, KeyTop).Len
	left := doc.GetProperty(child, KeyLeft).Len
	right := doc.GetProperty(child, KeyRight).Len
	bottom := doc.GetProperty(child, KeyBottom).Len
	widthProp := doc.GetProperty(child, KeyWidth).Len
	heightProp := doc.GetProperty(child, KeyHeight).Len

	intrinsicW, intrinsicH := le.intrinsicSize(doc, child)

	w := resolveAutoOr(doc, child, widthProp, baseW, intrinsicW)
	h := resolveAutoOr(doc, child, heightProp, baseH, intrinsicH)

	var x, y float32
	if left.Unit != UnitAuto {
		x = resolveLengthFor(doc, child, left, baseW)
	} else if right.Unit != UnitAuto {
		x = baseW - resolveLengthFor(doc, child, right, baseW) - w
	}
	if top.Unit != UnitAuto {
		y = resolveLengthFor(doc, child, top, baseH)
	} else if bottom.Unit != UnitAuto {
		y = baseH - resolveLengthFor(doc, child, bottom, baseH) - h
	}

	if mode == PositionSticky {
		doc_ := doc
		x += doc_.ScrollOffset.X
		y += doc_.ScrollOffset.Y
	}

	worldX := baseOriginX + x
	worldY := baseOriginY + y

	le.layoutSubtree(doc, child, w, h, worldX, worldY, child, w, h)
	ce := doc.element(child)
	ce.layout.X, ce.layout.Y = x, y
}

func resolveAutoOr(doc *Document, el ElementId, l Length, base, intrinsic float32) float32 {
	if l.Unit == UnitAuto {
		return intrinsic
	}
	return resolveLengthFor(doc, el, l, base)
}
