package kessel

// maxExtendsDepth bounds the extends chain walk (spec.md §3 invariant 3:
// "depth bounded, e.g., 16").
const maxExtendsDepth = 16

// Style is a named bundle of properties, optionally extending one or more
// parent styles, with its own per-pseudo-class property overlays.
type Style struct {
	ID      StyleId
	Name    string
	Extends []StyleId // left-to-right; later wins (Open Question (a), ratified in SPEC_FULL.md)
	Base    map[Key]Value
	Pseudo  map[PseudoState]map[Key]Value
}

// StyleResolver produces, for every element, the effective value of every
// property key after applying the cascade described in spec.md §4.C. It
// memoizes per element keyed by (style-dirty-epoch, pseudo-state bitset),
// mirroring the dirty-flag-driven recompute-on-demand shape of the
// teacher's updateWorldTransform (transform.go): a clean subtree is never
// re-walked.
type StyleResolver struct {
	doc *Document

	// reported once per document load, per spec.md §4.C.
	reportedCycle  bool
	reportedDangle bool
}

func newStyleResolver(doc *Document) *StyleResolver {
	return &StyleResolver{doc: doc}
}

// ensureResolved recomputes el's resolved cache if el's own style-dirty
// flag is set, or if the cache key (epoch, pseudo) no longer matches. It
// does not look at ancestors: changes that can affect el's inherited values
// mark el dirty directly via markStyleDirtyDescendants (spec.md §3
// invariant 4).
func (r *StyleResolver) ensureResolved(el ElementId) {
	doc := r.doc
	if !doc.Exists(el) {
		return
	}
	e := doc.element(el)
	pseudo := e.pseudo
	if e.resolved.valid && e.resolved.epoch == doc.epoch && e.resolved.pseudo == pseudo && !e.styleDirty {
		return
	}

	var inheritedFrom [keyCount]Value
	hasInherited := false
	if e.parent != NoElement && doc.Exists(e.parent) {
		r.ensureResolved(e.parent)
		parent := doc.element(e.parent)
		inheritedFrom = parent.resolved.values
		hasInherited = true
	}

	var out [keyCount]Value
	for k := Key(1); k < keyCount; k++ {
		meta := k.Meta()
		v := meta.Default
		if hasInherited && meta.Inherited {
			pv := inheritedFrom[k]
			if pv.Kind != KindNone {
				v = pv
			}
		}
		out[k] = v
	}

	if e.style != NoStyle {
		r.applyStyleChain(e.style, pseudo, &out, make(map[StyleId]bool), 0)
	}

	for k, v := range e.inline {
		out[k] = v
	}

	e.resolved = resolvedCache{valid: true, epoch: doc.epoch, pseudo: pseudo, values: out}
	e.styleDirty = false
}

// applyStyleChain walks extends parents depth-first (left-to-right, later
// wins) before applying the style's own base map, then its pseudo overlays
// for every bit set in active. visiting guards against cycles; depth guards
// the bounded-depth invariant.
func (r *StyleResolver) applyStyleChain(id StyleId, active PseudoState, out *[keyCount]Value, visiting map[StyleId]bool, depth int) {
	doc := r.doc
	if int(id) < 0 || int(id) >= len(doc.styles) {
		if !r.reportedDangle {
			r.reportedDangle = true
			doc.Logger(SeverityWarn, "%v", &StyleError{Kind: "UnknownStyle", StyleID: id, Detail: "dangling style reference"})
		}
		return
	}
	if visiting[id] {
		if !r.reportedCycle {
			r.reportedCycle = true
			doc.Logger(SeverityWarn, "%v", &StyleError{Kind: "StyleCycle", StyleID: id, Detail: "extends cycle detected"})
		}
		return
	}
	if depth >= maxExtendsDepth {
		doc.Logger(SeverityWarn, "style %d: extends depth exceeds %d, truncating", id, maxExtendsDepth)
		return
	}
	visiting[id] = true
	defer delete(visiting, id)

	style := &doc.styles[id]
	for _, parent := range style.Extends {
		r.applyStyleChain(parent, active, out, visiting, depth+1)
	}
	for k, v := range style.Base {
		out[k] = v
	}
	for bit := PseudoState(1); bit != 0; bit <<= 1 {
		if active&bit == 0 {
			continue
		}
		if overlay, ok := style.Pseudo[bit]; ok {
			for k, v := range overlay {
				out[k] = v
			}
		}
		if bit == PseudoState(1)<<7 {
			break
		}
	}
}

// StyleCount returns the number of styles registered in the document.
func (d *Document) StyleCount() int { return len(d.styles) }

// StyleByIndex returns a pointer to the style at the given StyleId. Used by
// kuibin.Encode to walk the style table in wire order.
func (d *Document) StyleByIndex(id StyleId) *Style { return &d.styles[id] }

// FindStyleByName looks up a style by its declared name, for the script
// bridge's Proxy.setStyle(name) (spec.md §4.F).
func (d *Document) FindStyleByName(name string) (StyleId, bool) {
	for i := range d.styles {
		if d.styles[i].Name == name {
			return d.styles[i].ID, true
		}
	}
	return 0, false
}

// AddStyle registers a new style and returns its handle.
func (d *Document) AddStyle(s Style) StyleId {
	s.ID = StyleId(len(d.styles))
	if s.Base == nil {
		s.Base = make(map[Key]Value)
	}
	if s.Pseudo == nil {
		s.Pseudo = make(map[PseudoState]map[Key]Value)
	}
	d.styles = append(d.styles, s)
	return s.ID
}

// SetElementStyle assigns a style to an element and invalidates its cache.
// A new style can change any inherited property's effective value (e.g.
// color, font-size), so descendants are invalidated too -- not just el
// itself (spec.md §3 invariant 4).
func (d *Document) SetElementStyle(el ElementId, style StyleId) {
	e := d.element(el)
	e.style = style
	d.markStyleDirty(el)
	d.markStyleDirtyDescendants(el)
	d.markLayoutDirtyUpward(el)
}

// DetectStyleCycles is the exported entry point kuibin.decodeStyles calls
// right after building the style table, before any style is registered with
// a Document, so a cyclic extends graph is rejected at parse time (spec.md
// §4.A "CyclicStyle") rather than merely guarded against at resolve time by
// applyStyleChain's visiting set.
func DetectStyleCycles(styles []Style) (cyclic StyleId, found bool) {
	return detectStyleCycles(styles)
}

// detectStyleCycles is invoked by the binary parser immediately after
// styles are loaded (spec.md §4.A: "CyclicStyle" is a parse-time failure,
// not a resolve-time one -- cycles are rejected at parse). It runs a
// recursive depth-first walk with white/gray/black marking.
func detectStyleCycles(styles []Style) (cyclic StyleId, found bool) {
	const white, gray, black = 0, 1, 2
	color := make([]uint8, len(styles))

	var visit func(id StyleId) bool
	visit = func(id StyleId) bool {
		if int(id) >= len(styles) {
			return false // dangling reference, not a cycle
		}
		if color[id] == gray {
			return true
		}
		if color[id] == black {
			return false
		}
		color[id] = gray
		for _, p := range styles[id].Extends {
			if visit(p) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for i := range styles {
		if color[i] == white && visit(StyleId(i)) {
			return StyleId(i), true
		}
	}
	return 0, false
}
