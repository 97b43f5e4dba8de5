package kuibin

import (
	"encoding/binary"
	"math"

	"github.com/kessel-ui/kessel"
)

// reader is a bounds-checked little-endian cursor over a byte slice,
// grounded on the teacher's binary-parsing style in parser.go (explicit
// offset tracking, every read bounds-checked before use).
type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return errTruncated(r.pos, "unexpected end of stream")
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Decode parses a complete CUI byte stream into a ready-to-use Document.
// Section order in the stream is not significant -- every known section is
// parsed from the section table regardless of position -- except that the
// strings section, if present, is always resolved first since every other
// section references it by index.
func Decode(data []byte) (*kessel.Document, error) {
	r := &reader{buf: data}

	if len(data) < headerSize {
		return nil, errTruncated(0, "header")
	}
	magic, _ := r.bytes(4)
	if string(magic) != Magic {
		return nil, errMalformed(0, "bad magic")
	}
	major, _ := r.u8()
	minor, _ := r.u8()
	if major != VersionMajor {
		return nil, errUnsupported(r.pos, "unsupported major version")
	}
	compressed := minor&minorCompressedBit != 0
	if _, err := r.u16(); err != nil { // flags, currently unused
		return nil, err
	}
	sectionCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}

	sections := make(map[sectionID][]byte, sectionCount)
	for i := 0; i < int(sectionCount); i++ {
		tablePos := r.pos
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		if id == 0 {
			return nil, errUnknownSection(tablePos, "section kind 0 is never valid")
		}
		off, err := r.u32()
		if err != nil {
			return nil, err
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		if int(off)+int(length) > len(data) {
			return nil, errTruncated(int(off), "section body")
		}
		sections[sectionID(id)] = data[off : off+length]
	}

	var strs []string
	if body, ok := sections[sectionStrings]; ok {
		strs, err = decodeStringTable(body, compressed)
		if err != nil {
			return nil, err
		}
	}

	doc := kessel.NewDocument()

	pool := sections[sectionPropBlocks]

	if body, ok := sections[sectionElements]; ok {
		if err := decodeElements(doc, body, strs, pool); err != nil {
			return nil, err
		}
	}
	if body, ok := sections[sectionStyles]; ok {
		if err := decodeStyles(doc, body, strs); err != nil {
			return nil, err
		}
	}
	if err := validateStyleReferences(doc); err != nil {
		return nil, err
	}
	var blob []byte
	if body, ok := sections[sectionBlob]; ok {
		blob = body
	}
	if body, ok := sections[sectionResources]; ok {
		if err := decodeResources(doc, body, strs, blob); err != nil {
			return nil, err
		}
	}
	if body, ok := sections[sectionScripts]; ok {
		if err := decodeScripts(doc, body, strs); err != nil {
			return nil, err
		}
	}
	if body, ok := sections[sectionVariables]; ok {
		if err := decodeVariables(doc, body, strs); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func lookupString(strs []string, idx uint32) string {
	if idx == noIndex || int(idx) >= len(strs) {
		return ""
	}
	return strs[idx]
}

// decodeElements reads the element table in pre-order (a node's parent
// always precedes it), so the wire index of every non-root element equals
// the ElementId CreateElement assigns it -- the root (wire index 0) reuses
// the Document's existing root rather than allocating a new element. Each
// element record stores a property-block offset into pool rather than an
// inline block, so elements sharing a block (spec.md §4.A "Property-block
// sharing") decode it once via the blockCache below.
func decodeElements(doc *kessel.Document, body []byte, strs []string, pool []byte) error {
	r := &reader{buf: body}
	count, err := r.u32()
	if err != nil {
		return err
	}
	blockCache := make(map[uint32][]propEntry)
	for i := uint32(0); i < count; i++ {
		kindTag, err := r.u8()
		if err != nil {
			return err
		}
		parentIdx, err := r.u32()
		if err != nil {
			return err
		}
		if i > 0 && parentIdx != noIndex && parentIdx >= i {
			return errDangling(r.pos, "element parent_idx does not reference an already-decoded element")
		}
		styleIdx, err := r.u32()
		if err != nil {
			return err
		}
		stringIDIdx, err := r.u32()
		if err != nil {
			return err
		}
		visible, err := r.u8()
		if err != nil {
			return err
		}

		var el kessel.ElementId
		if i == 0 {
			el = doc.Root()
		} else {
			el = doc.CreateElement(kindFromWire(kindTag), kessel.ElementId(parentIdx))
		}
		if styleIdx != noIndex {
			doc.SetElementStyle(el, kessel.StyleId(styleIdx))
		}
		if sid := lookupString(strs, stringIDIdx); sid != "" {
			doc.SetStringID(el, sid)
		}
		doc.SetVisible(el, visible != 0)

		propOffset, err := r.u32()
		if err != nil {
			return err
		}
		entries, err := decodePropBlockAt(pool, propOffset, strs, blockCache)
		if err != nil {
			return err
		}
		for _, pe := range entries {
			doc.SetProperty(el, pe.Key, pe.Val)
		}

		eventCount, err := r.u16()
		if err != nil {
			return err
		}
		for e := uint16(0); e < eventCount; e++ {
			evKind, err := r.u8()
			if err != nil {
				return err
			}
			fnIdx, err := r.u32()
			if err != nil {
				return err
			}
			doc.BindEvent(el, kessel.EventKind(evKind), lookupString(strs, fnIdx))
		}
	}
	return nil
}

func kindFromWire(tag uint8) kessel.Kind {
	switch tag {
	case elemApp:
		return kessel.KindApp
	case elemContainer:
		return kessel.KindContainer
	case elemText:
		return kessel.KindText
	case elemButton:
		return kessel.KindButton
	case elemImage:
		return kessel.KindImage
	case elemInput:
		return kessel.KindInput
	case elemCheckbox:
		return kessel.KindCheckbox
	case elemSlider:
		return kessel.KindSlider
	case elemComponent:
		return kessel.KindComponent
	default:
		return kessel.KindContainer
	}
}

// propEntry is one decoded (key, value) pair from a property block.
type propEntry struct {
	Key kessel.Key
	Val kessel.Value
}

// decodePropEntries reads a (count uint16, then per-entry key/kind/len/value)
// property block into a slice. An entry with an unrecognized key is still
// skipped correctly because its length prefix lets the reader jump over the
// raw value bytes without knowing their shape (spec.md §4.A "skip unknown
// property ids").
func decodePropEntries(r *reader, strs []string) ([]propEntry, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	entries := make([]propEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		keyTag, err := r.u16()
		if err != nil {
			return nil, err
		}
		kindTag, err := r.u8()
		if err != nil {
			return nil, err
		}
		length, err := r.u16()
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		key := kessel.Key(keyTag)
		if !kessel.ValidKey(key) {
			continue
		}
		val, ok := decodeValue(kindTag, raw, strs)
		if ok {
			entries = append(entries, propEntry{Key: key, Val: val})
		}
	}
	return entries, nil
}

// decodeProps is decodePropEntries for the style Base/Pseudo overlay maps,
// which are inlined in the styles section rather than pool-shared (spec.md
// §4.A's property-block sharing names "elements", not style overlays).
func decodeProps(r *reader, strs []string, emit func(kessel.Key, kessel.Value)) error {
	entries, err := decodePropEntries(r, strs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		emit(e.Key, e.Val)
	}
	return nil
}

// decodePropBlockAt decodes the property block at offset within pool,
// sharing the result across every element whose record names the same
// offset (spec.md §4.A "the parser deduplicates on load by offset keying to
// avoid copying"). offset == noIndex means the element has no properties.
func decodePropBlockAt(pool []byte, offset uint32, strs []string, cache map[uint32][]propEntry) ([]propEntry, error) {
	if offset == noIndex {
		return nil, nil
	}
	if entries, ok := cache[offset]; ok {
		return entries, nil
	}
	if int(offset) > len(pool) {
		return nil, errDangling(int(offset), "element prop_block offset is outside the property-block pool")
	}
	r := &reader{buf: pool[offset:]}
	entries, err := decodePropEntries(r, strs)
	if err != nil {
		return nil, err
	}
	cache[offset] = entries
	return entries, nil
}

func decodeValue(kindTag uint8, raw []byte, strs []string) (kessel.Value, bool) {
	vr := &reader{buf: raw}
	switch kindTag {
	case valInt:
		v, err := vr.u64()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.IntValue(int64(v)), true
	case valFloat:
		f, err := vr.f32()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.FloatValue(f), true
	case valBool:
		b, err := vr.u8()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.BoolValue(b != 0), true
	case valColor:
		if len(raw) < 4 {
			return kessel.Value{}, false
		}
		return kessel.ColorValue(kessel.Color{R: raw[0], G: raw[1], B: raw[2], A: raw[3]}), true
	case valString:
		idx, err := vr.u32()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.StringValue(lookupString(strs, idx)), true
	case valLength:
		l, ok := decodeLength(vr)
		if !ok {
			return kessel.Value{}, false
		}
		return kessel.LengthValue(l), true
	case valEdges:
		top, ok1 := decodeLength(vr)
		right, ok2 := decodeLength(vr)
		bottom, ok3 := decodeLength(vr)
		left, ok4 := decodeLength(vr)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return kessel.Value{}, false
		}
		return kessel.EdgesValue(kessel.EdgeSet{Top: top, Right: right, Bottom: bottom, Left: left}), true
	case valTransform:
		var m kessel.Transform2D
		for i := range m {
			f, err := vr.f32()
			if err != nil {
				return kessel.Value{}, false
			}
			m[i] = f
		}
		return kessel.TransformValue(m), true
	case valResource:
		idx, err := vr.u32()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.ResourceValue(kessel.ResourceId(idx)), true
	case valEnum:
		idx, err := vr.u32()
		if err != nil {
			return kessel.Value{}, false
		}
		return kessel.EnumValue(idx), true
	default:
		return kessel.Value{}, false
	}
}

func decodeLength(r *reader) (kessel.Length, bool) {
	unit, err := r.u8()
	if err != nil {
		return kessel.Length{}, false
	}
	v, err := r.f32()
	if err != nil {
		return kessel.Length{}, false
	}
	return kessel.Length{Value: v, Unit: unitFromWire(unit)}, true
}

func unitFromWire(tag uint8) kessel.Unit {
	switch tag {
	case unitPx:
		return kessel.UnitPx
	case unitPercent:
		return kessel.UnitPercent
	case unitEm:
		return kessel.UnitEm
	case unitVw:
		return kessel.UnitVw
	case unitVh:
		return kessel.UnitVh
	default:
		return kessel.UnitAuto
	}
}

// decodeStyles reads the style table in wire order. A style's `extends`
// entries may reference any in-range wire index (earlier or later), and
// AddStyle's sequential ID assignment lines up with the wire index exactly
// as it does for elements.
func decodeStyles(doc *kessel.Document, body []byte, strs []string) error {
	r := &reader{buf: body}
	count, err := r.u32()
	if err != nil {
		return err
	}
	styles := make([]kessel.Style, 0, count)
	for i := uint32(0); i < count; i++ {
		nameIdx, err := r.u32()
		if err != nil {
			return err
		}
		extCount, err := r.u8()
		if err != nil {
			return err
		}
		extends := make([]kessel.StyleId, extCount)
		for e := range extends {
			idx, err := r.u32()
			if err != nil {
				return err
			}
			if idx >= count {
				return errDangling(r.pos, "style extends index is out of range")
			}
			extends[e] = kessel.StyleId(idx)
		}

		base := make(map[kessel.Key]kessel.Value)
		if err := decodeProps(r, strs, func(k kessel.Key, v kessel.Value) { base[k] = v }); err != nil {
			return err
		}

		pseudoCount, err := r.u8()
		if err != nil {
			return err
		}
		pseudo := make(map[kessel.PseudoState]map[kessel.Key]kessel.Value, pseudoCount)
		for p := uint8(0); p < pseudoCount; p++ {
			mask, err := r.u8()
			if err != nil {
				return err
			}
			overlay := make(map[kessel.Key]kessel.Value)
			if err := decodeProps(r, strs, func(k kessel.Key, v kessel.Value) { overlay[k] = v }); err != nil {
				return err
			}
			pseudo[kessel.PseudoState(mask)] = overlay
		}

		styles = append(styles, kessel.Style{Name: lookupString(strs, nameIdx), Extends: extends, Base: base, Pseudo: pseudo})
	}
	if id, found := kessel.DetectStyleCycles(styles); found {
		return errCyclicStyle(int(id), "style extends graph contains a cycle")
	}
	for _, s := range styles {
		doc.AddStyle(s)
	}
	return nil
}

// validateStyleReferences checks, after both elements and styles are fully
// decoded, that every element's assigned style id actually exists --
// elements are decoded before styles (section order is arbitrary), so this
// cross-reference can only be checked once both sections are loaded.
func validateStyleReferences(doc *kessel.Document) error {
	n := doc.ElementCount()
	for i := 0; i < n; i++ {
		el := kessel.ElementId(i)
		style := doc.StyleOf(el)
		if style != kessel.NoStyle && int(style) >= doc.StyleCount() {
			return errDangling(i, "element style_id does not reference a decoded style")
		}
	}
	return nil
}

func decodeResources(doc *kessel.Document, body []byte, strs []string, blob []byte) error {
	r := &reader{buf: body}
	count, err := r.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		kindTag, err := r.u8()
		if err != nil {
			return err
		}
		nameIdx, err := r.u32()
		if err != nil {
			return err
		}
		offset, err := r.u32()
		if err != nil {
			return err
		}
		length, err := r.u32()
		if err != nil {
			return err
		}
		doc.AddResource(resourceKindFromWire(kindTag), lookupString(strs, nameIdx), blob, offset, length)
	}
	return nil
}

func resourceKindFromWire(tag uint8) kessel.ResourceKind {
	switch tag {
	case 0:
		return kessel.ResourceImage
	case 1:
		return kessel.ResourceFont
	case 2:
		return kessel.ResourceScript
	default:
		return kessel.ResourceBlob
	}
}

func decodeScripts(doc *kessel.Document, body []byte, strs []string) error {
	r := &reader{buf: body}
	count, err := r.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		langTag, err := r.u8()
		if err != nil {
			return err
		}
		srcIdx, err := r.u32()
		if err != nil {
			return err
		}
		exportCount, err := r.u8()
		if err != nil {
			return err
		}
		exports := make([]string, exportCount)
		for e := range exports {
			idx, err := r.u32()
			if err != nil {
				return err
			}
			exports[e] = lookupString(strs, idx)
		}
		doc.AddScript(kessel.ScriptModule{
			Language: langFromWire(langTag),
			Source:   lookupString(strs, srcIdx),
			Exports:  exports,
		})
	}
	return nil
}

func langFromWire(tag uint8) kessel.ScriptLanguage {
	switch tag {
	case langLua:
		return kessel.LangLua
	case langJS:
		return kessel.LangJS
	case langPython:
		return kessel.LangPython
	default:
		return kessel.LangWren
	}
}

func decodeVariables(doc *kessel.Document, body []byte, strs []string) error {
	r := &reader{buf: body}
	count, err := r.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		nameIdx, err := r.u32()
		if err != nil {
			return err
		}
		initIdx, err := r.u32()
		if err != nil {
			return err
		}
		doc.DeclareVariable(lookupString(strs, nameIdx), lookupString(strs, initIdx))
	}
	return nil
}
