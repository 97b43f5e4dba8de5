package kuibin

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/kessel-ui/kessel"
)

// EncodeOptions controls Encode's output shape.
type EncodeOptions struct {
	// Compress selects zstd compression for the string-table section.
	Compress bool
}

// Encode serializes doc into a CUI byte stream, the round-trip
// counterpart to Decode. New code: nothing in the retrieved pack writes
// KRB1, only reads it, so the section-table shape is reused but the
// writer itself follows this package's own reader, not a ported
// writer.go.
func Encode(doc *kessel.Document, opts EncodeOptions) ([]byte, error) {
	strs := newStringInterner()
	pool := newPropPoolWriter()

	elementsBody := encodeElements(doc, strs, pool)
	stylesBody := encodeStyles(doc, strs)
	resourcesBody, blobBody := encodeResources(doc, strs)
	scriptsBody := encodeScripts(doc, strs)
	variablesBody := encodeVariables(doc, strs)

	stringsBody, err := encodeStringTable(strs.Strings(), opts.Compress)
	if err != nil {
		return nil, err
	}

	type section struct {
		id   sectionID
		body []byte
	}
	sections := []section{
		{sectionStrings, stringsBody},
		{sectionElements, elementsBody},
		{sectionStyles, stylesBody},
		{sectionResources, resourcesBody},
		{sectionScripts, scriptsBody},
		{sectionVariables, variablesBody},
		{sectionBlob, blobBody},
		{sectionPropBlocks, pool.bytes},
	}

	headerAndTable := headerSize + len(sections)*sectionEntrySize
	offset := uint32(headerAndTable)

	var table []byte
	var bodies []byte
	for _, s := range sections {
		table = binary.LittleEndian.AppendUint16(table, uint16(s.id))
		table = binary.LittleEndian.AppendUint32(table, offset)
		table = binary.LittleEndian.AppendUint32(table, uint32(len(s.body)))
		bodies = append(bodies, s.body...)
		offset += uint32(len(s.body))
	}

	var out []byte
	out = append(out, Magic...)
	out = append(out, VersionMajor)
	minor := VersionMinor
	if opts.Compress {
		minor |= minorCompressedBit
	}
	out = append(out, minor)
	out = binary.LittleEndian.AppendUint16(out, 0) // flags
	out = binary.LittleEndian.AppendUint16(out, uint16(len(sections)))
	out = binary.LittleEndian.AppendUint16(out, 0) // reserved
	out = append(out, table...)
	out = append(out, bodies...)
	return out, nil
}

func appendU8(b []byte, v uint8) []byte   { return append(b, v) }
func appendU16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func appendU32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }
func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func encodeElements(doc *kessel.Document, strs *stringInterner, pool *propPoolWriter) []byte {
	var b []byte
	n := doc.ElementCount()
	b = appendU32(b, uint32(n))
	for i := 0; i < n; i++ {
		el := kessel.ElementId(i)
		kindTag := kindToWire(elementKind(doc, el))
		b = appendU8(b, kindTag)

		parent := elementParent(doc, el)
		if parent == kessel.NoElement {
			b = appendU32(b, noIndex)
		} else {
			b = appendU32(b, uint32(parent))
		}

		style := doc.StyleOf(el)
		if style == kessel.NoStyle {
			b = appendU32(b, noIndex)
		} else {
			b = appendU32(b, uint32(style))
		}

		b = appendU32(b, strs.Intern(elementStringID(doc, el)))
		if elementVisible(doc, el) {
			b = appendU8(b, 1)
		} else {
			b = appendU8(b, 0)
		}

		props := doc.InlineProperties(el)
		if len(props) == 0 {
			b = appendU32(b, noIndex)
		} else {
			b = appendU32(b, pool.Intern(encodeProps(nil, props, strs)))
		}

		events := doc.Events(el)
		b = appendU16(b, uint16(len(events)))
		for _, ev := range events {
			b = appendU8(b, uint8(ev.Kind))
			b = appendU32(b, strs.Intern(ev.ScriptFn))
		}
	}
	return b
}

// propPoolWriter builds the shared property-block pool elements reference by
// offset, content-interning each block the same way stringInterner
// content-interns strings: two elements with byte-identical inline property
// sets get the same offset rather than two copies (spec.md §4.A
// "Property-block sharing").
type propPoolWriter struct {
	bytes   []byte
	offsets map[string]uint32
}

func newPropPoolWriter() *propPoolWriter {
	return &propPoolWriter{offsets: make(map[string]uint32)}
}

// Intern appends block to the pool and returns its offset, reusing an
// existing offset if this exact block was already interned.
func (p *propPoolWriter) Intern(block []byte) uint32 {
	key := string(block)
	if off, ok := p.offsets[key]; ok {
		return off
	}
	off := uint32(len(p.bytes))
	p.offsets[key] = off
	p.bytes = append(p.bytes, block...)
	return off
}

// encodeProps writes props in ascending key order so that two elements with
// the same property set always serialize to identical bytes -- required for
// propPoolWriter's content-based interning to actually find the duplicate
// (Go map iteration order is randomized, so encoding in map order would
// make byte-identical blocks compare unequal about half the time).
func encodeProps(b []byte, props map[kessel.Key]kessel.Value, strs *stringInterner) []byte {
	keys := make([]kessel.Key, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	b = appendU16(b, uint16(len(props)))
	for _, k := range keys {
		v := props[k]
		kindTag, raw := encodeValue(v, strs)
		b = appendU16(b, uint16(k))
		b = appendU8(b, kindTag)
		b = appendU16(b, uint16(len(raw)))
		b = append(b, raw...)
	}
	return b
}

func encodeValue(v kessel.Value, strs *stringInterner) (uint8, []byte) {
	switch v.Kind {
	case kessel.KindInt:
		var raw []byte
		raw = binary.LittleEndian.AppendUint64(raw, uint64(v.I))
		return valInt, raw
	case kessel.KindFloat:
		return valFloat, appendF32(nil, v.F)
	case kessel.KindBool:
		if v.B {
			return valBool, []byte{1}
		}
		return valBool, []byte{0}
	case kessel.KindColor:
		return valColor, []byte{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
	case kessel.KindString:
		return valString, appendU32(nil, strs.Intern(v.Str))
	case kessel.KindLength:
		return valLength, encodeLength(v.Len)
	case kessel.KindEdges:
		var raw []byte
		raw = append(raw, encodeLength(v.Edges.Top)...)
		raw = append(raw, encodeLength(v.Edges.Right)...)
		raw = append(raw, encodeLength(v.Edges.Bottom)...)
		raw = append(raw, encodeLength(v.Edges.Left)...)
		return valEdges, raw
	case kessel.KindTransform:
		var raw []byte
		for _, f := range v.Xform {
			raw = appendF32(raw, f)
		}
		return valTransform, raw
	case kessel.KindResource:
		return valResource, appendU32(nil, uint32(v.Res))
	case kessel.KindEnum:
		return valEnum, appendU32(nil, v.Enum)
	default:
		return valNone, nil
	}
}

func encodeLength(l kessel.Length) []byte {
	b := []byte{unitToWire(l.Unit)}
	return appendF32(b, l.Value)
}

func unitToWire(u kessel.Unit) uint8 {
	switch u {
	case kessel.UnitPx:
		return unitPx
	case kessel.UnitPercent:
		return unitPercent
	case kessel.UnitEm:
		return unitEm
	case kessel.UnitVw:
		return unitVw
	case kessel.UnitVh:
		return unitVh
	default:
		return unitAuto
	}
}

func kindToWire(k kessel.Kind) uint8 {
	switch k {
	case kessel.KindApp:
		return elemApp
	case kessel.KindContainer:
		return elemContainer
	case kessel.KindText:
		return elemText
	case kessel.KindButton:
		return elemButton
	case kessel.KindImage:
		return elemImage
	case kessel.KindInput:
		return elemInput
	case kessel.KindCheckbox:
		return elemCheckbox
	case kessel.KindSlider:
		return elemSlider
	default:
		return elemComponent
	}
}

func encodeStyles(doc *kessel.Document, strs *stringInterner) []byte {
	var b []byte
	n := doc.StyleCount()
	b = appendU32(b, uint32(n))
	for i := 0; i < n; i++ {
		s := doc.StyleByIndex(kessel.StyleId(i))
		b = appendU32(b, strs.Intern(s.Name))
		b = appendU8(b, uint8(len(s.Extends)))
		for _, e := range s.Extends {
			b = appendU32(b, uint32(e))
		}
		b = encodeProps(b, s.Base, strs)
		b = appendU8(b, uint8(len(s.Pseudo)))
		for mask, overlay := range s.Pseudo {
			b = appendU8(b, uint8(mask))
			b = encodeProps(b, overlay, strs)
		}
	}
	return b
}

func encodeResources(doc *kessel.Document, strs *stringInterner) (resourcesBody, blobBody []byte) {
	n := doc.ResourceCount()
	var b []byte
	b = appendU32(b, uint32(n))
	var blobOffset uint32
	for i := 0; i < n; i++ {
		res := doc.Resource(kessel.ResourceId(i))
		data, _ := res.Materialize()
		b = appendU8(b, resourceKindToWire(res.Kind))
		b = appendU32(b, strs.Intern(res.Name))
		b = appendU32(b, blobOffset)
		b = appendU32(b, uint32(len(data)))
		blobBody = append(blobBody, data...)
		blobOffset += uint32(len(data))
	}
	return b, blobBody
}

func resourceKindToWire(k kessel.ResourceKind) uint8 {
	switch k {
	case kessel.ResourceImage:
		return 0
	case kessel.ResourceFont:
		return 1
	case kessel.ResourceScript:
		return 2
	default:
		return 3
	}
}

func encodeScripts(doc *kessel.Document, strs *stringInterner) []byte {
	scripts := doc.Scripts()
	var b []byte
	b = appendU32(b, uint32(len(scripts)))
	for _, s := range scripts {
		b = appendU8(b, langToWire(s.Language))
		b = appendU32(b, strs.Intern(s.Source))
		b = appendU8(b, uint8(len(s.Exports)))
		for _, e := range s.Exports {
			b = appendU32(b, strs.Intern(e))
		}
	}
	return b
}

func langToWire(l kessel.ScriptLanguage) uint8 {
	switch l {
	case kessel.LangLua:
		return langLua
	case kessel.LangJS:
		return langJS
	case kessel.LangPython:
		return langPython
	default:
		return langWren
	}
}

func encodeVariables(doc *kessel.Document, strs *stringInterner) []byte {
	vars := doc.Variables()
	var b []byte
	b = appendU32(b, uint32(len(vars)))
	for name, v := range vars {
		b = appendU32(b, strs.Intern(name))
		b = appendU32(b, strs.Intern(v.Value()))
	}
	return b
}

func elementKind(doc *kessel.Document, el kessel.ElementId) kessel.Kind {
	return doc.ElementAt(el).Kind()
}

func elementParent(doc *kessel.Document, el kessel.ElementId) kessel.ElementId {
	return doc.ElementAt(el).Parent()
}

func elementStringID(doc *kessel.Document, el kessel.ElementId) string {
	return doc.ElementAt(el).StringID()
}

func elementVisible(doc *kessel.Document, el kessel.ElementId) bool {
	return doc.ElementAt(el).Visible()
}
