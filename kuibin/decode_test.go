package kuibin

import (
	"testing"

	"github.com/kessel-ui/kessel"
)

// TestMalformedMagicReturnsTypedErrorWithoutAllocating is spec.md §8
// scenario 5: a header with magic "XRB1" (wrong signature) must fail
// parsing with a located ParseError, and Decode must not return a partial
// document.
func TestMalformedMagicReturnsTypedErrorWithoutAllocating(t *testing.T) {
	data := make([]byte, headerSize)
	copy(data, "XRB1")

	doc, err := Decode(data)
	if err == nil {
		t.Fatal("Decode with bad magic: want error, got nil")
	}
	if doc != nil {
		t.Fatal("Decode with bad magic: want nil document")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("err = %T, want *ParseError", err)
	}
	if pe.Kind != "MalformedHeader" {
		t.Fatalf("pe.Kind = %q, want MalformedHeader", pe.Kind)
	}
	if pe.Offset != 0 {
		t.Fatalf("pe.Offset = %v, want 0", pe.Offset)
	}
}

func TestTruncatedHeaderFails(t *testing.T) {
	_, err := Decode([]byte{'C', 'U', 'I'})
	if err == nil {
		t.Fatal("Decode with a 3-byte buffer: want error, got nil")
	}
}

func TestUnsupportedMajorVersionFails(t *testing.T) {
	data := make([]byte, headerSize)
	copy(data, Magic)
	data[4] = VersionMajor + 1

	_, err := Decode(data)
	if err == nil {
		t.Fatal("Decode with a future major version: want error, got nil")
	}
}

// TestEncodeDecodeRoundTrip exercises spec.md §8's "parse ∘ serialize =
// identity" property for a small document: one styled, positioned
// container with a text child.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := kessel.NewDocument()
	container := doc.CreateElement(kessel.KindContainer, doc.Root())
	doc.SetStringID(container, "panel")
	doc.SetProperty(container, kessel.KeyWidth, kessel.LengthValue(kessel.Px(200)))
	doc.SetProperty(container, kessel.KeyHeight, kessel.LengthValue(kessel.Percent(50)))
	doc.SetProperty(container, kessel.KeyBackgroundColor, kessel.ColorValue(kessel.Color{R: 10, G: 20, B: 30, A: 255}))

	text := doc.CreateElement(kessel.KindText, container)
	doc.SetProperty(text, kessel.KeyTextContent, kessel.StringValue("Hello"))
	doc.SetProperty(text, kessel.KeyFontSize, kessel.FloatValue(16))

	raw, err := Encode(doc, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode(Encode(doc)): %v", err)
	}

	if got.ElementCount() != doc.ElementCount() {
		t.Fatalf("round-tripped element count = %v, want %v", got.ElementCount(), doc.ElementCount())
	}
	gotContainer, ok := got.FindByID("panel")
	if !ok {
		t.Fatal("round-tripped document: #panel not found")
	}
	w, ok := got.GetInlineProperty(gotContainer, kessel.KeyWidth)
	if !ok || w.Len != kessel.Px(200) {
		t.Fatalf("round-tripped width = %+v (ok=%v), want 200px", w.Len, ok)
	}
	gotText := got.ElementAt(gotContainer).Children()[0]
	textVal, ok := got.GetInlineProperty(gotText, kessel.KeyTextContent)
	if !ok || textVal.Str != "Hello" {
		t.Fatalf("round-tripped text content = %q (ok=%v), want %q", textVal.Str, ok, "Hello")
	}
}

// TestEncodeDecodeRoundTripCompressed exercises the zstd string-table path
// (Open Question (c), ratified in SPEC_FULL.md).
func TestEncodeDecodeRoundTripCompressed(t *testing.T) {
	doc := kessel.NewDocument()
	el := doc.CreateElement(kessel.KindText, doc.Root())
	doc.SetProperty(el, kessel.KeyTextContent, kessel.StringValue("compressed round trip"))

	raw, err := Encode(doc, EncodeOptions{Compress: true})
	if err != nil {
		t.Fatalf("Encode(compress): %v", err)
	}
	if raw[5]&0x80 == 0 {
		t.Fatal("encoded minor-version byte does not carry the compressed-string-table bit")
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode(Encode(doc, compressed)): %v", err)
	}
	gotEl := got.ElementAt(kessel.ElementId(1))
	textVal, ok := got.GetInlineProperty(gotEl.Id(), kessel.KeyTextContent)
	if !ok || textVal.Str != "compressed round trip" {
		t.Fatal("compressed string table did not round-trip text content")
	}
}

// TestPropertyBlockPoolDeduplicatesIdenticalBlocks is spec.md §4.A's
// "Property-block sharing": three elements declaring the exact same inline
// properties must share a single block in the encoded property-block pool.
func TestPropertyBlockPoolDeduplicatesIdenticalBlocks(t *testing.T) {
	doc := kessel.NewDocument()
	for i := 0; i < 3; i++ {
		el := doc.CreateElement(kessel.KindContainer, doc.Root())
		doc.SetProperty(el, kessel.KeyWidth, kessel.LengthValue(kessel.Px(100)))
		doc.SetProperty(el, kessel.KeyBackgroundColor, kessel.ColorValue(kessel.Color{R: 1, A: 255}))
	}

	strs := newStringInterner()
	pool := newPropPoolWriter()
	encodeElements(doc, strs, pool)

	if got := len(pool.offsets); got != 1 {
		t.Fatalf("pool interned %d distinct blocks, want 1 (all three elements share identical properties)", got)
	}

	raw, err := Encode(doc, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode(Encode(doc)): %v", err)
	}
	root := got.Root()
	for _, child := range got.ElementAt(root).Children() {
		w, ok := got.GetInlineProperty(child, kessel.KeyWidth)
		if !ok || w.Len != kessel.Px(100) {
			t.Fatalf("round-tripped width = %+v (ok=%v), want 100px", w.Len, ok)
		}
	}
}

// TestCyclicStyleExtendsRejectedAtParseTime is spec.md §4.A: a style whose
// extends graph contains a cycle must abort the load with a CyclicStyle
// ParseError, not merely be guarded against later by the resolver.
func TestCyclicStyleExtendsRejectedAtParseTime(t *testing.T) {
	doc := kessel.NewDocument()
	a := doc.AddStyle(kessel.Style{Name: "a"})
	b := doc.AddStyle(kessel.Style{Name: "b", Extends: []kessel.StyleId{a}})
	// Rewrite "a" in place to extend "b", completing a cycle a -> b -> a.
	*doc.StyleByIndex(a) = kessel.Style{ID: a, Name: "a", Extends: []kessel.StyleId{b}}

	raw, err := Encode(doc, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = Decode(raw)
	if err == nil {
		t.Fatal("Decode with a cyclic style extends graph: want error, got nil")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != "CyclicStyle" {
		t.Fatalf("err = %#v, want *ParseError{Kind: \"CyclicStyle\"}", err)
	}
}

// TestDanglingParentIndexFailsWithTypedErrorNotPanic is spec.md §4.A: a
// corrupt parent_idx must surface as a DanglingReference ParseError, not
// panic via raw array indexing.
func TestDanglingParentIndexFailsWithTypedErrorNotPanic(t *testing.T) {
	doc := kessel.NewDocument()
	doc.CreateElement(kessel.KindContainer, doc.Root())
	raw, err := Encode(doc, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	body, ok := locateSection(raw, sectionElements)
	if !ok {
		t.Fatal("encoded stream has no elements section")
	}
	// Walk past element 0 (the root)'s fixed-size fields plus its variable
	// event list to find element 1's parent_idx field.
	pos := 4 + 1 + 4 + 4 + 4 + 1 + 4 // count:u32, kind:u8, parent_idx:u32, style_idx:u32, string_id_idx:u32, visible:u8, prop_offset:u32
	eventCount := int(body[pos]) | int(body[pos+1])<<8
	pos += 2 + eventCount*5 // event_count:u16, then each event is kind:u8 + script_fn:u32
	pos += 1                // element 1's kind:u8
	parentIdxOff := pos
	binaryLittleEndianPutUint32(body[parentIdxOff:], 0xDEADBEEF)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Decode panicked on a corrupt parent_idx instead of returning an error: %v", r)
		}
	}()
	_, err = Decode(raw)
	if err == nil {
		t.Fatal("Decode with a dangling parent_idx: want error, got nil")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != "DanglingReference" {
		t.Fatalf("err = %#v, want *ParseError{Kind: \"DanglingReference\"}", err)
	}
}

func locateSection(raw []byte, id sectionID) ([]byte, bool) {
	count := int(raw[8]) | int(raw[9])<<8
	pos := headerSize
	for i := 0; i < count; i++ {
		sid := int(raw[pos]) | int(raw[pos+1])<<8
		off := binaryLittleEndianUint32(raw[pos+2:])
		length := binaryLittleEndianUint32(raw[pos+6:])
		if sectionID(sid) == id {
			return raw[off : off+length], true
		}
		pos += sectionEntrySize
	}
	return nil, false
}

func binaryLittleEndianUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func binaryLittleEndianPutUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
