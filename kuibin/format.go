// Package kuibin implements the binary parser and serializer for the
// compiled "CUI" document format (spec.md §4.A), grounded on the
// retrieved Kryon KRB1 reader/writer pair (waozixyz-kryc/types.go,
// writer.go, parser.go) for section layout and element-header shape,
// adapted to this spec's wider property set and DAG-shaped style
// `extends` graph.
package kuibin

// Magic is the 4-byte file signature every CUI stream begins with.
const Magic = "CUI1"

// VersionMajor/VersionMinor are the format version this package reads and
// writes. A major-version mismatch is a hard parse failure; an unknown
// minor version is accepted (forward-compatible: unknown sections and
// unknown per-element properties are skipped, never fatal, per spec.md
// §4.A "Output" / Non-goals).
const (
	VersionMajor uint8 = 1
	VersionMinor uint8 = 0
)

// minorCompressedBit, when set in the minor-version byte, selects zstd
// compression for the string-table section, resolving Open Question (c)
// in spec.md §9 (ratified in SPEC_FULL.md).
const minorCompressedBit uint8 = 1 << 7

// headerSize is the fixed-size portion of the file preceding the section
// table: magic(4) + versionMajor(1) + versionMinor(1) + flags(2) +
// sectionCount(2) + reserved(2) = 12 bytes.
const headerSize = 12

// sectionEntrySize is id(uint16) + offset(uint32) + length(uint32).
const sectionEntrySize = 10

// Section identifies one section of the section table. Unknown IDs
// encountered while reading are skipped wholesale using their recorded
// offset/length, which is how the format stays forward-compatible with
// future sections (spec.md §4.A).
type sectionID uint16

const (
	sectionStrings    sectionID = 1
	sectionElements   sectionID = 2
	sectionStyles     sectionID = 3
	sectionResources  sectionID = 4
	sectionScripts    sectionID = 5
	sectionVariables  sectionID = 6
	sectionBlob       sectionID = 7
	sectionPropBlocks sectionID = 8
)

// maxKnownSection is the highest sectionID this reader understands. Kind 0
// never appears on a validly-written stream (every section above starts at
// 1), so a section table entry with kind 0 signals corrupt data rather than
// a section from a newer format -- that case is rejected as UnknownSection.
// Anything above maxKnownSection is tolerated and skipped per spec.md §4.A
// "readers must skip sections with unknown kind".
const maxKnownSection sectionID = sectionPropBlocks

// Element kind tags, stable across format versions. Matches kessel.Kind's
// ordering but is declared independently so a future kessel.Kind addition
// never silently renumbers the wire format.
const (
	elemApp uint8 = iota
	elemContainer
	elemText
	elemButton
	elemImage
	elemInput
	elemCheckbox
	elemSlider
	elemComponent
)

// Value-kind tags for the wire encoding of a property value. Matches
// kessel.ValueKind's ordering for the same reason as the element tags
// above.
const (
	valNone uint8 = iota
	valInt
	valFloat
	valBool
	valColor
	valString
	valLength
	valEdges
	valTransform
	valResource
	valEnum
)

// Length-unit tags for the wire encoding of a kessel.Length.
const (
	unitPx uint8 = iota
	unitPercent
	unitEm
	unitVw
	unitVh
	unitAuto
)

// noIndex is the wire sentinel for "absent" uint32-indexed references
// (parent element, style, string, resource).
const noIndex uint32 = 0xFFFFFFFF

// Script-language tags for the wire encoding of kessel.ScriptLanguage.
const (
	langLua uint8 = iota
	langJS
	langPython
	langWren
)
