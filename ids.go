package kessel

// ElementId is a stable, dense handle into a Document's element arena.
// Assigned in document order by the parser; never reused within a document.
type ElementId uint32

// NoElement is the sentinel value meaning "no element" (e.g. a root's parent).
const NoElement ElementId = 0xFFFFFFFF

// StyleId indexes a Document's style table.
type StyleId uint32

// NoStyle means "no style assigned".
const NoStyle StyleId = 0xFFFFFFFF

// ResourceId indexes a Document's resource table.
type ResourceId uint32

// ScriptId indexes a Document's script module table.
type ScriptId uint32

// StringId indexes the interned string table produced by the binary parser.
type StringId uint32
