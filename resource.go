package kessel

// ResourceKind tags the payload a Resource handle refers to.
type ResourceKind uint8

const (
	ResourceImage ResourceKind = iota
	ResourceFont
	ResourceScript
	ResourceBlob
)

// Resource is a tagged handle into the document's resource table. Bytes are
// resolved lazily: the parser records offset/length into the CUI file but
// does not materialize pixel/glyph/binary data until first use (spec.md
// §4.A "Output").
type Resource struct {
	ID      ResourceId
	Kind    ResourceKind
	Name    string
	offset  uint32
	length  uint32
	source  []byte // the full CUI byte buffer, retained for lazy materialization
	data    []byte // materialized payload, nil until Materialize is called
	err     error
}

// Materialize loads the resource's bytes on first access and caches them.
// Subsequent calls are free. A corrupt/out-of-range resource reports
// ResourceError and the caller is expected to substitute a placeholder.
func (r *Resource) Materialize() ([]byte, error) {
	if r.data != nil || r.err != nil {
		return r.data, r.err
	}
	if int(r.offset)+int(r.length) > len(r.source) || r.length == 0 {
		r.err = &ResourceError{Resource: r.ID, Detail: "byte range out of bounds"}
		return nil, r.err
	}
	r.data = r.source[r.offset : r.offset+r.length]
	return r.data, nil
}

// AddResource registers a lazily-materialized resource backed by a byte
// range of source. Handles are stable for the document's lifetime
// (spec.md §5 "Shared resources").
func (d *Document) AddResource(kind ResourceKind, name string, source []byte, offset, length uint32) ResourceId {
	id := ResourceId(len(d.resources))
	d.resources = append(d.resources, Resource{
		ID: id, Kind: kind, Name: name, source: source, offset: offset, length: length,
	})
	return id
}

// ResourceCount returns the number of registered resources.
func (d *Document) ResourceCount() int { return len(d.resources) }

// Resource looks up a resource by handle.
func (d *Document) Resource(id ResourceId) *Resource {
	if int(id) < 0 || int(id) >= len(d.resources) {
		return nil
	}
	return &d.resources[id]
}

// ScriptLanguage tags the interpreter a ScriptModule targets.
type ScriptLanguage string

const (
	LangLua    ScriptLanguage = "lua"
	LangJS     ScriptLanguage = "js"
	LangPython ScriptLanguage = "python"
	LangWren   ScriptLanguage = "wren"
)

// ScriptModule is one embedded script's source plus its exported function
// names, as produced by the binary parser's script table.
type ScriptModule struct {
	ID       ScriptId
	Language ScriptLanguage
	Source   string
	Exports  []string
}

// AddScript registers a script module.
func (d *Document) AddScript(m ScriptModule) ScriptId {
	m.ID = ScriptId(len(d.scripts))
	d.scripts = append(d.scripts, m)
	return m.ID
}

// Scripts returns every registered script module.
func (d *Document) Scripts() []ScriptModule { return d.scripts }

// ReactiveVariable is a named string cell with a change-log bit (spec.md
// §3). The canonical value is always a string; each VM coerces on read.
type ReactiveVariable struct {
	Name    string
	value   string
	changed bool
}

// DeclareVariable registers a reactive variable with an initial value.
// Re-declaring an existing name resets its value.
func (d *Document) DeclareVariable(name, initial string) *ReactiveVariable {
	v := &ReactiveVariable{Name: name, value: initial}
	d.reactive[name] = v
	return v
}

// Variable looks up a reactive variable by name.
func (d *Document) Variable(name string) (*ReactiveVariable, bool) {
	v, ok := d.reactive[name]
	return v, ok
}

// Variables returns every declared reactive variable.
func (d *Document) Variables() map[string]*ReactiveVariable { return d.reactive }

// Value returns the variable's current string value.
func (v *ReactiveVariable) Value() string { return v.value }

// Changed reports whether the variable was written since the last drain.
func (v *ReactiveVariable) Changed() bool { return v.changed }

// set is used by the mutation drain (script/bridge.go via Document.ApplyVariableWrite).
func (v *ReactiveVariable) set(value string) {
	if v.value == value {
		return
	}
	v.value = value
	v.changed = true
}

// ApplyVariableWrite commits a queued reactive-variable write. Called by
// the host's mutation drain, never directly by scripts (spec.md §4.F).
func (d *Document) ApplyVariableWrite(name, value string) {
	v, ok := d.reactive[name]
	if !ok {
		v = d.DeclareVariable(name, "")
	}
	v.set(value)
}

// DrainVariableChanges clears every variable's changed flag and returns the
// names that had changed this frame; the caller (Driver.Tick) then
// recomputes dependent text from those names.
func (d *Document) DrainVariableChanges() []string {
	var changed []string
	for name, v := range d.reactive {
		if v.changed {
			changed = append(changed, name)
			v.changed = false
		}
	}
	return changed
}
