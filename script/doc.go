// Package script implements the embedded-script bridge described in
// spec.md §4.F: a per-language VM registry, opaque proxy objects that
// queue mutations instead of touching the document tree directly, and a
// batched drain-and-apply of those mutations once per frame. It is kept
// separate from the root kessel package so the core engine never imports
// gopher-lua or v8go directly -- kessel.ScriptDrainer (config.go) is the
// only seam, mirroring the way the teacher keeps ebiten out of the root
// scene graph package.
package script
