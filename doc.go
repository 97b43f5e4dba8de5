// Package kessel is a runtime engine for compiled cross-platform UI
// documents: style resolution, flex/box layout, a backend-neutral render
// command stream, and input dispatch over a dense integer-handle element
// arena.
//
// A compiled UI ("CUI") binary is decoded with [github.com/kessel-ui/kessel/kuibin]
// into a [Document]. Each frame a host calls [Driver.Tick] to dispatch
// injected input, drain any queued script mutations, resolve styles, run
// layout and translate the tree into a [CommandKind] stream, then
// [Driver.Paint] to submit that stream to a [backend.Renderer].
//
// # Quick start
//
//	doc, err := kuibin.Decode(raw)
//	render := ebitenbackend.New(face)
//	driver := kessel.NewDriver(doc, kessel.EngineConfig{
//		BackendKind: backend.KindNative2D,
//		ViewportWidth: 800, ViewportHeight: 600,
//	}, render)
//
// Embedded scripts are bridged through the separate
// [github.com/kessel-ui/kessel/script] package, which implements
// [ScriptDrainer] without pulling any VM dependency into this package's
// import graph.
package kessel
