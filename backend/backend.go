// Package backend defines the narrow contract a host hands the command
// stream produced by the engine's Command Translator to for actual
// painting. It is deliberately thin: the engine core never imports a
// concrete backend, matching spec.md §1's "pixel rasterization... are
// external collaborators, not owned by this spec."
package backend

// Kind tags which family of backend a host is configured to use.
type Kind uint8

const (
	// KindNative2D is a retained 2D rasterizer backend such as
	// ebitenbackend.
	KindNative2D Kind = iota
	// KindGPU is a reserved tag for a future GPU-native backend.
	KindGPU
	// KindTerminal is a reserved tag for a text/terminal renderer.
	KindTerminal
)

// Renderer consumes one frame's worth of opaque render commands. The
// engine core passes kessel.Command values through an any-typed slice so
// this package has no import-cycle dependency on the root package; a
// concrete Renderer type-asserts back to the concrete command type it
// knows how to paint.
type Renderer interface {
	// BeginFrame is called once before any commands for a frame, given
	// the current viewport size in device pixels.
	BeginFrame(width, height float32)

	// Submit paints the ordered command stream for the frame.
	Submit(commands []any)

	// EndFrame is called once after Submit, before the backend presents
	// the frame to the screen/window.
	EndFrame()
}
