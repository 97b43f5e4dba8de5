package kessel

// syntheticPointerEvent is one queued pointer event, adapted from the
// teacher's inject.go so headless tests can drive the event dispatcher
// without a real backend.
type syntheticPointerEvent struct {
	x, y   float32
	kind   InputEventKind
	button MouseButton
}

// InjectPress queues a pointer-down event at document coordinates (x, y).
// Consumed on the next DrainInjected call.
func (d *Document) InjectPress(x, y float32) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, kind: InputPointerDown, button: MouseLeft})
}

// InjectMove queues a pointer-move event at document coordinates (x, y).
func (d *Document) InjectMove(x, y float32) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, kind: InputPointerMove, button: MouseLeft})
}

// InjectRelease queues a pointer-up event at document coordinates (x, y).
func (d *Document) InjectRelease(x, y float32) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{x: x, y: y, kind: InputPointerUp, button: MouseLeft})
}

// InjectClick queues a press immediately followed by a release at the same
// point, consuming two DrainInjected calls.
func (d *Document) InjectClick(x, y float32) {
	d.InjectPress(x, y)
	d.InjectRelease(x, y)
}

// InjectDrag queues a press, frames-2 linearly interpolated moves, and a
// release, simulating a drag from (fromX, fromY) to (toX, toY) over frames
// DrainInjected calls. Minimum is 2 frames (press + release).
func (d *Document) InjectDrag(fromX, fromY, toX, toY float32, frames int) {
	if frames < 2 {
		frames = 2
	}
	d.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float32(i) / float32(steps+1)
		d.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	d.InjectRelease(toX, toY)
}

// DrainInjected pops and dispatches one queued synthetic event, returning
// true if an event was consumed. A host's frame driver calls this instead
// of reading real backend input when a test has injected events (spec.md
// §8 test scenarios rely on deterministic synthetic input).
func (d *Document) DrainInjected() bool {
	if len(d.injectQueue) == 0 {
		return false
	}
	evt := d.injectQueue[0]
	copy(d.injectQueue, d.injectQueue[1:])
	d.injectQueue = d.injectQueue[:len(d.injectQueue)-1]
	d.dispatcher.DispatchPointer(evt.kind, evt.x, evt.y, evt.button, 0)
	return true
}

// HasInjected reports whether any synthetic events remain queued.
func (d *Document) HasInjected() bool {
	return len(d.injectQueue) > 0
}
