// Package ebitenbackend is a reference implementation of backend.Renderer
// built on Ebitengine, grounded on the teacher's render.go traversal/
// submission split and text.go's use of ebiten/v2/text/v2 for glyph
// rendering. It exists to give the command stream a concrete consumer and
// is not part of the engine core (spec.md §1 external collaborator).
package ebitenbackend

import (
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/kessel-ui/kessel"
)

// Backend paints a kessel command stream into an ebiten.Image each frame.
type Backend struct {
	Face text.Face

	screen        *ebiten.Image
	width, height float32

	imageCache map[kessel.ResourceId]*ebiten.Image
	mu         sync.Mutex

	clipStack     []*ebiten.Image
	transformStack []ebiten.GeoM
	alpha         float32
}

// New returns a Backend using face for text rendering. With a nil Face,
// DrawText commands draw nothing.
func New(face text.Face) *Backend {
	return &Backend{Face: face, imageCache: make(map[kessel.ResourceId]*ebiten.Image), alpha: 1}
}

// BeginFrame implements backend.Renderer.
func (b *Backend) BeginFrame(width, height float32) {
	b.width, b.height = width, height
	b.clipStack = b.clipStack[:0]
	b.transformStack = b.transformStack[:0]
	b.alpha = 1
}

// Attach binds the ebiten.Image this frame paints into. Called by the
// host's ebiten.Game.Draw before Submit.
func (b *Backend) Attach(screen *ebiten.Image) {
	b.screen = screen
}

// Submit implements backend.Renderer. commands are expected to be
// []kessel.Command; any other element type is skipped.
func (b *Backend) Submit(commands []any) {
	if b.screen == nil {
		return
	}
	for _, c := range commands {
		cmd, ok := c.(kessel.Command)
		if !ok {
			continue
		}
		b.paint(cmd)
	}
}

// EndFrame implements backend.Renderer.
func (b *Backend) EndFrame() {
	b.screen = nil
}

func (b *Backend) target() *ebiten.Image {
	if n := len(b.clipStack); n > 0 {
		return b.clipStack[n-1]
	}
	return b.screen
}

func (b *Backend) paint(cmd kessel.Command) {
	switch cmd.Kind {
	case kessel.CmdPushTransform:
		b.transformStack = append(b.transformStack, affineToGeoM(cmd.Transform))
	case kessel.CmdPopTransform:
		if n := len(b.transformStack); n > 0 {
			b.transformStack = b.transformStack[:n-1]
		}
	case kessel.CmdPushClip:
		sub := b.target().SubImage(image.Rect(
			int(cmd.Rect.X), int(cmd.Rect.Y),
			int(cmd.Rect.X+cmd.Rect.Width), int(cmd.Rect.Y+cmd.Rect.Height),
		)).(*ebiten.Image)
		b.clipStack = append(b.clipStack, sub)
	case kessel.CmdPopClip:
		if n := len(b.clipStack); n > 0 {
			b.clipStack = b.clipStack[:n-1]
		}
	case kessel.CmdSetGlobalAlpha:
		b.alpha = cmd.Alpha
	case kessel.CmdDrawRect:
		b.drawRect(cmd)
	case kessel.CmdDrawText:
		b.drawText(cmd)
	case kessel.CmdDrawImage:
		b.drawImage(cmd)
	case kessel.CmdDrawTextInput:
		b.drawTextInput(cmd)
	case kessel.CmdDrawCheckbox:
		b.drawCheckbox(cmd)
	case kessel.CmdDrawSlider:
		b.drawSlider(cmd)
	}
}

func (b *Backend) drawRect(cmd kessel.Command) {
	dst := b.target()
	if dst == nil {
		return
	}
	r := cmd.Rect
	if cmd.Fill.A != 0 {
		vector.DrawFilledRect(dst, r.X, r.Y, r.Width, r.Height, toRGBA(cmd.Fill, b.alpha), false)
	}
	if cmd.Stroke.A != 0 {
		vector.StrokeRect(dst, r.X, r.Y, r.Width, r.Height, 1, toRGBA(cmd.Stroke, b.alpha), false)
	}
}

func (b *Backend) drawText(cmd kessel.Command) {
	dst := b.target()
	if dst == nil || b.Face == nil || cmd.Text == "" {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(cmd.Rect.X), float64(cmd.Rect.Y))
	op.ColorScale.ScaleWithColor(toRGBA(cmd.TextColor, b.alpha))
	text.Draw(dst, cmd.Text, b.Face, op)
}

func (b *Backend) drawImage(cmd kessel.Command) {
	dst := b.target()
	res := b.resolveImage(cmd.Resource)
	if dst == nil || res == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	sw, sh := res.Bounds().Dx(), res.Bounds().Dy()
	if sw > 0 && sh > 0 {
		op.GeoM.Scale(float64(cmd.Rect.Width)/float64(sw), float64(cmd.Rect.Height)/float64(sh))
	}
	op.GeoM.Translate(float64(cmd.Rect.X), float64(cmd.Rect.Y))
	op.ColorScale.ScaleWithColor(toRGBA(cmd.Tint, b.alpha))
	dst.DrawImage(res, op)
}

// drawTextInput paints a minimal box-plus-caret; real IME/selection
// rendering belongs to a richer backend, out of scope for the reference
// implementation (spec.md §1 non-goal: "platform-native text editing").
func (b *Backend) drawTextInput(cmd kessel.Command) {
	dst := b.target()
	if dst == nil {
		return
	}
	r := cmd.Rect
	vector.StrokeRect(dst, r.X, r.Y, r.Width, r.Height, 1, color.White, false)
	if cmd.InputState.Focused && b.Face != nil {
		caretX := r.X + 2 + float32(cmd.InputState.Caret)*6
		vector.StrokeLine(dst, caretX, r.Y+2, caretX, r.Y+r.Height-2, 1, color.White, false)
	}
}

func (b *Backend) drawCheckbox(cmd kessel.Command) {
	dst := b.target()
	if dst == nil {
		return
	}
	r := cmd.Rect
	vector.StrokeRect(dst, r.X, r.Y, r.Width, r.Height, 1, color.White, false)
	if cmd.CheckboxState.Checked {
		vector.DrawFilledRect(dst, r.X+2, r.Y+2, r.Width-4, r.Height-4, color.White, false)
	}
}

func (b *Backend) drawSlider(cmd kessel.Command) {
	dst := b.target()
	if dst == nil {
		return
	}
	r := cmd.Rect
	vector.StrokeLine(dst, r.X, r.Y+r.Height/2, r.X+r.Width, r.Y+r.Height/2, 2, color.Gray{Y: 180}, false)
	st := cmd.SliderState
	span := st.Max - st.Min
	t := float32(0)
	if span != 0 {
		t = (st.Value - st.Min) / span
	}
	knobX := r.X + t*r.Width
	vector.DrawFilledCircle(dst, knobX, r.Y+r.Height/2, 5, color.White, false)
}

// resolveImage materializes and caches the ebiten.Image for a resource
// handle, decoding lazily on first use.
func (b *Backend) resolveImage(id kessel.ResourceId) *ebiten.Image {
	if id == kessel.NoResource {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if img, ok := b.imageCache[id]; ok {
		return img
	}
	return nil
}

// RegisterImage pre-populates the image cache for a resource handle; hosts
// decode image bytes (via the resource's Materialize) themselves and hand
// the decoded ebiten.Image in, since the core engine has no image codec
// dependency (spec.md §1 non-goal).
func (b *Backend) RegisterImage(id kessel.ResourceId, img *ebiten.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imageCache[id] = img
}

func affineToGeoM(t kessel.Transform2D) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(t[0]))
	g.SetElement(1, 0, float64(t[1]))
	g.SetElement(0, 1, float64(t[2]))
	g.SetElement(1, 1, float64(t[3]))
	g.SetElement(0, 2, float64(t[4]))
	g.SetElement(1, 2, float64(t[5]))
	return g
}

func toRGBA(c kessel.Color, alpha float32) color.RGBA {
	a := float32(c.A) * alpha
	return color.RGBA{R: scale(c.R, alpha), G: scale(c.G, alpha), B: scale(c.B, alpha), A: uint8(a)}
}

func scale(v uint8, alpha float32) uint8 {
	return uint8(float32(v) * alpha)
}
