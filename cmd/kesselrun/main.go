// Command kesselrun loads a compiled .cui file and runs it in a window,
// the cross-platform UI engine's equivalent of the teacher's demos/*
// entry points (scene.go Run), adapted from a scene-graph demo harness to
// a document host driving the strict per-frame pipeline in config.go.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/kessel-ui/kessel"
	"github.com/kessel-ui/kessel/backend"
	"github.com/kessel-ui/kessel/backend/ebitenbackend"
	"github.com/kessel-ui/kessel/kuibin"
	"github.com/kessel-ui/kessel/script"
)

func main() {
	path := flag.String("file", "", "path to a compiled .cui file")
	width := flag.Int("width", 800, "window width")
	height := flag.Int("height", 600, "window height")
	flag.Parse()

	if *path == "" {
		log.Fatal("kesselrun: -file is required")
	}
	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("kesselrun: read %s: %v", *path, err)
	}

	doc, err := kuibin.Decode(raw)
	if err != nil {
		log.Fatalf("kesselrun: decode %s: %v", *path, err)
	}

	render := ebitenbackend.New(text.NewGoXFace(nil))
	cfg := kessel.EngineConfig{
		BackendKind:    backend.KindNative2D,
		ViewportWidth:  float32(*width),
		ViewportHeight: float32(*height),
		ScriptBudgetMs: 8,
	}

	bridge, err := script.New(doc, cfg.ScriptBudgetMs)
	if err != nil {
		log.Fatalf("kesselrun: init script bridge: %v", err)
	}
	defer bridge.Close()
	cfg.Bridge = bridge

	driver := kessel.NewDriver(doc, cfg, render)
	if err := bridge.FireReady(); err != nil {
		log.Fatalf("kesselrun: script onReady: %v", err)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("kessel")
	if err := ebiten.RunGame(&gameShell{driver: driver, render: render, w: *width, h: *height}); err != nil {
		log.Fatal(err)
	}
}

// gameShell implements ebiten.Game by delegating to a kessel.Driver,
// mirroring the teacher's gameShell (scene.go).
type gameShell struct {
	driver *kessel.Driver
	render *ebitenbackend.Backend
	w, h   int
}

func (g *gameShell) Update() error {
	return g.driver.Tick()
}

func (g *gameShell) Draw(screen *ebiten.Image) {
	g.render.Attach(screen)
	g.driver.Paint()
}

func (g *gameShell) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}
