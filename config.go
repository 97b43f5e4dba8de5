package kessel

import (
	"fmt"
	"time"

	"github.com/kessel-ui/kessel/backend"
)

// ScriptDrainer applies queued script mutations to a Document and reports
// the first error encountered, if any (spec.md §4.F "mutations are
// applied atomically... the reactive variable table is updated, never
// raw memory"). The root package depends only on this interface, not on
// the script package, so script/VM dependencies stay out of the core
// import graph -- config.go wires a concrete *script.Bridge at the host
// layer instead.
type ScriptDrainer interface {
	Drain(doc *Document) error
}

// EngineConfig is the ambient configuration spec.md §6 names but leaves
// unstructured ("Configuration: ... left to the host"), grounded on the
// teacher's RunConfig/Run(scene, cfg) entry point (scene.go).
type EngineConfig struct {
	// BackendKind records which backend family the Renderer passed to
	// NewDriver implements; informational only.
	BackendKind backend.Kind

	LogLevel Severity

	// ScriptBudgetMs bounds a single script activation's wall-clock time.
	// 0 means unlimited (spec.md §6 default). Enforced after the fact: the
	// bridge measures each VM call's elapsed time once it returns (neither
	// gopher-lua nor v8go's synchronous call can be preempted
	// mid-instruction) and discards that activation's queued mutations if
	// the budget was exceeded.
	ScriptBudgetMs int

	ViewportWidth, ViewportHeight float32

	// Bridge drains queued script mutations once per frame, after event
	// dispatch and before reactive-variable/style/layout passes (spec.md
	// §5). Nil is valid for documents with no scripts.
	Bridge ScriptDrainer
}

// Driver owns one document's per-frame pipeline: the strict ordering
// contract from spec.md §5 (event dispatch -> script mutations drained ->
// reactive variables drained -> style re-resolve -> layout -> command
// emit -> backend paint). Command computation (Tick) and backend paint
// (Paint) are separate calls, mirroring the teacher's Scene.Update/Draw
// split (scene.go): a host like ebiten.Game calls Tick from Update, where
// the screen surface isn't available yet, and Paint from Draw.
type Driver struct {
	Doc        *Document
	Cfg        EngineConfig
	Layout     *LayoutEngine
	Translator *CommandTranslator
	Renderer   backend.Renderer

	lastStats   frameStats
	lastCommands []Command
}

// NewDriver wires a ready-to-run Driver around doc, always creating a
// fresh LayoutEngine (default font measurement) and CommandTranslator.
func NewDriver(doc *Document, cfg EngineConfig, renderer backend.Renderer) *Driver {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = SeverityWarn
	}
	doc.ViewportWidth, doc.ViewportHeight = cfg.ViewportWidth, cfg.ViewportHeight
	return &Driver{
		Doc:        doc,
		Cfg:        cfg,
		Layout:     NewLayoutEngine(),
		Translator: NewCommandTranslator(),
		Renderer:   renderer,
	}
}

// Tick runs the non-paint portion of one frame: draining any injected
// test events, the script mutation drain, reactive variable drain, style
// resolution (implicit in GetProperty calls during layout/translate),
// layout, and command emission, then advances the frame epoch. The
// resulting commands are stashed for Paint. It never returns an error for
// recoverable per-frame failures -- those surface through Document.Logger.
func (dr *Driver) Tick() error {
	doc := dr.Doc
	t0 := nowStub()

	for doc.HasInjected() {
		doc.DrainInjected()
	}
	tDispatch := nowStub()

	if dr.Cfg.Bridge != nil {
		if err := dr.Cfg.Bridge.Drain(doc); err != nil {
			doc.Logger(SeverityError, "%v", &ScriptError{Detail: err.Error()})
		}
	}
	tScript := nowStub()

	changed := doc.DrainVariableChanges()
	for _, name := range changed {
		propagateVariableChange(doc, name)
	}
	tStyle := nowStub()

	dr.Layout.Layout(doc, doc.ViewportWidth, doc.ViewportHeight)
	tLayout := nowStub()

	dr.lastCommands = dr.Translator.Translate(doc)
	tCommand := nowStub()

	dr.lastStats = frameStats{
		dispatchTime: tDispatch.Sub(t0),
		scriptTime:   tScript.Sub(tDispatch),
		styleTime:    tStyle.Sub(tScript),
		layoutTime:   tLayout.Sub(tStyle),
		commandTime:  tCommand.Sub(tLayout),
		commandCount: len(dr.lastCommands),
	}

	doc.AdvanceFrame()
	return nil
}

// Paint submits the commands computed by the most recent Tick to the
// configured backend. A host calls this once it has a live paint surface
// (e.g. from ebiten.Game.Draw).
func (dr *Driver) Paint() {
	if dr.Renderer == nil {
		return
	}
	dr.Renderer.BeginFrame(dr.Doc.ViewportWidth, dr.Doc.ViewportHeight)
	boxed := make([]any, len(dr.lastCommands))
	for i, c := range dr.lastCommands {
		boxed[i] = c
	}
	dr.Renderer.Submit(boxed)
	dr.Renderer.EndFrame()
}

// propagateVariableChange re-sets the text_content of every element whose
// inline text_content_template references {{name}} (spec.md §4.F "text
// bound to a reactive variable re-resolves when that variable's change
// flag is set"). Binding discovery is a flat scan over inline
// text_content_template properties since the binary format stores the
// template string verbatim rather than a precompiled binding list.
func propagateVariableChange(doc *Document, name string) {
	v, ok := doc.Variable(name)
	if !ok {
		return
	}
	token := "{{" + name + "}}"
	doc.IterDescendants(doc.root, OrderPre, func(id ElementId) bool {
		tmpl, ok := doc.GetInlineProperty(id, KeyTextContentTemplate)
		if !ok || tmpl.Str == "" {
			return true
		}
		if indexOf(tmpl.Str, token) < 0 {
			return true
		}
		doc.SetProperty(id, KeyTextContent, StringValue(substituteToken(tmpl.Str, token, v.Value())))
		return true
	})
}

func substituteToken(template, token, value string) string {
	out := ""
	for {
		i := indexOf(template, token)
		if i < 0 {
			return out + template
		}
		out += template[:i] + value
		template = template[i+len(token):]
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func nowStub() time.Time { return time.Now() }

// String implements fmt.Stringer for EngineConfig, useful in host logs.
func (c EngineConfig) String() string {
	return fmt.Sprintf("EngineConfig{backend=%d viewport=%vx%v scriptBudgetMs=%d}", c.BackendKind, c.ViewportWidth, c.ViewportHeight, c.ScriptBudgetMs)
}
