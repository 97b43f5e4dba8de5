package script

import (
	"testing"

	"github.com/kessel-ui/kessel"
)

func newCounterDoc(t *testing.T, source string, exports []string) *kessel.Document {
	t.Helper()
	doc := kessel.NewDocument()
	doc.DeclareVariable("count", "0")
	label := doc.CreateElement(kessel.KindText, doc.Root())
	doc.SetStringID(label, "label")
	doc.AddScript(kessel.ScriptModule{Language: kessel.LangLua, Source: source, Exports: exports})
	return doc
}

func TestLuaCounterReactivityRoundTrips(t *testing.T) {
	doc := newCounterDoc(t, `
function increment(ev)
	count = tostring(tonumber(count) + 1)
	getElementById("label"):setText(count)
end
`, []string{"increment"})

	b, err := New(doc, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	doc.BindEvent(doc.Root(), kessel.EventClick, "increment")

	doc.Dispatcher().AfterDispatch = func() {
		if err := b.Drain(doc); err != nil {
			t.Fatalf("Drain: %v", err)
		}
	}
	doc.Dispatcher().DispatchPointer(kessel.InputPointerDown, 0, 0, kessel.MouseLeft, 0)

	rv, ok := doc.Variable("count")
	if !ok || rv.Value() != "1" {
		t.Fatalf("count = %v (ok=%v), want \"1\"", rv, ok)
	}
	label, _ := doc.FindByID("label")
	if got := doc.GetProperty(label, kessel.KeyTextContent).Str; got != "1" {
		t.Fatalf("label text = %q, want \"1\"", got)
	}
}

func TestLuaHandlerErrorIsIsolated(t *testing.T) {
	doc := newCounterDoc(t, `
function boom(ev)
	error("kaboom")
end
function fine(ev)
	count = "ok"
end
`, []string{"boom", "fine"})

	b, err := New(doc, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	var logged []string
	doc.Logger = func(level kessel.Severity, format string, args ...any) {
		if level == kessel.SeverityError {
			logged = append(logged, format)
		}
	}

	doc.BindEvent(doc.Root(), kessel.EventClick, "boom")
	doc.Dispatcher().DispatchPointer(kessel.InputPointerDown, 0, 0, kessel.MouseLeft, 0)
	if err := b.Drain(doc); err == nil {
		t.Fatalf("Drain did not surface the handler error")
	}
	if len(logged) == 0 {
		t.Fatalf("no error was logged for the failing handler")
	}

	// boom stays bound to the root alongside fine, so the second click
	// invokes it again (no global disablement) and Drain reports its error.
	doc.BindEvent(doc.Root(), kessel.EventClick, "fine")
	doc.Dispatcher().DispatchPointer(kessel.InputPointerDown, 0, 0, kessel.MouseLeft, 0)
	if err := b.Drain(doc); err == nil {
		t.Fatalf("Drain after the second click did not surface boom's error; the failing handler was not invoked again")
	}
	rv, _ := doc.Variable("count")
	if rv.Value() != "ok" {
		t.Fatalf("count = %q, want \"ok\" (the later handler still ran)", rv.Value())
	}
}

func TestLanguageWithNoRegisteredVMIsSkippedNotFatal(t *testing.T) {
	doc := kessel.NewDocument()
	doc.AddScript(kessel.ScriptModule{Language: kessel.LangPython, Source: "print('hi')", Exports: nil})

	b, err := New(doc, 0)
	if err != nil {
		t.Fatalf("New returned an error for an unregistered language, want a logged skip: %v", err)
	}
	defer b.Close()
}
