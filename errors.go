package kessel

import "fmt"

// Severity classifies a logged message for the host's Logger callback.
type Severity uint8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger receives user-visible diagnostics. Parse errors abort load and are
// returned to the caller directly; everything else (style warnings, layout
// clamps, script exceptions, resource failures) is surfaced only through
// this callback, per the host-owned error policy in the spec.
type Logger func(level Severity, format string, args ...any)

// discardLogger is the default when no Logger is configured.
func discardLogger(Severity, string, ...any) {}

// StyleError reports a problem resolving the style cascade. Resolution
// always proceeds with the default value after one of these is logged.
type StyleError struct {
	Kind    string // "StyleCycle" or "UnknownStyle"
	StyleID StyleId
	Detail  string
}

func (e *StyleError) Error() string {
	return fmt.Sprintf("style error (%s): style=%d: %s", e.Kind, e.StyleID, e.Detail)
}

// LayoutWarning reports a degenerate layout input (negative size, NaN) that
// was clamped rather than propagated. Layout is total: these never abort.
type LayoutWarning struct {
	Element ElementId
	Detail  string
}

func (e *LayoutWarning) Error() string {
	return fmt.Sprintf("layout warning: element=%d: %s", e.Element, e.Detail)
}

// ScriptError wraps a runtime failure inside a user script handler. It is
// always per-handler: logged, and dispatch continues unaffected.
type ScriptError struct {
	Language string
	Handler  string
	Detail   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error [%s] in %s: %s", e.Language, e.Handler, e.Detail)
}

// ResourceError reports a missing or corrupt resource (image, font, script,
// blob). The caller substitutes a visible placeholder box.
type ResourceError struct {
	Resource ResourceId
	Detail   string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: resource=%d: %s", e.Resource, e.Detail)
}

// InvariantViolation marks an internal consistency bug (e.g. unbalanced
// clip/transform stacks). Debug builds should panic on these; release
// builds log and continue. See debug.go for the toggle.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Detail)
}
