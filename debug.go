package kessel

import (
	"fmt"
	"os"
	"time"
)

// frameStats holds per-frame timing for the strict ordering pipeline in
// spec.md §5 (dispatch -> script drain -> variable drain -> style ->
// layout -> command emit), adapted from the teacher's debugStats.
type frameStats struct {
	dispatchTime time.Duration
	scriptTime   time.Duration
	styleTime    time.Duration
	layoutTime   time.Duration
	commandTime  time.Duration
	commandCount int
}

// debugLog prints one frameStats breakdown to stderr. Driver.Tick records
// the stats of each frame but does not call it.
var debugLog = func(stats frameStats) {
	total := stats.dispatchTime + stats.scriptTime + stats.styleTime + stats.layoutTime + stats.commandTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[kessel] dispatch: %v | script: %v | style: %v | layout: %v | commands: %v (%d) | total: %v\n",
		stats.dispatchTime, stats.scriptTime, stats.styleTime, stats.layoutTime,
		stats.commandTime, stats.commandCount, total)
}

// debugMaxTreeDepth is the threshold past which debugCheckTreeDepth warns;
// deeply nested documents are legal but usually indicate a malformed CUI
// (a style `extends` cycle would be worse, but that is rejected outright --
// see detectStyleCycles).
const debugMaxTreeDepth = 64

func debugCheckTreeDepth(doc *Document, el ElementId) {
	depth := 0
	for id := el; id != NoElement; {
		depth++
		if depth > debugMaxTreeDepth {
			doc.Logger(SeverityWarn, "%v", &InvariantViolation{Detail: fmt.Sprintf("tree depth exceeds %d at element %d", debugMaxTreeDepth, el)})
			return
		}
		id = doc.element(id).parent
	}
}

// debugMaxChildCount is the threshold past which debugCheckChildCount warns.
const debugMaxChildCount = 4096

func debugCheckChildCount(doc *Document, el ElementId) {
	n := len(doc.element(el).children)
	if n > debugMaxChildCount {
		doc.Logger(SeverityWarn, "%v", &InvariantViolation{Detail: fmt.Sprintf("element %d has %d children (threshold %d)", el, n, debugMaxChildCount)})
	}
}

// assertBalanced panics when AssertInvariants is set, and otherwise logs an
// error, when depth is non-zero at the end of a push/pop region, matching
// the teacher's posture of loud, immediate failure for bookkeeping bugs
// that would otherwise silently corrupt backend state.
func assertBalanced(doc *Document, depth int, what string) {
	if depth == 0 {
		return
	}
	v := &InvariantViolation{Detail: fmt.Sprintf("unbalanced %s: depth %d at end of frame", what, depth)}
	if AssertInvariants {
		panic(v.Error())
	}
	doc.Logger(SeverityError, "%v", v)
}

// AssertInvariants enables panics (instead of logged errors) for internal
// consistency violations. It defaults to false, so a single malformed
// frame degrades (logged error) rather than crashes.
var AssertInvariants = false
