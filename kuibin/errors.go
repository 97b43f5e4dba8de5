package kuibin

import "fmt"

// ParseError reports a hard failure decoding a CUI stream. Unlike the
// engine's own runtime errors (style/layout/script), a ParseError always
// aborts the load -- there is no partial document to hand back (spec.md
// §4.A "Failures: ... MalformedHeader, UnknownSection, TruncatedSection,
// BadUtf8, UnsupportedVersion, CyclicStyle, DanglingReference -- all abort
// the load").
type ParseError struct {
	Kind   string
	Offset int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("kuibin: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func errMalformed(offset int, detail string) error {
	return &ParseError{Kind: "MalformedHeader", Offset: offset, Detail: detail}
}

func errTruncated(offset int, detail string) error {
	return &ParseError{Kind: "TruncatedSection", Offset: offset, Detail: detail}
}

func errUnsupported(offset int, detail string) error {
	return &ParseError{Kind: "UnsupportedVersion", Offset: offset, Detail: detail}
}

func errUnknownSection(offset int, detail string) error {
	return &ParseError{Kind: "UnknownSection", Offset: offset, Detail: detail}
}

func errBadUtf8(offset int, detail string) error {
	return &ParseError{Kind: "BadUtf8", Offset: offset, Detail: detail}
}

func errDangling(offset int, detail string) error {
	return &ParseError{Kind: "DanglingReference", Offset: offset, Detail: detail}
}

func errCyclicStyle(offset int, detail string) error {
	return &ParseError{Kind: "CyclicStyle", Offset: offset, Detail: detail}
}
