package types

import "fmt"

// Kind tags the outcome of classifying a single file.
type Kind int

const (
	Clean Kind = iota
	Unfixable
	Fixable
	Aborted
)

func (k Kind) String() string {
	switch k {
	case Clean:
		return "clean"
	case Unfixable:
		return "unfixable"
	case Fixable:
		return "fixable"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Range is a half-open span [Start, End) of hex-character offsets into the
// hex encoding of a file. Byte offsets are half these values.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Bytes returns the byte offsets covered by the range.
func (r Range) Bytes() (start, end int) {
	return r.Start / 2, r.End / 2
}

// Len is the length of the range in hex characters.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Verdict is the result of matching one file against the signature store.
// Name is set for Unfixable and Fixable; Range only for Fixable.
type Verdict struct {
	Kind  Kind
	Name  string
	Range Range
}

// CleanVerdict reports no match.
func CleanVerdict() Verdict { return Verdict{Kind: Clean} }

// AbortedVerdict reports a sweep cancelled before a verdict was reached.
func AbortedVerdict() Verdict { return Verdict{Kind: Aborted} }

// UnfixableVerdict reports a hash signature hit.
func UnfixableVerdict(name string) Verdict { return Verdict{Kind: Unfixable, Name: name} }

// FixableVerdict reports a pattern signature hit with an excisable range.
func FixableVerdict(name string, r Range) Verdict {
	return Verdict{Kind: Fixable, Name: name, Range: r}
}

// Infected reports whether the verdict names malware.
func (v Verdict) Infected() bool { return v.Kind == Unfixable || v.Kind == Fixable }

func (v Verdict) String() string {
	switch v.Kind {
	case Unfixable:
		return "unfixable:" + v.Name
	case Fixable:
		return "fixable:" + v.Name + " " + v.Range.String()
	default:
		return v.Kind.String()
	}
}
