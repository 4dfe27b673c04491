// Package claim holds the outcome of an atomic one-shot claim on a row flag.
package claim

// Result reports what happened to a conditional "set flag where flag=false" claim.
type Result int

const (
	// Lost: another run already owns the flag, nothing was sent.
	Lost Result = iota
	// Committed: the guarded action reported success and the flag is now true.
	Committed
	// Abandoned: the guarded action failed, the flag was rolled back to false.
	Abandoned
)

func (r Result) String() string {
	switch r {
	case Committed:
		return "committed"
	case Abandoned:
		return "abandoned"
	default:
		return "lost"
	}
}
