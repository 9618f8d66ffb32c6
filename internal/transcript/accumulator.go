package transcript

import "strings"

// Accumulator collects settled speech-to-text fragments in arrival order.
// Each fragment is stored with a single trailing space so the snapshot is
// the plain concatenation the summarizer expects.
type Accumulator struct {
	b strings.Builder
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds one fragment followed by a single space. Empty fragments are
// kept out so they cannot inject stray separators.
func (a *Accumulator) Append(fragment string) {
	if fragment == "" {
		return
	}
	a.b.WriteString(fragment)
	a.b.WriteString(" ")
}

// Snapshot returns the accumulated text without resetting the buffer.
func (a *Accumulator) Snapshot() string {
	return a.b.String()
}

// Reset discards everything accumulated so far.
func (a *Accumulator) Reset() {
	a.b.Reset()
}

// Len returns the accumulated text length in bytes.
func (a *Accumulator) Len() int {
	return a.b.Len()
}
