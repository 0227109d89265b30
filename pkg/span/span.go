// Package span provides the byte-offset ranges used throughout the
// compiler to tie generated diagnostics back to the original manifest text.
package span

import "fmt"

// Span represents a half-open byte range [start,end) within some original
// source text. Like the corresponding construct in the teacher's source
// package, indices are retained explicitly (rather than slicing the string
// directly) so diagnostics can later recover the enclosing line.
type Span struct {
	start int
	end   int
}

// New constructs a span, panicking if the invariant start <= end is violated.
func New(start, end int) Span {
	if start > end {
		panic("invalid span: start > end")
	}

	return Span{start, end}
}

// Zero is the empty span at offset zero, useful as a placeholder for
// synthesized nodes that have no corresponding source text.
var Zero = Span{0, 0}

// Start returns the first byte offset covered by this span.
func (s Span) Start() int { return s.start }

// End returns one past the last byte offset covered by this span.
func (s Span) End() int { return s.end }

// Length returns the number of bytes covered by this span.
func (s Span) Length() int { return s.end - s.start }

// IsEmpty returns true when this span covers zero bytes.
func (s Span) IsEmpty() bool { return s.start == s.end }

// Join returns the smallest span enclosing both s and other.
func (s Span) Join(other Span) Span {
	start := s.start
	if other.start < start {
		start = other.start
	}

	end := s.end
	if other.end > end {
		end = other.end
	}

	return Span{start, end}
}

// String renders a span in "start..end" form, used by diagnostic rendering
// and test failure messages.
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.start, s.end)
}
