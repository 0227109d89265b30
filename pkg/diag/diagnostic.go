// Package diag implements the compiler's diagnostics sink: structured,
// span-labeled errors and warnings that passes accumulate instead of
// raising as control-flow exceptions (spec §4.1/§7/§9).
package diag

import "github.com/regspec/ddc/pkg/span"

// Severity distinguishes a hard error from an advisory warning.
type Severity uint8

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}

	return "error"
}

// Label attaches a short piece of text to one span within a diagnostic,
// letting the renderer decorate multiple locations for a single error (e.g.
// AddressOutOfRange points at both the offending object and the type
// configuration that declared the address type too small).
type Label struct {
	Span    span.Span
	Message string
}

// Diagnostic is a single structured error or warning. Kind names one of the
// taxonomy entries in spec §6.3 (e.g. "AddressOutOfRange",
// "DuplicateName"); Fields carries the structured payload named in that
// taxonomy for programmatic consumers, while Message/Help/Labels drive
// human-facing rendering.
type Diagnostic struct {
	Severity Severity
	Kind     string
	Message  string
	Help     string
	Labels   []Label
	Fields   map[string]any
}

// New constructs an error-severity diagnostic with a single primary label.
func New(kind, message string, primary span.Span) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Kind:     kind,
		Message:  message,
		Labels:   []Label{{Span: primary, Message: ""}},
	}
}

// NewWarning constructs a warning-severity diagnostic with a single primary
// label.
func NewWarning(kind, message string, primary span.Span) Diagnostic {
	d := New(kind, message, primary)
	d.Severity = Warning

	return d
}

// WithHelp attaches help text and returns the diagnostic for chaining.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// WithLabel appends an additional labeled span.
func (d Diagnostic) WithLabel(sp span.Span, message string) Diagnostic {
	d.Labels = append(d.Labels, Label{Span: sp, Message: message})
	return d
}

// WithField attaches a structured field, used by callers that want to
// inspect e.g. AddressOutOfRange{min,max,type} programmatically.
func (d Diagnostic) WithField(key string, value any) Diagnostic {
	if d.Fields == nil {
		d.Fields = map[string]any{}
	}

	d.Fields[key] = value

	return d
}
