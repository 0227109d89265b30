package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/util/termio"
)

// RenderConfig configures how a Sink's diagnostics are rendered, matching
// the caller-supplied metadata spec §4.1/§6.3 requires: source text and
// path for line extraction, terminal width, and whether to emit color,
// Unicode box-drawing, or OSC-8 hyperlinks.
type RenderConfig struct {
	// Source is the original manifest text the spans in this batch index
	// into.
	Source string
	// Path is the manifest's filename, used in the "file:line:col" prefix
	// and (when Hyperlinks is set) in the OSC-8 escape target.
	Path string
	// Width bounds how much of the source line is ever printed; 0 means
	// unbounded.
	Width int
	// Color enables ANSI color escapes via pkg/util/termio.
	Color bool
	// Unicode enables box-drawing glyphs (│ border, ━ carets) instead of the
	// plain ASCII | and ^ markers.
	Unicode bool
	// Hyperlinks wraps the "file:line:col" prefix in an OSC-8 escape
	// pointing back at Path, for terminals that support clickable links.
	Hyperlinks bool
	// AnonymizeLineNumbers replaces real line numbers with "-" in output,
	// used by golden-file tests that must not break when the manifest
	// gains or loses blank lines.
	AnonymizeLineNumbers bool
}

// Render writes every diagnostic in s to w, in insertion order, using cfg.
func (s *Sink) Render(w io.Writer, cfg RenderConfig) {
	for _, d := range s.diagnostics {
		renderOne(w, d, cfg)
	}
}

func renderOne(w io.Writer, d Diagnostic, cfg RenderConfig) {
	sevColor := termio.TERM_RED
	if d.Severity == Warning {
		sevColor = termio.TERM_YELLOW
	}

	sevTag := colorize(cfg, d.Severity.String(), sevColor, true)

	fmt.Fprintf(w, "%s[%s]: %s\n", sevTag, d.Kind, d.Message)

	for _, l := range d.Labels {
		renderLabel(w, l, cfg)
	}

	if d.Help != "" {
		fmt.Fprintf(w, "  %s %s\n", colorize(cfg, "help:", termio.TERM_CYAN, true), d.Help)
	}
}

func renderLabel(w io.Writer, l Label, cfg RenderConfig) {
	lineNo, col, text := enclosingLine(cfg.Source, l.Span)

	lineNoStr := fmt.Sprintf("%d", lineNo)
	if cfg.AnonymizeLineNumbers {
		lineNoStr = "-"
	}

	prefix := fmt.Sprintf("%s:%s:%d", cfg.Path, lineNoStr, col)
	if cfg.Hyperlinks && cfg.Path != "" {
		prefix = hyperlink(prefix, fmt.Sprintf("file://%s", cfg.Path))
	}

	fmt.Fprintf(w, "  --> %s\n", prefix)

	if cfg.Width > 0 && len(text) > cfg.Width {
		text = text[:cfg.Width]
	}

	fmt.Fprintf(w, "   %s %s\n", borderGlyph(cfg), text)

	caretLen := l.Span.Length()
	if caretLen < 1 {
		caretLen = 1
	}

	caretChar := "^"
	if cfg.Unicode {
		caretChar = "━"
	}

	caret := strings.Repeat(" ", max0(col-1)) + colorize(cfg, strings.Repeat(caretChar, caretLen), termio.TERM_RED, false)
	fmt.Fprintf(w, "   %s %s", borderGlyph(cfg), caret)

	if l.Message != "" {
		fmt.Fprintf(w, " %s", l.Message)
	}

	fmt.Fprintln(w)
}

func borderGlyph(cfg RenderConfig) string {
	if cfg.Unicode {
		return "│"
	}

	return "|"
}

func max0(n int) int {
	if n < 0 {
		return 0
	}

	return n
}

// enclosingLine finds the 1-indexed line number, 1-indexed column, and full
// text of the line enclosing the start of sp, mirroring the teacher's
// FindFirstEnclosingLine helper.
func enclosingLine(source string, sp span.Span) (line, col int, text string) {
	line = 1
	col = 1
	lineStart := 0

	for i := 0; i < sp.Start() && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	col = sp.Start() - lineStart + 1

	end := len(source)

	for i := lineStart; i < len(source); i++ {
		if source[i] == '\n' {
			end = i
			break
		}
	}

	if lineStart > len(source) {
		lineStart = len(source)
	}

	if end > len(source) {
		end = len(source)
	}

	return line, col, source[lineStart:end]
}

func colorize(cfg RenderConfig, text string, color uint, bold bool) string {
	if !cfg.Color {
		return text
	}

	esc := termio.NewAnsiEscape()
	if bold {
		esc = termio.BoldAnsiEscape()
	}

	esc = esc.FgColour(color)

	return esc.Build() + text + termio.ResetAnsiEscape().Build()
}

// hyperlink wraps text in an OSC-8 terminal hyperlink escape sequence
// pointing at target.
func hyperlink(text, target string) string {
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", target, text)
}
