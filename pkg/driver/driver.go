// Package driver glues the compiler stages together per spec §4.6: parse
// (done by the caller, which picks a pkg/manifest/* parser by file
// extension) → lower AST to MIR → run the pass pipeline → lower MIR to LIR
// → emit Go source. Lowering and emission always run, even when the pass
// pipeline recorded errors — spec §4.6's "best effort" contract — so a
// caller always gets a complete diagnostic report alongside whatever
// source text could be produced.
package driver

import (
	"github.com/regspec/ddc/pkg/ast"
	"github.com/regspec/ddc/pkg/astlower"
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/emit"
	"github.com/regspec/ddc/pkg/lower"
	"github.com/regspec/ddc/pkg/mir/passes"
)

// Result is the outcome of a compilation: the best-effort generated source
// (prefixed with a build-excluding sentinel when Diagnostics.HasError()),
// and every diagnostic the pipeline recorded.
type Result struct {
	Source      string
	Diagnostics *diag.Sink
}

// CompileManifest runs the AST→MIR→LIR→Go pipeline against an
// already-parsed manifest, recording diagnostics into sink. This is the
// entry point the scenario tests use directly, bypassing the
// surface-syntax parsers in pkg/manifest; Compile below layers parsing
// and parser-diagnostic merging on top of it.
func CompileManifest(m *ast.Manifest, pkgName string, sink *diag.Sink) string {
	mirManifest := astlower.Lower(m)
	passes.Run(mirManifest, sink)

	lirDriver := lower.Lower(mirManifest)

	source, err := emit.Emit(lirDriver, pkgName, sink.HasError())
	if err != nil {
		sink.Add(diag.New("EmitFailed", err.Error(), m.Span))
	}

	return source
}

// Parser is the contract every pkg/manifest/* package implements: decode
// raw source bytes into an ast.Manifest, or report why it couldn't.
type Parser func(filename string, src []byte) (ast.Manifest, []diag.Diagnostic)

// Compile parses src with parser, then runs the pipeline against the
// result. Parse diagnostics are recorded ahead of pipeline diagnostics so
// a rendered report reads in source order, and a parse error alone is
// enough to demand the build-excluding sentinel on the output.
func Compile(filename string, src []byte, parser Parser, pkgName string) Result {
	m, parseDiags := parser(filename, src)

	sink := diag.NewSink()
	for _, d := range parseDiags {
		sink.Add(d)
	}

	source := CompileManifest(&m, pkgName, sink)

	return Result{Source: source, Diagnostics: sink}
}
