package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/ident"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/span"
)

// NamesChecked is pass 3 of spec §4.3: every non-device object, field and
// enum variant has its effective config's boundaries applied to its name
// and the result validated. An invalid name produces InvalidIdentifier and
// removes the offending object, field or variant.
func NamesChecked(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, wc := range m.IterObjectsWithConfig() {
		checkObjectName(wc.Object, wc.Config.Boundaries, sink, removal)

		switch v := wc.Object.(type) {
		case *mir.FieldSet:
			for _, f := range v.Fields {
				checkChildName(v.ID(), f.Name, f.Span, wc.Config.Boundaries, sink, removal,
					func(n ident.Identifier) { f.Name = n })
			}
		case *mir.Enum:
			for _, ev := range v.Variants {
				checkChildName(v.ID(), ev.Name, ev.Span, wc.Config.Boundaries, sink, removal,
					func(n ident.Identifier) { ev.Name = n })
			}
		}
	}

	return removal
}

func checkObjectName(o mir.Object, bs ident.Boundaries, sink *diag.Sink, removal *mir.RemovalSet) {
	name := nameOf(o)

	applied, err := applyAndCheck(name, bs)
	if err != nil {
		sink.Add(diag.New("InvalidIdentifier",
			fmt.Sprintf("invalid name %q: %s", name.Original(), err),
			o.ObjSpan()))
		removal.RemoveObject(o.ID())

		return
	}

	setName(o, applied)
}

func checkChildName(owner mir.ID, name ident.Identifier, sp span.Span, bs ident.Boundaries, sink *diag.Sink, removal *mir.RemovalSet, set func(ident.Identifier)) {
	applied, err := applyAndCheck(name, bs)
	if err != nil {
		sink.Add(diag.New("InvalidIdentifier",
			fmt.Sprintf("invalid name %q: %s", name.Original(), err), sp))
		removal.RemoveChild(owner, name.Original())

		return
	}

	set(applied)
}

func applyAndCheck(name ident.Identifier, bs ident.Boundaries) (ident.Identifier, error) {
	applied := name.ApplyBoundaries(bs)
	if err := applied.CheckValidity(); err != nil {
		return ident.Identifier{}, err
	}

	return applied, nil
}
