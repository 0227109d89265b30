package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// NamesUnique is pass 4 of spec §4.3: within each scope (the sibling list
// sharing one immediate parent), detect identifiers that compare Equal
// under ident.Identifier's multi-criteria rule. Equality is original-or-
// words plus duplicate-id, not a single canonical key, so neither a plain
// map[string]Object nor a hash keyed on (original, duplicate id) can back
// this dedup; each name is compared with Equal against every earlier name
// in its scope by linear scan. A later object found equal to an earlier one
// is tagged with a fresh, monotonically increasing duplicate id so every
// subsequent pass sees distinct identities.
func NamesUnique(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	var nextDup uint64

	for _, dev := range m.Devices {
		nextDup = dedupScope(dev.Objects, sink, nextDup)
	}

	return nil
}

// dedupScope recurses into Blocks (each one starts a fresh sibling scope)
// and, within the current level, checks each name against every distinct
// identity seen so far in this scope.
func dedupScope(objs []mir.Object, sink *diag.Sink, nextDup uint64) uint64 {
	var seen []mir.Object

	for _, o := range objs {
		name := nameOf(o)

		var prior mir.Object

		for _, s := range seen {
			if nameOf(s).Equal(name) {
				prior = s
				break
			}
		}

		if prior != nil {
			sink.Add(diag.New("DuplicateName",
				fmt.Sprintf("%q collides with a previously declared name in this scope", name.Original()),
				o.ObjSpan()).
				WithLabel(prior.ObjSpan(), "first declared here"))

			name = name.WithDuplicateID(nextDup)
			setName(o, name)
			nextDup++
		}

		seen = append(seen, o)

		if b, ok := o.(*mir.Block); ok {
			nextDup = dedupScope(b.Objects, sink, nextDup)
		}
	}

	return nextDup
}
