package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// ExternValuesChecked is pass 7 of spec §4.3: an Extern's base type must
// already be resolved (not Unspecified); an Extern left unspecified cannot
// be converted to or from, so it is removed.
func ExternValuesChecked(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		for _, ext := range externsIn(dev.Objects) {
			if ext.BaseType.Value.Kind == specval.Unspecified {
				sink.Add(diag.New("ExternBaseTypeUnspecified",
					fmt.Sprintf("extern %q has no base type", ext.Name.Original()), ext.Span))
				removal.RemoveObject(ext.ID())
			}
		}
	}

	return removal
}
