package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// ByteOrderSpecified is pass 9 of spec §4.3: a FieldSet missing an explicit
// byte order inherits the effective config's default. If none is
// configured either, a FieldSet wider than a single byte is ambiguous and
// gets an error; anything 8 bits or narrower defaults to LE so later passes
// always have a concrete value to work with.
func ByteOrderSpecified(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	for _, wc := range m.IterObjectsWithConfig() {
		fs, ok := wc.Object.(*mir.FieldSet)
		if !ok {
			continue
		}

		if fs.ByteOrder != nil {
			continue
		}

		if wc.Config.DefaultByteOrder != nil {
			order := *wc.Config.DefaultByteOrder
			fs.ByteOrder = &order

			continue
		}

		if fs.SizeBits.Value > 8 {
			sink.Add(diag.New("ByteOrderUndefined",
				fmt.Sprintf("field set %q is %d bits wide, big enough that byte order matters, but none is configured",
					fs.Name.Original(), fs.SizeBits.Value),
				fs.SizeBits.Span))
		}

		le := specval.LE
		fs.ByteOrder = &le
	}

	return nil
}
