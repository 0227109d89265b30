package passes

import (
	"fmt"
	"math/big"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// BitRangesValidated is pass 12 of spec §4.3: every field must have a
// non-empty bit range that, across all of its repeat offsets, stays inside
// its field set's size; and, unless the field set allows bit overlap,
// no two fields' ranges may overlap under any combination of their
// respective repeat offsets.
func BitRangesValidated(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		for _, fs := range fieldSetsIn(dev.Objects) {
			validateFieldSetRanges(dev, fs, sink, removal)
		}
	}

	return removal
}

type fieldExtent struct {
	field   *mir.Field
	offsets []*big.Int
}

func validateFieldSetRanges(dev *mir.Device, fs *mir.FieldSet, sink *diag.Sink, removal *mir.RemovalSet) {
	var live []fieldExtent

	for _, f := range fs.Fields {
		r := f.FieldAddress.Value

		if r.End <= r.Start {
			sink.Add(diag.New("ZeroSizeField",
				fmt.Sprintf("field %q has a zero-size bit range", f.Name.Original()), f.FieldAddress.Span))
			removal.RemoveChild(fs.ID(), f.Name.Original())

			continue
		}

		offsets := mir.RepeatOffsets(dev, f.Repeat)

		minOffset, maxOffset := minMax(offsets)

		maxEnd := int64(r.End) + maxOffset
		minStart := int64(r.Start) + minOffset

		if maxEnd > int64(fs.SizeBits.Value) {
			sink.Add(diag.New("FieldAddressExceedsFieldsetSize",
				fmt.Sprintf("field %q reaches bit %d, beyond field set %q's %d bits", f.Name.Original(), maxEnd, fs.Name.Original(), fs.SizeBits.Value),
				f.FieldAddress.Span))
			removal.RemoveChild(fs.ID(), f.Name.Original())

			continue
		}

		if minStart < 0 {
			sink.Add(diag.New("FieldAddressNegative",
				fmt.Sprintf("field %q's effective start %d is negative", f.Name.Original(), minStart),
				f.FieldAddress.Span))
			removal.RemoveChild(fs.ID(), f.Name.Original())

			continue
		}

		live = append(live, fieldExtent{f, offsets})
	}

	if fs.AllowBitOverlap {
		return
	}

	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			reportFirstOverlap(fs, live[i], live[j], sink)
		}
	}
}

func minMax(offsets []*big.Int) (min, max int64) {
	if len(offsets) == 0 {
		return 0, 0
	}

	min, max = offsets[0].Int64(), offsets[0].Int64()

	for _, o := range offsets[1:] {
		v := o.Int64()
		if v < min {
			min = v
		}

		if v > max {
			max = v
		}
	}

	return min, max
}

// reportFirstOverlap tests every combination of a's and b's repeat offsets
// and emits exactly one diagnostic for the first pair whose shifted ranges
// overlap, per spec §4.3 pass 12's "report the first overlap per pair
// only" policy.
func reportFirstOverlap(fs *mir.FieldSet, a, b fieldExtent, sink *diag.Sink) {
	ra, rb := a.field.FieldAddress.Value, b.field.FieldAddress.Value

	for _, oa := range a.offsets {
		for _, ob := range b.offsets {
			aStart := int64(ra.Start) + oa.Int64()
			aEnd := int64(ra.End) + oa.Int64()
			bStart := int64(rb.Start) + ob.Int64()
			bEnd := int64(rb.End) + ob.Int64()

			if aStart < bEnd && bStart < aEnd {
				sink.Add(diag.New("FieldBitRangeOverlap",
					fmt.Sprintf("fields %q and %q overlap within field set %q", a.field.Name.Original(), b.field.Name.Original(), fs.Name.Original()),
					a.field.FieldAddress.Span).
					WithLabel(b.field.FieldAddress.Span, "overlapping field"))

				return
			}
		}
	}
}
