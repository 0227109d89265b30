package passes

import (
	"fmt"
	"math/big"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// RepeatWithEnumsChecked is pass 6 of spec §4.3: every Repeat::Enum(name)
// must reference an Enum with no CatchAll variant (a catch-all makes the
// repeat count undefined). Valid references have their variants'
// discriminants cached on the enclosing Device for later address-range
// computation (pkg/mir.Device.RepeatDiscriminants); invalid ones are
// rewritten to Count(1) so every later pass can still treat the repeat as
// well-formed.
func RepeatWithEnumsChecked(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	for _, dev := range m.Devices {
		enumsByName := map[string]*mir.Enum{}
		for _, e := range enumsIn(dev.Objects) {
			enumsByName[e.Name.Original()] = e
		}

		for _, ref := range repeatsIn(dev.Objects) {
			checkRepeatEnum(dev, ref, enumsByName, sink)
		}
	}

	return nil
}

func checkRepeatEnum(dev *mir.Device, ref repeatRef, enumsByName map[string]*mir.Enum, sink *diag.Sink) {
	if ref.Repeat.Source.Kind != specval.RepeatEnum {
		return
	}

	name := ref.Repeat.Source.EnumName

	target, ok := enumsByName[name]
	if !ok {
		sink.Add(diag.New("ReferencedObjectDoesNotExist",
			fmt.Sprintf("repeat references unknown enum %q", name), ref.Owner.ObjSpan()))
		*ref.Repeat = specval.NewRepeat(specval.NewRepeatCount(1), ref.Repeat.Stride)

		return
	}

	if hasCatchAll(target) {
		sink.Add(diag.New("RepeatEnumWithCatchAll",
			fmt.Sprintf("repeat references enum %q, which has a CatchAll variant and so has no fixed repeat count", name),
			ref.Owner.ObjSpan()).
			WithLabel(target.Span, "enum declared here"))
		*ref.Repeat = specval.NewRepeat(specval.NewRepeatCount(1), ref.Repeat.Stride)

		return
	}

	var discs []*big.Int

	for _, v := range target.Variants {
		if v.Discriminant != nil {
			discs = append(discs, v.Discriminant)
		}
	}

	dev.SetRepeatDiscriminants(ref.Repeat, discs)
}

func hasCatchAll(e *mir.Enum) bool {
	for _, v := range e.Variants {
		if v.ValueKind == mir.EnumValueCatchAll {
			return true
		}
	}

	return false
}
