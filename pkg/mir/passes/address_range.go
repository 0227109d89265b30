package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
	"github.com/regspec/ddc/pkg/specval"
)

// AddressTypesBigEnough is pass 14 of spec §4.3: the min and max addresses
// actually reached by each object class must fit inside that class's
// declared address type. An out-of-range class is removed wholesale,
// since partial emission would silently drop whichever objects happened to
// fit.
func AddressTypesBigEnough(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		checkClass(dev, mir.IsRegister, dev.Config.RegisterAddressType, "register_address_type", sink, removal)
		checkClass(dev, mir.IsCommand, dev.Config.CommandAddressType, "command_address_type", sink, removal)
		checkClass(dev, mir.IsBuffer, dev.Config.BufferAddressType, "buffer_address_type", sink, removal)
	}

	return removal
}

func checkClass(dev *mir.Device, filter mir.ObjectFilter, addrType *specval.Integer, field string, sink *diag.Sink, removal *mir.RemovalSet) {
	if addrType == nil {
		return
	}

	min, max, ok := mir.FindMinMaxAddresses(dev, filter)
	if !ok {
		return
	}

	if addrType.Contains(min.Address) && addrType.Contains(max.Address) {
		return
	}

	sink.Add(diag.New("AddressOutOfRange",
		fmt.Sprintf("device %q's %s (%s) cannot reach address %s..%s", dev.Name.Original(), field, addrType, min.Address, max.Address),
		min.Object.ObjSpan()).
		WithLabel(max.Object.ObjSpan(), "reaches the other extreme here"))

	for _, o := range dev.Objects {
		removeClassRecursive(o, filter, removal)
	}
}

func removeClassRecursive(o mir.Object, filter mir.ObjectFilter, removal *mir.RemovalSet) {
	if filter(o) {
		removal.RemoveObject(o.ID())
		return
	}

	if b, ok := o.(*mir.Block); ok {
		for _, child := range b.Objects {
			removeClassRecursive(child, filter, removal)
		}
	}
}
