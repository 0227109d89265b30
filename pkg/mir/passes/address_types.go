package passes

import (
	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// AddressTypesSpecified is pass 13 of spec §4.3: a device with at least one
// Register, Command or Buffer must declare the matching address type in
// its config. Missing a type makes every object of that class impossible
// to address, so all of them are removed.
func AddressTypesSpecified(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	removal := mir.NewRemovalSet()

	for _, dev := range m.Devices {
		registers := registersIn(dev.Objects)
		if len(registers) > 0 && dev.Config.RegisterAddressType == nil {
			reportMissingAddressType(dev, "register_address_type", sink)

			for _, r := range registers {
				removal.RemoveObject(r.ID())
			}
		}

		commands := commandsIn(dev.Objects)
		if len(commands) > 0 && dev.Config.CommandAddressType == nil {
			reportMissingAddressType(dev, "command_address_type", sink)

			for _, c := range commands {
				removal.RemoveObject(c.ID())
			}
		}

		buffers := buffersIn(dev.Objects)
		if len(buffers) > 0 && dev.Config.BufferAddressType == nil {
			reportMissingAddressType(dev, "buffer_address_type", sink)

			for _, b := range buffers {
				removal.RemoveObject(b.ID())
			}
		}
	}

	return removal
}

func reportMissingAddressType(dev *mir.Device, field string, sink *diag.Sink) {
	sink.Add(diag.New("AddressTypeUndefined",
		"device \""+dev.Name.Original()+"\" uses an object whose address type ("+field+") is not configured",
		dev.Config.Span).
		WithLabel(dev.Span, "device declared here"))
}
