package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// AddressesNonOverlapping is pass 15 of spec §4.3: for each device and each
// of {Register, Command, Buffer}, flag any two claimed addresses that
// coincide without both sides opting into the overlap. This pass is
// informational only — it never removes anything, since two registers at
// the same address may be a deliberate alias.
func AddressesNonOverlapping(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	for _, dev := range m.Devices {
		reportOverlaps(mir.CollectObjectAddresses(dev, mir.IsRegister), sink)
		reportOverlaps(mir.CollectObjectAddresses(dev, mir.IsCommand), sink)
		reportOverlaps(mir.CollectObjectAddresses(dev, mir.IsBuffer), sink)
	}

	return nil
}

func reportOverlaps(addrs []mir.ObjectAddress, sink *diag.Sink) {
	for i := 0; i < len(addrs); i++ {
		for j := i + 1; j < len(addrs); j++ {
			a, b := addrs[i], addrs[j]

			if a.Address.Cmp(b.Address) != 0 {
				continue
			}

			if a.AllowOverlap && b.AllowOverlap {
				continue
			}

			sink.Add(diag.New("AddressOverlap",
				fmt.Sprintf("%s and %s both claim address %s", a.ID, b.ID, a.Address),
				a.Span).
				WithLabel(b.Span, "also claims this address"))
		}
	}
}
