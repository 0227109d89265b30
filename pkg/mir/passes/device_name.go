package passes

import (
	"fmt"

	"github.com/regspec/ddc/pkg/diag"
	"github.com/regspec/ddc/pkg/mir"
)

// DeviceNameIsPascal is pass 2 of spec §4.3: a device's name must be valid
// PascalCase, stricter than the boundary-splitting validity check every
// other identifier gets. A violating device is dropped from the manifest
// entirely — there is no per-device RemovalSet since Device is not itself
// a mir.Object.
func DeviceNameIsPascal(m *mir.Manifest, sink *diag.Sink) *mir.RemovalSet {
	kept := m.Devices[:0:0]

	for _, dev := range m.Devices {
		if isPascalCase(dev.Name.Original()) {
			kept = append(kept, dev)
			continue
		}

		sink.Add(diag.New("InvalidIdentifier",
			fmt.Sprintf("device name %q is not valid PascalCase", dev.Name.Original()),
			dev.Span))
	}

	m.Devices = kept

	return nil
}

// isPascalCase reports whether s starts with an uppercase ASCII letter and
// contains only letters and digits thereafter (no underscores, hyphens or
// spaces), the stricter rule spec §4.3 pass 2 applies to device names.
func isPascalCase(s string) bool {
	if s == "" {
		return false
	}

	runes := []rune(s)

	if runes[0] < 'A' || runes[0] > 'Z' {
		return false
	}

	for _, r := range runes[1:] {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'

		if !isLetter && !isDigit {
			return false
		}
	}

	return true
}
