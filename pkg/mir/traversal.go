package mir

import (
	"math/big"

	"github.com/regspec/ddc/pkg/span"
	"github.com/regspec/ddc/pkg/specval"
)

// WithConfig pairs an Object with the DeviceConfig of its nearest enclosing
// Device, per spec §4.4/§9: rather than each object carrying a back-
// pointer to its device, the iterator recovers this association during the
// walk, which sidesteps any possibility of a reference cycle.
type WithConfig struct {
	Object Object
	Config *DeviceConfig
}

// IterObjects yields every object in the manifest in depth-first,
// declaration order, matching spec §4.4's iter_objects and §5's "iteration
// over objects within a device preserves source order".
func (m *Manifest) IterObjects() []Object {
	var out []Object

	for _, dev := range m.Devices {
		walkObjects(dev.Objects, &out)
	}

	return out
}

func walkObjects(objs []Object, out *[]Object) {
	for _, o := range objs {
		*out = append(*out, o)

		if b, ok := o.(*Block); ok {
			walkObjects(b.Objects, out)
		}
	}
}

// IterObjectsWithConfig yields every object paired with its enclosing
// device's effective config, per spec §4.4's iter_objects_with_config.
func (m *Manifest) IterObjectsWithConfig() []WithConfig {
	var out []WithConfig

	for _, dev := range m.Devices {
		cfg := dev.Config
		walkWithConfig(dev.Objects, &cfg, &out)
	}

	return out
}

func walkWithConfig(objs []Object, cfg *DeviceConfig, out *[]WithConfig) {
	for _, o := range objs {
		*out = append(*out, WithConfig{Object: o, Config: cfg})

		if b, ok := o.(*Block); ok {
			walkWithConfig(b.Objects, cfg, out)
		}
	}
}

// AddressExtent is one endpoint found by FindMinMaxAddresses: the address
// itself and the object that reaches it (possibly via a repeat offset).
type AddressExtent struct {
	Address *big.Int
	Object  Object
}

// ObjectFilter selects which object kinds FindMinMaxAddresses considers;
// e.g. only *Register, only *Command, or only *Buffer (spec §4.3 passes
// 14/15 apply this per device and per object class).
type ObjectFilter func(Object) bool

// IsRegister matches *Register objects.
func IsRegister(o Object) bool { _, ok := o.(*Register); return ok }

// IsCommand matches *Command objects.
func IsCommand(o Object) bool { _, ok := o.(*Command); return ok }

// IsBuffer matches *Buffer objects.
func IsBuffer(o Object) bool { _, ok := o.(*Buffer); return ok }

// FindMinMaxAddresses DFS-walks dev's object tree (honoring nested Block
// address offsets and repeats) and returns the minimum- and maximum-
// reaching AddressExtent among objects matching filter, per spec §4.4.
// Returns ok=false if no object in dev matches filter.
func FindMinMaxAddresses(dev *Device, filter ObjectFilter) (min, max AddressExtent, ok bool) {
	var found bool

	walkAddresses(dev, dev.Objects, big.NewInt(0), filter, func(addr *big.Int, obj Object) {
		if !found {
			min = AddressExtent{new(big.Int).Set(addr), obj}
			max = AddressExtent{new(big.Int).Set(addr), obj}
			found = true

			return
		}

		if addr.Cmp(min.Address) < 0 {
			min = AddressExtent{new(big.Int).Set(addr), obj}
		}

		if addr.Cmp(max.Address) > 0 {
			max = AddressExtent{new(big.Int).Set(addr), obj}
		}
	})

	return min, max, found
}

func walkAddresses(dev *Device, objs []Object, baseOffset *big.Int, filter ObjectFilter, visit func(*big.Int, Object)) {
	for _, o := range objs {
		switch v := o.(type) {
		case *Block:
			childOffset := new(big.Int).Add(baseOffset, v.AddressOffset)
			if v.Repeat == nil {
				walkAddresses(dev, v.Objects, childOffset, filter, visit)
			} else {
				forEachRepeatOffset(dev, v.Repeat, func(mult *big.Int) {
					walkAddresses(dev, v.Objects, new(big.Int).Add(childOffset, mult), filter, visit)
				})
			}
		case *Register:
			if filter(o) {
				visitAddressable(dev, baseOffset, v.Address.Value, v.Repeat, visit, o)
			}
		case *Command:
			if filter(o) {
				visitAddressable(dev, baseOffset, v.Address.Value, v.Repeat, visit, o)
			}
		case *Buffer:
			if filter(o) {
				visitAddressable(dev, baseOffset, v.Address.Value, nil, visit, o)
			}
		}
	}
}

// ObjectAddress is one claimed address reached by a Register, Command or
// Buffer, per spec §4.3 pass 15's `{ id, address, repeat_offset,
// allow_overlap }`.
type ObjectAddress struct {
	ID           ID
	Address      *big.Int
	RepeatOffset *big.Int
	AllowOverlap bool
	Span         span.Span
	Object       Object
}

// CollectObjectAddresses DFS-walks dev's object tree and returns every
// claimed address among objects matching filter (honoring block offsets
// and repeats), unlike FindMinMaxAddresses which keeps only the two
// extremes. Used by the addresses_non_overlapping pass.
func CollectObjectAddresses(dev *Device, filter ObjectFilter) []ObjectAddress {
	var out []ObjectAddress

	walkAddresses(dev, dev.Objects, big.NewInt(0), filter, func(addr *big.Int, obj Object) {
		out = append(out, ObjectAddress{
			ID:           obj.ID(),
			Address:      new(big.Int).Set(addr),
			RepeatOffset: big.NewInt(0),
			AllowOverlap: allowOverlapOf(obj),
			Span:         obj.ObjSpan(),
			Object:       obj,
		})
	})

	return out
}

func allowOverlapOf(o Object) bool {
	if r, ok := o.(*Register); ok {
		return r.AllowAddressOverlap
	}

	return false
}

func visitAddressable(dev *Device, base *big.Int, addr int64, repeat *specval.Repeat, visit func(*big.Int, Object), o Object) {
	abs := new(big.Int).Add(base, big.NewInt(addr))

	if repeat == nil {
		visit(abs, o)
		return
	}

	forEachRepeatOffset(dev, repeat, func(mult *big.Int) {
		visit(new(big.Int).Add(abs, mult), o)
	})
}

// RepeatOffsets returns every address_delta = discriminant*stride that
// repeat produces, in source order. A nil repeat yields a single zero
// offset (no repetition).
func RepeatOffsets(dev *Device, repeat *specval.Repeat) []*big.Int {
	if repeat == nil {
		return []*big.Int{big.NewInt(0)}
	}

	var out []*big.Int

	forEachRepeatOffset(dev, repeat, func(mult *big.Int) {
		out = append(out, mult)
	})

	return out
}

// forEachRepeatOffset invokes f with address_delta = discriminant*stride
// for every repetition of repeat. For a Count source it enumerates
// [0,count); for an Enum source, it consults dev.RepeatDiscriminants,
// populated by the repeat_with_enums_checked pass (spec §4.3 pass 6) since
// specval.Repeat itself only stores the referenced enum's name.
func forEachRepeatOffset(dev *Device, repeat *specval.Repeat, f func(*big.Int)) {
	switch repeat.Source.Kind {
	case specval.RepeatCount:
		for i := uint64(0); i < repeat.Source.Count; i++ {
			f(new(big.Int).Mul(big.NewInt(int64(i)), repeat.Stride))
		}
	case specval.RepeatEnum:
		// A repeat that reaches here unresolved behaves as a single
		// repetition at offset 0, which is safe because pass 6
		// (repeat_with_enums_checked) replaces any invalid enum repeat
		// with Count(1) before address passes run.
		discs := dev.RepeatDiscriminants(repeat)
		if len(discs) == 0 {
			f(big.NewInt(0))
			return
		}

		for _, d := range discs {
			f(new(big.Int).Mul(d, repeat.Stride))
		}
	}
}
