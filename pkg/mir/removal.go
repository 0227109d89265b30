package mir

// RemovalSet collects the IDs of objects (and, for FieldSet/Enum, the names
// of their nested Fields/EnumVariants) that a pass has decided must not
// survive into later passes, per spec §4.3's "a pass returns a RemovalSet
// rather than mutating the tree mid-walk" orchestration rule. Passes run
// over a fully-formed tree and schedule removal instead of deleting
// in-place, so a single walk never observes a partially-edited Manifest.
type RemovalSet struct {
	objects map[string]struct{}
	// fields maps an owning FieldSet/Enum's ID key to the set of
	// child names (Field or EnumVariant NameOriginal) removed from it.
	fields map[string]map[string]struct{}
}

// NewRemovalSet constructs an empty RemovalSet.
func NewRemovalSet() *RemovalSet {
	return &RemovalSet{
		objects: map[string]struct{}{},
		fields:  map[string]map[string]struct{}{},
	}
}

// RemoveObject schedules the object with id for removal.
func (r *RemovalSet) RemoveObject(id ID) {
	r.objects[id.Key()] = struct{}{}
}

// RemoveChild schedules the child named childName belonging to the
// FieldSet or Enum with id owner for removal, without removing owner
// itself.
func (r *RemovalSet) RemoveChild(owner ID, childName string) {
	set, ok := r.fields[owner.Key()]
	if !ok {
		set = map[string]struct{}{}
		r.fields[owner.Key()] = set
	}

	set[childName] = struct{}{}
}

// IsObjectRemoved reports whether id was scheduled for removal.
func (r *RemovalSet) IsObjectRemoved(id ID) bool {
	_, ok := r.objects[id.Key()]
	return ok
}

// IsChildRemoved reports whether childName was scheduled for removal from
// the FieldSet or Enum with id owner.
func (r *RemovalSet) IsChildRemoved(owner ID, childName string) bool {
	set, ok := r.fields[owner.Key()]
	if !ok {
		return false
	}

	_, ok = set[childName]
	return ok
}

// IsEmpty reports whether nothing was scheduled for removal.
func (r *RemovalSet) IsEmpty() bool {
	return len(r.objects) == 0 && len(r.fields) == 0
}

// Merge folds other's entries into r, used by the pass orchestrator to
// accumulate the removals from one pass before applying them (spec §4.3).
func (r *RemovalSet) Merge(other *RemovalSet) {
	if other == nil {
		return
	}

	for k := range other.objects {
		r.objects[k] = struct{}{}
	}

	for owner, children := range other.fields {
		set, ok := r.fields[owner]
		if !ok {
			set = map[string]struct{}{}
			r.fields[owner] = set
		}

		for c := range children {
			set[c] = struct{}{}
		}
	}
}

// Apply removes every scheduled object and child from m in place, then
// resets r to empty so it can be reused by the next pass. Objects are
// filtered out of whichever slice holds them (Device.Objects or a Block's
// nested Objects), and FieldSet/Enum children are filtered out of their
// Fields/Variants slices.
func (r *RemovalSet) Apply(m *Manifest) {
	if r.IsEmpty() {
		return
	}

	for _, dev := range m.Devices {
		dev.Objects = filterObjects(dev.Objects, r)
		applyChildRemovals(dev.Objects, r)
	}

	r.objects = map[string]struct{}{}
	r.fields = map[string]map[string]struct{}{}
}

func filterObjects(objs []Object, r *RemovalSet) []Object {
	out := objs[:0:0]

	for _, o := range objs {
		if r.IsObjectRemoved(o.ID()) {
			continue
		}

		if b, ok := o.(*Block); ok {
			b.Objects = filterObjects(b.Objects, r)
		}

		out = append(out, o)
	}

	return out
}

func applyChildRemovals(objs []Object, r *RemovalSet) {
	for _, o := range objs {
		switch v := o.(type) {
		case *Block:
			applyChildRemovals(v.Objects, r)
		case *FieldSet:
			fields := v.Fields[:0:0]

			for _, f := range v.Fields {
				if r.IsChildRemoved(v.ID(), f.Name.Original()) {
					continue
				}

				fields = append(fields, f)
			}

			v.Fields = fields
		case *Enum:
			variants := v.Variants[:0:0]

			for _, ev := range v.Variants {
				if r.IsChildRemoved(v.ID(), ev.Name.Original()) {
					continue
				}

				variants = append(variants, ev)
			}

			v.Variants = variants
		}
	}
}
