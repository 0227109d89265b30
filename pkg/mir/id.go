package mir

import (
	"fmt"
	"strings"

	"github.com/regspec/ddc/pkg/ident"
)

// ID is a unique object identity: (scope path, name-original, duplicate
// id), per spec §3.5/§9. It is stable across passes, hashable (via Key),
// and decoupled from an object's position in any slice — deleting or
// reordering objects never invalidates an ID held elsewhere.
type ID struct {
	Scope       []string
	NameOriginal string
	DuplicateID *uint64
}

// NewID builds an ID from a scope path and the identifier naming the
// object within that scope.
func NewID(scope []string, name ident.Identifier) ID {
	var dup *uint64

	if d, ok := name.DuplicateID(); ok {
		v := d
		dup = &v
	}

	return ID{Scope: append([]string(nil), scope...), NameOriginal: name.Original(), DuplicateID: dup}
}

// Key renders a stable string suitable for use as a Go map key.
func (id ID) Key() string {
	dup := "-"
	if id.DuplicateID != nil {
		dup = fmt.Sprintf("%x", *id.DuplicateID)
	}

	return strings.Join(id.Scope, "/") + "::" + id.NameOriginal + "::" + dup
}

func (id ID) String() string { return id.Key() }
